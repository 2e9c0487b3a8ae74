package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Member is a user's workspace-scoped identity.
// Exactly one document per (workspace_id, user_id); it is the sole proof of
// access to anything inside the workspace.
type Member struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	Role        string             `bson:"role" json:"role"` // "admin" | "member"
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// IsAdmin reports whether the member holds the admin role.
func (m Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}
