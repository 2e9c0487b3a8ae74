package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workspace is the top-level tenant boundary in slackzz.
// Every member, channel, conversation, message, reaction and notification
// belongs to exactly one workspace via its workspace_id field.
type Workspace struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Name string `bson:"name" json:"name"`

	// UserID is the identity-provider id of the user who created the workspace.
	UserID string `bson:"user_id" json:"user_id"`

	// JoinCode is the 6-character lowercase base-36 admission token.
	// It is never serialized to clients that are not admins (see features/workspaces).
	JoinCode string `bson:"join_code" json:"join_code,omitempty"`

	ImageURL *string `bson:"image_url,omitempty" json:"image_url,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasImage returns true if the workspace has an image set.
func (w Workspace) HasImage() bool {
	return w.ImageURL != nil && *w.ImageURL != ""
}
