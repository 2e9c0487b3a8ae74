package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reaction is an emoji reaction left by a member on a message.
// At most one per (message_id, member_id, value), enforced by a unique index.
type Reaction struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	MessageID   primitive.ObjectID `bson:"message_id" json:"message_id"`
	MemberID    primitive.ObjectID `bson:"member_id" json:"member_id"`
	Value       string             `bson:"value" json:"value"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
