package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultChannelName is the channel created alongside every new workspace.
const DefaultChannelName = "general"

// Channel is a named, workspace-scoped message stream.
// Name is always stored normalized (see system/normalize.ChannelName).
type Channel struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	Name        string             `bson:"name" json:"name"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
