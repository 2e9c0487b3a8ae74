package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification kinds. Only mentions create notifications today.
const NotificationMention = "mention"

// Notification tells a member they were mentioned in a message.
type Notification struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID   `bson:"workspace_id" json:"workspace_id"`
	MemberID    primitive.ObjectID   `bson:"member_id" json:"member_id"` // recipient
	MessageID   primitive.ObjectID   `bson:"message_id" json:"message_id"`
	ChannelID   *primitive.ObjectID  `bson:"channel_id,omitempty" json:"channel_id,omitempty"`
	Kind        string               `bson:"kind" json:"kind"`
	Metadata    NotificationMetadata `bson:"metadata" json:"metadata"`
	ReadAt      *time.Time           `bson:"read_at,omitempty" json:"read_at,omitempty"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
}

// NotificationMetadata carries display context for a notification.
type NotificationMetadata struct {
	WorkspaceID    primitive.ObjectID  `bson:"workspace_id" json:"workspace_id"`
	AuthorMemberID primitive.ObjectID  `bson:"author_member_id" json:"author_member_id"`
	ConversationID *primitive.ObjectID `bson:"conversation_id,omitempty" json:"conversation_id,omitempty"`
	Preview        string              `bson:"preview,omitempty" json:"preview,omitempty"`
}
