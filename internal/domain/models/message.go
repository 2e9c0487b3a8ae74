package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a rich-text post in either a channel or a conversation.
// Exactly one of ChannelID and ConversationID is set.
//
// Body is the serialized rich-text document (a Quill delta, see
// system/richtext) after mention rewriting. Text is its flattened form,
// kept for previews and the search fallback.
type Message struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	WorkspaceID     primitive.ObjectID  `bson:"workspace_id" json:"workspace_id"`
	MemberID        primitive.ObjectID  `bson:"member_id" json:"member_id"`
	ChannelID       *primitive.ObjectID `bson:"channel_id,omitempty" json:"channel_id,omitempty"`
	ConversationID  *primitive.ObjectID `bson:"conversation_id,omitempty" json:"conversation_id,omitempty"`
	ParentMessageID *primitive.ObjectID `bson:"parent_message_id,omitempty" json:"parent_message_id,omitempty"`
	Body            string              `bson:"body" json:"body"`
	Text            string              `bson:"text,omitempty" json:"-"` // plain-text projection of Body
	Attachments     []string            `bson:"attachments,omitempty" json:"attachments,omitempty"`
	CreatedAt       time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt       *time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// InChannel reports whether the message was posted to a channel.
func (m Message) InChannel() bool {
	return m.ChannelID != nil
}
