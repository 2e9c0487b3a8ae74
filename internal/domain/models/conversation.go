package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is a private two-party message stream within a workspace.
// There is at most one conversation per unordered member pair.
type Conversation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspace_id"`
	MemberOneID primitive.ObjectID `bson:"member_one_id" json:"member_one_id"`
	MemberTwoID primitive.ObjectID `bson:"member_two_id" json:"member_two_id"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// HasParticipant reports whether memberID is one of the two participants.
func (c Conversation) HasParticipant(memberID primitive.ObjectID) bool {
	return c.MemberOneID == memberID || c.MemberTwoID == memberID
}
