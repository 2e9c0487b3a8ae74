// internal/app/store/conversations/conversationstore.go
package conversationstore

import (
	"context"
	"errors"
	"time"

	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is the Mongo collection backing conversations.
const Collection = "conversations"

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("conversation not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// pairFilter matches the conversation between a and b in either order.
func pairFilter(workspaceID, a, b primitive.ObjectID) bson.M {
	return bson.M{
		"workspace_id": workspaceID,
		"$or": []bson.M{
			{"member_one_id": a, "member_two_id": b},
			{"member_one_id": b, "member_two_id": a},
		},
	}
}

// FindPair returns the conversation between a and b, if any.
func (s *Store) FindPair(ctx context.Context, workspaceID, a, b primitive.ObjectID) (models.Conversation, error) {
	var conv models.Conversation
	if err := s.c.FindOne(ctx, pairFilter(workspaceID, a, b)).Decode(&conv); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Conversation{}, ErrNotFound
		}
		return models.Conversation{}, err
	}
	return conv, nil
}

// CreateOrGet returns the conversation between a and b, creating it when absent.
// New rows store the pair in ascending id order, so the unique index on
// (workspace_id, member_one_id, member_two_id) turns a racing second insert
// into a lookup. The boolean reports whether a new document was inserted.
func (s *Store) CreateOrGet(ctx context.Context, workspaceID, a, b primitive.ObjectID) (models.Conversation, bool, error) {
	conv, err := s.FindPair(ctx, workspaceID, a, b)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.Conversation{}, false, err
	}

	if b.Hex() < a.Hex() {
		a, b = b, a
	}
	conv = models.Conversation{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		MemberOneID: a,
		MemberTwoID: b,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, conv); err != nil {
		if wafflemongo.IsDup(err) {
			conv, err = s.FindPair(ctx, workspaceID, a, b)
			return conv, false, err
		}
		return models.Conversation{}, false, err
	}
	return conv, true, nil
}

// GetByID retrieves a conversation by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Conversation, error) {
	var conv models.Conversation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&conv); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Conversation{}, ErrNotFound
		}
		return models.Conversation{}, err
	}
	return conv, nil
}
