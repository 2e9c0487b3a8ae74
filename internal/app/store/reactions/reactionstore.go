// internal/app/store/reactions/reactionstore.go
package reactionstore

import (
	"context"
	"time"

	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is the Mongo collection backing reactions.
const Collection = "reactions"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Toggle removes the member's reaction with the given value if present and
// adds it otherwise. It reports whether the reaction exists afterwards.
func (s *Store) Toggle(ctx context.Context, workspaceID, messageID, memberID primitive.ObjectID, value string) (bool, error) {
	filter := bson.M{"message_id": messageID, "member_id": memberID, "value": value}

	res, err := s.c.DeleteOne(ctx, filter)
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}

	r := models.Reaction{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		MessageID:   messageID,
		MemberID:    memberID,
		Value:       value,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		// A concurrent toggle inserted the same reaction first.
		if wafflemongo.IsDup(err) {
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// ListByMessages returns the reactions of the given messages.
func (s *Store) ListByMessages(ctx context.Context, messageIDs []primitive.ObjectID) ([]models.Reaction, error) {
	if len(messageIDs) == 0 {
		return []models.Reaction{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"message_id": bson.M{"$in": messageIDs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	reactions := []models.Reaction{}
	if err := cur.All(ctx, &reactions); err != nil {
		return nil, err
	}
	return reactions, nil
}
