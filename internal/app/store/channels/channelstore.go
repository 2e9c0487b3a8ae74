// internal/app/store/channels/channelstore.go
package channelstore

import (
	"context"
	"errors"
	"time"

	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the Mongo collection backing channels.
const Collection = "channels"

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("channel not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts a channel. The name must already be normalized.
func (s *Store) Create(ctx context.Context, workspaceID primitive.ObjectID, name string) (models.Channel, error) {
	ch := models.Channel{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		Name:        name,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, ch); err != nil {
		return models.Channel{}, err
	}
	return ch, nil
}

// GetByID retrieves a channel by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Channel, error) {
	var ch models.Channel
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ch); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Channel{}, ErrNotFound
		}
		return models.Channel{}, err
	}
	return ch, nil
}

// Rename patches the channel name. The name must already be normalized.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"name": name}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a channel by ID. Deleting an absent channel is a no-op.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByWorkspace returns a workspace's channels in creation order.
func (s *Store) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Channel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"workspace_id": workspaceID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	channels := []models.Channel{}
	if err := cur.All(ctx, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}
