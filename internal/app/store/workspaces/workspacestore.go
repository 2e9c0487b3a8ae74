// internal/app/store/workspaces/workspacestore.go
package workspacestore

import (
	"context"
	"errors"
	"time"

	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection is the Mongo collection backing workspaces.
const Collection = "workspaces"

type Store struct {
	c *mongo.Collection
}

var ErrNotFound = errors.New("workspace not found")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts a new workspace. ID and timestamps are assigned here.
func (s *Store) Create(ctx context.Context, ws models.Workspace) (models.Workspace, error) {
	now := time.Now().UTC()
	ws.ID = primitive.NewObjectID()
	ws.CreatedAt = now
	ws.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, ws); err != nil {
		return models.Workspace{}, err
	}
	return ws, nil
}

// GetByID retrieves a workspace by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error) {
	var ws models.Workspace
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ws)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Workspace{}, ErrNotFound
		}
		return models.Workspace{}, err
	}
	return ws, nil
}

// FindByIDs returns the workspaces with the given IDs. Missing IDs are skipped,
// so a workspace deleted between the membership scan and this call simply
// does not appear.
func (s *Store) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Workspace, error) {
	if len(ids) == 0 {
		return []models.Workspace{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	workspaces := []models.Workspace{}
	if err := cur.All(ctx, &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

// Update patches the name and image of a workspace.
// A nil imageURL clears the image.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name string, imageURL *string) error {
	update := bson.M{
		"$set": bson.M{
			"name":       name,
			"updated_at": time.Now().UTC(),
		},
	}
	if imageURL != nil {
		update["$set"].(bson.M)["image_url"] = *imageURL
	} else {
		update["$unset"] = bson.M{"image_url": ""}
	}
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetJoinCode overwrites the workspace's join code.
func (s *Store) SetJoinCode(ctx context.Context, id primitive.ObjectID, code string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"join_code":  code,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a workspace by ID. Deleting an absent workspace is not an error.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
