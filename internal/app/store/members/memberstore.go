// internal/app/store/members/memberstore.go
package memberstore

// Terminology: User Identifiers
//   - UserID / userID / user_id: the opaque id issued by the identity provider
//   - MemberID / memberID / member_id: the Mongo _id of a workspace membership

import (
	"context"
	"errors"
	"time"

	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the Mongo collection backing members.
const Collection = "members"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

var errBadRole = errors.New(`role must be "admin" or "member"`)

var (
	ErrDuplicateMember = errors.New("user is already a member of this workspace")
	ErrNotFound        = errors.New("member not found")
)

// Add creates a membership for (workspaceID, userID).
// The unique (workspace_id, user_id) index turns a racing second insert into
// ErrDuplicateMember.
func (s *Store) Add(ctx context.Context, workspaceID primitive.ObjectID, userID, role string) (models.Member, error) {
	if role != models.RoleAdmin && role != models.RoleMember {
		return models.Member{}, errBadRole
	}
	m := models.Member{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		Role:        role,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateMember
		}
		return models.Member{}, err
	}
	return m, nil
}

// FindByWorkspaceUser returns the memberships matching (workspaceID, userID).
// At most two rows are fetched: callers only need to distinguish "none",
// "one" and "more than one".
func (s *Store) FindByWorkspaceUser(ctx context.Context, workspaceID primitive.ObjectID, userID string) ([]models.Member, error) {
	opts := options.Find().SetLimit(2)
	cur, err := s.c.Find(ctx, bson.M{"workspace_id": workspaceID, "user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var members []models.Member
	if err := cur.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// GetByID retrieves a member by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Member{}, ErrNotFound
		}
		return models.Member{}, err
	}
	return m, nil
}

// ListByUser returns every membership held by userID, oldest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]models.Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return s.find(ctx, bson.M{"user_id": userID}, opts)
}

// ListByWorkspace returns every membership of a workspace, oldest first.
func (s *Store) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]models.Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return s.find(ctx, bson.M{"workspace_id": workspaceID}, opts)
}

// InWorkspace returns the subset of ids that are members of workspaceID.
func (s *Store) InWorkspace(ctx context.Context, workspaceID primitive.ObjectID, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	result := make(map[primitive.ObjectID]bool, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	members, err := s.find(ctx, bson.M{"workspace_id": workspaceID, "_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		result[m.ID] = true
	}
	return result, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Member, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	members := []models.Member{}
	if err := cur.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}
