// internal/app/store/messages/messagestore.go
package messagestore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/paging"
	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the Mongo collection backing messages.
const Collection = "messages"

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound  = errors.New("message not found")
	errBadTarget = errors.New("message must reference exactly one of channel or conversation")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts a message. ID and timestamp are assigned here.
func (s *Store) Create(ctx context.Context, m models.Message) (models.Message, error) {
	if (m.ChannelID == nil) == (m.ConversationID == nil) {
		return models.Message{}, errBadTarget
	}
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Message{}, err
	}
	return m, nil
}

// GetByID retrieves a message by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Message, error) {
	var m models.Message
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Message{}, ErrNotFound
		}
		return models.Message{}, err
	}
	return m, nil
}

// Stream selects the messages of one channel or conversation.
// A nil ParentMessageID selects top-level messages only; a set one selects the
// replies of that thread.
type Stream struct {
	ChannelID       *primitive.ObjectID
	ConversationID  *primitive.ObjectID
	ParentMessageID *primitive.ObjectID
}

func (st Stream) filter() (bson.M, error) {
	if (st.ChannelID == nil) == (st.ConversationID == nil) {
		return nil, errBadTarget
	}
	filter := bson.M{}
	if st.ChannelID != nil {
		filter["channel_id"] = *st.ChannelID
	} else {
		filter["conversation_id"] = *st.ConversationID
	}
	if st.ParentMessageID != nil {
		filter["parent_message_id"] = *st.ParentMessageID
	} else {
		filter["parent_message_id"] = bson.M{"$exists": false}
	}
	return filter, nil
}

// ListPage returns one reverse-chronological page of a stream, starting just
// before cursor ("" for the newest page).
func (s *Store) ListPage(ctx context.Context, st Stream, cursor string, size int) (paging.Page[models.Message], error) {
	filter, err := st.filter()
	if err != nil {
		return paging.Page[models.Message]{}, err
	}
	size = paging.ClampSize(size)
	filter, err = paging.ApplyBefore(filter, cursor)
	if err != nil {
		return paging.Page[models.Message]{}, err
	}

	cur, err := s.c.Find(ctx, filter, paging.NewestFirst(size))
	if err != nil {
		return paging.Page[models.Message]{}, err
	}
	defer cur.Close(ctx)

	var rows []models.Message
	if err := cur.All(ctx, &rows); err != nil {
		return paging.Page[models.Message]{}, err
	}
	return paging.TrimPage(rows, size, func(m models.Message) primitive.ObjectID { return m.ID }), nil
}

// SearchText scans the workspace's channel messages for a case-insensitive
// substring match on their plain text, newest first. It backs search when
// the index engine is unavailable.
func (s *Store) SearchText(ctx context.Context, workspaceID primitive.ObjectID, text string, limit int) ([]models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []models.Message{}, nil
	}
	filter := bson.M{
		"workspace_id": workspaceID,
		"channel_id":   bson.M{"$exists": true},
		"text":         primitive.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(paging.ClampSize(limit)))

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Message{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExistingIDs returns the subset of ids that still exist in workspaceID.
func (s *Store) ExistingIDs(ctx context.Context, workspaceID primitive.ObjectID, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	out := make(map[primitive.ObjectID]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.c.Find(ctx, bson.M{"workspace_id": workspaceID, "_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = true
	}
	return out, cur.Err()
}
