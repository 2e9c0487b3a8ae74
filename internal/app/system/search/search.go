// Package search indexes channel messages and answers text queries over them.
//
// Meilisearch is the primary engine. When it is not configured or not
// healthy, queries fall back to a regex scan of the messages collection.
package search

import (
	"context"

	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MessageRecord is the indexed form of a channel message.
type MessageRecord struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspaceId"`
	ChannelID   string `json:"channelId"`
	MemberID    string `json:"memberId"`
	Text        string `json:"text"`
	CreatedAt   int64  `json:"createdAt"`
}

// RecordFor builds the index record of m. ok is false for messages that are
// not indexed (conversation messages).
func RecordFor(m models.Message) (MessageRecord, bool) {
	if m.ChannelID == nil {
		return MessageRecord{}, false
	}
	return MessageRecord{
		ID:          m.ID.Hex(),
		WorkspaceID: m.WorkspaceID.Hex(),
		ChannelID:   m.ChannelID.Hex(),
		MemberID:    m.MemberID.Hex(),
		Text:        m.Text,
		CreatedAt:   m.CreatedAt.Unix(),
	}, true
}

// Query selects messages of one workspace matching Text.
type Query struct {
	WorkspaceID string
	Text        string
	Limit       int
}

// Hit is one matching message. Snippet may carry <mark> highlight tags.
type Hit struct {
	MessageID string `json:"message_id"`
	ChannelID string `json:"channel_id"`
	MemberID  string `json:"member_id"`
	Snippet   string `json:"snippet"`
}

// DefaultLimit applies when Query.Limit is zero.
const DefaultLimit = 20

// Indexer receives message writes.
type Indexer interface {
	IndexMessage(ctx context.Context, rec MessageRecord) error
	DeleteMessages(ctx context.Context, ids []string) error
}

// Fallback is the database-side text scan used when Meilisearch is down.
// messagestore.Store satisfies it.
type Fallback interface {
	SearchText(ctx context.Context, workspaceID primitive.ObjectID, text string, limit int) ([]models.Message, error)
}

// Service routes queries to Meilisearch when healthy and to the fallback
// otherwise. Index writes are best-effort.
type Service struct {
	meili    *Meili
	fallback Fallback
	log      *zap.Logger
}

// NewService builds a Service. meili may be nil.
func NewService(meili *Meili, fallback Fallback, log *zap.Logger) *Service {
	return &Service{meili: meili, fallback: fallback, log: log}
}

func (s *Service) engineUp() bool {
	return s.meili != nil && s.meili.Healthy()
}

// Enabled reports whether a Meilisearch engine is configured.
func (s *Service) Enabled() bool { return s.meili != nil }

// Healthy reports whether queries currently go to Meilisearch.
func (s *Service) Healthy() bool { return s.engineUp() }

// Search runs q. Results are empty, never nil.
func (s *Service) Search(ctx context.Context, q Query) ([]Hit, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if s.engineUp() {
		hits, err := s.meili.Search(q)
		if err == nil {
			return nonNil(hits), nil
		}
		s.log.Warn("meilisearch query failed, using fallback", zap.Error(err))
	}

	wsID, err := primitive.ObjectIDFromHex(q.WorkspaceID)
	if err != nil {
		return []Hit{}, nil
	}
	msgs, err := s.fallback.SearchText(ctx, wsID, q.Text, q.Limit)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(msgs))
	for _, m := range msgs {
		rec, ok := RecordFor(m)
		if !ok {
			continue
		}
		hits = append(hits, Hit{MessageID: rec.ID, ChannelID: rec.ChannelID, MemberID: rec.MemberID, Snippet: rec.Text})
	}
	return hits, nil
}

// IndexMessage indexes rec if Meilisearch is up.
func (s *Service) IndexMessage(ctx context.Context, rec MessageRecord) error {
	if !s.engineUp() {
		return nil
	}
	return s.meili.IndexMessage(ctx, rec)
}

// DeleteMessages removes ids from the index if Meilisearch is up.
// Entries left behind while it is down are filtered out at query time by the
// caller's existence check.
func (s *Service) DeleteMessages(ctx context.Context, ids []string) error {
	if !s.engineUp() || len(ids) == 0 {
		return nil
	}
	return s.meili.DeleteMessages(ctx, ids)
}

// Close stops background health checks.
func (s *Service) Close() {
	if s.meili != nil {
		s.meili.Close()
	}
}

func nonNil(h []Hit) []Hit {
	if h == nil {
		return []Hit{}
	}
	return h
}
