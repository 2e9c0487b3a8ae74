package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

const idxMessages = "slackzz_messages"

// Meili implements Indexer and the primary search path via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	log     *zap.Logger
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a client, configures the index when reachable and starts
// a health monitor that reconfigures after recovery.
func NewMeili(url, apiKey string, log *zap.Logger) *Meili {
	m := &Meili{
		client: meili.New(url, meili.WithAPIKey(apiKey)),
		log:    log,
		done:   make(chan struct{}),
	}

	if _, err := m.client.Health(); err != nil {
		log.Warn("meilisearch unavailable", zap.String("url", url), zap.Error(err))
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{Uid: idxMessages, PrimaryKey: "id"}); err != nil {
		m.log.Debug("create index (may already exist)", zap.String("index", idxMessages), zap.Error(err))
	}

	index := m.client.Index(idxMessages)
	filterable := []interface{}{"workspaceId", "channelId"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		m.log.Warn("update filterable attributes", zap.String("index", idxMessages), zap.Error(err))
	}
	searchable := []string{"text"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		m.log.Warn("update searchable attributes", zap.String("index", idxMessages), zap.Error(err))
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			was := m.healthy.Swap(err == nil)
			if err == nil && !was {
				m.log.Info("meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the health monitor.
func (m *Meili) Close() { close(m.done) }

// Healthy reports whether Meilisearch answered the last health check.
func (m *Meili) Healthy() bool { return m.healthy.Load() }

// Search runs q against the messages index.
func (m *Meili) Search(q Query) ([]Hit, error) {
	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: []*meili.SearchRequest{buildRequest(q)},
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var hits []Hit
	for _, r := range resp.Results {
		for _, h := range r.Hits {
			hits = append(hits, hitFrom(h))
		}
	}
	return hits, nil
}

func buildRequest(q Query) *meili.SearchRequest {
	return &meili.SearchRequest{
		IndexUID:              idxMessages,
		Query:                 q.Text,
		Limit:                 int64(q.Limit),
		Filter:                []string{fmt.Sprintf("workspaceId = %q", q.WorkspaceID)},
		AttributesToHighlight: []string{"text"},
		HighlightPreTag:       "<mark>",
		HighlightPostTag:      "</mark>",
	}
}

func hitFrom(h meili.Hit) Hit {
	out := Hit{
		MessageID: decodeString(h, "id"),
		ChannelID: decodeString(h, "channelId"),
		MemberID:  decodeString(h, "memberId"),
		Snippet:   decodeFormatted(h, "text"),
	}
	if out.Snippet == "" {
		out.Snippet = decodeString(h, "text")
	}
	return out
}

func decodeString(h meili.Hit, key string) string {
	var s string
	if raw, ok := h[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

func decodeFormatted(h meili.Hit, key string) string {
	raw, ok := h["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]json.RawMessage
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	var s string
	_ = json.Unmarshal(formatted[key], &s)
	return strings.TrimSpace(s)
}

// IndexMessage adds or replaces one record.
func (m *Meili) IndexMessage(_ context.Context, rec MessageRecord) error {
	_, err := m.client.Index(idxMessages).AddDocuments([]MessageRecord{rec}, nil)
	return err
}

// DeleteMessages removes records by id. It keeps going past individual
// failures and returns the first one.
func (m *Meili) DeleteMessages(_ context.Context, ids []string) error {
	var first error
	index := m.client.Index(idxMessages)
	for _, id := range ids {
		if _, err := index.DeleteDocument(id, nil); err != nil && first == nil {
			first = err
		}
	}
	return first
}
