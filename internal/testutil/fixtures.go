package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/auth"
	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Repeated calls accumulate parameters on the same route context.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// WithUser signs userID in for a handler test, bypassing the session cookie.
func WithUser(r *http.Request, userID string) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{ID: userID, Name: "Test " + userID})
}

// Fixtures inserts test data directly, bypassing services.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

func (f *Fixtures) DB() *mongo.Database { return f.db }

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("insert %s fixture: %v", coll, err)
	}
}

// CreateWorkspace inserts a bare workspace owned by ownerUserID with the
// given join code. No members or channels are created.
func (f *Fixtures) CreateWorkspace(ctx context.Context, name, ownerUserID, joinCode string) models.Workspace {
	f.t.Helper()
	now := time.Now().UTC()
	ws := models.Workspace{
		ID:        primitive.NewObjectID(),
		Name:      name,
		UserID:    ownerUserID,
		JoinCode:  joinCode,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "workspaces", ws)
	return ws
}

// AddMember inserts a membership row.
func (f *Fixtures) AddMember(ctx context.Context, workspaceID primitive.ObjectID, userID, role string) models.Member {
	f.t.Helper()
	m := models.Member{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		Role:        role,
		CreatedAt:   time.Now().UTC(),
	}
	f.insert(ctx, "members", m)
	return m
}

// CreateChannel inserts a channel with an already-normalized name.
func (f *Fixtures) CreateChannel(ctx context.Context, workspaceID primitive.ObjectID, name string) models.Channel {
	f.t.Helper()
	ch := models.Channel{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		Name:        name,
		CreatedAt:   time.Now().UTC(),
	}
	f.insert(ctx, "channels", ch)
	return ch
}

// CreateConversation inserts a conversation between two members.
func (f *Fixtures) CreateConversation(ctx context.Context, workspaceID, a, b primitive.ObjectID) models.Conversation {
	f.t.Helper()
	c := models.Conversation{
		ID:          primitive.NewObjectID(),
		WorkspaceID: workspaceID,
		MemberOneID: a,
		MemberTwoID: b,
		CreatedAt:   time.Now().UTC(),
	}
	f.insert(ctx, "conversations", c)
	return c
}

// CreateChannelMessage inserts a plain-text channel message.
func (f *Fixtures) CreateChannelMessage(ctx context.Context, ch models.Channel, author models.Member, text string) models.Message {
	f.t.Helper()
	m := models.Message{
		ID:          primitive.NewObjectID(),
		WorkspaceID: ch.WorkspaceID,
		MemberID:    author.ID,
		ChannelID:   &ch.ID,
		Body:        `{"ops":[{"insert":"` + text + `\n"}]}`,
		Text:        text,
		CreatedAt:   time.Now().UTC(),
	}
	f.insert(ctx, "messages", m)
	return m
}

// CreateConversationMessage inserts a plain-text conversation message.
func (f *Fixtures) CreateConversationMessage(ctx context.Context, conv models.Conversation, author models.Member, text string) models.Message {
	f.t.Helper()
	m := models.Message{
		ID:             primitive.NewObjectID(),
		WorkspaceID:    conv.WorkspaceID,
		MemberID:       author.ID,
		ConversationID: &conv.ID,
		Body:           `{"ops":[{"insert":"` + text + `\n"}]}`,
		Text:           text,
		CreatedAt:      time.Now().UTC(),
	}
	f.insert(ctx, "messages", m)
	return m
}

// Count returns the number of documents in coll matching filter.
func (f *Fixtures) Count(ctx context.Context, coll string, filter bson.M) int64 {
	f.t.Helper()
	n, err := f.db.Collection(coll).CountDocuments(ctx, filter)
	if err != nil {
		f.t.Fatalf("count %s: %v", coll, err)
	}
	return n
}
