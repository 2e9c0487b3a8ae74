package resolver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/resolver"
	memberstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/members"
	reactionstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/reactions"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/authz"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/paging"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/search"
	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	"github.com/Bas3L3ss/slackzz-clone/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeSearcher struct {
	hits []search.Hit
}

func (f fakeSearcher) Search(context.Context, search.Query) ([]search.Hit, error) {
	return f.hits, nil
}

type env struct {
	svc     *resolver.Service
	fx      *testutil.Fixtures
	ws      models.Workspace
	admin   models.Member
	member  models.Member
	general models.Channel
}

var (
	owner    = authz.Caller{UserID: "owner"}
	regular  = authz.Caller{UserID: "regular"}
	stranger = authz.Caller{UserID: "stranger"}
)

func setup(t *testing.T, searcher resolver.Searcher) (env, context.Context) {
	t.Helper()
	db := testutil.SetupIndexedTestDB(t)
	ctx, cancel := testutil.TestContext()
	t.Cleanup(cancel)

	fx := testutil.NewFixtures(t, db)
	ws := fx.CreateWorkspace(ctx, "Acme", "owner", "ab12cd")
	gate := authz.NewGate(memberstore.New(db), zap.NewNop())
	return env{
		svc:     resolver.New(db, gate, searcher, zap.NewNop()),
		fx:      fx,
		ws:      ws,
		admin:   fx.AddMember(ctx, ws.ID, "owner", models.RoleAdmin),
		member:  fx.AddMember(ctx, ws.ID, "regular", models.RoleMember),
		general: fx.CreateChannel(ctx, ws.ID, "general"),
	}, ctx
}

func TestNonMembersSeeNothing(t *testing.T) {
	e, ctx := setup(t, nil)
	e.fx.CreateChannelMessage(ctx, e.general, e.admin, "secret")

	for _, c := range []authz.Caller{stranger, {}} {
		ws, err := e.svc.ListWorkspaces(ctx, c)
		if err != nil || len(ws) != 0 {
			t.Errorf("ListWorkspaces(%q) = %v, %v", c.UserID, ws, err)
		}
		if got, err := e.svc.GetWorkspace(ctx, c, e.ws.ID); err != nil || got != nil {
			t.Errorf("GetWorkspace(%q) = %v, %v", c.UserID, got, err)
		}
		if got, err := e.svc.CurrentMember(ctx, c, e.ws.ID); err != nil || got != nil {
			t.Errorf("CurrentMember(%q) = %v, %v", c.UserID, got, err)
		}
		if got, err := e.svc.ListMembers(ctx, c, e.ws.ID); err != nil || len(got) != 0 {
			t.Errorf("ListMembers(%q) = %v, %v", c.UserID, got, err)
		}
		if got, err := e.svc.ListChannels(ctx, c, e.ws.ID); err != nil || len(got) != 0 {
			t.Errorf("ListChannels(%q) = %v, %v", c.UserID, got, err)
		}
		if got, err := e.svc.GetChannel(ctx, c, e.general.ID); err != nil || got != nil {
			t.Errorf("GetChannel(%q) = %v, %v", c.UserID, got, err)
		}
		page, err := e.svc.ListMessages(ctx, c, resolver.Target{WorkspaceID: e.ws.ID, ChannelID: &e.general.ID}, "", 10)
		if err != nil || len(page.Items) != 0 || page.Status != paging.Exhausted {
			t.Errorf("ListMessages(%q) = %+v, %v", c.UserID, page, err)
		}
		if got, err := e.svc.ListNotifications(ctx, c, e.ws.ID); err != nil || len(got) != 0 {
			t.Errorf("ListNotifications(%q) = %v, %v", c.UserID, got, err)
		}
	}
}

func TestWorkspaces_JoinCodeVisibleToAdminsOnly(t *testing.T) {
	e, ctx := setup(t, nil)

	list, err := e.svc.ListWorkspaces(ctx, owner)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListWorkspaces(owner) = %v, %v", list, err)
	}
	if list[0].JoinCode != "ab12cd" {
		t.Errorf("admin join code = %q", list[0].JoinCode)
	}

	got, err := e.svc.GetWorkspace(ctx, regular, e.ws.ID)
	if err != nil || got == nil {
		t.Fatalf("GetWorkspace(regular) = %v, %v", got, err)
	}
	if got.JoinCode != "" {
		t.Errorf("member sees join code %q", got.JoinCode)
	}
}

func TestListWorkspaces_SkipsDeletedWorkspace(t *testing.T) {
	e, ctx := setup(t, nil)
	gone := e.fx.CreateWorkspace(ctx, "Gone", "owner", "zzzzzz")
	e.fx.AddMember(ctx, gone.ID, "owner", models.RoleAdmin)
	if _, err := e.fx.DB().Collection("workspaces").DeleteOne(ctx, map[string]any{"_id": gone.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	list, err := e.svc.ListWorkspaces(ctx, owner)
	if err != nil {
		t.Fatalf("ListWorkspaces: %v", err)
	}
	if len(list) != 1 || list[0].ID != e.ws.ID {
		t.Errorf("ListWorkspaces = %v, want only Acme", list)
	}
}

func TestListMessages_PagesNewestFirst(t *testing.T) {
	e, ctx := setup(t, nil)
	var ids []primitive.ObjectID
	for i := 0; i < 5; i++ {
		ids = append(ids, e.fx.CreateChannelMessage(ctx, e.general, e.admin, "m").ID)
	}
	target := resolver.Target{WorkspaceID: e.ws.ID, ChannelID: &e.general.ID}

	first, err := e.svc.ListMessages(ctx, regular, target, "", 2)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Items) != 2 || first.Items[0].ID != ids[4] || first.Items[1].ID != ids[3] {
		t.Fatalf("first page = %+v", first.Items)
	}
	if first.Status != paging.CanLoadMore || first.Cursor == "" {
		t.Fatalf("first page status = %s cursor = %q", first.Status, first.Cursor)
	}

	second, err := e.svc.ListMessages(ctx, regular, target, first.Cursor, 2)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Items) != 2 || second.Items[0].ID != ids[2] {
		t.Fatalf("second page = %+v", second.Items)
	}

	third, err := e.svc.ListMessages(ctx, regular, target, second.Cursor, 2)
	if err != nil {
		t.Fatalf("third page: %v", err)
	}
	if len(third.Items) != 1 || third.Status != paging.Exhausted {
		t.Fatalf("third page = %+v status %s", third.Items, third.Status)
	}

	if _, err := e.svc.ListMessages(ctx, regular, target, "bad!cursor", 2); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("bad cursor err = %v, want ErrInvalidInput", err)
	}
}

func TestFeed_WalksAllPages(t *testing.T) {
	e, ctx := setup(t, nil)
	for i := 0; i < 3; i++ {
		e.fx.CreateChannelMessage(ctx, e.general, e.admin, "m")
	}
	feed := e.svc.Feed(regular, resolver.Target{WorkspaceID: e.ws.ID, ChannelID: &e.general.ID}, 2)
	if feed.Status() != paging.LoadingFirstPage {
		t.Fatalf("initial status = %s", feed.Status())
	}
	for feed.Status() != paging.Exhausted {
		if err := feed.LoadMore(ctx); err != nil {
			t.Fatalf("LoadMore: %v", err)
		}
	}
	if n := len(feed.Items()); n != 3 {
		t.Errorf("items = %d, want 3", n)
	}
}

func TestConversationMessages_ParticipantsOnly(t *testing.T) {
	e, ctx := setup(t, nil)
	third := e.fx.AddMember(ctx, e.ws.ID, "third", models.RoleMember)
	conv := e.fx.CreateConversation(ctx, e.ws.ID, e.admin.ID, third.ID)
	_, err := e.fx.DB().Collection("messages").InsertOne(ctx, models.Message{
		ID:             primitive.NewObjectID(),
		WorkspaceID:    e.ws.ID,
		MemberID:       e.admin.ID,
		ConversationID: &conv.ID,
		Body:           `{"ops":[{"insert":"psst\n"}]}`,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	target := resolver.Target{WorkspaceID: e.ws.ID, ConversationID: &conv.ID}

	page, err := e.svc.ListMessages(ctx, regular, target, "", 10)
	if err != nil || len(page.Items) != 0 {
		t.Errorf("outsider page = %+v, %v", page.Items, err)
	}
	page, err = e.svc.ListMessages(ctx, authz.Caller{UserID: "third"}, target, "", 10)
	if err != nil || len(page.Items) != 1 {
		t.Errorf("participant page = %+v, %v", page.Items, err)
	}
}

func TestGetMessage_GroupsReactions(t *testing.T) {
	e, ctx := setup(t, nil)
	msg := e.fx.CreateChannelMessage(ctx, e.general, e.admin, "hi")
	rs := reactionstore.New(e.fx.DB())
	for _, r := range []struct {
		member models.Member
		value  string
	}{{e.admin, "👍"}, {e.member, "👍"}, {e.member, "🎉"}} {
		if _, err := rs.Toggle(ctx, e.ws.ID, msg.ID, r.member.ID, r.value); err != nil {
			t.Fatalf("Toggle: %v", err)
		}
	}

	v, err := e.svc.GetMessage(ctx, regular, msg.ID)
	if err != nil || v == nil {
		t.Fatalf("GetMessage = %v, %v", v, err)
	}
	counts := map[string]int{}
	for _, r := range v.Reactions {
		counts[r.Value] = r.Count
	}
	if counts["👍"] != 2 || counts["🎉"] != 1 {
		t.Errorf("reaction counts = %v", counts)
	}

	if v, err := e.svc.GetMessage(ctx, stranger, msg.ID); err != nil || v != nil {
		t.Errorf("stranger GetMessage = %v, %v", v, err)
	}
	if v, err := e.svc.GetMessage(ctx, regular, primitive.NewObjectID()); err != nil || v != nil {
		t.Errorf("missing GetMessage = %v, %v", v, err)
	}
}

func TestSearchMessages_DropsDeletedAndSanitizes(t *testing.T) {
	hits := []search.Hit{}
	s := &fakeSearcher{}
	e, ctx := setup(t, s)
	live := e.fx.CreateChannelMessage(ctx, e.general, e.admin, "deploy")

	hits = append(hits,
		search.Hit{MessageID: live.ID.Hex(), Snippet: `<mark>deploy</mark><script>x()</script>`},
		search.Hit{MessageID: primitive.NewObjectID().Hex(), Snippet: "gone"},
		search.Hit{MessageID: "not-an-id", Snippet: "junk"},
	)
	s.hits = hits

	got, err := e.svc.SearchMessages(ctx, regular, e.ws.ID, "deploy", 0)
	if err != nil {
		t.Fatalf("SearchMessages: %v", err)
	}
	if len(got) != 1 || got[0].MessageID != live.ID.Hex() {
		t.Fatalf("hits = %+v, want only the live message", got)
	}
	if got[0].Snippet != "<mark>deploy</mark>" {
		t.Errorf("snippet = %q", got[0].Snippet)
	}

	if got, err := e.svc.SearchMessages(ctx, stranger, e.ws.ID, "deploy", 0); err != nil || len(got) != 0 {
		t.Errorf("stranger search = %v, %v", got, err)
	}
}
