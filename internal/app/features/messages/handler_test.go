package messages_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	uierrors "github.com/Bas3L3ss/slackzz-clone/internal/app/features/errors"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/features/messages"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/compose"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/lifecycle"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/resolver"
	memberstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/members"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/authz"
	"github.com/Bas3L3ss/slackzz-clone/internal/domain/models"
	"github.com/Bas3L3ss/slackzz-clone/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type env struct {
	router  http.Handler
	fx      *testutil.Fixtures
	ws      models.Workspace
	alice   models.Member
	bob     models.Member
	general models.Channel
}

func setup(t *testing.T) env {
	t.Helper()
	db := testutil.SetupIndexedTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	logger := zap.NewNop()
	gate := authz.NewGate(memberstore.New(db), logger)

	h := messages.NewHandler(
		compose.New(db, gate, nil, nil, nil, compose.Options{BaseURL: "https://app.example"}, logger),
		lifecycle.New(db, gate, nil, logger),
		resolver.New(db, gate, nil, logger),
		uierrors.NewErrorLogger(logger),
		logger,
	)
	r := chi.NewRouter()
	messages.MountRoutes(r, h)

	fx := testutil.NewFixtures(t, db)
	ws := fx.CreateWorkspace(ctx, "Acme", "alice", "ab12cd")
	return env{
		router:  r,
		fx:      fx,
		ws:      ws,
		alice:   fx.AddMember(ctx, ws.ID, "alice", models.RoleAdmin),
		bob:     fx.AddMember(ctx, ws.ID, "bob", models.RoleMember),
		general: fx.CreateChannel(ctx, ws.ID, "general"),
	}
}

func (e env) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req = testutil.WithUser(req, user)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestSendListAndReact(t *testing.T) {
	e := setup(t)
	base := "/workspaces/" + e.ws.ID.Hex() + "/messages"

	payload := fmt.Sprintf(`{"channel_id":%q,"body":{"ops":[{"insert":"hi "},{"insert":{"mention":{"denotationChar":"@","id":%q,"value":"bob"}}},{"insert":"\n"}]}}`,
		e.general.ID.Hex(), e.bob.ID.Hex())
	rec := e.do(t, "POST", base, "alice", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("send status = %d body = %s", rec.Code, rec.Body)
	}
	var sent compose.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &sent); err != nil {
		t.Fatalf("decode send: %v", err)
	}
	if sent.Notified != 1 {
		t.Errorf("notified = %d, want 1", sent.Notified)
	}

	rec = e.do(t, "GET", base+"?channel_id="+e.general.ID.Hex(), "bob", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d body = %s", rec.Code, rec.Body)
	}
	var page struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Cursor string `json:"cursor"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != sent.Message.ID.Hex() || page.Cursor != "" {
		t.Fatalf("page = %+v", page)
	}

	rec = e.do(t, "GET", base+"?channel_id="+e.general.ID.Hex()+"&cursor=bad!cursor", "bob", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad cursor status = %d, want 400", rec.Code)
	}

	react := "/messages/" + sent.Message.ID.Hex() + "/reactions"
	rec = e.do(t, "POST", react, "bob", `{"value":"👍"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"active":true`) {
		t.Fatalf("react = %d %s", rec.Code, rec.Body)
	}
	rec = e.do(t, "GET", "/messages/"+sent.Message.ID.Hex(), "alice", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"count":1`) {
		t.Errorf("get = %d %s", rec.Code, rec.Body)
	}
	rec = e.do(t, "POST", react, "bob", `{"value":"👍"}`)
	if !strings.Contains(rec.Body.String(), `"active":false`) {
		t.Errorf("second toggle = %s", rec.Body)
	}
}

func TestSend_StringBody(t *testing.T) {
	e := setup(t)
	body, _ := json.Marshal(`{"ops":[{"insert":"plain\n"}]}`)
	payload := fmt.Sprintf(`{"channel_id":%q,"body":%s}`, e.general.ID.Hex(), body)

	rec := e.do(t, "POST", "/workspaces/"+e.ws.ID.Hex()+"/messages", "bob", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}
}

func TestSend_Rejects(t *testing.T) {
	e := setup(t)
	base := "/workspaces/" + e.ws.ID.Hex() + "/messages"
	ch := e.general.ID.Hex()

	tests := []struct {
		name string
		user string
		body string
		want int
	}{
		{"anonymous", "", `{"channel_id":"` + ch + `","body":{"ops":[{"insert":"x"}]}}`, http.StatusUnauthorized},
		{"outsider", "zed", `{"channel_id":"` + ch + `","body":{"ops":[{"insert":"x"}]}}`, http.StatusForbidden},
		{"missing body", "bob", `{"channel_id":"` + ch + `"}`, http.StatusUnprocessableEntity},
		{"not a delta", "bob", `{"channel_id":"` + ch + `","body":"hello"}`, http.StatusUnprocessableEntity},
		{"no target", "bob", `{"body":{"ops":[{"insert":"x"}]}}`, http.StatusBadRequest},
		{"bad channel id", "bob", `{"channel_id":"nope","body":{"ops":[{"insert":"x"}]}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := e.do(t, "POST", base, tt.user, tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestGet_UnknownMessageIs404(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	msg := e.fx.CreateChannelMessage(ctx, e.general, e.alice, "hello")

	if rec := e.do(t, "GET", "/messages/"+msg.ID.Hex(), "zed", ""); rec.Code != http.StatusNotFound {
		t.Errorf("outsider status = %d, want 404", rec.Code)
	}
	if rec := e.do(t, "GET", "/messages/"+e.ws.ID.Hex(), "alice", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
}
