package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/auth"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T, key string) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(key, "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

const testKey = "test-session-key-must-be-32-chars-long"

func TestNewSessionManager_EmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty session key")
	}
}

func TestRequireSignedIn_NoUser_Returns401(t *testing.T) {
	sm := newTestSessionManager(t, testKey)

	called := false
	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/workspaces", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if called {
		t.Error("inner handler should not run")
	}
}

func TestRequireSignedIn_WithUser_Passes(t *testing.T) {
	sm := newTestSessionManager(t, testKey)

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: "user_1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestCurrentUser_EmptyIDIsSignedOut(t *testing.T) {
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{})
	if _, ok := auth.CurrentUser(req); ok {
		t.Error("user with empty id should not count as signed in")
	}
}

// signInCookies runs SignIn through a recorder and returns the cookies set.
func signInCookies(t *testing.T, sm *auth.SessionManager, userID string) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest("GET", "/", nil), userID, "Ada"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	return rec.Result().Cookies()
}

func TestLoadSessionUser_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t, testKey)
	cookies := signInCookies(t, sm, "user_42")

	var got *auth.SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected user in context")
	}
	if got.ID != "user_42" || got.Name != "Ada" {
		t.Errorf("got %+v, want ID=user_42 Name=Ada", got)
	}
}

func TestLoadSessionUser_ForeignKeyCookieIgnored(t *testing.T) {
	writer := newTestSessionManager(t, "another-session-key-that-is-32-chars!!")
	reader := newTestSessionManager(t, testKey)
	cookies := signInCookies(t, writer, "user_42")

	signedIn := true
	handler := reader.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, signedIn = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if signedIn {
		t.Error("cookie signed with a different key must not authenticate")
	}
}
