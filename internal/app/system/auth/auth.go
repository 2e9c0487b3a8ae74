// Package auth adapts the identity provider's session cookie into a request
// identity. The provider writes an authenticated user id into a
// gorilla/sessions cookie; this package only reads and (for tooling and tests)
// writes it.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
	userName  = "user_name"
)

// SessionUser is the identity injected into r.Context().
// ID is the identity provider's opaque user id.
type SessionUser struct {
	ID   string
	Name string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// SessionManager reads and writes the session cookie.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// NewSessionManager builds a cookie store keyed by sessionKey.
// In production (secure=true) cookies are Secure with SameSite=None; over
// plain http (local dev) SameSite=Lax is used so browsers accept them.
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide ≥32 random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.Options = &sessions.Options{
		Domain:   domain,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// CurrentUser returns the user injected by LoadSessionUser.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil && u.ID != ""
}

// WithTestUser injects u directly, bypassing the cookie. For handler tests.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// LoadSessionUser injects the signed-in user (if any) into the request
// context. A user already placed there by a bearer token wins. A cookie that fails to decode (rotated key, tampering) is treated
// as signed out.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		sess, err := sm.store.Get(r, sm.name)
		if err != nil {
			if isDecodeError(err) {
				sm.log.Debug("discarding undecodable session cookie", zap.Error(err))
			} else {
				sm.log.Warn("session load failed", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			if id := getString(sess, userIDKey); id != "" {
				r = withUser(r, &SessionUser{ID: id, Name: getString(sess, userName)})
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn answers 401 when no user is in context.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			unauthenticated(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SignIn writes an authenticated session for userID.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID, name string) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID
	sess.Values[userName] = name
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

func isDecodeError(err error) bool {
	var scErr securecookie.Error
	if errors.As(err, &scErr) {
		return scErr.IsDecode()
	}
	return false
}
