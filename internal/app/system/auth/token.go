package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Claims is the bearer token payload. Subject carries the user id.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

var errNoSubject = errors.New("token has no subject")

// TokenVerifier accepts HS256 bearer tokens as an alternative to the session
// cookie, for API clients and websocket connections.
type TokenVerifier struct {
	key    []byte
	issuer string
	log    *zap.Logger
}

func NewTokenVerifier(secret, issuer string, logger *zap.Logger) (*TokenVerifier, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 chars, got %d", len(secret))
	}
	return &TokenVerifier{key: []byte(secret), issuer: issuer, log: logger}, nil
}

// Issue signs a token for userID valid for ttl.
func (v *TokenVerifier) Issue(userID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.key)
}

// Verify parses and validates a signed token.
func (v *TokenVerifier) Verify(token string) (*SessionUser, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errNoSubject
	}
	return &SessionUser{ID: claims.Subject, Name: claims.Name}, nil
}

// bearer extracts the token from the Authorization header. Websocket
// upgrades may pass it as ?access_token= because browsers cannot set headers
// on them.
func bearer(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

// LoadBearerUser injects the user of a valid bearer token. A present but
// invalid token is rejected with 401 rather than silently ignored. Requests
// without a token pass through unchanged, so this composes with
// LoadSessionUser.
func (v *TokenVerifier) LoadBearerUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearer(r)
		if tok == "" {
			next.ServeHTTP(w, r)
			return
		}
		u, err := v.Verify(tok)
		if err != nil {
			v.log.Debug("rejecting bearer token", zap.Error(err))
			unauthenticated(w)
			return
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthenticated"}`))
}
