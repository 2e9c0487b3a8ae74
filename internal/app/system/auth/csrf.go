package auth

import (
	"crypto/sha256"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// CSRFHeader carries the token on unsafe requests.
const CSRFHeader = "X-CSRF-Token"

// CSRFKey derives the 32-byte CSRF key from a session key.
func CSRFKey(sessionKey string) []byte {
	sum := sha256.Sum256([]byte("csrf:" + sessionKey))
	return sum[:]
}

// CSRFProtect guards cookie-authenticated writes with a double-submit token.
// Requests carrying a bearer token are exempt: they hold no ambient
// credential a foreign page could ride on.
func CSRFProtect(key []byte, secure bool, allowedOrigins []string, logger *zap.Logger) func(http.Handler) http.Handler {
	opts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("slackzz-csrf"),
		csrf.RequestHeader(CSRFHeader),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("csrf check failed",
				zap.String("path", r.URL.Path),
				zap.Error(csrf.FailureReason(r)))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"forbidden","message":"invalid csrf token"}`))
		})),
	}
	if hosts := originHosts(allowedOrigins); len(hosts) > 0 {
		opts = append(opts, csrf.TrustedOrigins(hosts))
	}
	protect := csrf.Protect(key, opts...)

	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearer(r) != "" {
				r = csrf.UnsafeSkipCheck(r)
			}
			if !secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			h.ServeHTTP(w, r)
		})
	}
}

// ServeCSRFToken handles GET /csrf. The token is returned both in the
// response header and the body.
func ServeCSRFToken(w http.ResponseWriter, r *http.Request) {
	tok := csrf.Token(r)
	w.Header().Set(CSRFHeader, tok)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"token": tok})
}

// originHosts reduces origins like "https://app.example:8443" to the
// host[:port] form csrf.TrustedOrigins expects.
func originHosts(origins []string) []string {
	var hosts []string
	for _, o := range origins {
		if o == "*" {
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}
