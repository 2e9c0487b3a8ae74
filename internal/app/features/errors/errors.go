// internal/app/features/errors/errors.go
package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/auth"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/httpjson"
	"go.uber.org/zap"
)

// Body is the JSON shape of every error response.
type Body struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ErrorLogger maps service errors to JSON responses and logs the ones that
// are the server's fault.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{Log: logger}
}

// StatusFor returns the HTTP status and error code for err. Unauthorized
// becomes 401 for anonymous callers and 403 otherwise.
func StatusFor(err error, authenticated bool) (int, string) {
	switch {
	case stderrors.Is(err, apperr.ErrUnauthorized):
		if !authenticated {
			return http.StatusUnauthorized, "unauthenticated"
		}
		return http.StatusForbidden, "unauthorized"
	case stderrors.Is(err, apperr.ErrWorkspaceNotFound):
		return http.StatusNotFound, "workspace_not_found"
	case stderrors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case stderrors.Is(err, apperr.ErrInvalidJoinCode):
		return http.StatusBadRequest, "invalid_join_code"
	case stderrors.Is(err, apperr.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case stderrors.Is(err, apperr.ErrAlreadyMember):
		return http.StatusConflict, "already_member"
	case stderrors.Is(err, apperr.ErrMalformedContent):
		return http.StatusUnprocessableEntity, "malformed_content"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// Respond writes the error response for err.
func (e *ErrorLogger) Respond(w http.ResponseWriter, r *http.Request, err error) {
	_, signedIn := auth.CurrentUser(r)
	status, code := StatusFor(err, signedIn)

	body := Body{Error: code}
	if status == http.StatusInternalServerError {
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		}
		if apperr.IsInvariant(err) {
			e.Log.Error("invariant violation", fields...)
		} else {
			e.Log.Error("request failed", fields...)
		}
	} else {
		body.Message = err.Error()
		e.Log.Debug("request rejected",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	httpjson.Write(w, status, body)
}

// TooManyRequests answers 429.
func (e *ErrorLogger) TooManyRequests(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusTooManyRequests, Body{Error: "rate_limited", Message: "too many attempts, try again later"})
}
