// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"net/http"
	"strconv"

	uierrors "github.com/Bas3L3ss/slackzz-clone/internal/app/features/errors"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/resolver"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/authz"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/httpjson"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves a member's notifications and message search.
type Handler struct {
	Resolver *resolver.Service
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(res *resolver.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Resolver: res, ErrLog: errLog, Log: logger}
}

func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/workspaces/{id}/notifications", h.ServeList)
	r.Get("/workspaces/{id}/search", h.ServeSearch)
}

// ServeList handles GET /workspaces/{id}/notifications.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	wsID, err := httpjson.URLID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Resolver.ListNotifications(ctx, authz.CallerFrom(r), wsID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, list)
}

// ServeSearch handles GET /workspaces/{id}/search?q=&limit=.
func (h *Handler) ServeSearch(w http.ResponseWriter, r *http.Request) {
	wsID, err := httpjson.URLID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			h.ErrLog.Respond(w, r, apperr.ErrInvalidInput)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	hits, err := h.Resolver.SearchMessages(ctx, authz.CallerFrom(r), wsID, r.URL.Query().Get("q"), limit)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, hits)
}
