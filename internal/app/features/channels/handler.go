// internal/app/features/channels/handler.go
package channels

import (
	"context"
	"net/http"

	uierrors "github.com/Bas3L3ss/slackzz-clone/internal/app/features/errors"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/lifecycle"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/resolver"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/authz"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/httpjson"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/limits"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves channel endpoints.
type Handler struct {
	Lifecycle *lifecycle.Service
	Resolver  *resolver.Service
	ErrLog    *uierrors.ErrorLogger
	Log       *zap.Logger
}

func NewHandler(lc *lifecycle.Service, res *resolver.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Lifecycle: lc, Resolver: res, ErrLog: errLog, Log: logger}
}

// MountRoutes registers the channel endpoints on the API router.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/workspaces/{id}/channels", h.ServeList)
	r.Post("/workspaces/{id}/channels", h.HandleCreate)

	r.Get("/channels/{channelID}", h.ServeGet)
	r.Patch("/channels/{channelID}", h.HandleRename)
	r.Delete("/channels/{channelID}", h.HandleDelete)
}

type channelInput struct {
	Name string `json:"name"`
}

// ServeList handles GET /workspaces/{id}/channels.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	wsID, err := httpjson.URLID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Resolver.ListChannels(ctx, authz.CallerFrom(r), wsID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, list)
}

// HandleCreate handles POST /workspaces/{id}/channels.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	wsID, err := httpjson.URLID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	var in channelInput
	if err := httpjson.Decode(w, r, limits.MaxJSONBody, &in); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ch, err := h.Lifecycle.CreateChannel(ctx, authz.CallerFrom(r), wsID, in.Name)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, ch)
}

// ServeGet handles GET /channels/{channelID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	chID, err := httpjson.URLID(r, "channelID")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ch, err := h.Resolver.GetChannel(ctx, authz.CallerFrom(r), chID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if ch == nil {
		h.ErrLog.Respond(w, r, apperr.ErrNotFound)
		return
	}
	httpjson.Write(w, http.StatusOK, ch)
}

// HandleRename handles PATCH /channels/{channelID}.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	chID, err := httpjson.URLID(r, "channelID")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	var in channelInput
	if err := httpjson.Decode(w, r, limits.MaxJSONBody, &in); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ch, err := h.Lifecycle.RenameChannel(ctx, authz.CallerFrom(r), chID, in.Name)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, ch)
}

// HandleDelete handles DELETE /channels/{channelID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	chID, err := httpjson.URLID(r, "channelID")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if err := h.Lifecycle.DeleteChannel(r.Context(), authz.CallerFrom(r), chID); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
