// internal/app/features/members/handler.go
package members

import (
	"context"
	"net/http"

	uierrors "github.com/Bas3L3ss/slackzz-clone/internal/app/features/errors"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/lifecycle"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/resolver"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/authz"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/httpjson"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/limits"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves member listings and direct conversations.
type Handler struct {
	Lifecycle *lifecycle.Service
	Resolver  *resolver.Service
	ErrLog    *uierrors.ErrorLogger
	Log       *zap.Logger
}

func NewHandler(lc *lifecycle.Service, res *resolver.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Lifecycle: lc, Resolver: res, ErrLog: errLog, Log: logger}
}

// MountRoutes registers the member and conversation endpoints.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/workspaces/{id}/members", h.ServeList)
	r.Get("/workspaces/{id}/members/current", h.ServeCurrent)
	r.Post("/workspaces/{id}/conversations", h.HandleConversation)
}

// ServeList handles GET /workspaces/{id}/members.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	wsID, err := httpjson.URLID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Resolver.ListMembers(ctx, authz.CallerFrom(r), wsID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, list)
}

// ServeCurrent handles GET /workspaces/{id}/members/current. It answers
// null when the caller is not a member.
func (h *Handler) ServeCurrent(w http.ResponseWriter, r *http.Request) {
	wsID, err := httpjson.URLID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Resolver.CurrentMember(ctx, authz.CallerFrom(r), wsID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, m)
}

type conversationInput struct {
	MemberID string `json:"member_id"`
}

// HandleConversation handles POST /workspaces/{id}/conversations: it returns
// the caller's conversation with member_id, creating it on first use.
func (h *Handler) HandleConversation(w http.ResponseWriter, r *http.Request) {
	wsID, err := httpjson.URLID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	var in conversationInput
	if err := httpjson.Decode(w, r, limits.MaxJSONBody, &in); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	other, err := httpjson.ObjectID(in.MemberID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	conv, err := h.Lifecycle.CreateOrGetConversation(ctx, authz.CallerFrom(r), wsID, other)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, conv)
}

