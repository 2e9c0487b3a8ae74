// internal/app/features/workspaces/crud.go
package workspaces

import (
	"context"
	"net/http"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/authz"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/httpjson"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/limits"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/timeouts"
)

type workspaceInput struct {
	Name     string  `json:"name"`
	ImageURL *string `json:"image_url"`
}

// ServeList handles GET /workspaces.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Resolver.ListWorkspaces(ctx, authz.CallerFrom(r))
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, list)
}

// HandleCreate handles POST /workspaces. The response carries the new
// workspace, the caller's admin membership and the default channel.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in workspaceInput
	if err := httpjson.Decode(w, r, limits.MaxJSONBody, &in); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Lifecycle.CreateWorkspace(ctx, authz.CallerFrom(r), in.Name, in.ImageURL)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, out)
}

// ServeGet handles GET /workspaces/{id}. Non-members get 404.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	wsID, err := httpjson.URLID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ws, err := h.Resolver.GetWorkspace(ctx, authz.CallerFrom(r), wsID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if ws == nil {
		h.ErrLog.Respond(w, r, apperr.ErrNotFound)
		return
	}
	httpjson.Write(w, http.StatusOK, ws)
}

// HandleUpdate handles PATCH /workspaces/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	wsID, err := httpjson.URLID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	var in workspaceInput
	if err := httpjson.Decode(w, r, limits.MaxJSONBody, &in); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ws, err := h.Lifecycle.UpdateWorkspace(ctx, authz.CallerFrom(r), wsID, in.Name, in.ImageURL)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, ws)
}

// HandleDelete handles DELETE /workspaces/{id}. The cascade itself is
// bounded by the service, not by this request.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	wsID, err := httpjson.URLID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if err := h.Lifecycle.DeleteWorkspace(r.Context(), authz.CallerFrom(r), wsID); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
