// internal/app/features/workspaces/admission.go
package workspaces

import (
	"context"
	"net/http"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/authz"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/httpjson"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/limits"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type joinInput struct {
	JoinCode string `json:"join_code"`
}

type joinCodeResponse struct {
	JoinCode string `json:"join_code"`
}

// ServeInfo handles GET /workspaces/{id}/info: the public join-page view.
// It answers null for anonymous callers and unknown workspaces.
func (h *Handler) ServeInfo(w http.ResponseWriter, r *http.Request) {
	wsID, err := httpjson.URLID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	info, err := h.Admission.Info(ctx, authz.CallerFrom(r), wsID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, info)
}

// HandleJoin handles POST /workspaces/{id}/join.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	caller := authz.CallerFrom(r)
	wsID, err := httpjson.URLID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if h.Joins != nil && !h.Joins.Check(r, caller.UserID) {
		h.Log.Warn("join attempts throttled",
			zap.String("workspace_id", wsID.Hex()),
			zap.String("user_id", caller.UserID))
		h.ErrLog.TooManyRequests(w, r)
		return
	}
	var in joinInput
	if err := httpjson.Decode(w, r, limits.MaxJSONBody, &in); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := h.Admission.Join(ctx, caller, wsID, in.JoinCode)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if h.Joins != nil {
		h.Joins.Succeeded(caller.UserID)
	}
	httpjson.Write(w, http.StatusCreated, m)
}

// HandleRotateJoinCode handles POST /workspaces/{id}/join-code.
func (h *Handler) HandleRotateJoinCode(w http.ResponseWriter, r *http.Request) {
	wsID, err := httpjson.URLID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	code, err := h.Admission.Rotate(ctx, authz.CallerFrom(r), wsID)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, joinCodeResponse{JoinCode: code})
}
