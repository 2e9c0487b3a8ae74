// internal/app/features/messages/list.go
package messages

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/resolver"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/authz"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/httpjson"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/timeouts"
)

// targetFromQuery reads channel_id, conversation_id and parent_id.
func targetFromQuery(r *http.Request) (resolver.Target, error) {
	wsID, err := httpjson.URLID(r, "id")
	if err != nil {
		return resolver.Target{}, err
	}
	q := r.URL.Query()
	t := resolver.Target{WorkspaceID: wsID}
	if t.ChannelID, err = httpjson.OptionalObjectID(q.Get("channel_id")); err != nil {
		return resolver.Target{}, err
	}
	if t.ConversationID, err = httpjson.OptionalObjectID(q.Get("conversation_id")); err != nil {
		return resolver.Target{}, err
	}
	if t.ParentMessageID, err = httpjson.OptionalObjectID(q.Get("parent_id")); err != nil {
		return resolver.Target{}, err
	}
	return t, nil
}

// ServeList handles GET /workspaces/{id}/messages?channel_id=|conversation_id=
// with optional parent_id, cursor and limit.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	t, err := targetFromQuery(r)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	size := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if size, err = strconv.Atoi(v); err != nil {
			h.ErrLog.Respond(w, r, apperr.ErrInvalidInput)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	page, err := h.Resolver.ListMessages(ctx, authz.CallerFrom(r), t, r.URL.Query().Get("cursor"), size)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, page)
}

// ServeGet handles GET /messages/{messageID}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := httpjson.URLID(r, "messageID")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	msg, err := h.Resolver.GetMessage(ctx, authz.CallerFrom(r), id)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if msg == nil {
		h.ErrLog.Respond(w, r, apperr.ErrNotFound)
		return
	}
	httpjson.Write(w, http.StatusOK, msg)
}
