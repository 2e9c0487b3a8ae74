// internal/app/features/messages/send.go
package messages

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/compose"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/authz"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/httpjson"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/limits"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/timeouts"
)

// sendInput is the message submission. Body is the rich-text document,
// accepted either as a JSON object or as a string holding one.
type sendInput struct {
	ChannelID      string          `json:"channel_id"`
	ConversationID string          `json:"conversation_id"`
	ParentID       string          `json:"parent_id"`
	Body           json.RawMessage `json:"body"`
	Attachments    []string        `json:"attachments"`
	Location       string          `json:"location"`
}

func (in sendInput) body() string {
	var s string
	if err := json.Unmarshal(in.Body, &s); err == nil {
		return s
	}
	return string(in.Body)
}

type reactionInput struct {
	Value string `json:"value"`
}

type reactionResponse struct {
	Active bool `json:"active"`
}

// HandleSend handles POST /workspaces/{id}/messages.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	wsID, err := httpjson.URLID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	var in sendInput
	if err := httpjson.Decode(w, r, limits.MaxMessageBody, &in); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if len(in.Body) == 0 {
		h.ErrLog.Respond(w, r, apperr.Malformed("body is required"))
		return
	}

	ci := compose.Input{
		WorkspaceID: wsID,
		Body:        in.body(),
		Attachments: in.Attachments,
		Location:    in.Location,
	}
	if ci.ChannelID, err = httpjson.OptionalObjectID(in.ChannelID); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if ci.ConversationID, err = httpjson.OptionalObjectID(in.ConversationID); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if ci.ParentMessageID, err = httpjson.OptionalObjectID(in.ParentID); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Compose.Send(ctx, authz.CallerFrom(r), ci)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, res)
}

// HandleReaction handles POST /messages/{messageID}/reactions, toggling the
// caller's reaction.
func (h *Handler) HandleReaction(w http.ResponseWriter, r *http.Request) {
	id, err := httpjson.URLID(r, "messageID")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	var in reactionInput
	if err := httpjson.Decode(w, r, limits.MaxJSONBody, &in); err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	active, err := h.Lifecycle.ToggleReaction(ctx, authz.CallerFrom(r), id, in.Value)
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	httpjson.Write(w, http.StatusOK, reactionResponse{Active: active})
}
