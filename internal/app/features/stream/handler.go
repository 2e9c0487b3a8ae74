// internal/app/features/stream/handler.go
package stream

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	uierrors "github.com/Bas3L3ss/slackzz-clone/internal/app/features/errors"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/resolver"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/authz"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/httpjson"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/realtime"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Handler pushes a member's realtime notification events over a websocket.
type Handler struct {
	Bus      *realtime.Bus
	Resolver *resolver.Service
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler builds the stream handler. allowedOrigins lists the origins
// browsers may connect from; empty allows same-host connections only.
func NewHandler(bus *realtime.Bus, res *resolver.Service, allowedOrigins []string, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	h := &Handler{Bus: bus, Resolver: res, ErrLog: errLog, Log: logger}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] || set[strings.ToLower(origin)] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// MountRoutes registers GET /workspaces/{id}/stream.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/workspaces/{id}/stream", h.ServeStream)
}

// ServeStream upgrades to a websocket that carries the caller's notification
// events for one workspace. Membership is checked and the subscription is
// confirmed before the upgrade, so errors still get a JSON response.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	wsID, err := httpjson.URLID(r, "id")
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	me, err := h.Resolver.CurrentMember(ctx, authz.CallerFrom(r), wsID)
	cancel()
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}
	if me == nil {
		h.ErrLog.Respond(w, r, apperr.ErrUnauthorized)
		return
	}

	subCtx, subCancel := context.WithTimeout(r.Context(), timeouts.Short())
	sub, err := h.Bus.Subscribe(subCtx, me.ID)
	subCancel()
	if err != nil {
		h.ErrLog.Respond(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		_ = sub.Close()
		h.Log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	h.Log.Debug("stream opened",
		zap.String("workspace_id", wsID.Hex()),
		zap.String("member_id", me.ID.Hex()))

	c := &client{conn: conn, sub: sub, log: h.Log, closed: make(chan struct{})}
	go c.writePump()
	go c.readPump()
}
