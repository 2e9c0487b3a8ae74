// internal/app/features/messages/handler.go
package messages

import (
	uierrors "github.com/Bas3L3ss/slackzz-clone/internal/app/features/errors"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/compose"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/lifecycle"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/resolver"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves message streams, composition and reactions.
type Handler struct {
	Compose   *compose.Service
	Lifecycle *lifecycle.Service
	Resolver  *resolver.Service
	ErrLog    *uierrors.ErrorLogger
	Log       *zap.Logger
}

func NewHandler(cmp *compose.Service, lc *lifecycle.Service, res *resolver.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Compose: cmp, Lifecycle: lc, Resolver: res, ErrLog: errLog, Log: logger}
}

// MountRoutes registers the message endpoints.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/workspaces/{id}/messages", h.ServeList)
	r.Post("/workspaces/{id}/messages", h.HandleSend)

	r.Get("/messages/{messageID}", h.ServeGet)
	r.Post("/messages/{messageID}/reactions", h.HandleReaction)
}
