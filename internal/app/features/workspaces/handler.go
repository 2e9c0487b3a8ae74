// internal/app/features/workspaces/handler.go
package workspaces

import (
	uierrors "github.com/Bas3L3ss/slackzz-clone/internal/app/features/errors"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/admission"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/lifecycle"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/resolver"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// Handler serves workspace CRUD and admission.
type Handler struct {
	Lifecycle *lifecycle.Service
	Admission *admission.Service
	Resolver  *resolver.Service
	Joins     *ratelimit.JoinLimiter
	ErrLog    *uierrors.ErrorLogger
	Log       *zap.Logger
}

// NewHandler creates a workspaces Handler. joins may be nil to disable join
// throttling.
func NewHandler(lc *lifecycle.Service, adm *admission.Service, res *resolver.Service, joins *ratelimit.JoinLimiter, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Lifecycle: lc,
		Admission: adm,
		Resolver:  res,
		Joins:     joins,
		ErrLog:    errLog,
		Log:       logger,
	}
}
