// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	channelsfeature "github.com/Bas3L3ss/slackzz-clone/internal/app/features/channels"
	errorsfeature "github.com/Bas3L3ss/slackzz-clone/internal/app/features/errors"
	healthfeature "github.com/Bas3L3ss/slackzz-clone/internal/app/features/health"
	membersfeature "github.com/Bas3L3ss/slackzz-clone/internal/app/features/members"
	messagesfeature "github.com/Bas3L3ss/slackzz-clone/internal/app/features/messages"
	notificationsfeature "github.com/Bas3L3ss/slackzz-clone/internal/app/features/notifications"
	streamfeature "github.com/Bas3L3ss/slackzz-clone/internal/app/features/stream"
	workspacesfeature "github.com/Bas3L3ss/slackzz-clone/internal/app/features/workspaces"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/admission"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/compose"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/lifecycle"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/services/resolver"
	memberstore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/members"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/auth"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/authz"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/realtime"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for slackzz.
//
// The JSON API lives under /api. Every API request passes through CORS,
// then bearer-token and session-cookie identity loading, then CSRF
// protection for cookie-authenticated writes. /health sits outside /api so
// load balancers need no credentials.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	var verifier *auth.TokenVerifier
	if appCfg.JWTSecret != "" {
		if verifier, err = auth.NewTokenVerifier(appCfg.JWTSecret, appCfg.JWTIssuer, logger); err != nil {
			logger.Error("token verifier init failed", zap.Error(err))
			return nil, err
		}
	}

	db := deps.MongoDatabase
	errLog := errorsfeature.NewErrorLogger(logger)
	gate := authz.NewGate(memberstore.New(db), logger)

	// Optional backends degrade to no-ops.
	var publisher realtime.Publisher
	if deps.Bus != nil {
		publisher = deps.Bus
	}
	searchSvc := deps.Search
	w := deps.Workers
	if w == nil {
		w = &Workers{}
	}

	lc := lifecycle.New(db, gate, searchIndex(searchSvc), logger)
	adm := admission.New(db, gate, logger)
	res := resolver.New(db, gate, searcher(searchSvc), logger)
	cmp := compose.New(db, gate, publisher, indexer(searchSvc), w.Fanout,
		compose.Options{BaseURL: appCfg.BaseURL}, logger)

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	var healthDeps []healthfeature.Dependency
	if deps.Bus != nil {
		healthDeps = append(healthDeps, healthfeature.Dependency{Name: "redis", Check: deps.Bus.Ping})
	}
	if searchSvc != nil && searchSvc.Enabled() {
		healthDeps = append(healthDeps, healthfeature.Dependency{Name: "meilisearch", Check: func(context.Context) error {
			if !searchSvc.Healthy() {
				return errMeiliDown
			}
			return nil
		}})
	}
	healthHandler := healthfeature.NewHandler(deps.MongoClient, healthDeps, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Route("/api", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins:   appCfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type", auth.CSRFHeader},
			ExposedHeaders:   []string{auth.CSRFHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		if verifier != nil {
			api.Use(verifier.LoadBearerUser)
		}
		api.Use(sessionMgr.LoadSessionUser)
		api.Use(auth.CSRFProtect(auth.CSRFKey(appCfg.SessionKey), secure, appCfg.AllowedOrigins, logger))

		api.Get("/csrf", auth.ServeCSRFToken)

		workspacesfeature.MountRoutes(api, workspacesfeature.NewHandler(lc, adm, res, w.Joins, errLog, logger))
		channelsfeature.MountRoutes(api, channelsfeature.NewHandler(lc, res, errLog, logger))
		membersfeature.MountRoutes(api, membersfeature.NewHandler(lc, res, errLog, logger))
		messagesfeature.MountRoutes(api, messagesfeature.NewHandler(cmp, lc, res, errLog, logger))
		notificationsfeature.MountRoutes(api, notificationsfeature.NewHandler(res, errLog, logger))

		if deps.Bus != nil {
			streamfeature.MountRoutes(api, streamfeature.NewHandler(deps.Bus, res, appCfg.AllowedOrigins, errLog, logger))
		}
	})

	return r, nil
}
