// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/ratelimit"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/timeouts"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time initialization after the backends are connected and
// before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	if deps.Workers == nil {
		return nil
	}
	if appCfg.FanoutAsync {
		d := workers.NewFanoutDispatcher(logger, appCfg.FanoutWorkers, appCfg.FanoutQueue, timeouts.Long())
		d.Start()
		deps.Workers.Fanout = d
	}
	if appCfg.JoinIPLimit > 0 && appCfg.JoinUserLimit > 0 {
		deps.Workers.Joins = ratelimit.NewJoinLimiter(appCfg.JoinIPLimit, appCfg.JoinUserLimit, appCfg.JoinWindow)
	}

	logger.Info("startup complete",
		zap.Bool("realtime", deps.Bus != nil),
		zap.Bool("search_engine", deps.Search != nil && deps.Search.Enabled()),
		zap.Bool("fanout_async", deps.Workers.Fanout != nil))
	return nil
}
