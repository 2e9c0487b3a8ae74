// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown drains the fan-out queue, then closes the backends.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if w := deps.Workers; w != nil {
		if w.Fanout != nil {
			logger.Info("draining fan-out workers")
			w.Fanout.Stop()
		}
		if w.Joins != nil {
			w.Joins.Stop()
		}
	}
	if deps.Search != nil {
		deps.Search.Close()
	}
	if deps.Bus != nil {
		if err := deps.Bus.Close(); err != nil {
			logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
