// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	messagestore "github.com/Bas3L3ss/slackzz-clone/internal/app/store/messages"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/indexes"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/realtime"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/search"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB connects MongoDB (required) plus Redis and Meilisearch when
// configured. An unreachable Redis disables realtime delivery rather than
// aborting startup.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetAppName("slackzz")
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	if appCfg.MongoMinPoolSize > 0 {
		opts.SetMinPoolSize(appCfg.MongoMinPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping mongo: %w", err)
	}
	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Workers:       &Workers{},
	}

	if appCfg.RedisURL != "" {
		bus, err := realtime.NewBus(pingCtx, appCfg.RedisURL, logger)
		if err != nil {
			logger.Warn("redis unavailable, realtime notifications disabled", zap.Error(err))
		} else {
			deps.Bus = bus
			logger.Info("realtime bus connected")
		}
	}

	var meili *search.Meili
	if appCfg.MeiliURL != "" {
		meili = search.NewMeili(appCfg.MeiliURL, appCfg.MeiliAPIKey, logger)
	}
	deps.Search = search.NewService(meili, messagestore.New(db), logger)

	return deps, nil
}

// EnsureSchema creates the collection indexes, including the unique ones the
// membership and conversation invariants rely on.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	return nil
}
