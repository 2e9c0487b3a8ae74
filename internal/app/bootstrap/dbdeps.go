// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/ratelimit"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/realtime"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/search"
	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Bus is nil when no Redis URL is configured or Redis was unreachable.
	Bus *realtime.Bus

	// Search always answers; without Meilisearch it scans the database.
	Search *search.Service

	// Workers is filled in by Startup and stopped by Shutdown.
	Workers *Workers
}

// Workers holds the app's background machinery.
type Workers struct {
	Fanout *workers.FanoutDispatcher // nil unless fan-out is async
	Joins  *ratelimit.JoinLimiter
}
