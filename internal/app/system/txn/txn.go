// Package txn runs multi-document writes inside a MongoDB transaction when the
// deployment supports one.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a transaction. Standalone servers reject
// transactions; in that case fn is run once more without a session so the
// writes still happen, sequentially and non-atomically.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Debug("transactions unavailable, running without one", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// IsNotSupported reports whether err means the server cannot run
// transactions (standalone mongod, or an operation illegal inside one).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "transaction") {
		return strings.Contains(msg, "session") && strings.Contains(msg, "not supported")
	}
	return strings.Contains(msg, "replica set") ||
		strings.Contains(msg, "session") ||
		strings.Contains(msg, "illegal operation")
}
