// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// desired is the full index plan, keyed by collection.
var desired = []struct {
	collection string
	models     []mongo.IndexModel
}{
	{"members", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetName("uniq_members_workspace_user").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_members_user"),
		},
	}},
	{"channels", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_channels_workspace_id"),
		},
	}},
	{"conversations", []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "workspace_id", Value: 1},
				{Key: "member_one_id", Value: 1},
				{Key: "member_two_id", Value: 1},
			},
			Options: options.Index().SetName("uniq_conversations_workspace_pair").SetUnique(true),
		},
	}},
	{"messages", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}},
			Options: options.Index().SetName("idx_messages_workspace"),
		},
		{
			Keys:    bson.D{{Key: "channel_id", Value: 1}, {Key: "parent_message_id", Value: 1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_messages_channel_parent_id"),
		},
		{
			Keys:    bson.D{{Key: "conversation_id", Value: 1}, {Key: "parent_message_id", Value: 1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_messages_conversation_parent_id"),
		},
		{
			Keys:    bson.D{{Key: "parent_message_id", Value: 1}},
			Options: options.Index().SetName("idx_messages_parent"),
		},
	}},
	{"reactions", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "workspace_id", Value: 1}},
			Options: options.Index().SetName("idx_reactions_workspace"),
		},
		{
			Keys:    bson.D{{Key: "message_id", Value: 1}, {Key: "member_id", Value: 1}, {Key: "value", Value: 1}},
			Options: options.Index().SetName("uniq_reactions_message_member_value").SetUnique(true),
		},
	}},
	{"notifications", []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "metadata.workspace_id", Value: 1}},
			Options: options.Index().SetName("idx_notifications_workspace"),
		},
		{
			Keys:    bson.D{{Key: "member_id", Value: 1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName("idx_notifications_member_id"),
		},
		{
			Keys:    bson.D{{Key: "message_id", Value: 1}},
			Options: options.Index().SetName("idx_notifications_message"),
		},
	}},
}

/*
EnsureAll is called at startup. Reconciling is idempotent.
Errors are aggregated so every problem is visible and startup fails fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, d := range desired {
		if err := ensureIndexSet(ctx, db.Collection(d.collection), d.models); err != nil {
			problems = append(problems, d.collection+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Names returns the index names planned for collection.
func Names(collection string) []string {
	for _, d := range desired {
		if d.collection != collection {
			continue
		}
		names := make([]string, 0, len(d.models))
		for _, m := range d.models {
			names = append(names, *m.Options.Name)
		}
		return names
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile one collection                                                   */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(b *bool) bool { return b != nil && *b }

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// ensureIndexSet makes every model exist on coll with the desired name and
// uniqueness. An index on the same keys under another name or with other
// options is dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	existing := listExisting(ctx, coll)

	for _, m := range models {
		name := *m.Options.Name
		unique := boolVal(m.Options.Unique)
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if ex.Name == name && boolVal(ex.Unique) == unique {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name))
				continue
			}
			zap.L().Info("replacing index",
				zap.String("collection", coll.Name()),
				zap.String("from", ex.Name),
				zap.String("to", name),
				zap.Bool("unique", unique))
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s: drop %s failed: %v", name, ex.Name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if unique && isDuplicateKeyErr(err) {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index (duplicates present on %s)", name, sig))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			}
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.Error(err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
