// Package cascade deletes the rows that hang off a parent record.
//
// The edges are declared in a static table instead of hand-written per
// parent, and executed in two phases: collect the ids of every dependent row
// (in parallel, one query per edge), then delete them. Deleting ids that are
// already gone is a no-op, so a racing delete of the same parent is harmless.
// Sweep runs after the parent row is gone and removes rows written between
// the collect and the parent delete.
package cascade

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Edge is one parent -> child relation: rows of Collection whose
// ParentField equals the parent id.
type Edge struct {
	Collection  string
	ParentField string
}

// WorkspaceEdges lists every collection scoped to a workspace.
var WorkspaceEdges = []Edge{
	{Collection: "members", ParentField: "workspace_id"},
	{Collection: "channels", ParentField: "workspace_id"},
	{Collection: "conversations", ParentField: "workspace_id"},
	{Collection: "messages", ParentField: "workspace_id"},
	{Collection: "reactions", ParentField: "workspace_id"},
	{Collection: "notifications", ParentField: "metadata.workspace_id"},
}

// ChannelEdges lists the collections removed with a channel.
// Reactions and notifications of the channel's messages are left in place
// and are unreachable once the messages are gone.
var ChannelEdges = []Edge{
	{Collection: "messages", ParentField: "channel_id"},
}

// Purger is the storage the cascade runs against.
type Purger interface {
	CollectIDs(ctx context.Context, e Edge, parentID primitive.ObjectID) ([]primitive.ObjectID, error)
	DeleteIDs(ctx context.Context, collection string, ids []primitive.ObjectID) (int64, error)
	DeleteByParent(ctx context.Context, e Edge, parentID primitive.ObjectID) (int64, error)
}

// Result reports what a cascade removed, per collection.
type Result struct {
	Collected map[string][]primitive.ObjectID
	Deleted   map[string]int64
}

// Total is the number of rows deleted across all collections.
func (r Result) Total() int64 {
	var n int64
	for _, d := range r.Deleted {
		n += d
	}
	return n
}

// Run gathers the dependents of parentID along edges, then deletes them.
// A gather failure aborts before anything is deleted. A delete failure stops
// the run; rows already deleted stay deleted and a retry picks up the rest.
func Run(ctx context.Context, p Purger, log *zap.Logger, edges []Edge, parentID primitive.ObjectID) (Result, error) {
	collected := make([][]primitive.ObjectID, len(edges))

	g, gctx := errgroup.WithContext(ctx)
	for i, e := range edges {
		g.Go(func() error {
			ids, err := p.CollectIDs(gctx, e, parentID)
			if err != nil {
				return fmt.Errorf("collect %s: %w", e.Collection, err)
			}
			collected[i] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{
		Collected: make(map[string][]primitive.ObjectID, len(edges)),
		Deleted:   make(map[string]int64, len(edges)),
	}
	for i, e := range edges {
		ids := collected[i]
		res.Collected[e.Collection] = append(res.Collected[e.Collection], ids...)
		if len(ids) == 0 {
			continue
		}
		n, err := p.DeleteIDs(ctx, e.Collection, ids)
		if err != nil {
			log.Error("cascade delete failed",
				zap.String("collection", e.Collection),
				zap.String("parent_id", parentID.Hex()),
				zap.Error(err))
			return res, fmt.Errorf("delete %s: %w", e.Collection, err)
		}
		res.Deleted[e.Collection] += n
		log.Info("cascade deleted rows",
			zap.String("collection", e.Collection),
			zap.String("parent_id", parentID.Hex()),
			zap.Int64("count", n))
	}
	return res, nil
}

// Sweep deletes every remaining row along edges that still points at
// parentID. Call it once the parent row is deleted. Every edge is attempted
// and the failures are joined.
func Sweep(ctx context.Context, p Purger, log *zap.Logger, edges []Edge, parentID primitive.ObjectID) (int64, error) {
	var (
		total int64
		errs  []error
	)
	for _, e := range edges {
		n, err := p.DeleteByParent(ctx, e, parentID)
		if err != nil {
			errs = append(errs, fmt.Errorf("sweep %s: %w", e.Collection, err))
			continue
		}
		total += n
		if n > 0 {
			log.Warn("cascade swept late rows",
				zap.String("collection", e.Collection),
				zap.String("parent_id", parentID.Hex()),
				zap.Int64("count", n))
		}
	}
	return total, errors.Join(errs...)
}
