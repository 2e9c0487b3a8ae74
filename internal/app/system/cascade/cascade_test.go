package cascade

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// memPurger keeps rows as collection -> id -> parent field values.
type memPurger struct {
	mu         sync.Mutex
	rows       map[string]map[primitive.ObjectID]map[string]primitive.ObjectID
	collectErr map[string]error
	deleteErr  map[string]error
	deletes    []string
}

func newMemPurger() *memPurger {
	return &memPurger{rows: map[string]map[primitive.ObjectID]map[string]primitive.ObjectID{}}
}

func (m *memPurger) add(collection string, parents map[string]primitive.ObjectID) primitive.ObjectID {
	id := primitive.NewObjectID()
	if m.rows[collection] == nil {
		m.rows[collection] = map[primitive.ObjectID]map[string]primitive.ObjectID{}
	}
	m.rows[collection][id] = parents
	return id
}

func (m *memPurger) count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows[collection])
}

func (m *memPurger) CollectIDs(_ context.Context, e Edge, parentID primitive.ObjectID) ([]primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.collectErr[e.Collection]; err != nil {
		return nil, err
	}
	var ids []primitive.ObjectID
	for id, parents := range m.rows[e.Collection] {
		if parents[e.ParentField] == parentID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memPurger) DeleteIDs(_ context.Context, collection string, ids []primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, collection)
	if err := m.deleteErr[collection]; err != nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		if _, ok := m.rows[collection][id]; ok {
			delete(m.rows[collection], id)
			n++
		}
	}
	return n, nil
}

func (m *memPurger) DeleteByParent(_ context.Context, e Edge, parentID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.deleteErr[e.Collection]; err != nil {
		return 0, err
	}
	var n int64
	for id, parents := range m.rows[e.Collection] {
		if parents[e.ParentField] == parentID {
			delete(m.rows[e.Collection], id)
			n++
		}
	}
	return n, nil
}

func wsRow(ws primitive.ObjectID) map[string]primitive.ObjectID {
	return map[string]primitive.ObjectID{"workspace_id": ws}
}

func TestRun_WorkspaceLeavesNoOrphans(t *testing.T) {
	p := newMemPurger()
	ws, other := primitive.NewObjectID(), primitive.NewObjectID()

	for _, c := range []string{"members", "channels", "conversations", "messages", "reactions"} {
		p.add(c, wsRow(ws))
		p.add(c, wsRow(ws))
		p.add(c, wsRow(other))
	}
	p.add("notifications", map[string]primitive.ObjectID{"metadata.workspace_id": ws})
	p.add("notifications", map[string]primitive.ObjectID{"metadata.workspace_id": other})

	res, err := Run(context.Background(), p, zap.NewNop(), WorkspaceEdges, ws)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := res.Total(); got != 11 {
		t.Errorf("Total() = %d, want 11", got)
	}
	for _, e := range WorkspaceEdges {
		if got := p.count(e.Collection); got != 1 {
			t.Errorf("%s: %d rows left, want only the other workspace's row", e.Collection, got)
		}
	}
}

func TestRun_ChannelDeletesOnlyItsMessages(t *testing.T) {
	p := newMemPurger()
	ch, otherCh := primitive.NewObjectID(), primitive.NewObjectID()
	p.add("messages", map[string]primitive.ObjectID{"channel_id": ch})
	p.add("messages", map[string]primitive.ObjectID{"channel_id": ch})
	p.add("messages", map[string]primitive.ObjectID{"channel_id": otherCh})

	res, err := Run(context.Background(), p, zap.NewNop(), ChannelEdges, ch)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Deleted["messages"] != 2 {
		t.Errorf("deleted %d messages, want 2", res.Deleted["messages"])
	}
	if p.count("messages") != 1 {
		t.Errorf("%d messages left, want 1", p.count("messages"))
	}
}

func TestRun_NothingToDeleteIsNoop(t *testing.T) {
	p := newMemPurger()
	res, err := Run(context.Background(), p, zap.NewNop(), WorkspaceEdges, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Total() != 0 || len(p.deletes) != 0 {
		t.Errorf("expected no deletes, got total=%d calls=%v", res.Total(), p.deletes)
	}
}

func TestRun_GatherFailureDeletesNothing(t *testing.T) {
	p := newMemPurger()
	ws := primitive.NewObjectID()
	p.add("members", wsRow(ws))
	p.add("messages", wsRow(ws))
	p.collectErr = map[string]error{"reactions": errors.New("timeout")}

	if _, err := Run(context.Background(), p, zap.NewNop(), WorkspaceEdges, ws); err == nil {
		t.Fatal("expected gather error")
	}
	if len(p.deletes) != 0 {
		t.Errorf("deletes ran after a failed gather: %v", p.deletes)
	}
	if p.count("members") != 1 || p.count("messages") != 1 {
		t.Error("rows removed after a failed gather")
	}
}

func TestRun_DeleteFailureStops(t *testing.T) {
	p := newMemPurger()
	ws := primitive.NewObjectID()
	p.add("members", wsRow(ws))
	p.add("channels", wsRow(ws))
	p.add("messages", wsRow(ws))
	boom := errors.New("write conflict")
	p.deleteErr = map[string]error{"channels": boom}

	_, err := Run(context.Background(), p, zap.NewNop(), WorkspaceEdges, ws)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if p.count("members") != 0 {
		t.Error("members before the failing edge should be deleted")
	}
	if p.count("messages") != 1 {
		t.Error("edges after the failing one should not run")
	}
}

func TestRun_RacingCascadesAreSafe(t *testing.T) {
	p := newMemPurger()
	ws := primitive.NewObjectID()
	for i := 0; i < 20; i++ {
		p.add("messages", wsRow(ws))
	}

	var wg sync.WaitGroup
	totals := make([]int64, 2)
	for i := range totals {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := Run(context.Background(), p, zap.NewNop(), WorkspaceEdges, ws)
			if err != nil {
				t.Errorf("Run: %v", err)
				return
			}
			totals[i] = res.Total()
		}()
	}
	wg.Wait()

	if totals[0]+totals[1] != 20 {
		t.Errorf("rows deleted across both runs = %d, want 20", totals[0]+totals[1])
	}
	if p.count("messages") != 0 {
		t.Errorf("%d messages left", p.count("messages"))
	}
}

func TestSweep_RemovesRowsWrittenAfterCollect(t *testing.T) {
	p := newMemPurger()
	ws, other := primitive.NewObjectID(), primitive.NewObjectID()
	p.add("members", wsRow(ws))
	p.add("messages", wsRow(other))

	if _, err := Run(context.Background(), p, zap.NewNop(), WorkspaceEdges, ws); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// A join and a send that land after the collect phase.
	p.add("members", wsRow(ws))
	p.add("messages", wsRow(ws))

	n, err := Sweep(context.Background(), p, zap.NewNop(), WorkspaceEdges, ws)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if n != 2 {
		t.Errorf("swept %d rows, want 2", n)
	}
	if p.count("members") != 0 {
		t.Errorf("%d late members left", p.count("members"))
	}
	if p.count("messages") != 1 {
		t.Errorf("messages = %d, want only the other workspace's row", p.count("messages"))
	}
}

func TestSweep_AttemptsEveryEdge(t *testing.T) {
	p := newMemPurger()
	ws := primitive.NewObjectID()
	p.add("members", wsRow(ws))
	p.add("messages", wsRow(ws))
	boom := errors.New("write conflict")
	p.deleteErr = map[string]error{"members": boom}

	_, err := Sweep(context.Background(), p, zap.NewNop(), WorkspaceEdges, ws)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if p.count("messages") != 0 {
		t.Error("edges after the failing one should still be swept")
	}
}
