package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestFanoutDispatcher_RunsJobs(t *testing.T) {
	d := NewFanoutDispatcher(zap.NewNop(), 3, 16, time.Second)
	d.Start()

	var n atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		ok := d.Submit(Job{Name: "count", Run: func(context.Context) {
			n.Add(1)
			wg.Done()
		}})
		if !ok {
			t.Fatalf("Submit %d rejected", i)
		}
	}
	wg.Wait()
	d.Stop()

	if got := n.Load(); got != 10 {
		t.Errorf("ran %d jobs, want 10", got)
	}
}

func TestFanoutDispatcher_StopDrainsQueue(t *testing.T) {
	d := NewFanoutDispatcher(zap.NewNop(), 1, 8, time.Second)

	var n atomic.Int32
	for i := 0; i < 5; i++ {
		d.Submit(Job{Name: "queued", Run: func(context.Context) { n.Add(1) }})
	}
	d.Start()
	d.Stop()

	if got := n.Load(); got != 5 {
		t.Errorf("ran %d queued jobs before stopping, want 5", got)
	}
	if d.Submit(Job{Name: "late", Run: func(context.Context) {}}) {
		t.Error("Submit after Stop should be rejected")
	}
	d.Stop()
}

func TestFanoutDispatcher_FullQueueRejects(t *testing.T) {
	d := NewFanoutDispatcher(zap.NewNop(), 1, 1, time.Second)

	if !d.Submit(Job{Name: "first", Run: func(context.Context) {}}) {
		t.Fatal("first Submit should fit the queue")
	}
	if d.Submit(Job{Name: "second", Run: func(context.Context) {}}) {
		t.Error("second Submit should be rejected while the queue is full")
	}
	d.Start()
	d.Stop()
}

func TestFanoutDispatcher_PanicDoesNotKillWorker(t *testing.T) {
	d := NewFanoutDispatcher(zap.NewNop(), 1, 4, time.Second)
	d.Start()
	defer d.Stop()

	done := make(chan struct{})
	d.Submit(Job{Name: "boom", Run: func(context.Context) { panic("boom") }})
	d.Submit(Job{Name: "after", Run: func(context.Context) { close(done) }})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive a panicking job")
	}
}

func TestFanoutDispatcher_JobHasDeadline(t *testing.T) {
	d := NewFanoutDispatcher(zap.NewNop(), 1, 1, 50*time.Millisecond)
	d.Start()
	defer d.Stop()

	errCh := make(chan error, 1)
	d.Submit(Job{Name: "slow", Run: func(ctx context.Context) {
		<-ctx.Done()
		errCh <- ctx.Err()
	}})

	select {
	case err := <-errCh:
		if err != context.DeadlineExceeded {
			t.Errorf("ctx.Err() = %v, want DeadlineExceeded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job context never expired")
	}
}
