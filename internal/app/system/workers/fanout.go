// internal/app/system/workers/fanout.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of post-commit work, such as delivering a message's
// notifications.
type Job struct {
	Name string
	Run  func(ctx context.Context)
}

// FanoutDispatcher runs jobs on a fixed pool of goroutines.
type FanoutDispatcher struct {
	log        *zap.Logger
	workers    int
	jobTimeout time.Duration
	jobs       chan Job
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.RWMutex
	stopped    bool
}

// NewFanoutDispatcher creates a dispatcher with the given pool size and
// queue depth. Each job runs under jobTimeout.
func NewFanoutDispatcher(logger *zap.Logger, workers, queue int, jobTimeout time.Duration) *FanoutDispatcher {
	if workers < 1 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	return &FanoutDispatcher{
		log:        logger,
		workers:    workers,
		jobTimeout: jobTimeout,
		jobs:       make(chan Job, queue),
		stopCh:     make(chan struct{}),
	}
}

// Start launches the worker pool.
func (d *FanoutDispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	d.log.Info("fanout dispatcher started",
		zap.Int("workers", d.workers),
		zap.Int("queue", cap(d.jobs)))
}

// Stop refuses new jobs, lets the pool finish what is queued and waits.
func (d *FanoutDispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.stopCh)
	d.mu.Unlock()

	d.wg.Wait()
	d.log.Info("fanout dispatcher stopped")
}

// Submit queues job. It returns false when the dispatcher is stopped or the
// queue is full; the caller then runs the job itself.
func (d *FanoutDispatcher) Submit(job Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return false
	}
	select {
	case d.jobs <- job:
		return true
	default:
		d.log.Warn("fanout queue full", zap.String("job", job.Name))
		return false
	}
}

func (d *FanoutDispatcher) run() {
	defer d.wg.Done()
	for {
		select {
		case job := <-d.jobs:
			d.exec(job)
		case <-d.stopCh:
			for {
				select {
				case job := <-d.jobs:
					d.exec(job)
				default:
					return
				}
			}
		}
	}
}

func (d *FanoutDispatcher) exec(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), d.jobTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("fanout job panicked", zap.String("job", job.Name), zap.Any("panic", r))
		}
	}()
	job.Run(ctx)
}
