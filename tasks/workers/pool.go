package workers

import (
	"context"
	"sync"
	"time"

	"beacons-hub/logger"
	"beacons-hub/tasks/orchestrator/execution"
	"beacons-hub/tasks/queue"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxInFlight bounds the tasks a pool runs at once. A sequence search
// holds its slot for its whole poll loop, so the bound is the number of
// dispatcher jobs followed concurrently; further tasks wait in the queue.
const DefaultMaxInFlight = 256

type PoolOption func(*poolOptions)

type poolOptions struct {
	maxInFlight int
}

// WithMaxInFlight sets how many tasks the pool runs at once. Values below the
// worker count are raised to it.
func WithMaxInFlight(n int) PoolOption {
	return func(o *poolOptions) { o.maxInFlight = n }
}

// WorkerPool manages a set of workers sharing one queue and one budget of
// in-flight tasks.
type WorkerPool struct {
	workers         []*Worker
	queue           queue.TaskQueue
	maxInFlight     int
	logger          *logger.Logger
	wg              sync.WaitGroup
	cancelFn        context.CancelFunc
	shutdownTimeout time.Duration
	mu              sync.RWMutex // protects cancelFn and shutdownTimeout
}

func NewWorkerPool(
	workerCount int,
	queue queue.TaskQueue,
	workflow execution.ExecutionWorkflow,
	logger *logger.Logger,
	opts ...PoolOption,
) *WorkerPool {
	o := poolOptions{maxInFlight: DefaultMaxInFlight}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxInFlight < workerCount {
		o.maxInFlight = workerCount
	}

	slots := semaphore.NewWeighted(int64(o.maxInFlight))
	workers := make([]*Worker, workerCount)
	for i := 0; i < workerCount; i++ {
		workers[i] = NewWorker(i+1, queue, workflow, slots, logger)
	}

	return &WorkerPool{
		workers:         workers,
		queue:           queue,
		maxInFlight:     o.maxInFlight,
		logger:          logger,
		shutdownTimeout: 30 * time.Second,
	}
}

func (p *WorkerPool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	workerCtx, cancel := context.WithCancel(ctx)
	p.cancelFn = cancel

	fields := map[string]any{
		"worker_count":  len(p.workers),
		"max_in_flight": p.maxInFlight,
	}
	if depth, err := p.queue.Depth(ctx); err == nil {
		fields["queued_tasks"] = depth
	}
	p.logger.Info("starting worker pool", fields)

	for _, worker := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Start(workerCtx)
		}(worker)
	}
}

// Stop cancels in-flight tasks and waits up to the shutdown timeout for the
// workers to return. Cancelled tasks are recorded as failed.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	cancelFn := p.cancelFn
	timeout := p.shutdownTimeout
	p.mu.Unlock()

	p.logger.Info("stopping worker pool", map[string]any{
		"worker_count": len(p.workers),
		"timeout":      timeout.String(),
	})

	if cancelFn != nil {
		cancelFn()
	}
	for _, worker := range p.workers {
		worker.Stop()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
	case <-time.After(timeout):
		p.logger.Warn("worker pool shutdown timed out", map[string]any{
			"timeout": timeout.String(),
		})
	}

	p.mu.Lock()
	p.cancelFn = nil
	p.mu.Unlock()

	// a memory queue dies with the process, a redis one keeps the backlog for
	// the next worker
	depthCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if depth, err := p.queue.Depth(depthCtx); err == nil && depth > 0 {
		p.logger.Warn("tasks left in queue at shutdown", map[string]any{
			"queued_tasks": depth,
		})
	}
}

func (p *WorkerPool) GetWorkerCount() int {
	return len(p.workers)
}

func (p *WorkerPool) GetMaxInFlight() int {
	return p.maxInFlight
}

func (p *WorkerPool) SetShutdownTimeout(timeout time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdownTimeout = timeout
}
