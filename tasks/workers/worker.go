package workers

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"beacons-hub/logger"
	"beacons-hub/tasks"
	"beacons-hub/tasks/orchestrator/execution"
	"beacons-hub/tasks/queue"

	"golang.org/x/sync/semaphore"
)

// pause after an unexpected dequeue error before trying again
const dequeueBackoff = 500 * time.Millisecond

// Worker pulls tasks from the queue and runs each one in its own goroutine.
// A task holds one of the shared in-flight slots until it finishes, so a
// search sleeping between dispatcher polls never keeps the worker from
// taking the next task.
type Worker struct {
	id       int
	queue    queue.TaskQueue
	workflow execution.ExecutionWorkflow
	slots    *semaphore.Weighted
	logger   *logger.Logger
	inFlight sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a worker drawing from slots. A nil slots runs one task at
// a time.
func NewWorker(
	id int,
	queue queue.TaskQueue,
	workflow execution.ExecutionWorkflow,
	slots *semaphore.Weighted,
	logger *logger.Logger,
) *Worker {
	if slots == nil {
		slots = semaphore.NewWeighted(1)
	}
	return &Worker{
		id:       id,
		queue:    queue,
		workflow: workflow,
		slots:    slots,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start runs the dequeue loop until ctx is done, Stop is called or the queue
// is closed, then waits for the tasks it started.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("worker starting", map[string]any{
		"worker_id": w.id,
	})

	defer w.logger.Info("worker stopped", map[string]any{
		"worker_id": w.id,
	})
	defer w.inFlight.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		default:
		}

		if err := w.slots.Acquire(ctx, 1); err != nil {
			return
		}

		task, ok := w.dequeue(ctx)
		if task == nil {
			w.slots.Release(1)
			if !ok {
				return
			}
			continue
		}

		w.inFlight.Add(1)
		go func() {
			defer w.inFlight.Done()
			defer w.slots.Release(1)
			w.execute(ctx, task)
		}()
	}
}

// Stop signals the worker to take no further tasks.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// dequeue returns the next task. A nil task with ok set means the loop should
// try again.
func (w *Worker) dequeue(ctx context.Context) (task *tasks.Task, ok bool) {
	task, err := w.queue.Dequeue(ctx)
	if err == nil {
		return task, true
	}
	if ctx.Err() != nil {
		return nil, false
	}
	if stderrors.Is(err, queue.ErrQueueClosed) {
		w.logger.Info("queue closed", map[string]any{
			"worker_id": w.id,
		})
		return nil, false
	}

	w.logger.Error("failed to dequeue task", map[string]any{
		"worker_id": w.id,
		"error":     err.Error(),
	})

	select {
	case <-time.After(dequeueBackoff):
		return nil, true
	case <-ctx.Done():
		return nil, false
	case <-w.stopCh:
		return nil, false
	}
}

func (w *Worker) execute(ctx context.Context, task *tasks.Task) {
	w.logger.Task(task.ID, "worker processing task", map[string]any{
		"worker_id": w.id,
		"task_type": task.Type,
	})

	if err := w.workflow.Execute(ctx, task); err != nil {
		w.logger.Task(task.ID, "task execution failed", map[string]any{
			"worker_id": w.id,
			"error":     err.Error(),
		})
		return
	}

	w.logger.Task(task.ID, "task completed successfully", map[string]any{
		"worker_id": w.id,
		"result":    task.Result,
	})
}
