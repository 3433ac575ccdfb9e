package runners

import (
	"context"

	"beacons-hub/errors"
	"beacons-hub/tasks"
	"beacons-hub/tasks/queue"
	"beacons-hub/tasks/registry"
)

// AsynchronousRunner validates tasks and enqueues them for the workers.
type AsynchronousRunner struct {
	queue    queue.TaskQueue
	registry *registry.HandlerRegistry
}

var _ Runner = (*AsynchronousRunner)(nil)

func NewAsynchronousRunner(queue queue.TaskQueue, registry *registry.HandlerRegistry) *AsynchronousRunner {
	return &AsynchronousRunner{queue: queue, registry: registry}
}

func (r *AsynchronousRunner) Run(ctx context.Context, task *tasks.Task) error {
	// Validate handler exists before queuing
	if _, ok := r.registry.Get(task.Type); !ok {
		return errors.NewNotFoundError("no handler registered for task type: " + task.Type)
	}

	if err := r.queue.Enqueue(ctx, task); err != nil {
		if _, ok := errors.AsAPIError(err); ok {
			return err
		}
		return errors.NewUnavailableError("failed to enqueue task", map[string]any{
			"task_id":   task.ID,
			"task_type": task.Type,
			"error":     err.Error(),
		})
	}

	return nil
}
