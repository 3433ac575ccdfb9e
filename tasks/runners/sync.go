package runners

import (
	"context"

	"beacons-hub/errors"
	"beacons-hub/tasks"
	"beacons-hub/tasks/registry"
)

var _ Runner = (*SynchronousRunner)(nil)

// SynchronousRunner executes a task's handler in the calling goroutine. Workers
// use it once a task has been dequeued.
type SynchronousRunner struct {
	registry *registry.HandlerRegistry
}

func NewSynchronousRunner(r *registry.HandlerRegistry) *SynchronousRunner {
	return &SynchronousRunner{registry: r}
}

func (r *SynchronousRunner) Run(ctx context.Context, task *tasks.Task) error {
	handler, ok := r.registry.Get(task.Type)
	if !ok {
		return errors.NewNotFoundError("no handler registered for task type: " + task.Type)
	}

	if err := handler.Run(ctx, task); err != nil {
		// Preserve structured errors, wrap others as execution errors
		if _, ok := errors.AsAPIError(err); ok {
			return err
		}
		return errors.NewExecutionError("task execution failed", map[string]any{
			"task_id":   task.ID,
			"task_type": task.Type,
			"error":     err.Error(),
		})
	}

	return nil
}
