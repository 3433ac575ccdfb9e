package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"

	"beacons-hub/errors"
	"beacons-hub/logger"
	"beacons-hub/tasks"
	"beacons-hub/tasks/runners"
	"beacons-hub/tasks/store"
)

// Orchestrator schedules background tasks and exposes their lifecycle.
type Orchestrator interface {
	// Submit persists task as pending and schedules it. The task ID is the
	// handle callers use to observe it.
	Submit(ctx context.Context, task *tasks.Task) error

	GetTask(ctx context.Context, taskID string) (*tasks.Task, error)

	// GetTaskStatus is GetTask for callers that only need the status.
	GetTaskStatus(ctx context.Context, taskID string) (tasks.TaskStatus, error)
}

type orchestrator struct {
	store  store.TaskStore
	runner runners.Runner
	logger *logger.Logger
}

var _ Orchestrator = (*orchestrator)(nil)

// NewOrchestrator builds an orchestrator; runner decides where tasks execute.
func NewOrchestrator(store store.TaskStore, runner runners.Runner, lg *logger.Logger) Orchestrator {
	return &orchestrator{
		store:  store,
		runner: runner,
		logger: lg,
	}
}

func (o *orchestrator) Submit(ctx context.Context, task *tasks.Task) error {
	if err := o.store.Save(ctx, task); err != nil {
		o.logger.Task(task.ID, "failed to save task", map[string]any{
			"error": err.Error(),
		})
		return errors.NewInternalError("failed to save task")
	}

	o.logger.Task(task.ID, "task submitted", map[string]any{
		"task_type":    task.Type,
		"runner_type":  fmt.Sprintf("%T", o.runner),
		"payload_size": len(task.Payload),
	})

	if err := o.runner.Run(ctx, task); err != nil {
		o.logger.Task(task.ID, "task scheduling failed", map[string]any{
			"error":       err.Error(),
			"runner_type": fmt.Sprintf("%T", o.runner),
		})

		if setErr := task.SetStatus(tasks.StatusFailure); setErr == nil {
			task.Result = fmt.Sprintf("scheduling failed: %s", err.Error())
			if updateErr := o.store.Update(context.WithoutCancel(ctx), task.ID, task.Status, task.Result); updateErr != nil {
				o.logger.Task(task.ID, "failed to update task failure state", map[string]any{
					"update_error":   updateErr.Error(),
					"original_error": err.Error(),
				})
			}
		}

		return err
	}

	return nil
}

func (o *orchestrator) GetTask(ctx context.Context, taskID string) (*tasks.Task, error) {
	task, err := o.store.Get(ctx, taskID)
	if stderrors.Is(err, store.ErrTaskNotFound) {
		return nil, errors.NewNotFoundError(fmt.Sprintf("task %s not found", taskID))
	}
	if err != nil {
		return nil, errors.NewUnavailableError("task store unavailable", map[string]any{
			"task_id": taskID,
			"error":   err.Error(),
		})
	}
	return task, nil
}

func (o *orchestrator) GetTaskStatus(ctx context.Context, taskID string) (tasks.TaskStatus, error) {
	task, err := o.GetTask(ctx, taskID)
	if err != nil {
		return "", err
	}
	return task.Status, nil
}
