package execution

import (
	"context"

	"beacons-hub/logger"
	"beacons-hub/tasks"
	"beacons-hub/tasks/store"
)

// StateManager applies lifecycle transitions and persists them.
type StateManager interface {
	TransitionToStarted(ctx context.Context, execCtx *ExecutionContext) error
	TransitionToFailed(ctx context.Context, execCtx *ExecutionContext) error
	TransitionToSucceeded(ctx context.Context, execCtx *ExecutionContext) error
}

// DefaultStateManager rejects invalid transitions but only logs persistence
// failures.
type DefaultStateManager struct {
	store  store.TaskStore
	logger *logger.Logger
}

func NewDefaultStateManager(store store.TaskStore, logger *logger.Logger) *DefaultStateManager {
	return &DefaultStateManager{
		store:  store,
		logger: logger,
	}
}

func (sm *DefaultStateManager) TransitionToStarted(ctx context.Context, execCtx *ExecutionContext) error {
	if err := execCtx.Task.SetStatus(tasks.StatusStarted); err != nil {
		return err
	}
	sm.persist(ctx, execCtx, "failed to update started status")
	return nil
}

// TransitionToFailed always records the failure, even from a state that
// should not fail, so the task never stays active forever.
func (sm *DefaultStateManager) TransitionToFailed(ctx context.Context, execCtx *ExecutionContext) error {
	if err := execCtx.Task.SetStatus(tasks.StatusFailure); err != nil {
		sm.logger.Task(execCtx.Task.ID, "forcing task status to failure", map[string]any{
			"error": err.Error(),
		})
		execCtx.Task.Status = tasks.StatusFailure
	}
	sm.persist(ctx, execCtx, "failed to update task failure state")
	return nil
}

func (sm *DefaultStateManager) TransitionToSucceeded(ctx context.Context, execCtx *ExecutionContext) error {
	if err := execCtx.Task.SetStatus(tasks.StatusSuccess); err != nil {
		return err
	}
	sm.persist(ctx, execCtx, "failed to update final task state")
	return nil
}

func (sm *DefaultStateManager) persist(ctx context.Context, execCtx *ExecutionContext, msg string) {
	task := execCtx.Task
	if err := sm.store.Update(ctx, task.ID, task.Status, task.Result); err != nil {
		fields := map[string]any{
			"error":  err.Error(),
			"status": task.Status.String(),
		}
		if execCtx.Error != nil {
			fields["original_error"] = execCtx.Error.Error()
		}
		sm.logger.Task(task.ID, msg, fields)
	}
}
