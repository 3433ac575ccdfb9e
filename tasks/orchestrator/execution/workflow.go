package execution

import (
	"context"

	"beacons-hub/logger"
	"beacons-hub/tasks"
	"beacons-hub/tasks/runners"
)

// ExecutionWorkflow drives one task through started to success or failure.
type ExecutionWorkflow interface {
	Execute(ctx context.Context, task *tasks.Task) error
}

type DefaultExecutionWorkflow struct {
	runner        runners.Runner
	stateManager  StateManager
	resultHandler ResultHandler
	logger        *logger.Logger
}

func NewDefaultExecutionWorkflow(
	runner runners.Runner,
	stateManager StateManager,
	resultHandler ResultHandler,
	logger *logger.Logger,
) *DefaultExecutionWorkflow {
	return &DefaultExecutionWorkflow{
		runner:        runner,
		stateManager:  stateManager,
		resultHandler: resultHandler,
		logger:        logger,
	}
}

// Execute runs the task and returns the handler's error. Final states are
// persisted even if ctx was cancelled meanwhile.
func (w *DefaultExecutionWorkflow) Execute(ctx context.Context, task *tasks.Task) error {
	execCtx := NewExecutionContext(task)

	if err := w.stateManager.TransitionToStarted(ctx, execCtx); err != nil {
		return err
	}

	finalCtx := context.WithoutCancel(ctx)

	if err := w.runner.Run(ctx, task); err != nil {
		execCtx.SetError(err)
		w.logger.Task(task.ID, "execution failed", map[string]any{
			"error":       err.Error(),
			"interrupted": execCtx.Interrupted,
		})

		w.resultHandler.HandleFailure(execCtx)

		if transitionErr := w.stateManager.TransitionToFailed(finalCtx, execCtx); transitionErr != nil {
			w.logger.Error("failed to transition task to failed state", map[string]any{
				"task_id":          task.ID,
				"transition_error": transitionErr.Error(),
				"original_error":   err.Error(),
			})
		}

		return err
	}

	w.resultHandler.HandleSuccess(execCtx)
	if err := w.stateManager.TransitionToSucceeded(finalCtx, execCtx); err != nil {
		w.logger.Error("failed to transition task to success state after successful execution", map[string]any{
			"task_id": task.ID,
			"error":   err.Error(),
		})
	}

	w.logger.Task(task.ID, "task completed", map[string]any{
		"status":      task.Status.String(),
		"duration_ms": execCtx.Duration().Milliseconds(),
		"result":      task.Result,
	})

	return nil
}
