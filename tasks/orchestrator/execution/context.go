package execution

import (
	"context"
	"errors"
	"time"

	"beacons-hub/tasks"
)

// ExecutionContext records one execution attempt of a task.
type ExecutionContext struct {
	Task      *tasks.Task
	Error     error
	StartTime time.Time
	EndTime   time.Time

	// Interrupted is set when the execution ended because its context was
	// cancelled, typically by worker shutdown, rather than by the handler.
	Interrupted bool
}

func NewExecutionContext(task *tasks.Task) *ExecutionContext {
	return &ExecutionContext{
		Task:      task,
		StartTime: time.Now(),
	}
}

func (ctx *ExecutionContext) SetError(err error) {
	ctx.Error = err
	ctx.EndTime = time.Now()
	ctx.Interrupted = errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (ctx *ExecutionContext) SetSuccess() {
	ctx.EndTime = time.Now()
}

func (ctx *ExecutionContext) IsSuccess() bool {
	return ctx.Error == nil
}

// Duration is the elapsed time so far, or the final duration once finished.
func (ctx *ExecutionContext) Duration() time.Duration {
	if ctx.EndTime.IsZero() {
		return time.Since(ctx.StartTime)
	}
	return ctx.EndTime.Sub(ctx.StartTime)
}
