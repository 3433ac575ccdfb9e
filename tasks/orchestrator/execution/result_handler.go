package execution

import (
	"fmt"

	"beacons-hub/errors"
)

// ResultHandler fills in the task result at the end of an execution.
type ResultHandler interface {
	HandleSuccess(ctx *ExecutionContext)
	HandleFailure(ctx *ExecutionContext)
}

// DefaultResultHandler keeps results set by handlers and only fills in a
// message for failures that left none.
type DefaultResultHandler struct{}

func NewDefaultResultHandler() *DefaultResultHandler {
	return &DefaultResultHandler{}
}

func (h *DefaultResultHandler) HandleSuccess(ctx *ExecutionContext) {
	ctx.SetSuccess()
}

func (h *DefaultResultHandler) HandleFailure(ctx *ExecutionContext) {
	if ctx.Task.Result != "" {
		return
	}
	if ctx.Interrupted {
		ctx.Task.Result = "interrupted before the search finished, resubmit the sequence"
		return
	}
	if apiErr, ok := errors.AsAPIError(ctx.Error); ok {
		ctx.Task.Result = fmt.Sprintf("task %s: %s", apiErr.Type, apiErr.Message)
		return
	}
	ctx.Task.Result = fmt.Sprintf("execution failed: %s", ctx.Error.Error())
}
