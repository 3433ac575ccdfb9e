package runners

import (
	"context"

	"beacons-hub/tasks"
)

// Runner executes or schedules a task.
type Runner interface {
	Run(ctx context.Context, task *tasks.Task) error
}
