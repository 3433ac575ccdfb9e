package handlers

import (
	"context"

	"beacons-hub/tasks"
)

// TaskHandler is the business logic behind one task type. A returned error
// marks the task as failed.
type TaskHandler interface {
	Run(ctx context.Context, task *tasks.Task) error
}
