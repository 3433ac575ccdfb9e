package store

import (
	"context"
	"errors"

	"beacons-hub/tasks"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskStore persists task metadata so any process can observe a task's
// lifecycle.
type TaskStore interface {
	Save(ctx context.Context, task *tasks.Task) error
	Get(ctx context.Context, id string) (*tasks.Task, error)
	Update(ctx context.Context, id string, status tasks.TaskStatus, result string) error
}
