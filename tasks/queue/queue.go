package queue

import (
	"context"
	"errors"

	"beacons-hub/tasks"
)

var ErrQueueClosed = errors.New("task queue closed")

// TaskQueue hands tasks from the API process to the workers.
type TaskQueue interface {
	// Enqueue adds a task to the queue
	Enqueue(ctx context.Context, task *tasks.Task) error

	// Dequeue blocks until a task is available or ctx is done
	Dequeue(ctx context.Context) (*tasks.Task, error)

	// Depth returns the number of tasks waiting in queue
	Depth(ctx context.Context) (int64, error)

	Close() error
}
