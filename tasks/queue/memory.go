package queue

import (
	"context"
	"fmt"
	"sync"

	"beacons-hub/tasks"
)

var _ TaskQueue = (*MemoryTaskQueue)(nil)

// MemoryTaskQueue is an in-process FIFO backed by a buffered channel. It only
// serves workers running in the same process.
type MemoryTaskQueue struct {
	ch        chan *tasks.Task
	done      chan struct{}
	closeOnce sync.Once
}

func NewMemoryTaskQueue(capacity int) *MemoryTaskQueue {
	return &MemoryTaskQueue{
		ch:   make(chan *tasks.Task, capacity),
		done: make(chan struct{}),
	}
}

func (q *MemoryTaskQueue) Enqueue(ctx context.Context, task *tasks.Task) error {
	copied := *task

	select {
	case <-q.done:
		return ErrQueueClosed
	default:
	}

	select {
	case q.ch <- &copied:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return fmt.Errorf("failed to enqueue task: %w", ctx.Err())
	}
}

func (q *MemoryTaskQueue) Dequeue(ctx context.Context) (*tasks.Task, error) {
	select {
	case task := <-q.ch:
		return task, nil
	case <-q.done:
		return nil, ErrQueueClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryTaskQueue) Depth(context.Context) (int64, error) {
	return int64(len(q.ch)), nil
}

func (q *MemoryTaskQueue) Close() error {
	q.closeOnce.Do(func() {
		close(q.done)
	})
	return nil
}
