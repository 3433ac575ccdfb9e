package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"beacons-hub/tasks"
)

// Compile-time check to ensure MemoryTaskStore implements TaskStore interface
var _ TaskStore = (*MemoryTaskStore)(nil)

// MemoryTaskStore keeps task metadata in process memory.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*tasks.Task
}

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{
		tasks: make(map[string]*tasks.Task),
	}
}

// Save adds a new task. IDs must be unique.
func (s *MemoryTaskStore) Save(_ context.Context, task *tasks.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("task with ID %s already exists", task.ID)
	}

	copied := *task
	s.tasks[task.ID] = &copied
	return nil
}

// Get returns a copy so callers cannot mutate stored state.
func (s *MemoryTaskStore) Get(_ context.Context, id string) (*tasks.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task with ID %s: %w", id, ErrTaskNotFound)
	}

	copied := *task
	return &copied, nil
}

func (s *MemoryTaskStore) Update(_ context.Context, id string, status tasks.TaskStatus, result string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("task with ID %s: %w", id, ErrTaskNotFound)
	}

	task.Status = status
	task.Result = result
	task.UpdatedAt = time.Now().UTC()

	return nil
}
