package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"beacons-hub/tasks"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

const keyPrefix = "task-meta:"

var _ TaskStore = (*RedisTaskStore)(nil)

// RedisTaskStore keeps msgpack-encoded task metadata under task-meta:<id>.
// Entries expire after ttl; zero keeps them forever.
type RedisTaskStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTaskStore(client *redis.Client, ttl time.Duration) *RedisTaskStore {
	return &RedisTaskStore{client: client, ttl: ttl}
}

func (s *RedisTaskStore) Save(ctx context.Context, task *tasks.Task) error {
	data, err := msgpack.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	created, err := s.client.SetNX(ctx, keyPrefix+task.ID, data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save task %s: %w", task.ID, err)
	}
	if !created {
		return fmt.Errorf("task with ID %s already exists", task.ID)
	}
	return nil
}

func (s *RedisTaskStore) Get(ctx context.Context, id string) (*tasks.Task, error) {
	data, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("task with ID %s: %w", id, ErrTaskNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task %s: %w", id, err)
	}

	var task tasks.Task
	if err := msgpack.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task %s: %w", id, err)
	}
	return &task, nil
}

// Update rewrites status and result. Tasks are only updated by the worker
// that owns them, so read-modify-write is not raced.
func (s *RedisTaskStore) Update(ctx context.Context, id string, status tasks.TaskStatus, result string) error {
	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	task.Status = status
	task.Result = result
	task.UpdatedAt = time.Now().UTC()

	data, err := msgpack.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to update task %s: %w", id, err)
	}
	return nil
}
