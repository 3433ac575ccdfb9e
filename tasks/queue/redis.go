package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"beacons-hub/tasks"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// blocking pops are bounded so Dequeue notices a cancelled context
const popTimeout = time.Second

type RedisTaskQueue struct {
	client    *redis.Client
	queueName string
}

var _ TaskQueue = (*RedisTaskQueue)(nil)

func NewRedisTaskQueue(url, queueName string) (*RedisTaskQueue, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisTaskQueueFromClient(client, queueName), nil
}

// NewRedisTaskQueueFromClient wraps an existing client. Close closes it.
func NewRedisTaskQueueFromClient(client *redis.Client, queueName string) *RedisTaskQueue {
	return &RedisTaskQueue{
		client:    client,
		queueName: queueName,
	}
}

func (q *RedisTaskQueue) Enqueue(ctx context.Context, task *tasks.Task) error {
	data, err := msgpack.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	// LPUSH + BRPOP gives FIFO
	return q.client.LPush(ctx, q.queueName, data).Err()
}

func (q *RedisTaskQueue) Dequeue(ctx context.Context) (*tasks.Task, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := q.client.BRPop(ctx, popTimeout, q.queueName).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to dequeue task: %w", err)
		}

		// BRPop returns [queueName, value]
		if len(result) != 2 {
			return nil, fmt.Errorf("unexpected BRPop result format. Should have %d elements but got %d", 2, len(result))
		}

		var task tasks.Task
		if err := msgpack.Unmarshal([]byte(result[1]), &task); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task: %w", err)
		}

		return &task, nil
	}
}

func (q *RedisTaskQueue) Depth(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueName).Result()
}

func (q *RedisTaskQueue) Close() error {
	return q.client.Close()
}
