//go:build integration

package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisTestcontainer starts a throwaway Redis and returns a queue bound
// to a unique list. Docker being unavailable skips the test.
func setupRedisTestcontainer(t *testing.T) *RedisTaskQueue {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").WithOccurrence(1).WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skipf("Failed to start Redis testcontainer: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get Redis connection string: %v", err)
	}

	queueName := fmt.Sprintf("test_queue_%d", time.Now().UnixNano())

	var q *RedisTaskQueue
	for attempt := 1; attempt <= 5; attempt++ {
		q, err = NewRedisTaskQueue(connStr+"/1", queueName)
		if err == nil {
			break
		}
		t.Logf("Failed to connect to Redis, retrying... (%d/5): %v", attempt, err)
		time.Sleep(time.Duration(attempt) * 300 * time.Millisecond)
	}
	if q == nil {
		t.Fatalf("Failed to create Redis queue: %v", err)
	}

	t.Cleanup(func() {
		q.client.Del(context.Background(), queueName)
		_ = q.Close()
	})

	return q
}
