package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"beacons-hub/tasks"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gotest.tools/v3/assert"
)

func newSearchTask(hash string) *tasks.Task {
	payload, _ := json.Marshal(tasks.SequenceSearchPayload{JobID: "ncbiblast-" + hash, SequenceHash: hash})
	return tasks.NewTask(tasks.TypeSequenceSearch, payload)
}

func newMiniredisQueue(t *testing.T) *RedisTaskQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	q := NewRedisTaskQueueFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "sequence-search-test")
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func forEachQueue(t *testing.T, fn func(t *testing.T, q TaskQueue)) {
	t.Run("memory", func(t *testing.T) {
		q := NewMemoryTaskQueue(16)
		t.Cleanup(func() { _ = q.Close() })
		fn(t, q)
	})
	t.Run("redis", func(t *testing.T) {
		fn(t, newMiniredisQueue(t))
	})
}

// testQueueBasicOperations is shared with the integration suite.
func testQueueBasicOperations(t *testing.T, q TaskQueue) {
	ctx := context.Background()
	original := newSearchTask("abc")

	assert.NilError(t, q.Enqueue(ctx, original))

	depth, err := q.Depth(ctx)
	assert.NilError(t, err)
	assert.Equal(t, int64(1), depth)

	got, err := q.Dequeue(ctx)
	assert.NilError(t, err)
	assert.Equal(t, original.ID, got.ID)
	assert.Equal(t, original.Type, got.Type)
	assert.Equal(t, tasks.StatusPending, got.Status)
	assert.Equal(t, string(original.Payload), string(got.Payload))

	depth, err = q.Depth(ctx)
	assert.NilError(t, err)
	assert.Equal(t, int64(0), depth)
}

func testQueueFIFOOrdering(t *testing.T, q TaskQueue) {
	ctx := context.Background()

	queued := []*tasks.Task{newSearchTask("first"), newSearchTask("second"), newSearchTask("third")}
	for _, task := range queued {
		assert.NilError(t, q.Enqueue(ctx, task))
	}

	for i, want := range queued {
		got, err := q.Dequeue(ctx)
		assert.NilError(t, err, "dequeue %d", i)
		assert.Equal(t, want.ID, got.ID)
	}
}

func testQueueDequeueHonoursContext(t *testing.T, q TaskQueue) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := q.Dequeue(ctx)

	assert.Assert(t, err != nil)
	assert.Assert(t, time.Since(start) < 3*time.Second)
}

func TestQueue_BasicOperations(t *testing.T) {
	forEachQueue(t, testQueueBasicOperations)
}

func TestQueue_FIFOOrdering(t *testing.T) {
	forEachQueue(t, testQueueFIFOOrdering)
}

func TestQueue_DequeueHonoursContext(t *testing.T) {
	forEachQueue(t, testQueueDequeueHonoursContext)
}

func TestMemoryTaskQueue_Close(t *testing.T) {
	q := NewMemoryTaskQueue(1)
	assert.NilError(t, q.Close())
	assert.NilError(t, q.Close())

	err := q.Enqueue(context.Background(), newSearchTask("abc"))
	assert.ErrorIs(t, err, ErrQueueClosed)

	_, err = q.Dequeue(context.Background())
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestMemoryTaskQueue_EnqueueCopiesTask(t *testing.T) {
	q := NewMemoryTaskQueue(1)
	task := newSearchTask("abc")

	assert.NilError(t, q.Enqueue(context.Background(), task))
	task.Result = "mutated after enqueue"

	got, err := q.Dequeue(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, "", got.Result)
}
