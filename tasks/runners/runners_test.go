package runners_test

import (
	"context"
	"errors"
	"testing"

	apierrors "beacons-hub/errors"
	"beacons-hub/tasks"
	"beacons-hub/tasks/queue"
	"beacons-hub/tasks/registry"
	"beacons-hub/tasks/runners"

	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"
)

type handlerFunc func(ctx context.Context, task *tasks.Task) error

func (f handlerFunc) Run(ctx context.Context, task *tasks.Task) error { return f(ctx, task) }

type failingQueue struct {
	queue.TaskQueue
	err error
}

func (q failingQueue) Enqueue(context.Context, *tasks.Task) error { return q.err }

func newRegistry(h handlerFunc) *registry.HandlerRegistry {
	reg := registry.NewRegistry()
	reg.Register(tasks.TypeSequenceSearch, h)
	return reg
}

func TestAsynchronousRunner_Enqueues(t *testing.T) {
	q := queue.NewMemoryTaskQueue(4)
	runner := runners.NewAsynchronousRunner(q, newRegistry(nil))
	task := tasks.NewTask(tasks.TypeSequenceSearch, []byte(`{}`))

	require.NoError(t, runner.Run(context.Background(), task))

	depth, err := q.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)

	got, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
}

func TestAsynchronousRunner_UnregisteredType(t *testing.T) {
	q := queue.NewMemoryTaskQueue(4)
	runner := runners.NewAsynchronousRunner(q, registry.NewRegistry())

	err := runner.Run(context.Background(), tasks.NewTask("unknown", nil))

	apiErr, ok := apierrors.AsAPIError(err)
	assert.Assert(t, ok)
	assert.Equal(t, apierrors.NotFoundError, apiErr.Type)

	depth, _ := q.Depth(context.Background())
	assert.Equal(t, int64(0), depth)
}

func TestAsynchronousRunner_QueueFailure(t *testing.T) {
	runner := runners.NewAsynchronousRunner(failingQueue{err: errors.New("connection refused")}, newRegistry(nil))

	err := runner.Run(context.Background(), tasks.NewTask(tasks.TypeSequenceSearch, nil))

	apiErr, ok := apierrors.AsAPIError(err)
	assert.Assert(t, ok)
	assert.Equal(t, apierrors.UnavailableError, apiErr.Type)
	assert.Equal(t, "connection refused", apiErr.Details["error"])
}

func TestSynchronousRunner(t *testing.T) {
	testCases := []struct {
		name     string
		handler  handlerFunc
		wantType apierrors.ErrorType
	}{
		{
			name: "success",
			handler: func(_ context.Context, task *tasks.Task) error {
				task.Result = "done"
				return nil
			},
		},
		{
			name: "plain error becomes execution error",
			handler: func(context.Context, *tasks.Task) error {
				return errors.New("boom")
			},
			wantType: apierrors.ExecutionError,
		},
		{
			name: "structured error preserved",
			handler: func(context.Context, *tasks.Task) error {
				return apierrors.NewValidationError("bad payload")
			},
			wantType: apierrors.ValidationError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			runner := runners.NewSynchronousRunner(newRegistry(tc.handler))
			task := tasks.NewTask(tasks.TypeSequenceSearch, nil)

			err := runner.Run(context.Background(), task)

			if tc.wantType == "" {
				assert.NilError(t, err)
				assert.Equal(t, "done", task.Result)
				return
			}
			apiErr, ok := apierrors.AsAPIError(err)
			assert.Assert(t, ok)
			assert.Equal(t, tc.wantType, apiErr.Type)
		})
	}

	err := runners.NewSynchronousRunner(registry.NewRegistry()).Run(context.Background(), tasks.NewTask("unknown", nil))
	apiErr, ok := apierrors.AsAPIError(err)
	assert.Assert(t, ok)
	assert.Equal(t, apierrors.NotFoundError, apiErr.Type)
}
