package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	apierrors "beacons-hub/errors"
	"beacons-hub/logger"
	"beacons-hub/tasks"
	"beacons-hub/tasks/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, task *tasks.Task) error {
	args := m.Called(ctx, task)
	if fn, ok := args.Get(1).(func(*tasks.Task)); ok && fn != nil {
		fn(task)
	}
	return args.Error(0)
}

// failingStore fails every Update.
type failingStore struct {
	store.TaskStore
}

func (failingStore) Update(context.Context, string, tasks.TaskStatus, string) error {
	return errors.New("store unavailable")
}

func savedTask(t *testing.T, s store.TaskStore) *tasks.Task {
	t.Helper()
	task := tasks.NewTask(tasks.TypeSequenceSearch, []byte(`{}`))
	require.NoError(t, s.Save(context.Background(), task))
	return task
}

func newWorkflow(runner *MockRunner, s store.TaskStore, buf *bytes.Buffer) *DefaultExecutionWorkflow {
	lg := logger.New("DEBUG", buf)
	return NewDefaultExecutionWorkflow(runner, NewDefaultStateManager(s, lg), NewDefaultResultHandler(), lg)
}

func TestWorkflow_Success(t *testing.T) {
	s := store.NewMemoryTaskStore()
	task := savedTask(t, s)

	runner := &MockRunner{}
	runner.On("Run", mock.Anything, task).Return(nil, func(task *tasks.Task) {
		assert.Equal(t, tasks.StatusStarted, task.Status)
		task.Result = "2 hits, 2 with summary"
	})

	var buf bytes.Buffer
	err := newWorkflow(runner, s, &buf).Execute(context.Background(), task)

	require.NoError(t, err)
	runner.AssertExpectations(t)

	stored, err := s.Get(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusSuccess, stored.Status)
	assert.Equal(t, "2 hits, 2 with summary", stored.Result)
	assert.Contains(t, buf.String(), "task completed")
}

func TestWorkflow_Failure(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantResult string
	}{
		{"plain error", errors.New("boom"), "execution failed: boom"},
		{"structured error", apierrors.NewExecutionError("dispatcher gone"), "task execution: dispatcher gone"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := store.NewMemoryTaskStore()
			task := savedTask(t, s)

			runner := &MockRunner{}
			runner.On("Run", mock.Anything, task).Return(tc.err, nil)

			var buf bytes.Buffer
			err := newWorkflow(runner, s, &buf).Execute(context.Background(), task)

			assert.ErrorIs(t, err, tc.err)
			stored, getErr := s.Get(context.Background(), task.ID)
			require.NoError(t, getErr)
			assert.Equal(t, tasks.StatusFailure, stored.Status)
			assert.Equal(t, tc.wantResult, stored.Result)
		})
	}
}

func TestWorkflow_PersistsFinalStateAfterCancellation(t *testing.T) {
	s := store.NewMemoryTaskStore()
	task := savedTask(t, s)

	ctx, cancel := context.WithCancel(context.Background())

	runner := &MockRunner{}
	runner.On("Run", mock.Anything, task).Return(context.Canceled, func(*tasks.Task) { cancel() })

	var buf bytes.Buffer
	err := newWorkflow(runner, s, &buf).Execute(ctx, task)

	assert.ErrorIs(t, err, context.Canceled)
	stored, getErr := s.Get(context.Background(), task.ID)
	require.NoError(t, getErr)
	assert.Equal(t, tasks.StatusFailure, stored.Status)
}

func TestWorkflow_RejectsTaskAlreadyFinished(t *testing.T) {
	s := store.NewMemoryTaskStore()
	task := savedTask(t, s)
	require.NoError(t, task.SetStatus(tasks.StatusFailure))

	runner := &MockRunner{}

	var buf bytes.Buffer
	err := newWorkflow(runner, s, &buf).Execute(context.Background(), task)

	assert.ErrorIs(t, err, tasks.ErrInvalidTransition)
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestStateManager_StoreFailuresAreLogged(t *testing.T) {
	var buf bytes.Buffer
	sm := NewDefaultStateManager(failingStore{}, logger.New("DEBUG", &buf))
	execCtx := NewExecutionContext(tasks.NewTask(tasks.TypeSequenceSearch, nil))

	require.NoError(t, sm.TransitionToStarted(context.Background(), execCtx))
	require.NoError(t, sm.TransitionToSucceeded(context.Background(), execCtx))

	assert.Equal(t, tasks.StatusSuccess, execCtx.Task.Status)
	assert.Contains(t, buf.String(), "store unavailable")
}

func TestStateManager_FailureIsForced(t *testing.T) {
	s := store.NewMemoryTaskStore()
	task := savedTask(t, s)
	require.NoError(t, task.SetStatus(tasks.StatusStarted))
	require.NoError(t, task.SetStatus(tasks.StatusSuccess))

	sm := NewDefaultStateManager(s, logger.Discard())
	execCtx := NewExecutionContext(task)
	execCtx.SetError(errors.New("late failure"))

	require.NoError(t, sm.TransitionToFailed(context.Background(), execCtx))
	assert.Equal(t, tasks.StatusFailure, task.Status)
}

func TestResultHandler_KeepsHandlerResult(t *testing.T) {
	task := tasks.NewTask(tasks.TypeSequenceSearch, nil)
	task.Result = "custom error result"

	execCtx := NewExecutionContext(task)
	execCtx.SetError(errors.New("execution failed"))
	NewDefaultResultHandler().HandleFailure(execCtx)

	assert.Equal(t, "custom error result", task.Result)
}

func TestExecutionContext(t *testing.T) {
	execCtx := NewExecutionContext(tasks.NewTask(tasks.TypeSequenceSearch, nil))
	assert.True(t, execCtx.IsSuccess())
	assert.True(t, execCtx.EndTime.IsZero())

	time.Sleep(5 * time.Millisecond)
	execCtx.SetError(errors.New("boom"))

	assert.False(t, execCtx.IsSuccess())
	assert.False(t, execCtx.Interrupted)

	d := execCtx.Duration()
	assert.GreaterOrEqual(t, d, 5*time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, d, execCtx.Duration(), "duration is fixed once finished")
}

func TestResultHandler_InterruptedExecution(t *testing.T) {
	task := tasks.NewTask(tasks.TypeSequenceSearch, nil)

	execCtx := NewExecutionContext(task)
	execCtx.SetError(fmt.Errorf("polling dispatcher: %w", context.Canceled))
	NewDefaultResultHandler().HandleFailure(execCtx)

	assert.True(t, execCtx.Interrupted)
	assert.Contains(t, task.Result, "interrupted")
}
