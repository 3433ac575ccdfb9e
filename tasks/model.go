package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle of a background task.
type TaskStatus string

const (
	StatusPending TaskStatus = "pending"
	StatusStarted TaskStatus = "started"
	StatusSuccess TaskStatus = "success"
	StatusFailure TaskStatus = "failure"
)

// TypeSequenceSearch is the task that follows one dispatcher job to completion.
const TypeSequenceSearch = "sequence_search"

var ErrInvalidTransition = errors.New("invalid task status transition")

func (s TaskStatus) String() string {
	return string(s)
}

// IsFinal reports whether no further transition is possible.
func (s TaskStatus) IsFinal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// IsActive reports whether a task is waiting or being worked on.
func (s TaskStatus) IsActive() bool {
	return s == StatusPending || s == StatusStarted
}

var transitions = map[TaskStatus][]TaskStatus{
	StatusPending: {StatusStarted, StatusFailure},
	StatusStarted: {StatusSuccess, StatusFailure},
}

func (s TaskStatus) canTransitionTo(next TaskStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Task struct {
	ID   string `json:"id" msgpack:"id"`
	Type string `json:"type" msgpack:"type"`
	// Decoded by the handler registered for Type.
	Payload json.RawMessage `json:"payload" msgpack:"payload"`
	Status  TaskStatus      `json:"status" msgpack:"status"`
	// Human readable outcome. Materialized results live in the cache.
	Result    string    `json:"result,omitempty" msgpack:"result"`
	CreatedAt time.Time `json:"created_at" msgpack:"created_at"`
	UpdatedAt time.Time `json:"updated_at" msgpack:"updated_at"`
}

// NewTask creates a pending task with a fresh ID. The ID is known before the
// task is scheduled so callers can register it first.
func NewTask(taskType string, payload json.RawMessage) *Task {
	now := time.Now().UTC()
	return &Task{
		ID:        uuid.New().String(),
		Type:      taskType,
		Payload:   payload,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetStatus moves the task to next, rejecting transitions the lifecycle does
// not allow.
func (t *Task) SetStatus(next TaskStatus) error {
	if !t.Status.canTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, next)
	}
	t.Status = next
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// SequenceSearchPayload identifies the dispatcher job a sequence_search task
// follows.
type SequenceSearchPayload struct {
	JobID        string `json:"job_id"`
	SequenceHash string `json:"sequence_hash"`
}
