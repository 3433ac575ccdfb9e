package cache

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// Namespace partitions the key space of a Cache.
type Namespace string

const (
	// SequenceJobs maps a sequence hash to the dispatcher job handle.
	SequenceJobs Namespace = "sequence-jdid-mapping"
	// SequenceTasks maps a sequence hash to the authoritative task handle.
	SequenceTasks Namespace = "sequence-task-mapping"
	// JobResults maps a task handle to the packed hit records.
	JobResults Namespace = "job-results"
)

func (n Namespace) key(k string) string {
	return string(n) + ":" + k
}

// Cache is a namespaced byte-value store. Every operation touches a single key.
type Cache interface {
	Get(ctx context.Context, ns Namespace, key string) ([]byte, error)
	Set(ctx context.Context, ns Namespace, key string, value []byte) error
	// Delete removes the key; deleting an absent key is not an error.
	Delete(ctx context.Context, ns Namespace, key string) error
	// CompareAndDelete removes the key only if it currently holds expected.
	CompareAndDelete(ctx context.Context, ns Namespace, key string, expected []byte) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}
