package sequence

import (
	"context"
	"errors"
	"fmt"

	"beacons-hub/cache"

	"github.com/vmihailenco/msgpack/v5"
)

// Store is the typed view of the search state kept in the cache:
// sequence hash to job handle, sequence hash to task handle, and task handle
// to materialized results. Values are msgpack encoded.
type Store struct {
	cache cache.Cache
}

func NewStore(c cache.Cache) *Store {
	return &Store{cache: c}
}

// JobHandle returns the dispatcher job of hash, or cache.ErrNotFound.
func (s *Store) JobHandle(ctx context.Context, hash string) (string, error) {
	return s.getString(ctx, cache.SequenceJobs, hash)
}

func (s *Store) SetJobHandle(ctx context.Context, hash, handle string) error {
	return s.setString(ctx, cache.SequenceJobs, hash, handle)
}

func (s *Store) ClearJobHandle(ctx context.Context, hash string) error {
	return s.cache.Delete(ctx, cache.SequenceJobs, hash)
}

// TaskHandle returns the authoritative orchestrator task of hash, or
// cache.ErrNotFound.
func (s *Store) TaskHandle(ctx context.Context, hash string) (string, error) {
	return s.getString(ctx, cache.SequenceTasks, hash)
}

func (s *Store) SetTaskHandle(ctx context.Context, hash, handle string) error {
	return s.setString(ctx, cache.SequenceTasks, hash, handle)
}

func (s *Store) ClearTaskHandle(ctx context.Context, hash string) error {
	return s.cache.Delete(ctx, cache.SequenceTasks, hash)
}

// ReleaseTaskHandle removes the task handle of hash only while it still equals
// handle, so a superseded task cannot remove its successor's registration.
func (s *Store) ReleaseTaskHandle(ctx context.Context, hash, handle string) (bool, error) {
	packed, err := msgpack.Marshal(handle)
	if err != nil {
		return false, err
	}
	return s.cache.CompareAndDelete(ctx, cache.SequenceTasks, hash, packed)
}

// Release removes both handles of hash on behalf of the task registered as
// taskHandle. When a newer task owns the registration nothing is removed and
// false is returned.
func (s *Store) Release(ctx context.Context, hash, taskHandle string) (bool, error) {
	released, err := s.ReleaseTaskHandle(ctx, hash, taskHandle)
	if err != nil || !released {
		return false, err
	}
	return true, s.ClearJobHandle(ctx, hash)
}

// Clear removes both handles of hash.
func (s *Store) Clear(ctx context.Context, hash string) error {
	return errors.Join(
		s.ClearJobHandle(ctx, hash),
		s.ClearTaskHandle(ctx, hash),
	)
}

// Results returns the materialized results of a task, or cache.ErrNotFound.
func (s *Store) Results(ctx context.Context, taskHandle string) (map[string]HitRecord, error) {
	data, err := s.cache.Get(ctx, cache.JobResults, taskHandle)
	if err != nil {
		return nil, err
	}

	var records map[string]HitRecord
	if err := msgpack.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding results of %s: %w", taskHandle, err)
	}
	return records, nil
}

func (s *Store) SetResults(ctx context.Context, taskHandle string, records map[string]HitRecord) error {
	data, err := msgpack.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding results of %s: %w", taskHandle, err)
	}
	return s.cache.Set(ctx, cache.JobResults, taskHandle, data)
}

func (s *Store) ClearResults(ctx context.Context, taskHandle string) error {
	return s.cache.Delete(ctx, cache.JobResults, taskHandle)
}

// Ping checks the underlying cache.
func (s *Store) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

func (s *Store) getString(ctx context.Context, ns cache.Namespace, key string) (string, error) {
	data, err := s.cache.Get(ctx, ns, key)
	if err != nil {
		return "", err
	}
	var v string
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return "", fmt.Errorf("decoding %s entry: %w", ns, err)
	}
	return v, nil
}

func (s *Store) setString(ctx context.Context, ns cache.Namespace, key, value string) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, ns, key, data)
}
