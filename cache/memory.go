package cache

import (
	"bytes"
	"context"
	"sync"
	"time"
)

var _ Cache = (*MemoryCache)(nil)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is an in-process Cache for single-binary deployments and tests.
// Expired entries are dropped lazily on access.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryCache creates a cache; a zero ttl disables expiry.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Get(_ context.Context, ns Namespace, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := ns.key(key)
	entry, ok := c.entries[k]
	if !ok {
		return nil, ErrNotFound
	}
	if entry.expired(c.now()) {
		delete(c.entries, k)
		return nil, ErrNotFound
	}

	return bytes.Clone(entry.value), nil
}

func (c *MemoryCache) Set(_ context.Context, ns Namespace, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{value: bytes.Clone(value)}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}
	c.entries[ns.key(key)] = entry
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, ns Namespace, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, ns.key(key))
	return nil
}

func (c *MemoryCache) CompareAndDelete(_ context.Context, ns Namespace, key string, expected []byte) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := ns.key(key)
	entry, ok := c.entries[k]
	if !ok || entry.expired(c.now()) || !bytes.Equal(entry.value, expected) {
		return false, nil
	}

	delete(c.entries, k)
	return true, nil
}

func (c *MemoryCache) Ping(context.Context) error { return nil }

func (c *MemoryCache) Close() error { return nil }

// Len reports the number of live entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	n := 0
	for _, e := range c.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}
