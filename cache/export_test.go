package cache

import "time"

// SetClock replaces the time source of a MemoryCache.
func SetClock(c *MemoryCache, now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
