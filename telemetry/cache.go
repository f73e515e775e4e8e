package telemetry

import "sync"

// ChangeCache is a process-lifetime mapping from comparison key to the last
// published canonical value, used to suppress redundant publishes.
//
// Entries are never evicted: the cache grows with the number of distinct
// keys ever seen and lives for the process lifetime. Instances are created
// explicitly and injected so tests get isolated caches instead of sharing
// process-wide state.
type ChangeCache struct {
	mu   sync.Mutex
	last map[string]string
}

// NewChangeCache creates an empty change cache.
func NewChangeCache() *ChangeCache {
	return &ChangeCache{
		last: make(map[string]string),
	}
}

// ShouldPublish reports whether the value under key changed since the last
// publish, committing canonical as the new last-known value when it did.
// First observation of any key always publishes: there is no implicit
// baseline at cold start.
//
// Consult and commit happen atomically under one lock, so concurrent
// callers cannot both decide "changed" for the same key. A true answer must
// be followed by an actual publish attempt; the commit has already
// happened.
func (c *ChangeCache) ShouldPublish(key, canonical string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, seen := c.last[key]
	if seen && prev == canonical {
		return false
	}
	c.last[key] = canonical
	return true
}

// Size returns the number of keys currently tracked.
func (c *ChangeCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.last)
}

// Keys returns all tracked comparison keys.
func (c *ChangeCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.last))
	for key := range c.last {
		keys = append(keys, key)
	}
	return keys
}

// Reset clears all entries. Test support only; production code never resets
// the cache.
func (c *ChangeCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = make(map[string]string)
}
