package cache

import (
	"sync"
	"time"
)

// Cache stores values under string keys for a bounded time. The delivery
// subsystem uses it to remember destination validation outcomes; other
// backing stores can be substituted through this interface.
type Cache interface {
	// Get returns the value under key and true, or nil and false when the
	// key is absent or expired.
	Get(key string) (interface{}, bool)

	// Set stores value under key. A ttl of zero or less means the value
	// never expires.
	Set(key string, value interface{}, ttl time.Duration)

	// Delete removes key.
	Delete(key string)

	// Size returns the number of live entries.
	Size() int

	// Stop shuts down background maintenance. Safe to call more than once.
	Stop()
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// live reports whether the entry is still valid at now. A zero expiresAt
// never expires.
func (e entry) live(now time.Time) bool {
	return e.expiresAt.IsZero() || now.Before(e.expiresAt)
}

// InMemoryCache is a mutex-guarded map with a janitor goroutine that
// evicts expired entries on an interval.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry

	done     chan struct{}
	stopOnce sync.Once
}

// NewInMemoryCache creates a cache whose janitor runs every
// cleanupInterval. The interval must be positive.
func NewInMemoryCache(cleanupInterval time.Duration) *InMemoryCache {
	c := &InMemoryCache{
		entries: make(map[string]entry),
		done:    make(chan struct{}),
	}
	go c.janitor(cleanupInterval)
	return c
}

func (c *InMemoryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !e.live(time.Now()) {
		return nil, false
	}
	return e.value, true
}

func (c *InMemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: expiresAt}
}

func (c *InMemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *InMemoryCache) Size() int {
	now := time.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, e := range c.entries {
		if e.live(now) {
			n++
		}
	}
	return n
}

func (c *InMemoryCache) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

func (c *InMemoryCache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.done:
			return
		}
	}
}

func (c *InMemoryCache) evictExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if !e.live(now) {
			delete(c.entries, key)
		}
	}
}
