package cache

import (
	"math"
	"sync"
	"time"

	"github.com/evdnx/golog"

	"github.com/evdnx/goxchange/internal/logutil"
)

const cacheComponent = "cache"

// item is a cached value with its expiration time in UnixNano,
// zero meaning no expiration.
type item struct {
	value      interface{}
	expiration int64
}

// Cache is a simple in-memory cache with per-key expiration. A janitor
// goroutine sweeps expired entries; call Stop when the cache is no
// longer needed.
type Cache struct {
	items           map[string]item
	mu              sync.RWMutex
	maxSize         int
	cleanupInterval time.Duration
	stopJanitor     chan struct{}
}

// New creates a new cache with the given configuration
func New(config Config) *Cache {
	cache := &Cache{
		items:           make(map[string]item),
		maxSize:         config.MaxCacheSize,
		cleanupInterval: config.CleanupInterval,
		stopJanitor:     make(chan struct{}),
	}
	go cache.janitor()
	return cache
}

// Set adds a value to the cache with the given time-to-live
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiration int64
	if ttl > 0 {
		expiration = time.Now().Add(ttl).UnixNano()
	}
	c.items[key] = item{value: value, expiration: expiration}

	if c.maxSize > 0 && len(c.items) > c.maxSize {
		c.removeOldest()
	}
}

// removeOldest evicts the entry closest to expiring. Entries without an
// expiration are never evicted this way.
func (c *Cache) removeOldest() {
	var oldestKey string
	var oldestTime int64 = math.MaxInt64
	for key, it := range c.items {
		if it.expiration > 0 && it.expiration < oldestTime {
			oldestKey = key
			oldestTime = it.expiration
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
		logutil.Default().Debug("Evicted cache entry",
			golog.String("component", cacheComponent),
			golog.String("key", oldestKey),
			golog.Int("size", len(c.items)))
	}
}

// Get retrieves a value from the cache. Expired entries read as absent
// even before the janitor removes them.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, found := c.items[key]
	if !found {
		return nil, false
	}
	if it.expiration > 0 && time.Now().UnixNano() > it.expiration {
		return nil, false
	}
	return it.value, true
}

// Delete removes a single entry
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes all entries
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]item)
}

// Stop stops the janitor goroutine
func (c *Cache) Stop() {
	close(c.stopJanitor)
}

func (c *Cache) janitor() {
	interval := c.cleanupInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stopJanitor:
			return
		}
	}
}

func (c *Cache) deleteExpired() {
	now := time.Now().UnixNano()

	c.mu.Lock()
	defer c.mu.Unlock()
	for key, it := range c.items {
		if it.expiration > 0 && now > it.expiration {
			delete(c.items, key)
		}
	}
}
