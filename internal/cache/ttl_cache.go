package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTTL is applied by Set when no positive TTL is given.
const DefaultTTL = time.Hour

// entry stores a cached value together with its insertion and expiration timestamps.
type entry[V any] struct {
	value      V
	insertedAt time.Time
	expiresAt  time.Time
}

func (e entry[V]) expired(at time.Time) bool {
	return !at.Before(e.expiresAt)
}

// Options controls construction of a TTLCache.
type Options struct {
	// DefaultTTL is used when Set receives ttl <= 0. Zero means DefaultTTL.
	DefaultTTL time.Duration

	// Namespace is prefixed to every key so several logical caches can share
	// one process without colliding.
	Namespace string

	// ResetStatsOnFlush makes FlushAll also zero the hit/miss counters.
	// The default keeps counters for the whole process lifetime.
	ResetStatsOnFlush bool
}

// TTLCache is a map-backed cache with per-item TTL and lazy expiry.
// Expired entries read as absent; they are physically removed by PurgeExpired
// or by the janitor started with StartJanitor.
type TTLCache[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]

	hits   atomic.Uint64
	misses atomic.Uint64

	opts Options
}

// New constructs a TTLCache with the given options.
func New[V any](opts Options) *TTLCache[V] {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	return &TTLCache[V]{
		items: make(map[string]entry[V]),
		opts:  opts,
	}
}

// now is a small indirection to allow test stubbing.
var now = time.Now

func (c *TTLCache[V]) key(k string) string {
	if c.opts.Namespace == "" {
		return k
	}
	return c.opts.Namespace + ":" + k
}

// Get implements Cache.Get.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[c.key(key)]
	c.mu.RUnlock()

	if !ok || e.expired(now()) {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Peek implements Cache.Peek.
func (c *TTLCache[V]) Peek(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[c.key(key)]
	if !ok || e.expired(now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set implements Cache.Set.
func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.opts.DefaultTTL
	}
	ts := now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[c.key(key)] = entry[V]{
		value:      value,
		insertedAt: ts,
		expiresAt:  ts.Add(ttl),
	}
}

// Delete implements Cache.Delete.
func (c *TTLCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, c.key(key))
}

// Has implements Cache.Has.
func (c *TTLCache[V]) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[c.key(key)]
	return ok && !e.expired(now())
}

// Age returns how long ago a live entry was inserted.
func (c *TTLCache[V]) Age(key string) (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[c.key(key)]
	ts := now()
	if !ok || e.expired(ts) {
		return 0, false
	}
	return ts.Sub(e.insertedAt), true
}

// Len implements Cache.Len. It counts only non-expired entries.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ts := now()
	count := 0
	for _, e := range c.items {
		if !e.expired(ts) {
			count++
		}
	}
	return count
}

// Stats implements Cache.Stats.
func (c *TTLCache[V]) Stats() Stats {
	hits, misses := c.hits.Load(), c.misses.Load()
	return Stats{
		Keys:    c.Len(),
		Hits:    hits,
		Misses:  misses,
		HitRate: hitRate(hits, misses),
	}
}

// FlushAll implements Cache.FlushAll.
func (c *TTLCache[V]) FlushAll() {
	c.mu.Lock()
	c.items = make(map[string]entry[V])
	c.mu.Unlock()

	if c.opts.ResetStatsOnFlush {
		c.hits.Store(0)
		c.misses.Store(0)
	}
}

// PurgeExpired implements Cache.PurgeExpired.
func (c *TTLCache[V]) PurgeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return
	}
	ts := now()
	for k, e := range c.items {
		if e.expired(ts) {
			delete(c.items, k)
		}
	}
}

// StartJanitor purges expired entries every interval until ctx is done.
func (c *TTLCache[V]) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.PurgeExpired()
			}
		}
	}()
}

// Ensure TTLCache implements Cache at compile time.
var _ Cache[any] = (*TTLCache[any])(nil)
