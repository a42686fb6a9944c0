package catalog

import (
	"strings"
	"sync"
	"time"
)

type cacheEntry struct {
	value     any
	createdAt time.Time
	ttl       time.Duration
}

// TTLCache is an in-memory key/value cache with per-entry expiry. Eviction
// is lazy: an expired entry is removed on the read that finds it, there is
// no background sweeper.
//
// Each key carries a generation counter. A caller snapshots the generation
// before a slow fetch and stores the result with SetIfCurrent; if anything
// wrote or invalidated the key in between, the stale result is discarded
// instead of clobbering the newer entry.
type TTLCache struct {
	mu   sync.Mutex
	now  func() time.Time
	m    map[string]cacheEntry
	gens map[string]uint64
}

func NewTTLCache() *TTLCache {
	return NewTTLCacheWithClock(time.Now)
}

func NewTTLCacheWithClock(now func() time.Time) *TTLCache {
	return &TTLCache{
		now:  now,
		m:    make(map[string]cacheEntry),
		gens: make(map[string]uint64),
	}
}

func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.m[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.createdAt) >= e.ttl {
		delete(c.m, key)
		return nil, false
	}
	return e.value, true
}

func (c *TTLCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, value, ttl)
}

// Generation returns the key's current write generation. It materializes the
// key in the generation map so a later invalidation can bump it even though
// no entry was ever stored: the caller is about to fetch, and that in-flight
// fetch is exactly what invalidation must be able to defeat.
func (c *TTLCache) Generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := c.gens[key]
	c.gens[key] = g
	return g
}

// SetIfCurrent stores value only if the key's generation still matches gen,
// and reports whether the write happened.
func (c *TTLCache) SetIfCurrent(key string, value any, ttl time.Duration, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[key] != gen {
		return false
	}
	c.store(key, value, ttl)
	return true
}

func (c *TTLCache) store(key string, value any, ttl time.Duration) {
	c.m[key] = cacheEntry{value: value, createdAt: c.now(), ttl: ttl}
	c.gens[key]++
}

func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.m, key)
	c.gens[key]++
}

// DeletePrefix invalidates every entry whose key starts with prefix.
// Generations are walked rather than entries: a key being fetched right now
// has a generation but no entry, and its in-flight result must lose too.
func (c *TTLCache) DeletePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.gens {
		if strings.HasPrefix(key, prefix) {
			delete(c.m, key)
			c.gens[key]++
		}
	}
}

func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.gens {
		delete(c.m, key)
		c.gens[key]++
	}
}

func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
