package memoize

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const defaultMemoryCleanupInterval = 10 * time.Minute

// MemoryCache memoizes in-process on top of patrickmn/go-cache. Without
// WithTTL entries never expire, which matches plain map semantics; with a
// TTL the backend sweeps them on its own schedule and a memoized method
// simply recomputes after expiry.
type MemoryCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewMemoryCache creates an in-process cache.
//
// Example: memoize into an unbounded in-process cache
//
//	c := memoize.NewMemoryCache()
//	fmt.Println(c.Driver(), c.Len()) // memory 0
func NewMemoryCache(opts ...CacheOption) *MemoryCache {
	var cfg CacheConfig
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = defaultMemoryCleanupInterval
	}
	return &MemoryCache{
		cache: gocache.New(ttl, interval),
		ttl:   ttl,
	}
}

func (c *MemoryCache) Driver() Driver {
	return DriverMemory
}

func (c *MemoryCache) Lookup(_ context.Context, key string) (any, bool) {
	return c.cache.Get(key)
}

func (c *MemoryCache) Store(_ context.Context, key string, value any) bool {
	c.cache.Set(key, value, c.ttl)
	return true
}

// Flush drops every entry. Memoized methods recompute afterwards.
func (c *MemoryCache) Flush() {
	c.cache.Flush()
}

// Len reports the number of live entries, expired ones included until swept.
func (c *MemoryCache) Len() int {
	return c.cache.ItemCount()
}

var _ Cache = (*MemoryCache)(nil)
