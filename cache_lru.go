package memoize

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUCache memoizes into a capacity-bounded LRU backed by
// hashicorp/golang-lru. Eviction of the least recently used entry is the
// backend's business; a memoized method sees it as a miss and recomputes.
type LRUCache struct {
	cache *lru.Cache[string, any]
}

// NewLRUCache creates a bounded cache holding at most size entries.
// size must be positive; for a cache that holds nothing, use
// NewDiscardCache, which keeps zero-capacity semantics without eviction
// machinery.
func NewLRUCache(size int) (*LRUCache, error) {
	cache, err := lru.New[string, any](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{cache: cache}, nil
}

func (c *LRUCache) Driver() Driver {
	return DriverLRU
}

func (c *LRUCache) Lookup(_ context.Context, key string) (any, bool) {
	return c.cache.Get(key)
}

func (c *LRUCache) Store(_ context.Context, key string, value any) bool {
	c.cache.Add(key, value)
	return true
}

// Flush drops every entry.
func (c *LRUCache) Flush() {
	c.cache.Purge()
}

// Len reports the number of resident entries.
func (c *LRUCache) Len() int {
	return c.cache.Len()
}

var _ Cache = (*LRUCache)(nil)
