package memoize

import (
	"context"
	"time"
)

// Driver identifies a cache backend.
type Driver string

const (
	DriverDiscard Driver = "discard"
	DriverMemory  Driver = "memory"
	DriverLRU     Driver = "lru"
	DriverFile    Driver = "file"
	DriverRedis   Driver = "redis"
	DriverSQL     Driver = "sql"
	DriverDynamo  Driver = "dynamodb"
	DriverNATS    Driver = "nats"
)

// Cache is the store a memoized method consults. Implementations delegate
// eviction entirely to their backend; entries may disappear between any two
// operations and callers must treat that as an ordinary miss.
//
// Contract:
//   - Lookup returns (nil, false) on miss. Backend failures are reported as
//     misses, never as errors; memoization degrades to recomputation.
//   - Store returns false when the backend refuses the entry (capacity,
//     size, connectivity). Rejection is expected and must not be retried.
//   - Implementations must be safe for concurrent use.
type Cache interface {
	Driver() Driver
	Lookup(ctx context.Context, key string) (any, bool)
	Store(ctx context.Context, key string, value any) bool
}

const (
	defaultCachePrefix = "memo"
	defaultCacheTTL    = 5 * time.Minute
)

// CacheConfig carries the knobs shared by the backend adapters.
type CacheConfig struct {
	// TTL is applied to stored entries by backends that expire; <= 0 means
	// the adapter default (remote backends fall back to 5 minutes).
	TTL time.Duration

	// Prefix namespaces keys on shared backends (e.g. redis).
	Prefix string

	// CleanupInterval controls how often the in-process backend sweeps
	// expired entries.
	CleanupInterval time.Duration

	// Codec converts values to and from bytes for byte-oriented backends.
	Codec Codec
}

func (c CacheConfig) withDefaults() CacheConfig {
	if c.TTL <= 0 {
		c.TTL = defaultCacheTTL
	}
	if c.Prefix == "" {
		c.Prefix = defaultCachePrefix
	}
	if c.Codec.Encode == nil || c.Codec.Decode == nil {
		c.Codec = RawJSON()
	}
	return c
}

// CacheOption mutates CacheConfig when constructing a backend adapter.
type CacheOption func(CacheConfig) CacheConfig

// WithTTL overrides the expiry applied to stored entries.
func WithTTL(ttl time.Duration) CacheOption {
	return func(cfg CacheConfig) CacheConfig {
		cfg.TTL = ttl
		return cfg
	}
}

// WithCleanupInterval overrides the sweep interval for the memory backend.
func WithCleanupInterval(interval time.Duration) CacheOption {
	return func(cfg CacheConfig) CacheConfig {
		cfg.CleanupInterval = interval
		return cfg
	}
}

// WithPrefix sets the key prefix for shared backends (e.g., redis).
func WithPrefix(prefix string) CacheOption {
	return func(cfg CacheConfig) CacheConfig {
		cfg.Prefix = prefix
		return cfg
	}
}

// WithCodec sets the value codec for byte-oriented backends.
func WithCodec(codec Codec) CacheOption {
	return func(cfg CacheConfig) CacheConfig {
		cfg.Codec = codec
		return cfg
	}
}

func resolveCacheConfig(opts []CacheOption) CacheConfig {
	var cfg CacheConfig
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	return cfg.withDefaults()
}
