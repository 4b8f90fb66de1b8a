package memoize

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient captures the subset of redis.Client used by the adapter.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// RedisCache memoizes into redis so results are shared across processes.
// Backend failures degrade to recomputation: a failed lookup is a miss and
// a failed store is a rejection, neither surfaces to the memoized call.
type RedisCache struct {
	client RedisClient
	ttl    time.Duration
	prefix string
	codec  Codec
}

// NewRedisCache creates a redis-backed cache. The client is required.
//
// Example: shared memoization over redis
//
//	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
//	c := memoize.NewRedisCache(client,
//		memoize.WithPrefix("users"),
//		memoize.WithTTL(time.Minute),
//		memoize.WithCodec(memoize.JSON[Profile]()),
//	)
//	fmt.Println(c.Driver()) // redis
func NewRedisCache(client RedisClient, opts ...CacheOption) *RedisCache {
	cfg := resolveCacheConfig(opts)
	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
		prefix: cfg.Prefix,
		codec:  cfg.Codec,
	}
}

func (c *RedisCache) Driver() Driver {
	return DriverRedis
}

func (c *RedisCache) Lookup(ctx context.Context, key string) (any, bool) {
	if c.client == nil {
		return nil, false
	}
	body, err := c.client.Get(ctx, c.cacheKey(key)).Bytes()
	if err != nil {
		return nil, false
	}
	value, err := c.codec.Decode(body)
	if err != nil {
		return nil, false
	}
	return value, true
}

func (c *RedisCache) Store(ctx context.Context, key string, value any) bool {
	if c.client == nil {
		return false
	}
	body, err := c.codec.Encode(value)
	if err != nil {
		return false
	}
	return c.client.Set(ctx, c.cacheKey(key), body, c.ttl).Err() == nil
}

// Flush removes every entry under this cache's prefix.
func (c *RedisCache) Flush(ctx context.Context) error {
	if c.client == nil {
		return errors.New("memoize: redis client unavailable")
	}
	pattern := c.cacheKey("*")
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *RedisCache) cacheKey(key string) string {
	return c.prefix + ":" + key
}

var _ Cache = (*RedisCache)(nil)
