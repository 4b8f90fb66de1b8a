package memoize_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goforj/memoize"
	"github.com/goforj/memoize/memotest"
)

// stubRedisClient is an in-memory RedisClient used for unit tests.
type stubRedisClient struct {
	mu    sync.Mutex
	store map[string]string
	ttl   map[string]time.Time

	getErr  error
	setErr  error
	scanErr error
}

func newStubRedisClient() *stubRedisClient {
	return &stubRedisClient{
		store: make(map[string]string),
		ttl:   make(map[string]time.Time),
	}
}

func (c *stubRedisClient) expireIfNeeded(key string) {
	if deadline, ok := c.ttl[key]; ok && time.Now().After(deadline) {
		delete(c.ttl, key)
		delete(c.store, key)
	}
}

func (c *stubRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return redis.NewStringResult("", c.getErr)
	}
	c.expireIfNeeded(key)
	if val, ok := c.store[key]; ok {
		return redis.NewStringResult(val, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (c *stubRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return redis.NewStatusResult("", c.setErr)
	}
	body, _ := value.([]byte)
	c.store[key] = string(body)
	if expiration > 0 {
		c.ttl[key] = time.Now().Add(expiration)
	} else {
		delete(c.ttl, key)
	}
	return redis.NewStatusResult("OK", nil)
}

func (c *stubRedisClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := c.store[key]; ok {
			delete(c.store, key)
			delete(c.ttl, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (c *stubRedisClient) Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scanErr != nil {
		return redis.NewScanCmdResult(nil, 0, c.scanErr)
	}
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for key := range c.store {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return redis.NewScanCmdResult(keys, 0, nil)
}

func TestRedisCacheContract(t *testing.T) {
	c := memoize.NewRedisCache(newStubRedisClient())
	memotest.RunCacheContract(t, c, memotest.Options{
		Flush: c.Flush,
	})
}

func TestRedisCacheNilClient(t *testing.T) {
	ctx := context.Background()
	c := memoize.NewRedisCache(nil)
	if _, ok := c.Lookup(ctx, "k"); ok {
		t.Fatalf("expected miss with nil client")
	}
	if c.Store(ctx, "k", "v") {
		t.Fatalf("expected rejection with nil client")
	}
	if err := c.Flush(ctx); err == nil {
		t.Fatalf("expected flush error with nil client")
	}
}

func TestRedisCacheKeysArePrefixed(t *testing.T) {
	ctx := context.Background()
	client := newStubRedisClient()
	c := memoize.NewRedisCache(client, memoize.WithPrefix("users"))

	if !c.Store(ctx, "42", "ada") {
		t.Fatalf("store failed")
	}
	client.mu.Lock()
	_, ok := client.store["users:42"]
	client.mu.Unlock()
	if !ok {
		t.Fatalf("expected prefixed key users:42, have %v", client.store)
	}
}

func TestRedisCacheTTLApplied(t *testing.T) {
	ctx := context.Background()
	client := newStubRedisClient()
	c := memoize.NewRedisCache(client, memoize.WithTTL(time.Minute))

	if !c.Store(ctx, "k", "v") {
		t.Fatalf("store failed")
	}
	client.mu.Lock()
	deadline, ok := client.ttl["memo:k"]
	client.mu.Unlock()
	if !ok || deadline.Before(time.Now().Add(50*time.Second)) {
		t.Fatalf("expected ttl near one minute, got %v", deadline)
	}
}

func TestRedisCacheBackendFailureDegrades(t *testing.T) {
	ctx := context.Background()
	client := newStubRedisClient()
	client.getErr = errors.New("connection refused")
	client.setErr = errors.New("connection refused")
	c := memoize.NewRedisCache(client)

	if _, ok := c.Lookup(ctx, "k"); ok {
		t.Fatalf("expected backend failure to read as a miss")
	}
	if c.Store(ctx, "k", "v") {
		t.Fatalf("expected backend failure to read as a rejection")
	}
}

func TestRedisCacheFlushRemovesOnlyOwnPrefix(t *testing.T) {
	ctx := context.Background()
	client := newStubRedisClient()
	mine := memoize.NewRedisCache(client, memoize.WithPrefix("mine"))
	other := memoize.NewRedisCache(client, memoize.WithPrefix("other"))

	mine.Store(ctx, "a", "1")
	other.Store(ctx, "a", "2")
	if err := mine.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if _, ok := mine.Lookup(ctx, "a"); ok {
		t.Fatalf("expected own entry to be flushed")
	}
	if _, ok := other.Lookup(ctx, "a"); !ok {
		t.Fatalf("expected foreign prefix to survive flush")
	}
}

func TestRedisCacheCorruptPayloadIsMiss(t *testing.T) {
	ctx := context.Background()
	client := newStubRedisClient()
	c := memoize.NewRedisCache(client, memoize.WithCodec(memoize.JSON[int]()))

	client.mu.Lock()
	client.store["memo:k"] = "not json"
	client.mu.Unlock()

	if _, ok := c.Lookup(ctx, "k"); ok {
		t.Fatalf("expected undecodable payload to miss")
	}
}
