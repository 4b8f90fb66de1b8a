package memoize_test

import (
	"context"
	"testing"
	"time"

	"github.com/goforj/memoize"
	"github.com/goforj/memoize/memotest"
)

func TestMemoryCacheContract(t *testing.T) {
	c := memoize.NewMemoryCache()
	memotest.RunCacheContract(t, c, memotest.Options{
		Flush: func(context.Context) error {
			c.Flush()
			return nil
		},
	})
}

func TestMemoryCacheNoTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := memoize.NewMemoryCache()
	if !c.Store(ctx, "k", 1) {
		t.Fatalf("store failed")
	}
	time.Sleep(10 * time.Millisecond)
	if _, ok := c.Lookup(ctx, "k"); !ok {
		t.Fatalf("expected entry without ttl to survive")
	}
}

func TestMemoryCacheTTLExpires(t *testing.T) {
	ctx := context.Background()
	c := memoize.NewMemoryCache(
		memoize.WithTTL(10*time.Millisecond),
		memoize.WithCleanupInterval(time.Minute),
	)
	if !c.Store(ctx, "k", 1) {
		t.Fatalf("store failed")
	}
	if _, ok := c.Lookup(ctx, "k"); !ok {
		t.Fatalf("expected live entry before expiry")
	}
	time.Sleep(25 * time.Millisecond)
	if _, ok := c.Lookup(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestMemoryCacheLen(t *testing.T) {
	ctx := context.Background()
	c := memoize.NewMemoryCache()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Len())
	}
	c.Store(ctx, "a", 1)
	c.Store(ctx, "b", 2)
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
	c.Flush()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after flush, got %d", c.Len())
	}
}
