package memotest

import (
	"context"
	"strings"
	"testing"

	"github.com/goforj/memoize"
)

// Options configures shared cache contract checks.
type Options struct {
	// CaseName is used to namespace keys. Defaults to t.Name().
	CaseName string
	// RejectAll enables relaxed expectations for caches that refuse every
	// store (discard, zero capacity).
	RejectAll bool
	// Flush, when set, clears the cache; the suite then verifies that
	// previously stored keys miss afterwards.
	Flush func(ctx context.Context) error
}

// RunCacheContract runs the backend-agnostic cache contract suite.
// Adapters are expected to report misses rather than errors, accept or
// reject stores via the boolean, and survive overwrite of a live key.
func RunCacheContract(t *testing.T, cache memoize.Cache, opts Options) {
	t.Helper()

	caseName := opts.CaseName
	if caseName == "" {
		caseName = t.Name()
	}
	ctx := context.Background()
	key := func(s string) string {
		return sanitize(caseName) + ":" + s
	}

	// Unknown keys miss.
	if _, ok := cache.Lookup(ctx, key("absent")); ok {
		t.Fatalf("expected miss for unknown key")
	}

	// Store then lookup.
	accepted := cache.Store(ctx, key("alpha"), "value")
	if opts.RejectAll {
		if accepted {
			t.Fatalf("expected store rejection")
		}
		if _, ok := cache.Lookup(ctx, key("alpha")); ok {
			t.Fatalf("expected rejected store to stay absent")
		}
		return
	}
	if !accepted {
		t.Fatalf("expected store to be accepted")
	}
	value, ok := cache.Lookup(ctx, key("alpha"))
	if !ok || value != "value" {
		t.Fatalf("unexpected lookup result: ok=%v value=%v", ok, value)
	}

	// Overwrite wins.
	if !cache.Store(ctx, key("alpha"), "fresh") {
		t.Fatalf("expected overwrite to be accepted")
	}
	value, ok = cache.Lookup(ctx, key("alpha"))
	if !ok || value != "fresh" {
		t.Fatalf("expected overwritten value, got ok=%v value=%v", ok, value)
	}

	// Entries are independent.
	if !cache.Store(ctx, key("beta"), "other") {
		t.Fatalf("expected second store to be accepted")
	}
	if value, ok := cache.Lookup(ctx, key("alpha")); !ok || value != "fresh" {
		t.Fatalf("expected alpha untouched by beta, got ok=%v value=%v", ok, value)
	}

	// Flush empties the key space.
	if opts.Flush != nil {
		if err := opts.Flush(ctx); err != nil {
			t.Fatalf("flush failed: %v", err)
		}
		if _, ok := cache.Lookup(ctx, key("alpha")); ok {
			t.Fatalf("expected miss after flush")
		}
	}
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
