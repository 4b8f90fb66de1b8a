package memoize_test

import (
	"context"
	"testing"

	"github.com/goforj/memoize"
	"github.com/goforj/memoize/memotest"
)

func TestDiscardCacheContract(t *testing.T) {
	memotest.RunCacheContract(t, memoize.NewDiscardCache(), memotest.Options{
		RejectAll: true,
	})
}

func TestDiscardCacheDriver(t *testing.T) {
	c := memoize.NewDiscardCache()
	if c.Driver() != memoize.DriverDiscard {
		t.Fatalf("expected discard driver, got %q", c.Driver())
	}
	if c.Store(context.Background(), "k", 1) {
		t.Fatalf("expected store rejection")
	}
	if _, ok := c.Lookup(context.Background(), "k"); ok {
		t.Fatalf("expected permanent miss")
	}
}
