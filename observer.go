package memoize

import (
	"context"
	"time"
)

// Observer receives events for memoized call phases.
// It is invoked after each phase of a coordinated call completes.
//
// op is one of "lookup", "compute" or "store". For "lookup", hit reports a
// cache hit; for "store", hit reports whether the backend accepted the entry.
type Observer interface {
	OnMemoOp(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration, driver Driver)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration, driver Driver)

// OnMemoOp implements Observer.
func (f ObserverFunc) OnMemoOp(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration, driver Driver) {
	if f == nil {
		return
	}
	f(ctx, op, key, hit, err, dur, driver)
}

const (
	opLookup  = "lookup"
	opCompute = "compute"
	opStore   = "store"
)
