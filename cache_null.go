package memoize

import "context"

type discardCache struct{}

// NewDiscardCache returns a cache that rejects every store and never hits.
// A memoized method bound to it recomputes on each call, observably the
// same as resolving no cache at all; useful for disabling memoization
// without touching call sites and for modeling zero-capacity stores.
func NewDiscardCache() Cache {
	return discardCache{}
}

func (discardCache) Driver() Driver { return DriverDiscard }

func (discardCache) Lookup(context.Context, string) (any, bool) {
	return nil, false
}

func (discardCache) Store(context.Context, string, any) bool {
	return false
}
