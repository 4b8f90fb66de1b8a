package memotest

import (
	"context"
	"sync"
	"testing"

	"github.com/goforj/memoize"
)

// Fake is an in-memory memoize.Cache that records every call and can be
// scripted to reject stores or force misses. Safe for concurrent use.
type Fake struct {
	mu      sync.Mutex
	entries map[string]any
	lookups map[string]int
	stores  map[string]int

	// RejectStores makes Store refuse every write while still counting it.
	RejectStores bool
	// ForceMiss makes Lookup miss even for stored keys.
	ForceMiss bool
}

// NewFake returns an empty fake cache.
func NewFake() *Fake {
	return &Fake{
		entries: make(map[string]any),
		lookups: make(map[string]int),
		stores:  make(map[string]int),
	}
}

func (f *Fake) Driver() memoize.Driver { return memoize.Driver("fake") }

func (f *Fake) Lookup(_ context.Context, key string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups[key]++
	if f.ForceMiss {
		return nil, false
	}
	value, ok := f.entries[key]
	return value, ok
}

func (f *Fake) Store(_ context.Context, key string, value any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stores[key]++
	if f.RejectStores {
		return false
	}
	f.entries[key] = value
	return true
}

// Seed places a value directly, bypassing the store counter.
func (f *Fake) Seed(key string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
}

// Delete removes a single entry, simulating eviction.
func (f *Fake) Delete(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
}

// Clear removes every entry but keeps the call counters.
func (f *Fake) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = make(map[string]any)
}

// Len reports the number of live entries.
func (f *Fake) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Keys returns the live keys in no particular order.
func (f *Fake) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.entries))
	for k := range f.entries {
		keys = append(keys, k)
	}
	return keys
}

// Lookups reports how many times key was looked up.
func (f *Fake) Lookups(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups[key]
}

// Stores reports how many times key was stored.
func (f *Fake) Stores(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stores[key]
}

// TotalLookups reports the lookup count across all keys.
func (f *Fake) TotalLookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.lookups {
		total += n
	}
	return total
}

// TotalStores reports the store count across all keys.
func (f *Fake) TotalStores() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.stores {
		total += n
	}
	return total
}

// AssertLen fails the test unless the fake holds exactly want entries.
func (f *Fake) AssertLen(t *testing.T, want int) {
	t.Helper()
	if got := f.Len(); got != want {
		t.Fatalf("fake cache holds %d entries, want %d", got, want)
	}
}

var _ memoize.Cache = (*Fake)(nil)
