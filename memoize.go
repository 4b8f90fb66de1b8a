package memoize

import (
	"context"
	"time"
)

// Func is the unit of work being memoized: an instance-bound asynchronous
// operation. ctx carries cancellation, recv is the owning instance, and args
// are the call arguments that feed key derivation.
type Func[R, V any] func(ctx context.Context, recv R, args ...any) (V, error)

// CacheFunc resolves the cache consulted for calls on recv, typically a
// field read. Returning nil means no cache: every call recomputes.
type CacheFunc[R any] func(recv R) Cache

// LockFunc resolves the guard serializing calls on recv.
// Returning nil means no synchronization.
type LockFunc[R any] func(recv R) Locker

type settings[R any] struct {
	key      KeyFunc
	lock     LockFunc[R]
	observer Observer
}

// Option configures a wrapped method.
type Option[R any] func(*settings[R])

// WithKey overrides the key deriver. The default is Key; TypedKey
// additionally distinguishes argument runtime types.
func WithKey[R any](key KeyFunc) Option[R] {
	return func(s *settings[R]) {
		s.key = key
	}
}

// WithLock supplies a lock resolver. When it yields a guard, the whole
// lookup-compute-store sequence for a call runs as one critical section.
func WithLock[R any](lock LockFunc[R]) Option[R] {
	return func(s *settings[R]) {
		s.lock = lock
	}
}

// WithObserver attaches an observer to receive per-phase call events.
func WithObserver[R any](observer Observer) Option[R] {
	return func(s *settings[R]) {
		s.observer = observer
	}
}

// Method is a memoized, instance-bound function. Repeated calls with
// arguments that derive the same key reuse the cached result instead of
// recomputing, subject to whatever eviction the resolved cache performs.
type Method[R, V any] struct {
	fn       Func[R, V]
	cache    CacheFunc[R]
	key      KeyFunc
	lock     LockFunc[R]
	observer Observer
}

// Wrap decorates fn with get-or-compute-and-store caching. cacheFor is
// required and resolves the cache per owning instance; key derivation and
// locking are configured per decoration site.
//
// Example: memoize a lookup method
//
//	type users struct {
//		cache memoize.Cache
//	}
//
//	fetch := memoize.Wrap(
//		func(ctx context.Context, u *users, args ...any) (string, error) {
//			return loadUserName(ctx, args[0].(int))
//		},
//		func(u *users) memoize.Cache { return u.cache },
//	)
//	name, err := fetch.Call(ctx, u, 42)
func Wrap[R, V any](fn Func[R, V], cacheFor CacheFunc[R], opts ...Option[R]) *Method[R, V] {
	if fn == nil {
		panic("memoize: Wrap requires a function")
	}
	if cacheFor == nil {
		panic("memoize: Wrap requires a cache accessor")
	}
	s := settings[R]{key: Key}
	for _, opt := range opts {
		opt(&s)
	}
	if s.key == nil {
		s.key = Key
	}
	return &Method[R, V]{
		fn:       fn,
		cache:    cacheFor,
		key:      s.key,
		lock:     s.lock,
		observer: s.observer,
	}
}

// Call coordinates one memoized invocation.
//
// The cache is resolved first; with no cache, no key is derived and the call
// recomputes. The key is derived next, so a derivation failure surfaces
// before any lock is taken. When a guard resolves, it is held across lookup,
// compute and store as a single critical section and released on every exit
// path: the guard serializes whole calls on the instance, across keys, even
// when no cache is present.
//
// A lookup miss and a rejected store are expected conditions: the computed
// value is returned either way. Failures from fn propagate unchanged and
// nothing is stored.
func (m *Method[R, V]) Call(ctx context.Context, recv R, args ...any) (V, error) {
	var zero V

	cache := m.cache(recv)

	var key string
	if cache != nil {
		var err error
		key, err = m.key(args...)
		if err != nil {
			return zero, err
		}
	}

	if m.lock != nil {
		if guard := m.lock(recv); guard != nil {
			if err := guard.Acquire(ctx); err != nil {
				return zero, err
			}
			defer guard.Release()
		}
	}

	if cache == nil {
		return m.fn(ctx, recv, args...)
	}

	start := time.Now()
	cached, ok := cache.Lookup(ctx, key)
	m.observe(ctx, opLookup, key, ok, nil, start, cache.Driver())
	if ok {
		// A hit of the wrong dynamic type cannot be returned; recompute
		// and let the store overwrite the stale entry.
		if value, ok := cached.(V); ok {
			return value, nil
		}
	}

	start = time.Now()
	value, err := m.fn(ctx, recv, args...)
	m.observe(ctx, opCompute, key, false, err, start, cache.Driver())
	if err != nil {
		return zero, err
	}

	start = time.Now()
	accepted := cache.Store(ctx, key, value)
	m.observe(ctx, opStore, key, accepted, nil, start, cache.Driver())
	return value, nil
}

// Unwrapped returns the original, unmemoized function. Calls through it
// never read or populate any cache and never engage the lock.
func (m *Method[R, V]) Unwrapped() Func[R, V] {
	return m.fn
}

func (m *Method[R, V]) observe(ctx context.Context, op, key string, hit bool, err error, start time.Time, driver Driver) {
	if m.observer == nil {
		return
	}
	m.observer.OnMemoOp(ctx, op, key, hit, err, time.Since(start), driver)
}
