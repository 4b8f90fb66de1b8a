package memoize

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Locker is a scoped-acquisition guard. Acquire may suspend the caller until
// the guard is free or ctx is done; Release must run exactly once for every
// successful Acquire, on every exit path.
//
// Fairness among waiters is the implementation's business; only mutual
// exclusion is required.
type Locker interface {
	Acquire(ctx context.Context) error
	Release()
}

// NewLock returns a context-aware exclusive guard. A typical use is one
// guard per owning instance, handed out by the lock resolver:
//
//	type source struct {
//		cache memoize.Cache
//		guard memoize.Locker
//	}
//
//	method := memoize.Wrap(fetch,
//		func(s *source) memoize.Cache { return s.cache },
//		memoize.WithLock(func(s *source) memoize.Locker { return s.guard }),
//	)
func NewLock() Locker {
	return &semLock{sem: semaphore.NewWeighted(1)}
}

type semLock struct {
	sem *semaphore.Weighted
}

func (l *semLock) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

func (l *semLock) Release() {
	l.sem.Release(1)
}
