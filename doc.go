// Package memoize caches the results of instance-bound asynchronous
// functions so repeated calls with equivalent arguments reuse a previously
// computed value.
//
// The cache store, the key derivation strategy and the concurrency guard are
// supplied independently per decoration site:
//
//	type repo struct {
//		cache memoize.Cache
//	}
//
//	find := memoize.Wrap(
//		func(ctx context.Context, r *repo, args ...any) (Profile, error) {
//			return r.load(ctx, args[0].(string))
//		},
//		func(r *repo) memoize.Cache { return r.cache },
//	)
//
//	profile, err := find.Call(ctx, r, "ada")
//
// A nil cache from the accessor disables memoization for the call. When a
// lock resolver is configured, the entire lookup-compute-store sequence runs
// as one critical section per owning instance, serializing calls across
// keys. The original function stays reachable through Unwrapped for callers
// that must bypass caching.
//
// Backend adapters are provided for in-process maps (patrickmn/go-cache),
// bounded LRU (hashicorp/golang-lru), redis, SQL databases, DynamoDB, NATS
// JetStream KV and the filesystem. Eviction belongs to the backend: a stored
// entry may vanish at any time, which a memoized method observes as a miss
// that recomputes.
package memoize
