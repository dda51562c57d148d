// Package cache provides the short-lived key-value cache used for aggregate
// metrics and request timing data.
//
// Two backends implement Cache: MemoryCache (an LRU from golang-lru) for a
// single process, and RedisCache for sharing results across processes.
// Fetch wraps either one with an explicit key, TTL and recompute function:
//
//	lookup := cache.NewLookup(cache.NewMemoryCache(1024), logger)
//	dau, err := cache.Fetch(ctx, lookup, "metric_daily_active_users_count", 5*time.Minute,
//		func(ctx context.Context) (int64, error) {
//			return store.CountSeenSince(ctx, time.Now().Add(-24*time.Hour))
//		})
//
// Nothing is invalidated on write; values may be stale for up to their TTL.
package cache
