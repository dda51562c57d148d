// Package ratelimit bounds how fast a single client can submit metrics
// through the pixel endpoints.
//
// MemoryLimiter keeps a token bucket per client in process. RedisLimiter
// counts requests per fixed window in Redis and is used when the service
// runs with a Redis cache, so all instances share one budget.
package ratelimit
