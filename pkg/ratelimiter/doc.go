// Package ratelimiter implements a token bucket used to bound one-time code
// attempts per user.
//
// A bucket holds up to Capacity tokens and gains RefillRate tokens every
// RefillInterval. Each attempt consumes one token; a negative remainder
// means the attempt is denied.
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       5,
//		RefillRate:     1,
//		RefillInterval: time.Minute,
//	})
//	res, err := limiter.Allow(ctx, "login:"+userID)
//	if err == nil && !res.Allowed() {
//		// too many attempts, retry after res.RetryAfter(time.Now())
//	}
//
// MemoryStore suits a single process. RedisStore shares buckets across
// processes and applies each check atomically with a Lua script.
package ratelimiter
