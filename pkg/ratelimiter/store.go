package ratelimiter

import (
	"context"
	"time"
)

// Store keeps bucket state. Implementations must apply refill and
// consumption atomically per key.
type Store interface {
	// ConsumeTokens refills the bucket for elapsed intervals, then takes
	// tokens. A negative remaining count means the request is denied.
	// tokens == 0 only refreshes the state.
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)

	// Reset drops the bucket for key.
	Reset(ctx context.Context, key string) error
}
