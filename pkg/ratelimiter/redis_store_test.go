package ratelimiter_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/totpguard/pkg/ratelimiter"
	"github.com/dmitrymomot/totpguard/pkg/redis"
)

var redisNow = time.UnixMilli(1700000000000)

func TestRedisStore_ConsumeTokens(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	store := ratelimiter.NewRedisStore(db, ratelimiter.WithRedisClock(func() time.Time { return redisNow }))

	mock.ExpectEval(ratelimiter.ConsumeScript(), []string{"totp:attempts:alice"},
		"5", "1", "60000", "1700000000000", "1").
		SetVal([]any{int64(4), int64(1700000060000)})

	remaining, resetAt, err := store.ConsumeTokens(context.Background(), "alice", 1, fiveAMinute)
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)
	assert.True(t, resetAt.Equal(redisNow.Add(time.Minute)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Errors(t *testing.T) {
	t.Parallel()

	db, mock := redismock.NewClientMock()
	store := ratelimiter.NewRedisStore(db,
		ratelimiter.WithRedisKeyPrefix("x:"),
		ratelimiter.WithRedisClock(func() time.Time { return redisNow }))

	mock.ExpectEval(ratelimiter.ConsumeScript(), []string{"x:alice"},
		"5", "1", "60000", "1700000000000", "1").
		SetErr(errors.New("connection refused"))
	_, _, err := store.ConsumeTokens(context.Background(), "alice", 1, fiveAMinute)
	assert.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)

	mock.ExpectDel("x:alice").SetErr(errors.New("connection refused"))
	assert.ErrorIs(t, store.Reset(context.Background(), "alice"), ratelimiter.ErrStoreUnavailable)

	mock.ExpectDel("x:alice").SetVal(1)
	assert.NoError(t, store.Reset(context.Background(), "alice"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Integration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := redis.Connect(ctx, redis.Config{
		ConnectionURL:  url,
		RetryAttempts:  3,
		RetryInterval:  time.Second,
		ConnectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := ratelimiter.NewRedisStore(client, ratelimiter.WithRedisKeyPrefix("totpguard:test:"+uuid.NewString()+":"))
	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { _ = limiter.Reset(ctx, "alice") })

	for range 3 {
		res, err := limiter.Allow(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
	}
	for range 10 {
		res, err := limiter.Allow(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, res.Allowed())
		assert.Equal(t, -1, res.Remaining)
	}

	res, err := limiter.Status(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Remaining, "denied attempts must not be stored")
}

func TestRedisStore_DeniedRequestsAreNotStored(t *testing.T) {
	t.Parallel()

	script := ratelimiter.ConsumeScript()
	assert.Contains(t, script, "local remaining = tokens - n")
	assert.Contains(t, script, "if remaining >= 0 then\n  tokens = remaining\nend")
	assert.Contains(t, script, "return {remaining, last + interval}")

	db, mock := redismock.NewClientMock()
	store := ratelimiter.NewRedisStore(db, ratelimiter.WithRedisClock(func() time.Time { return redisNow }))
	mock.ExpectEval(script, []string{"totp:attempts:alice"},
		"5", "1", "60000", "1700000000000", "1").
		SetVal([]any{int64(-1), int64(1700000060000)})

	remaining, _, err := store.ConsumeTokens(context.Background(), "alice", 1, fiveAMinute)
	require.NoError(t, err)
	assert.Equal(t, -1, remaining)
	require.NoError(t, mock.ExpectationsWereMet())
}
