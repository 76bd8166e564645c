package secretstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/totpguard/pkg/secretstore"
	"github.com/dmitrymomot/totpguard/pkg/secretstore/storetest"
)

var (
	_ secretstore.Store = (*secretstore.MemoryStore)(nil)
	_ secretstore.Store = (*secretstore.Encrypted)(nil)
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	storetest.Run(t, func(t *testing.T) secretstore.Store {
		return secretstore.NewMemoryStore()
	})
}

func TestMemoryStore_Clock(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	s := secretstore.NewMemoryStore(secretstore.WithMemoryClock(func() time.Time { return now }))

	require.NoError(t, s.SavePending(context.Background(), "u1", "p1", "SECRET"))
	rec, err := s.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, now.UTC(), rec.UpdatedAt)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	t.Parallel()
	s := secretstore.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.SavePending(ctx, "u1", "p1", "SECRET"))

	rec, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	rec.PendingID = "tampered"

	assert.NoError(t, s.Enable(ctx, "u1", "p1"))
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	t.Parallel()
	s := secretstore.NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Load(ctx, "u1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.SavePending(ctx, "u1", "p1", "SECRET"), context.Canceled)
}

func TestMemoryStore_RejectsEmptyPending(t *testing.T) {
	t.Parallel()
	s := secretstore.NewMemoryStore()
	assert.ErrorIs(t, s.SavePending(context.Background(), "u1", "", "SECRET"), secretstore.ErrEmptyPending)
	assert.ErrorIs(t, s.SavePending(context.Background(), "u1", "p1", ""), secretstore.ErrEmptyPending)
}
