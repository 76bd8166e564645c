// Package storetest is the behavioural suite shared by all secretstore
// adapters. Adapter tests call Run with a constructor for their store.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/totpguard/pkg/secretstore"
)

// Run exercises the Store contract. newStore may return the same backend for
// every call: each subtest works on its own random user ID.
func Run(t *testing.T, newStore func(t *testing.T) secretstore.Store) {
	t.Helper()

	user := func() string { return "user-" + uuid.NewString() }

	t.Run("load missing user", func(t *testing.T) {
		s := newStore(t)
		rec, err := s.Load(context.Background(), user())
		assert.ErrorIs(t, err, secretstore.ErrNotFound)
		assert.Nil(t, rec)
	})

	t.Run("pending enrollment is provisional", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		id := user()

		require.NoError(t, s.SavePending(ctx, id, "p1", "SECRETONE"))

		rec, err := s.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, rec.UserID)
		assert.Equal(t, "SECRETONE", rec.PendingSecret)
		assert.Equal(t, "p1", rec.PendingID)
		assert.False(t, rec.Enabled)
		assert.Empty(t, rec.Secret)
		assert.True(t, rec.HasPending())
		assert.False(t, rec.Active())
		assert.False(t, rec.UpdatedAt.IsZero())
	})

	t.Run("enable promotes pending secret", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		id := user()

		require.NoError(t, s.SavePending(ctx, id, "p1", "SECRETONE"))
		require.NoError(t, s.Enable(ctx, id, "p1"))

		rec, err := s.Load(ctx, id)
		require.NoError(t, err)
		assert.True(t, rec.Enabled)
		assert.Equal(t, "SECRETONE", rec.Secret)
		assert.Empty(t, rec.PendingSecret)
		assert.Empty(t, rec.PendingID)
		assert.True(t, rec.Active())

		assert.ErrorIs(t, s.Enable(ctx, id, "p1"), secretstore.ErrConflict, "pending id is single use")
	})

	t.Run("enable with stale pending id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		id := user()

		require.NoError(t, s.SavePending(ctx, id, "p1", "SECRETONE"))
		require.NoError(t, s.SavePending(ctx, id, "p2", "SECRETTWO"))

		assert.ErrorIs(t, s.Enable(ctx, id, "p1"), secretstore.ErrConflict)

		rec, err := s.Load(ctx, id)
		require.NoError(t, err)
		assert.False(t, rec.Enabled)
		assert.Equal(t, "p2", rec.PendingID)
		assert.Equal(t, "SECRETTWO", rec.PendingSecret)

		require.NoError(t, s.Enable(ctx, id, "p2"))
		rec, err = s.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "SECRETTWO", rec.Secret)
	})

	t.Run("enable missing user", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.Enable(context.Background(), user(), "p1"), secretstore.ErrNotFound)
	})

	t.Run("re-enrollment keeps active secret", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		id := user()

		require.NoError(t, s.SavePending(ctx, id, "p1", "SECRETONE"))
		require.NoError(t, s.Enable(ctx, id, "p1"))
		require.NoError(t, s.SavePending(ctx, id, "p2", "SECRETTWO"))

		rec, err := s.Load(ctx, id)
		require.NoError(t, err)
		assert.True(t, rec.Enabled)
		assert.Equal(t, "SECRETONE", rec.Secret)
		assert.Equal(t, "SECRETTWO", rec.PendingSecret)
	})

	t.Run("disable", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		id := user()

		require.NoError(t, s.SavePending(ctx, id, "p1", "SECRETONE"))
		require.NoError(t, s.Enable(ctx, id, "p1"))
		require.NoError(t, s.Disable(ctx, id))

		_, err := s.Load(ctx, id)
		assert.ErrorIs(t, err, secretstore.ErrNotFound)
		assert.NoError(t, s.Disable(ctx, id), "disable is idempotent")
	})

	t.Run("concurrent confirmations enable exactly one secret", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		id := user()

		require.NoError(t, s.SavePending(ctx, id, "p1", "SECRETONE"))

		var wins atomic.Int32
		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.Enable(ctx, id, "p1"); err == nil {
					wins.Add(1)
				} else {
					assert.ErrorIs(t, err, secretstore.ErrConflict)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("racing enrollments never mix", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		id := user()

		secrets := map[string]string{"pa": "SECRETAAA", "pb": "SECRETBBB"}

		var wg sync.WaitGroup
		for pid, secret := range secrets {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.SavePending(ctx, id, pid, secret); err != nil {
					t.Errorf("save pending: %v", err)
					return
				}
				_ = s.Enable(ctx, id, pid)
			}()
		}
		wg.Wait()

		rec, err := s.Load(ctx, id)
		require.NoError(t, err)
		if !rec.Enabled {
			// Both confirmations lost to the other's SavePending.
			assert.Contains(t, secrets, rec.PendingID)
			assert.Equal(t, secrets[rec.PendingID], rec.PendingSecret)
			return
		}
		assert.Contains(t, []string{"SECRETAAA", "SECRETBBB"}, rec.Secret)
		if rec.PendingID != "" {
			assert.Equal(t, secrets[rec.PendingID], rec.PendingSecret)
			assert.NotEqual(t, rec.Secret, rec.PendingSecret)
		}
	})

	t.Run("empty user id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Load(ctx, "")
		assert.ErrorIs(t, err, secretstore.ErrEmptyUserID)
		assert.ErrorIs(t, s.SavePending(ctx, "", "p1", "SECRETONE"), secretstore.ErrEmptyUserID)
		assert.ErrorIs(t, s.Enable(ctx, "", "p1"), secretstore.ErrEmptyUserID)
		assert.ErrorIs(t, s.Disable(ctx, ""), secretstore.ErrEmptyUserID)
	})
}
