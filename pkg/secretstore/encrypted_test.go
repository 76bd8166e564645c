package secretstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/totpguard/pkg/secretstore"
	"github.com/dmitrymomot/totpguard/pkg/secretstore/storetest"
	"github.com/dmitrymomot/totpguard/pkg/totp"
)

func newMasterKey(t *testing.T) []byte {
	t.Helper()
	key, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)
	return key
}

func TestEncrypted(t *testing.T) {
	t.Parallel()
	storetest.Run(t, func(t *testing.T) secretstore.Store {
		s, err := secretstore.NewEncrypted(secretstore.NewMemoryStore(), newMasterKey(t))
		require.NoError(t, err)
		return s
	})
}

func TestEncrypted_BackendNeverSeesPlaintext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := secretstore.NewMemoryStore()
	s, err := secretstore.NewEncrypted(backend, newMasterKey(t))
	require.NoError(t, err)

	require.NoError(t, s.SavePending(ctx, "alice", "p1", "JBSWY3DPEHPK3PXP"))

	raw, err := backend.Load(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "JBSWY3DPEHPK3PXP", raw.PendingSecret)
	assert.NotContains(t, raw.PendingSecret, "JBSWY3DP")
	assert.Equal(t, "p1", raw.PendingID, "pending id stays comparable")

	require.NoError(t, s.Enable(ctx, "alice", "p1"))

	raw, err = backend.Load(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "JBSWY3DPEHPK3PXP", raw.Secret)

	rec, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", rec.Secret)
}

func TestEncrypted_CiphertextBoundToUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := secretstore.NewMemoryStore()
	s, err := secretstore.NewEncrypted(backend, newMasterKey(t))
	require.NoError(t, err)

	require.NoError(t, s.SavePending(ctx, "alice", "p1", "JBSWY3DPEHPK3PXP"))
	require.NoError(t, s.Enable(ctx, "alice", "p1"))
	raw, err := backend.Load(ctx, "alice")
	require.NoError(t, err)

	// Copy alice's active ciphertext onto bob's record.
	require.NoError(t, backend.SavePending(ctx, "bob", "p9", raw.Secret))
	require.NoError(t, backend.Enable(ctx, "bob", "p9"))

	_, err = s.Load(ctx, "bob")
	assert.ErrorIs(t, err, secretstore.ErrCorruptSecret)
}

func TestEncrypted_WrongMasterKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := secretstore.NewMemoryStore()

	s1, err := secretstore.NewEncrypted(backend, newMasterKey(t))
	require.NoError(t, err)
	s2, err := secretstore.NewEncrypted(backend, newMasterKey(t))
	require.NoError(t, err)

	require.NoError(t, s1.SavePending(ctx, "alice", "p1", "JBSWY3DPEHPK3PXP"))
	require.NoError(t, s1.Enable(ctx, "alice", "p1"))
	_, err = s2.Load(ctx, "alice")
	assert.ErrorIs(t, err, secretstore.ErrCorruptSecret)
}

func TestEncrypted_CorruptPendingKeepsActiveSecret(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	backend := secretstore.NewMemoryStore()
	s, err := secretstore.NewEncrypted(backend, newMasterKey(t))
	require.NoError(t, err)

	require.NoError(t, s.SavePending(ctx, "alice", "p1", "JBSWY3DPEHPK3PXP"))
	require.NoError(t, s.Enable(ctx, "alice", "p1"))

	// Re-enrollment whose pending ciphertext got damaged at rest.
	require.NoError(t, backend.SavePending(ctx, "alice", "p2", "bm90LWEtY2lwaGVydGV4dA=="))

	rec, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, rec.Active())
	assert.Equal(t, "JBSWY3DPEHPK3PXP", rec.Secret)
	assert.False(t, rec.HasPending())
	assert.Empty(t, rec.PendingSecret)
	assert.Empty(t, rec.PendingID)

	// Only the pending part is corrupt: a pending-only record loads as empty.
	require.NoError(t, backend.SavePending(ctx, "bob", "p1", "bm90LWEtY2lwaGVydGV4dA=="))
	rec, err = s.Load(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, rec.Active())
	assert.False(t, rec.HasPending())
}

func TestNewEncrypted_InvalidKey(t *testing.T) {
	t.Parallel()
	_, err := secretstore.NewEncrypted(secretstore.NewMemoryStore(), make([]byte, 16))
	assert.ErrorIs(t, err, totp.ErrInvalidEncryptionKeyLength)
}
