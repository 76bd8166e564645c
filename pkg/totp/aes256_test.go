package totp_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/totpguard/pkg/totp"
)

func TestEncryptDecryptSecret(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		plainText string
		key       []byte
		wantErr   error
	}{
		{name: "round trip", plainText: "JBSWY3DPEHPK3PXP", key: make([]byte, 32)},
		{name: "empty plaintext", plainText: "", key: make([]byte, 32)},
		{name: "short key", plainText: "JBSWY3DPEHPK3PXP", key: make([]byte, 16), wantErr: totp.ErrInvalidEncryptionKeyLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			encrypted, err := totp.EncryptSecret(tt.plainText, tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, totp.ErrFailedToEncryptSecret)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, tt.plainText, encrypted)

			decrypted, err := totp.DecryptSecret(encrypted, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.plainText, decrypted)
		})
	}
}

func TestEncryptSecret_FreshNonce(t *testing.T) {
	t.Parallel()
	key, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)

	a, err := totp.EncryptSecret("JBSWY3DPEHPK3PXP", key)
	require.NoError(t, err)
	b, err := totp.EncryptSecret("JBSWY3DPEHPK3PXP", key)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptSecret_Failures(t *testing.T) {
	t.Parallel()
	key, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)
	other, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)

	encrypted, err := totp.EncryptSecret("JBSWY3DPEHPK3PXP", key)
	require.NoError(t, err)

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()
		_, err := totp.DecryptSecret(encrypted, other)
		assert.ErrorIs(t, err, totp.ErrFailedToDecryptSecret)
	})

	t.Run("not base64", func(t *testing.T) {
		t.Parallel()
		_, err := totp.DecryptSecret("%%%", key)
		assert.ErrorIs(t, err, totp.ErrFailedToDecryptSecret)
	})

	t.Run("too short", func(t *testing.T) {
		t.Parallel()
		_, err := totp.DecryptSecret(base64.StdEncoding.EncodeToString([]byte("abc")), key)
		assert.ErrorIs(t, err, totp.ErrInvalidCipherTooShort)
	})

	t.Run("tampered", func(t *testing.T) {
		t.Parallel()
		raw, err := base64.StdEncoding.DecodeString(encrypted)
		require.NoError(t, err)
		raw[len(raw)-1] ^= 0xff
		_, err = totp.DecryptSecret(base64.StdEncoding.EncodeToString(raw), key)
		assert.ErrorIs(t, err, totp.ErrFailedToDecryptSecret)
	})
}

func TestDeriveUserKey(t *testing.T) {
	t.Parallel()
	master, err := totp.GenerateEncryptionKey()
	require.NoError(t, err)

	alice1, err := totp.DeriveUserKey(master, "alice")
	require.NoError(t, err)
	alice2, err := totp.DeriveUserKey(master, "alice")
	require.NoError(t, err)
	bob, err := totp.DeriveUserKey(master, "bob")
	require.NoError(t, err)

	assert.Len(t, alice1, totp.AESKeySize)
	assert.Equal(t, alice1, alice2)
	assert.NotEqual(t, alice1, bob)
	assert.NotEqual(t, master, alice1)

	encrypted, err := totp.EncryptSecret("JBSWY3DPEHPK3PXP", alice1)
	require.NoError(t, err)
	_, err = totp.DecryptSecret(encrypted, bob)
	assert.Error(t, err, "ciphertext must not decrypt under another user's key")

	_, err = totp.DeriveUserKey(make([]byte, 8), "alice")
	assert.ErrorIs(t, err, totp.ErrFailedToDeriveKey)
	assert.ErrorIs(t, err, totp.ErrInvalidEncryptionKeyLength)
}

func TestDecodeEncryptionKey(t *testing.T) {
	t.Parallel()

	encoded, err := totp.GenerateEncodedEncryptionKey()
	require.NoError(t, err)

	key, err := totp.DecodeEncryptionKey(encoded)
	require.NoError(t, err)
	assert.Len(t, key, totp.AESKeySize)

	_, err = totp.DecodeEncryptionKey("")
	assert.ErrorIs(t, err, totp.ErrEncryptionKeyNotSet)

	_, err = totp.DecodeEncryptionKey("not base64!")
	assert.ErrorIs(t, err, totp.ErrFailedToLoadEncryptionKey)

	_, err = totp.DecodeEncryptionKey(base64.StdEncoding.EncodeToString(make([]byte, 16)))
	assert.ErrorIs(t, err, totp.ErrInvalidEncryptionKeyLength)

	key, err = totp.Config{EncryptionKey: encoded}.EncryptionKeyBytes()
	require.NoError(t, err)
	assert.Len(t, key, totp.AESKeySize)

	key, err = totp.Config{}.EncryptionKeyBytes()
	require.NoError(t, err)
	assert.Nil(t, key)
}
