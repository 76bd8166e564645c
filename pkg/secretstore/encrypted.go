package secretstore

import (
	"context"
	"errors"

	"github.com/dmitrymomot/totpguard/pkg/totp"
)

// Encrypted wraps a Store and keeps secrets encrypted at rest with
// AES-256-GCM under a per-user key derived from the master key.
// PendingID is stored as-is so the wrapped store can still compare it.
type Encrypted struct {
	next   Store
	master []byte
}

// NewEncrypted returns a Store that encrypts secrets before handing them to next.
func NewEncrypted(next Store, masterKey []byte) (*Encrypted, error) {
	if len(masterKey) != totp.AESKeySize {
		return nil, totp.ErrInvalidEncryptionKeyLength
	}
	key := make([]byte, len(masterKey))
	copy(key, masterKey)
	return &Encrypted{next: next, master: key}, nil
}

func (e *Encrypted) Load(ctx context.Context, userID string) (*Record, error) {
	rec, err := e.next.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	key, err := totp.DeriveUserKey(e.master, userID)
	if err != nil {
		return nil, errors.Join(ErrCorruptSecret, err)
	}

	if rec.Secret != "" {
		if rec.Secret, err = totp.DecryptSecret(rec.Secret, key); err != nil {
			return nil, errors.Join(ErrCorruptSecret, err)
		}
	}
	// An unreadable pending secret is dropped so the active one keeps
	// working. The user can enroll again.
	if rec.PendingSecret != "" {
		pending, err := totp.DecryptSecret(rec.PendingSecret, key)
		if err != nil {
			rec.PendingSecret, rec.PendingID = "", ""
		} else {
			rec.PendingSecret = pending
		}
	}
	return rec, nil
}

func (e *Encrypted) SavePending(ctx context.Context, userID, pendingID, secret string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if secret == "" {
		return ErrEmptyPending
	}

	key, err := totp.DeriveUserKey(e.master, userID)
	if err != nil {
		return err
	}
	sealed, err := totp.EncryptSecret(secret, key)
	if err != nil {
		return err
	}
	return e.next.SavePending(ctx, userID, pendingID, sealed)
}

func (e *Encrypted) Enable(ctx context.Context, userID, pendingID string) error {
	return e.next.Enable(ctx, userID, pendingID)
}

func (e *Encrypted) Disable(ctx context.Context, userID string) error {
	return e.next.Disable(ctx, userID)
}
