package secretstore

import (
	"context"
	"time"
)

// Record is the persisted two-factor state of one user.
//
// Secret is the active, confirmed secret; it is only meaningful when Enabled.
// PendingSecret and PendingID describe an enrollment that has been started but
// not confirmed yet. PendingID changes with every new enrollment and is the
// compare-and-swap token for Enable.
type Record struct {
	UserID        string
	Secret        string
	Enabled       bool
	PendingSecret string
	PendingID     string
	UpdatedAt     time.Time
}

// HasPending reports whether an unconfirmed enrollment exists.
func (r *Record) HasPending() bool {
	return r != nil && r.PendingID != "" && r.PendingSecret != ""
}

// Active reports whether the record holds a usable confirmed secret.
func (r *Record) Active() bool {
	return r != nil && r.Enabled && r.Secret != ""
}

// Store persists per-user secrets.
//
// Implementations must make Enable atomic: the pending secret is promoted only
// if the stored PendingID still equals the given one, so two concurrent
// confirmations of different enrollments can never both succeed.
// Transport failures are reported wrapped in ErrUnavailable.
type Store interface {
	// Load returns the user's record or ErrNotFound.
	Load(ctx context.Context, userID string) (*Record, error)
	// SavePending stores secret as the user's provisional secret, replacing
	// any previous pending enrollment. The active secret and Enabled flag are
	// left untouched.
	SavePending(ctx context.Context, userID, pendingID, secret string) error
	// Enable promotes the pending secret identified by pendingID to the active
	// secret and sets Enabled. Returns ErrConflict when the stored PendingID
	// differs, ErrNotFound when the user has no record.
	Enable(ctx context.Context, userID, pendingID string) error
	// Disable removes the user's record. Missing records are not an error.
	Disable(ctx context.Context, userID string) error
}
