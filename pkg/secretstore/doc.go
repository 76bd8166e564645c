// Package secretstore defines where per-user TOTP secrets live.
//
// A Record carries the active secret with its Enabled flag and, while an
// enrollment is in progress, a pending secret tagged with a PendingID. The
// Store contract makes confirmation a compare-and-swap on that ID: whichever
// enrollment's ID is still stored wins, every other confirmation gets
// ErrConflict. This keeps two racing enrollments from both ending up enabled.
//
// Implementations:
//
//   - MemoryStore, in this package.
//   - redisstore: one hash per user, Lua script for the swap.
//   - pgstore: a totp_secrets table with a conditional UPDATE.
//   - mongostore: a totp_secrets collection with a filtered update.
//
// Encrypted decorates any of them so only AES-256-GCM ciphertext reaches the
// backend. Each user gets a key derived from the master key, so a ciphertext
// copied onto another user's record fails to decrypt.
//
// Errors: ErrNotFound for missing users, ErrConflict for a lost swap and
// ErrUnavailable (joined with the driver error) for backend failures. The
// storetest subpackage holds the behavioural suite every adapter must pass.
package secretstore
