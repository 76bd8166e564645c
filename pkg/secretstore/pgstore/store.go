// Package pgstore keeps TOTP secrets in PostgreSQL.
//
// The schema ships as an embedded goose migration; call Migrate once at
// startup. Enable is a single conditional UPDATE keyed on the pending id, so
// the database row lock serializes concurrent confirmations.
package pgstore

import (
	"context"
	"embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/totpguard/pkg/pg"
	"github.com/dmitrymomot/totpguard/pkg/secretstore"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	queryLoad = `SELECT secret, enabled, pending_secret, pending_id, updated_at
FROM totp_secrets WHERE user_id = $1`

	querySavePending = `INSERT INTO totp_secrets (user_id, pending_secret, pending_id, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE
SET pending_secret = EXCLUDED.pending_secret,
    pending_id = EXCLUDED.pending_id,
    updated_at = EXCLUDED.updated_at`

	queryEnable = `UPDATE totp_secrets
SET secret = pending_secret, enabled = TRUE, pending_secret = '', pending_id = '', updated_at = $3
WHERE user_id = $1 AND pending_id = $2 AND pending_id <> ''`

	queryExists = `SELECT EXISTS (SELECT 1 FROM totp_secrets WHERE user_id = $1)`

	queryDisable = `DELETE FROM totp_secrets WHERE user_id = $1`
)

// DB is the subset of *pgxpool.Pool the store needs. pgx.Tx satisfies it too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements secretstore.Store on PostgreSQL.
type Store struct {
	db  DB
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a PostgreSQL-backed store.
func New(db DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg pg.Config, log pg.Logger) error {
	return pg.MigrateFS(ctx, pool, migrations, "migrations", cfg, log)
}

func (s *Store) Load(ctx context.Context, userID string) (*secretstore.Record, error) {
	if userID == "" {
		return nil, secretstore.ErrEmptyUserID
	}

	rec := &secretstore.Record{UserID: userID}
	err := s.db.QueryRow(ctx, queryLoad, userID).Scan(
		&rec.Secret,
		&rec.Enabled,
		&rec.PendingSecret,
		&rec.PendingID,
		&rec.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, secretstore.ErrNotFound
		}
		return nil, errors.Join(secretstore.ErrUnavailable, err)
	}
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

func (s *Store) SavePending(ctx context.Context, userID, pendingID, secret string) error {
	if userID == "" {
		return secretstore.ErrEmptyUserID
	}
	if pendingID == "" || secret == "" {
		return secretstore.ErrEmptyPending
	}

	if _, err := s.db.Exec(ctx, querySavePending, userID, secret, pendingID, s.now().UTC()); err != nil {
		return errors.Join(secretstore.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Enable(ctx context.Context, userID, pendingID string) error {
	if userID == "" {
		return secretstore.ErrEmptyUserID
	}

	tag, err := s.db.Exec(ctx, queryEnable, userID, pendingID, s.now().UTC())
	if err != nil {
		// Under SERIALIZABLE a concurrent confirmation surfaces as 40001.
		if pg.IsSerializationError(err) {
			return errors.Join(secretstore.ErrConflict, err)
		}
		return errors.Join(secretstore.ErrUnavailable, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRow(ctx, queryExists, userID).Scan(&exists); err != nil {
		return errors.Join(secretstore.ErrUnavailable, err)
	}
	if !exists {
		return secretstore.ErrNotFound
	}
	return secretstore.ErrConflict
}

func (s *Store) Disable(ctx context.Context, userID string) error {
	if userID == "" {
		return secretstore.ErrEmptyUserID
	}
	if _, err := s.db.Exec(ctx, queryDisable, userID); err != nil {
		return errors.Join(secretstore.ErrUnavailable, err)
	}
	return nil
}
