// Package redisstore keeps TOTP secrets in Redis, one hash per user.
//
// Hash layout under "<prefix><userID>":
//
//	secret          active secret
//	enabled         "1" when the active secret is confirmed
//	pending_secret  unconfirmed secret
//	pending_id      compare-and-swap token for Enable
//	updated_at      unix milliseconds
//
// Enable runs as a Lua script so the pending id check and the promotion
// happen in one atomic step on the server.
package redisstore

import (
	"context"
	_ "embed"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/totpguard/pkg/secretstore"
)

const DefaultKeyPrefix = "totp:user:"

const (
	fieldSecret        = "secret"
	fieldEnabled       = "enabled"
	fieldPendingSecret = "pending_secret"
	fieldPendingID     = "pending_id"
	fieldUpdatedAt     = "updated_at"
)

//go:embed lua/enable.lua
var luaEnable string

// Store implements secretstore.Store on top of a Redis client.
type Store struct {
	client redis.Cmdable
	prefix string
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithClock sets the clock used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Redis-backed store.
func New(client redis.Cmdable, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: DefaultKeyPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the hash key for userID.
func (s *Store) Key(userID string) string {
	return s.prefix + userID
}

func (s *Store) Load(ctx context.Context, userID string) (*secretstore.Record, error) {
	if userID == "" {
		return nil, secretstore.ErrEmptyUserID
	}

	fields, err := s.client.HGetAll(ctx, s.Key(userID)).Result()
	if err != nil {
		return nil, errors.Join(secretstore.ErrUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, secretstore.ErrNotFound
	}

	rec := &secretstore.Record{
		UserID:        userID,
		Secret:        fields[fieldSecret],
		Enabled:       fields[fieldEnabled] == "1",
		PendingSecret: fields[fieldPendingSecret],
		PendingID:     fields[fieldPendingID],
	}
	if ms, err := strconv.ParseInt(fields[fieldUpdatedAt], 10, 64); err == nil {
		rec.UpdatedAt = time.UnixMilli(ms).UTC()
	}
	return rec, nil
}

func (s *Store) SavePending(ctx context.Context, userID, pendingID, secret string) error {
	if userID == "" {
		return secretstore.ErrEmptyUserID
	}
	if pendingID == "" || secret == "" {
		return secretstore.ErrEmptyPending
	}

	err := s.client.HSet(ctx, s.Key(userID),
		fieldPendingSecret, secret,
		fieldPendingID, pendingID,
		fieldUpdatedAt, s.timestamp(),
	).Err()
	if err != nil {
		return errors.Join(secretstore.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Enable(ctx context.Context, userID, pendingID string) error {
	if userID == "" {
		return secretstore.ErrEmptyUserID
	}

	res, err := s.client.Eval(ctx, luaEnable, []string{s.Key(userID)}, pendingID, s.timestamp()).Int64()
	if err != nil {
		return errors.Join(secretstore.ErrUnavailable, err)
	}

	switch res {
	case 1:
		return nil
	case -1:
		return secretstore.ErrNotFound
	default:
		return secretstore.ErrConflict
	}
}

func (s *Store) Disable(ctx context.Context, userID string) error {
	if userID == "" {
		return secretstore.ErrEmptyUserID
	}
	if err := s.client.Del(ctx, s.Key(userID)).Err(); err != nil {
		return errors.Join(secretstore.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) timestamp() string {
	return strconv.FormatInt(s.now().UnixMilli(), 10)
}
