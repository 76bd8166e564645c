package secretstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store. Useful for tests and single-instance
// deployments; records do not survive a restart.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	now     func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock sets the clock used for UpdatedAt.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Load(ctx context.Context, userID string) (*Record, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) SavePending(ctx context.Context, userID, pendingID, secret string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if pendingID == "" || secret == "" {
		return ErrEmptyPending
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.records[userID]
	rec.UserID = userID
	rec.PendingSecret = secret
	rec.PendingID = pendingID
	rec.UpdatedAt = s.now().UTC()
	s.records[userID] = rec
	return nil
}

func (s *MemoryStore) Enable(ctx context.Context, userID, pendingID string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return ErrNotFound
	}
	if pendingID == "" || rec.PendingID != pendingID {
		return ErrConflict
	}

	rec.Secret = rec.PendingSecret
	rec.Enabled = true
	rec.PendingSecret = ""
	rec.PendingID = ""
	rec.UpdatedAt = s.now().UTC()
	s.records[userID] = rec
	return nil
}

func (s *MemoryStore) Disable(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, userID)
	return nil
}
