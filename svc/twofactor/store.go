package twofactor

import (
	"context"
	"time"

	"github.com/dmitrymomot/totpguard/pkg/secretstore"
)

// instrumentedStore records store latency.
type instrumentedStore struct {
	next    secretstore.Store
	metrics *Metrics
}

func (s *instrumentedStore) observe(op string, start time.Time) {
	s.metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (s *instrumentedStore) Load(ctx context.Context, userID string) (*secretstore.Record, error) {
	defer s.observe("load", time.Now())
	return s.next.Load(ctx, userID)
}

func (s *instrumentedStore) SavePending(ctx context.Context, userID, pendingID, secret string) error {
	defer s.observe("save_pending", time.Now())
	return s.next.SavePending(ctx, userID, pendingID, secret)
}

func (s *instrumentedStore) Enable(ctx context.Context, userID, pendingID string) error {
	defer s.observe("enable", time.Now())
	return s.next.Enable(ctx, userID, pendingID)
}

func (s *instrumentedStore) Disable(ctx context.Context, userID string) error {
	defer s.observe("disable", time.Now())
	return s.next.Disable(ctx, userID)
}
