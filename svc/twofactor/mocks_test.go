package twofactor_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/totpguard/pkg/email"
	"github.com/dmitrymomot/totpguard/pkg/secretstore"
)

// MockStore is a mock implementation of secretstore.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Load(ctx context.Context, userID string) (*secretstore.Record, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*secretstore.Record), args.Error(1)
}

func (m *MockStore) SavePending(ctx context.Context, userID, pendingID, secret string) error {
	args := m.Called(ctx, userID, pendingID, secret)
	return args.Error(0)
}

func (m *MockStore) Enable(ctx context.Context, userID, pendingID string) error {
	args := m.Called(ctx, userID, pendingID)
	return args.Error(0)
}

func (m *MockStore) Disable(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockEmailSender is a mock implementation of email.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

// gatedStore blocks Enable until release is closed. entered receives one
// value per Enable call.
type gatedStore struct {
	secretstore.Store
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Enable(ctx context.Context, userID, pendingID string) error {
	g.entered <- struct{}{}
	select {
	case <-g.release:
	case <-time.After(5 * time.Second):
	}
	return g.Store.Enable(ctx, userID, pendingID)
}
