package twofactor

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrymomot/totpguard/pkg/logger"
	"github.com/dmitrymomot/totpguard/pkg/secretstore"
	sm "github.com/dmitrymomot/totpguard/pkg/statemachine"
)

// Login is one login attempt sitting in StateAwaitingCode. It is safe for
// concurrent use.
type Login struct {
	svc     *service
	machine *sm.Machine[State, Event]
	userID  string
	record  *secretstore.Record

	mu sync.Mutex
}

// State returns the attempt's current state.
func (l *Login) State() State {
	return l.machine.Current()
}

// Submit checks code. It returns nil and moves to StateVerified on a match,
// otherwise moves to StateFailed and returns ErrVerificationFailed. Use
// Retry to submit again after a failure.
func (l *Login) Submit(ctx context.Context, code string) error {
	err := l.submit(ctx, code)
	l.svc.report(ctx, flowLogin, l.userID, err)
	return err
}

func (l *Login) submit(ctx context.Context, code string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.machine.Current() != StateAwaitingCode {
		return ErrLoginFinished
	}
	if err := l.svc.allow(ctx, flowLogin, l.userID); err != nil {
		if errors.Is(err, ErrTooManyAttempts) {
			l.abandonExhausted(ctx)
		}
		return err
	}

	a := &attempt{userID: l.userID, code: code, record: l.record}
	if err := l.machine.Fire(ctx, EventSubmitCode, a); err != nil {
		return l.svc.flowError(err)
	}
	if l.machine.Current() != StateVerified {
		return ErrVerificationFailed
	}
	l.svc.resetAttempts(ctx, flowLogin, l.userID)
	return nil
}

// abandonExhausted fails the attempt once the limiter runs out. The caller
// already returns ErrTooManyAttempts, so a failed transition is only logged.
func (l *Login) abandonExhausted(ctx context.Context) {
	if err := l.machine.Fire(ctx, EventAbandon, nil); err != nil {
		l.svc.logger.WarnContext(ctx, "failed to abandon two-factor login",
			logger.UserID(l.userID),
			logger.State(l.machine.Current().String()),
			logger.Event(string(EventAbandon)),
			logger.Error(err),
		)
	}
}

// Retry moves a failed attempt back to StateAwaitingCode.
func (l *Login) Retry(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.machine.Fire(ctx, EventRetry, nil); err != nil {
		return ErrLoginFinished
	}
	return nil
}

// Abandon fails an attempt that is still waiting for a code.
func (l *Login) Abandon(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.machine.Fire(ctx, EventAbandon, nil); err != nil {
		return ErrLoginFinished
	}
	l.svc.metrics.verification(flowLogin, OutcomeFailed)
	return nil
}
