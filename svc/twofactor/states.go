package twofactor

import (
	"context"

	"github.com/dmitrymomot/totpguard/pkg/logger"
	"github.com/dmitrymomot/totpguard/pkg/secretstore"
	sm "github.com/dmitrymomot/totpguard/pkg/statemachine"
)

// State of a user's two-factor flow.
type State string

const (
	StateNotEnrolled       State = "not_enrolled"
	StateEnrollmentPending State = "enrollment_pending"
	StateEnrolled          State = "enrolled"
	StateAwaitingCode      State = "awaiting_code"
	StateVerified          State = "verified"
	StateFailed            State = "failed"
)

func (s State) String() string { return string(s) }

// Event drives the flow.
type Event string

const (
	EventEnroll     Event = "enroll"
	EventConfirm    Event = "confirm"
	EventBeginLogin Event = "begin_login"
	EventSubmitCode Event = "submit_code"
	EventAbandon    Event = "abandon"
	EventRetry      Event = "retry"
)

// attempt carries per-call data through guards and actions.
type attempt struct {
	userID     string
	code       string
	record     *secretstore.Record
	enrollment *Enrollment
}

func attemptOf(data any) *attempt {
	a, _ := data.(*attempt)
	return a
}

// enrollmentState derives where the enrollment flow starts for rec. An
// unconfirmed enrollment takes precedence over an active secret.
func enrollmentState(rec *secretstore.Record) State {
	switch {
	case rec.HasPending():
		return StateEnrollmentPending
	case rec.Active():
		return StateEnrolled
	default:
		return StateNotEnrolled
	}
}

// newFlow defines the transition table once. Calls start a machine at the
// state derived from the stored record with At.
func (s *service) newFlow() *sm.Machine[State, Event] {
	save := sm.WithAction[State, Event](s.savePending)

	return sm.MustNew(StateNotEnrolled,
		// Re-enrolling keeps the active secret until the new one is confirmed.
		sm.WithTransition(StateNotEnrolled, StateEnrollmentPending, EventEnroll, save),
		sm.WithTransition(StateEnrollmentPending, StateEnrollmentPending, EventEnroll, save),
		sm.WithTransition(StateEnrolled, StateEnrollmentPending, EventEnroll, save),

		// No fallback: a wrong code is rejected and the enrollment stays pending.
		sm.WithTransition(StateEnrollmentPending, StateEnrolled, EventConfirm,
			sm.WithGuard[State, Event](s.pendingCodeMatches),
			sm.WithAction[State, Event](s.enable),
		),

		// Login. The unguarded submit_code is the fallback for a mismatch.
		sm.WithTransitions(
			sm.Transition[State, Event]{From: StateEnrolled, To: StateAwaitingCode, Event: EventBeginLogin},
			sm.Transition[State, Event]{
				From:   StateAwaitingCode,
				To:     StateVerified,
				Event:  EventSubmitCode,
				Guards: []sm.Guard[State, Event]{s.activeCodeMatches},
			},
			sm.Transition[State, Event]{From: StateAwaitingCode, To: StateFailed, Event: EventSubmitCode},
			sm.Transition[State, Event]{From: StateAwaitingCode, To: StateFailed, Event: EventAbandon},
			sm.Transition[State, Event]{From: StateFailed, To: StateAwaitingCode, Event: EventRetry},
		),

		sm.WithObserver[State, Event](s.logTransition),
	)
}

func (s *service) pendingCodeMatches(_ context.Context, _ State, _ Event, data any) bool {
	a := attemptOf(data)
	if a == nil || !a.record.HasPending() {
		return false
	}
	ok, err := s.engine.Verify(a.record.PendingSecret, a.code)
	return err == nil && ok
}

func (s *service) activeCodeMatches(_ context.Context, _ State, _ Event, data any) bool {
	a := attemptOf(data)
	if a == nil || !a.record.Active() {
		return false
	}
	ok, err := s.engine.Verify(a.record.Secret, a.code)
	return err == nil && ok
}

func (s *service) logTransition(ctx context.Context, from, to State, event Event) {
	s.logger.DebugContext(ctx, "two-factor transition",
		logger.Component("twofactor"),
		logger.Transition(from.String(), to.String(), string(event)),
	)
}
