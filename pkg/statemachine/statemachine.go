package statemachine

import "context"

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Action executes side effects during a transition. Returning an error prevents the transition.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E, data any) error

// Observer is notified after a transition has been applied.
type Observer[S, E comparable] func(ctx context.Context, from, to S, event E)

// Transition defines a state change triggered by an event, with optional guards and actions.
type Transition[S, E comparable] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // All must pass for the transition to proceed
	Actions []Action[S, E] // Executed in order before the state change
}

// StateMachine defines the core finite state machine operations.
type StateMachine[S, E comparable] interface {
	Current() S
	Fire(ctx context.Context, event E, data any) error
	CanFire(ctx context.Context, event E, data any) bool
	Reset()
}
