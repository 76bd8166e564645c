package statemachine

import (
	"errors"
	"fmt"
)

// Option configures a state machine during construction.
type Option[S, E comparable] func(*Machine[S, E]) error

// TransitionOption configures a single transition with guards and actions.
type TransitionOption[S, E comparable] func(*Transition[S, E])

// New creates a state machine in the given initial state.
func New[S, E comparable](initial S, opts ...Option[S, E]) (*Machine[S, E], error) {
	var zero S
	if initial == zero {
		return nil, errors.New("initial state cannot be the zero value")
	}

	m := &Machine[S, E]{
		initial: initial,
		current: initial,
		table:   &table[S, E]{transitions: make(map[S]map[E][]Transition[S, E])},
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is like New but panics when an option fails.
func MustNew[S, E comparable](initial S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

// WithTransition adds a single transition.
func WithTransition[S, E comparable](from, to S, event E, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		tr := Transition[S, E]{From: from, To: to, Event: event}
		for _, opt := range opts {
			opt(&tr)
		}
		if err := m.table.add(tr); err != nil {
			return fmt.Errorf("transition %v->%v on %v: %w", from, to, event, err)
		}
		return nil
	}
}

// WithTransitions adds several transitions at once, in order.
func WithTransitions[S, E comparable](transitions ...Transition[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		for i, tr := range transitions {
			if err := m.table.add(tr); err != nil {
				return fmt.Errorf("transition[%d] %v->%v on %v: %w", i, tr.From, tr.To, tr.Event, err)
			}
		}
		return nil
	}
}

// WithObserver registers a callback invoked after every applied transition.
func WithObserver[S, E comparable](observer Observer[S, E]) Option[S, E] {
	return func(m *Machine[S, E]) error {
		if observer != nil {
			m.table.observers = append(m.table.observers, observer)
		}
		return nil
	}
}

// WithGuard adds a guard to a transition.
func WithGuard[S, E comparable](guard Guard[S, E]) TransitionOption[S, E] {
	return func(tr *Transition[S, E]) {
		if guard != nil {
			tr.Guards = append(tr.Guards, guard)
		}
	}
}

// WithAction adds an action to a transition.
func WithAction[S, E comparable](action Action[S, E]) TransitionOption[S, E] {
	return func(tr *Transition[S, E]) {
		if action != nil {
			tr.Actions = append(tr.Actions, action)
		}
	}
}
