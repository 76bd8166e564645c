package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// table is the transition graph: [from][event][]Transition.
// Machines created with At share it.
type table[S, E comparable] struct {
	mu          sync.RWMutex
	transitions map[S]map[E][]Transition[S, E]
	observers   []Observer[S, E]
}

func (t *table[S, E]) add(tr Transition[S, E]) error {
	var zeroS S
	var zeroE E
	if tr.From == zeroS || tr.To == zeroS || tr.Event == zeroE {
		return ErrInvalidTransition
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.transitions[tr.From]; !ok {
		t.transitions[tr.From] = make(map[E][]Transition[S, E])
	}
	// Several transitions per (from, event) allow guard-based branching.
	t.transitions[tr.From][tr.Event] = append(t.transitions[tr.From][tr.Event], tr)
	return nil
}

// match returns the first transition whose guards all pass.
func (t *table[S, E]) match(ctx context.Context, from S, event E, data any) (*Transition[S, E], error) {
	t.mu.RLock()
	candidates := t.transitions[from][event]
	t.mu.RUnlock()

	if len(candidates) == 0 {
		return nil, &ErrNoTransition{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
	}

	for i := range candidates {
		if guardsPass(ctx, candidates[i].Guards, from, event, data) {
			return &candidates[i], nil
		}
	}
	return nil, &ErrRejected{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
}

func guardsPass[S, E comparable](ctx context.Context, guards []Guard[S, E], from S, event E, data any) bool {
	for _, guard := range guards {
		if guard != nil && !guard(ctx, from, event, data) {
			return false
		}
	}
	return true
}

// Machine is a thread-safe in-memory state machine.
type Machine[S, E comparable] struct {
	initial S
	current S
	table   *table[S, E]
	mu      sync.Mutex
}

// Current returns the state the machine is in.
func (m *Machine[S, E]) Current() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// AddTransition registers a transition. Zero-valued states or events are rejected.
func (m *Machine[S, E]) AddTransition(from, to S, event E, guards []Guard[S, E], actions []Action[S, E]) error {
	return m.table.add(Transition[S, E]{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	})
}

// Fire applies event to the current state. Guards are evaluated in
// registration order; the first transition whose guards all pass wins.
// Its actions run before the state changes and any action error aborts
// the transition, leaving the machine where it was.
func (m *Machine[S, E]) Fire(ctx context.Context, event E, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	from := m.current
	tr, err := m.table.match(ctx, from, event, data)
	if err != nil {
		return err
	}

	for _, action := range tr.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, from, tr.To, event, data); err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.current = tr.To

	m.table.mu.RLock()
	observers := m.table.observers
	m.table.mu.RUnlock()
	for _, observe := range observers {
		observe(ctx, from, tr.To, event)
	}
	return nil
}

// CanFire reports whether some transition for event would pass its guards.
// Actions are not executed.
func (m *Machine[S, E]) CanFire(ctx context.Context, event E, data any) bool {
	m.mu.Lock()
	from := m.current
	m.mu.Unlock()

	_, err := m.table.match(ctx, from, event, data)
	return err == nil
}

// Reset returns the machine to its initial state.
func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}

// At returns a new machine that starts in state and shares this machine's
// transitions. It is how per-request machines are created from one
// definition whose state is persisted elsewhere.
func (m *Machine[S, E]) At(state S) *Machine[S, E] {
	return &Machine[S, E]{
		initial: state,
		current: state,
		table:   m.table,
	}
}
