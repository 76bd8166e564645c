// Package statemachine provides a small generic finite state machine with
// guarded transitions.
//
// States and events are any comparable types, typically string enums:
//
//	type State string
//	type Event string
//
//	m := statemachine.MustNew[State, Event]("draft",
//	    statemachine.WithTransition[State, Event]("draft", "review", "submit"),
//	)
//	err := m.Fire(ctx, "submit", nil)
//
// A (state, event) pair may map to several transitions. They are tried in the
// order they were added and the first whose guards all pass wins, which lets a
// guarded success branch be followed by an unguarded fallback. Actions run in
// order before the state changes; an action error aborts the transition.
//
// Fire reports *ErrNoTransition when nothing is defined for the pair and
// *ErrRejected when guards vetoed every candidate. Use IsNoTransition and
// IsRejected to tell them apart.
//
// When the authoritative state lives in storage, define the graph once and
// call At to get a throwaway machine positioned at the loaded state.
package statemachine
