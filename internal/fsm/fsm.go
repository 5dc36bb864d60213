// Package fsm implements the generic predicate-evaluated finite-state-machine primitive
// (SPEC_FULL §4.2), grounded on original_source/core/fsm.py. States are added with optional
// on_enter/on_exit callbacks; transitions are evaluated in insertion order on every Step() call
// and the first true predicate wins. No implicit self-transitions: Step() only ever changes
// state if some registered transition out of the current state fires.
package fsm

import (
	"github.com/dmatiushkin73/my-kiosk-backend/internal/platform/logger"
)

// Predicate reports whether its transition should fire.
type Predicate func() bool

type transition[S comparable] struct {
	to   S
	cond Predicate
}

type state[S comparable] struct {
	name        string
	onEnter     func()
	onExit      func()
	transitions []transition[S]
}

// FSM is a generic finite-state machine over any comparable state-tag type S.
type FSM[S comparable] struct {
	log     logger.Logger
	states  map[S]*state[S]
	current S
	hasInit bool
}

// New constructs an empty FSM. Add states and transitions before calling Step.
func New[S comparable](log logger.Logger) *FSM[S] {
	return &FSM[S]{
		log:    log,
		states: make(map[S]*state[S]),
	}
}

// AddState registers a state tag with optional enter/exit callbacks. If isInitial is true, the
// FSM starts in this state (the last state added with isInitial=true wins, mirroring the
// source's "is_initial" flag).
func (f *FSM[S]) AddState(tag S, name string, onEnter, onExit func(), isInitial bool) {
	f.states[tag] = &state[S]{name: name, onEnter: onEnter, onExit: onExit}
	if isInitial {
		f.current = tag
		f.hasInit = true
	}
}

// AddTransition registers a transition from -> to, guarded by cond. Transitions are evaluated
// in the order they were added for a given `from` state.
func (f *FSM[S]) AddTransition(from, to S, cond Predicate) {
	st, ok := f.states[from]
	if !ok {
		f.log.Warn("fsm: cannot add transition from non-existent state", "from", from)
		return
	}
	st.transitions = append(st.transitions, transition[S]{to: to, cond: cond})
}

// Step evaluates the current state's transitions in order and activates the first whose
// predicate returns true: exit callback, then enter callback, then the state is committed.
// If no predicate is true, the state is unchanged (idempotent re-evaluation).
func (f *FSM[S]) Step() {
	if !f.hasInit {
		f.log.Warn("fsm: initial state was not defined")
		return
	}
	cur, ok := f.states[f.current]
	if !ok {
		f.log.Error("fsm: current state not registered", "state", f.current)
		return
	}
	for _, t := range cur.transitions {
		if t.cond == nil || !t.cond() {
			continue
		}
		next, ok := f.states[t.to]
		if !ok {
			f.log.Error("fsm: cannot transition to non-existent state", "to", t.to)
			return
		}
		if cur.onExit != nil {
			cur.onExit()
		}
		// Current() is updated before onEnter runs so a callback that reports "the state
		// we just entered" (e.g. emitting a state-changed event) observes the new state,
		// not the one being left.
		f.current = t.to
		if next.onEnter != nil {
			next.onEnter()
		}
		return
	}
}

// Current returns the FSM's current state tag.
func (f *FSM[S]) Current() S { return f.current }
