package node

import "sync/atomic"

// State is a node's lifecycle state. A node progresses
// Created -> Initialised -> Started -> Initialised -> ... -> Deinitialised;
// reverse transitions (Started -> Initialised, on Stop) are permitted.
// Error is terminal and does not block other nodes.
type State uint32

const (
	Created State = iota
	Initialised
	Started
	Deinitialised
	Error
)

func (s State) String() string {
	switch s {
	case Created:
		return "Created"
	case Initialised:
		return "Initialised"
	case Started:
		return "Started"
	case Deinitialised:
		return "Deinitialised"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// FastState is a lock-free lifecycle state machine, one per node handle.
// Atomic rather than mutex-guarded: the Dispatcher writes it from the
// goroutine running LoadFlow/AddNodes, and the worker reads it to decide
// whether a queued entry still targets a live node.
type FastState struct {
	v atomic.Uint32
}

// NewFastState returns a state machine starting in Created.
func NewFastState() *FastState {
	s := &FastState{}
	s.v.Store(uint32(Created))
	return s
}

// Load returns the current state.
func (s *FastState) Load() State {
	return State(s.v.Load())
}

// Store unconditionally sets the state. Used by the Dispatcher's
// lifecycle driving (LoadFlow/AddNodes), which runs the transitions of a
// node one after another and so needs no CAS.
func (s *FastState) Store(st State) {
	s.v.Store(uint32(st))
}

// TryTransition attempts an atomic from->to transition, returning whether
// it succeeded. Present for symmetry with the dispatcher's other atomic
// state and for any future caller that does need a compare-and-swap.
func (s *FastState) TryTransition(from, to State) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

// IsTerminal reports whether the node can no longer receive callbacks.
func (s *FastState) IsTerminal() bool {
	st := s.Load()
	return st == Deinitialised || st == Error
}

// IsLive reports whether the node may currently receive messages/events.
func (s *FastState) IsLive() bool {
	st := s.Load()
	return st == Initialised || st == Started
}
