package dispatcher

import "sync/atomic"

// runState is the Dispatcher worker's own lifecycle, distinct from any
// individual node's node.State.
type runState uint32

const (
	stateAwake runState = iota
	stateRunning
	stateTerminating
	stateTerminated
)

func (s runState) String() string {
	switch s {
	case stateAwake:
		return "awake"
	case stateRunning:
		return "running"
	case stateTerminating:
		return "terminating"
	case stateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

type fastState struct {
	v atomic.Uint32
}

func newFastState() *fastState {
	s := &fastState{}
	s.v.Store(uint32(stateAwake))
	return s
}

func (s *fastState) Load() runState { return runState(s.v.Load()) }

func (s *fastState) Store(st runState) { s.v.Store(uint32(st)) }

func (s *fastState) TryTransition(from, to runState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
