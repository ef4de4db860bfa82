package reactor

import "sync/atomic"

// State represents the lifecycle of a [Reactor].
//
//	Awake (0) → Running (1)          [Run()]
//	Running (1) → Sleeping (2)       [tick(), CAS]
//	Sleeping (2) → Running (1)       [tick() wake, CAS]
//	Running/Sleeping → Terminating   [Shutdown()]
//	Terminating → Terminated         [shutdown complete]
//
// Use [atomicState.TryTransition] (CAS) for the reversible Running/Sleeping
// pair; use Store only for the one-way move into Terminated, matching the
// teacher's LoopState discipline.
type State uint32

const (
	Awake State = iota
	Running
	Sleeping
	Terminating
	Terminated
)

func (s State) String() string {
	switch s {
	case Awake:
		return "Awake"
	case Running:
		return "Running"
	case Sleeping:
		return "Sleeping"
	case Terminating:
		return "Terminating"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

type atomicState struct {
	v atomic.Uint32
}

func newAtomicState() *atomicState {
	s := &atomicState{}
	s.v.Store(uint32(Awake))
	return s
}

func (s *atomicState) Load() State { return State(s.v.Load()) }

func (s *atomicState) Store(v State) { s.v.Store(uint32(v)) }

func (s *atomicState) TryTransition(from, to State) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
