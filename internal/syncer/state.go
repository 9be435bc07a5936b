package syncer

import "sync/atomic"

// TaskState is the lifecycle state of a scheduled task.
type TaskState int32

const (
	StateQueued TaskState = iota
	StateRunning
	StateCompleted
	StateFailed
	StateCancelled
)

func (s TaskState) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// IsTerminal reports whether no further transition can leave s.
func (s TaskState) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// allowed lists the legal transitions out of each state.
var allowed = map[TaskState][]TaskState{
	StateQueued:  {StateRunning, StateCancelled},
	StateRunning: {StateCompleted, StateFailed, StateCancelled},
}

func canTransition(from, to TaskState) bool {
	for _, next := range allowed[from] {
		if next == to {
			return true
		}
	}
	return false
}

// taskState guards transitions with compare-and-swap so that racing
// transitions out of the same state have exactly one winner.
type taskState struct {
	v atomic.Int32
}

func (s *taskState) load() TaskState {
	return TaskState(s.v.Load())
}

func (s *taskState) transition(from, to TaskState) bool {
	if !canTransition(from, to) {
		return false
	}
	return s.v.CompareAndSwap(int32(from), int32(to))
}
