// internal/sched/schedulerEvent.go

package sched

import "tierq/internal/thread"

// StatusKind represents the type of scheduler event
type StatusKind int

const (
	StatusEnqueue StatusKind = iota
	StatusDispatch
	StatusPromote
	StatusDestroy
	StatusTimer
	StatusHalt
)

// StatusEvent is emitted on every key scheduler or kernel action.
type StatusEvent struct {
	Tick     int64
	Kind     StatusKind
	ThreadID thread.ID
	Name     string
	Tier     Level // tier entered, for Enqueue and Promote
	Priority int
	RanTicks int64 // burst of the outgoing thread, for Dispatch
	PrevID   thread.ID
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusEnqueue:
		return "Enqueued"
	case StatusDispatch:
		return "Dispatch"
	case StatusPromote:
		return "Promote"
	case StatusDestroy:
		return "Destroy"
	case StatusTimer:
		return "Timer"
	case StatusHalt:
		return "Halt"
	default:
		return "Unknown"
	}
}
