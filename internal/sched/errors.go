package sched

import "fmt"

// InvariantKind names the scheduler guarantee that was broken.
type InvariantKind int

const (
	InterruptsEnabled InvariantKind = iota
	DoubleDisposal
	StackOverflow
)

func (k InvariantKind) String() string {
	switch k {
	case InterruptsEnabled:
		return "interrupts enabled"
	case DoubleDisposal:
		return "double disposal"
	case StackOverflow:
		return "stack overflow"
	default:
		return "unknown"
	}
}

// InvariantError is the panic value of a violated scheduler invariant.
// The kernel never recovers it.
type InvariantError struct {
	Kind InvariantKind
	Msg  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("scheduler invariant violated (%s): %s", e.Kind, e.Msg)
}

func assertf(cond bool, kind InvariantKind, format string, args ...any) {
	if !cond {
		panic(&InvariantError{Kind: kind, Msg: fmt.Sprintf(format, args...)})
	}
}
