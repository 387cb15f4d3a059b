// Package thread holds the execution context the scheduler borrows: its
// accounting fields, saved user state, simulated stack, and the fiber that
// lets one flow of control suspend while another resumes.
package thread

import (
	"fmt"
	"sync"

	"tierq/internal/machine"
)

// ID uniquely identifies a thread in the kernel.
type ID int

// Priority bounds. Larger is more favored.
const (
	MinPriority = 0
	MaxPriority = 149
)

// stackFencepost is written at the low end of every stack region.
// If it changes, something ran off the end of the stack.
const stackFencepost uint32 = 0xdedbeef

// DefaultStackWords is the size of a stack region when none is given.
const DefaultStackWords = 1024

// Status is the scheduling state of a thread.
type Status int

const (
	JustCreated Status = iota
	Ready
	Running
	Blocked
	Finished
)

func (s Status) String() string {
	switch s {
	case JustCreated:
		return "JUST_CREATED"
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Blocked:
		return "BLOCKED"
	case Finished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// AddrSpace is the address-space state saved and restored around a switch.
type AddrSpace interface {
	SaveState()
	RestoreState()
}

// Thread represents one schedulable execution context.
type Thread struct {
	id       ID
	name     string
	priority int
	status   Status

	approxBurst  float64 // predicted CPU ticks for the next run
	runningBurst int64   // ticks used in the last run
	startTime    int64   // tick when the current run began
	waitingTime  int64   // ticks spent in a ready tier since last dispatch

	space    AddrSpace
	userRegs [machine.NumTotalRegs]int
	stack    []uint32

	fiber *fiber

	destroyOnce sync.Once
	onDestroy   func(*Thread)
	destroyed   bool
}

// New creates a thread with a clamped priority and a fresh stack region.
// NOTE: the thread has no body until Bind or Adopt is called.
func New(id ID, name string, priority, stackWords int) *Thread {
	if stackWords <= 0 {
		stackWords = DefaultStackWords
	}
	stack := make([]uint32, stackWords)
	stack[0] = stackFencepost

	return &Thread{
		id:       id,
		name:     name,
		priority: clampPriority(priority),
		status:   JustCreated,
		stack:    stack,
		fiber:    newFiber(),
	}
}

func clampPriority(p int) int {
	if p < MinPriority {
		return MinPriority
	} else if p > MaxPriority {
		return MaxPriority
	}
	return p
}

func (t *Thread) ID() ID           { return t.id }
func (t *Thread) Name() string     { return t.name }
func (t *Thread) Priority() int    { return t.priority }
func (t *Thread) Status() Status   { return t.status }
func (t *Thread) Space() AddrSpace { return t.space }

// SetPriority changes the priority. Tier membership is not revisited until
// the thread is next admitted or aged.
func (t *Thread) SetPriority(p int) { t.priority = clampPriority(p) }

func (t *Thread) SetStatus(s Status) { t.status = s }

// SetSpace attaches an address space; a nil space marks a kernel-only thread.
func (t *Thread) SetSpace(space AddrSpace) { t.space = space }

func (t *Thread) String() string { return fmt.Sprintf("%s(%d)", t.name, t.id) }

// Burst accounting.

func (t *Thread) ApproxBurstTime() float64        { return t.approxBurst }
func (t *Thread) SetApproxBurstTime(v float64)    { t.approxBurst = v }
func (t *Thread) RunningBurstTime() int64         { return t.runningBurst }
func (t *Thread) SetRunningBurstTime(ticks int64) { t.runningBurst = ticks }
func (t *Thread) StartTime() int64                { return t.startTime }
func (t *Thread) SetStartTime(tick int64)         { t.startTime = tick }

// RemainingBurst is the estimated CPU time still needed: the prediction
// minus what the last run already consumed.
func (t *Thread) RemainingBurst() float64 {
	return t.approxBurst - float64(t.runningBurst)
}

// UpdateApproxBurst folds an observed burst into the prediction:
// approx = alpha*burst + (1-alpha)*approx.
func (t *Thread) UpdateApproxBurst(burst int64, alpha float64) {
	t.approxBurst = alpha*float64(burst) + (1-alpha)*t.approxBurst
}

// CompareBurst orders threads by ascending remaining burst estimate.
func CompareBurst(a, b *Thread) int {
	ra, rb := a.RemainingBurst(), b.RemainingBurst()
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	default:
		return 0
	}
}

// Waiting-time accounting.

func (t *Thread) WaitingTime() int64 { return t.waitingTime }

// IncreaseWaitingTime adds ticks to the waiting counter and reports whether
// it has reached threshold.
func (t *Thread) IncreaseWaitingTime(ticks, threshold int64) bool {
	if ticks > 0 {
		t.waitingTime += ticks
	}
	return t.waitingTime >= threshold
}

func (t *Thread) ResetWaitingTime() { t.waitingTime = 0 }

// User state.

// SaveUserState copies the user-mode registers out of the machine.
func (t *Thread) SaveUserState(m *machine.Machine) { t.userRegs = m.Registers }

// RestoreUserState loads the saved registers back into the machine.
func (t *Thread) RestoreUserState(m *machine.Machine) { m.Registers = t.userRegs }

// UserRegisters returns a copy of the saved register snapshot.
func (t *Thread) UserRegisters() [machine.NumTotalRegs]int { return t.userRegs }

// Stack returns the thread's stack region. Word 0 is the fencepost.
func (t *Thread) Stack() []uint32 { return t.stack }

// CheckOverflow reports an error if the stack fencepost was overwritten.
func (t *Thread) CheckOverflow() error {
	if len(t.stack) == 0 || t.stack[0] != stackFencepost {
		return fmt.Errorf("thread %s: stack overflow detected", t)
	}
	return nil
}

// Lifetime.

// OnDestroy registers fn to run once when the thread is destroyed.
func (t *Thread) OnDestroy(fn func(*Thread)) { t.onDestroy = fn }

// Destroy releases the thread's fiber and runs the destroy hook. It must not
// be called from the thread's own flow of control. Repeated calls are no-ops.
func (t *Thread) Destroy() {
	t.destroyOnce.Do(func() {
		t.destroyed = true
		t.status = Finished
		t.fiber.release()
		t.stack = nil
		if t.onDestroy != nil {
			t.onDestroy(t)
		}
	})
}

// Destroyed reports whether Destroy has run.
func (t *Thread) Destroyed() bool { return t.destroyed }
