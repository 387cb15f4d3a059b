// internal/sched/scheduler.go

package sched

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"tierq/internal/machine"
	"tierq/internal/thread"
)

// Env is the slice of kernel state the scheduler reads and updates. The
// kernel owns it and hands the scheduler a reference instead of keeping
// "current thread" and "now" in package globals.
type Env struct {
	Interrupt *machine.Interrupt
	Clock     *machine.TickClock
	Machine   *machine.Machine
	Current   *thread.Thread
}

// SwitchFunc is the low-level context switch: suspend old's flow and resume
// next's. It returns when old is switched to again.
type SwitchFunc func(old, next *thread.Thread)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSwitch replaces the fiber switch, e.g. with a non-suspending stub in tests.
func WithSwitch(fn SwitchFunc) Option {
	return func(s *Scheduler) { s.switchFn = fn }
}

// WithLogger sets the logger used for dispatch and queue tracing.
func WithLogger(l *log.Logger) Option {
	return func(s *Scheduler) { s.log = l.WithField("component", "scheduler") }
}

// WithObserver receives every StatusEvent the scheduler emits.
func WithObserver(fn func(StatusEvent)) Option {
	return func(s *Scheduler) { s.observer = fn }
}

// Scheduler implements the three-tier ready queue and the dispatch protocol.
//
// It is not internally synchronized. Every entry point requires the caller
// to have disabled interrupts, and asserts it. A blocking lock cannot be
// used here: waiting on one ends in FindNextToRun, which would need the
// same lock again.
type Scheduler struct {
	env   *Env
	tiers [3]readyTier // indexed by Level-1

	// a thread that finished while running on its own stack; destroyed by
	// the next dispatch that resumes some other thread
	toBeDestroyed *thread.Thread

	agingThreshold int64
	resetOnPromote bool

	switchFn SwitchFunc
	observer func(StatusEvent)
	log      *log.Entry

	switches  int64
	destroyed int64
}

// New creates a scheduler with empty tiers bound to env.
func New(cfg Config, env *Env, opts ...Option) *Scheduler {
	cfg = cfg.clamped()
	s := &Scheduler{
		env:            env,
		tiers:          [3]readyTier{newSortedTier(), newSortedTier(), newFIFOTier()},
		agingThreshold: cfg.AgingThreshold,
		resetOnPromote: cfg.ResetOnPromote,
		switchFn:       thread.Switch,
		log:            log.NewEntry(log.StandardLogger()).WithField("component", "scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) tier(l Level) readyTier { return s.tiers[l-1] }

func (s *Scheduler) now() int64 { return s.env.Clock.Count() }

func (s *Scheduler) emit(ev StatusEvent) {
	if s.observer != nil {
		ev.Tick = s.now()
		s.observer(ev)
	}
}

func (s *Scheduler) assertInterruptsOff(op string) {
	assertf(s.env.Interrupt.Disabled(), InterruptsEnabled, "%s called with interrupts on", op)
}

// ReadyToRun marks t ready and places it in the tier its priority selects:
// sorted by remaining burst in L1 and L2, at the tail of L3.
func (s *Scheduler) ReadyToRun(t *thread.Thread) {
	s.assertInterruptsOff("ReadyToRun")

	t.SetStatus(thread.Ready)
	level := LevelFor(t.Priority())
	s.tier(level).Insert(t)

	s.log.WithFields(log.Fields{"tick": s.now(), "thread": t.ID(), "tier": level}).
		Debug("inserted into ready queue")
	s.emit(StatusEvent{Kind: StatusEnqueue, ThreadID: t.ID(), Name: t.Name(), Tier: level, Priority: t.Priority()})
}

// FindNextToRun removes and returns the front of the highest non-empty
// tier, or nil when nothing is ready.
func (s *Scheduler) FindNextToRun() *thread.Thread {
	s.assertInterruptsOff("FindNextToRun")

	for _, level := range []Level{L1, L2, L3} {
		if t := s.tier(level).RemoveFront(); t != nil {
			s.log.WithFields(log.Fields{"tick": s.now(), "thread": t.ID(), "tier": level}).
				Debug("removed from ready queue")
			return t
		}
	}
	return nil
}

// Run dispatches the CPU to next. The outgoing thread is Env.Current and
// must already have left the RUNNING state. If finishing is set the outgoing
// thread is destroyed once the processor is running on another stack.
//
// Run returns in the outgoing thread's flow, after some later dispatch
// selects it again (or immediately, when next is the outgoing thread).
func (s *Scheduler) Run(next *thread.Thread, finishing bool) {
	old := s.env.Current

	s.assertInterruptsOff("Run")

	if finishing {
		assertf(s.toBeDestroyed == nil, DoubleDisposal,
			"%s is finishing while %s still awaits destruction", old, s.toBeDestroyed)
		s.toBeDestroyed = old
	}

	if old.Space() != nil {
		old.SaveUserState(s.env.Machine)
		old.Space().SaveState()
	}

	err := old.CheckOverflow()
	assertf(err == nil, StackOverflow, "%v", err)

	now := s.now()
	old.SetRunningBurstTime(now - old.StartTime())

	s.env.Current = next
	next.SetStatus(thread.Running)
	next.SetStartTime(now)
	next.ResetWaitingTime()

	s.emit(StatusEvent{Kind: StatusDispatch, ThreadID: next.ID(), Name: next.Name(),
		Priority: next.Priority(), RanTicks: old.RunningBurstTime(), PrevID: old.ID()})

	if old != next {
		s.log.WithFields(log.Fields{
			"tick":     now,
			"thread":   next.ID(),
			"replaced": old.ID(),
			"ran":      old.RunningBurstTime(),
		}).Debug("selected for execution")

		s.switches++
		s.switchFn(old, next)

		// back in old's flow; interrupts are still off
		s.assertInterruptsOff("Run (after switch)")
	}

	s.CheckToBeDestroyed()

	if old.Space() != nil {
		old.RestoreUserState(s.env.Machine)
		old.Space().RestoreState()
	}
}

// CheckToBeDestroyed destroys the thread left by a finishing dispatch, if
// any. It runs only on a stack other than the dead thread's: after a switch
// returns, or at the start of a thread's first run.
func (s *Scheduler) CheckToBeDestroyed() {
	if s.toBeDestroyed == nil {
		return
	}
	t := s.toBeDestroyed
	s.toBeDestroyed = nil

	t.Destroy()
	s.destroyed++

	s.log.WithFields(log.Fields{"tick": s.now(), "thread": t.ID()}).Debug("destroyed")
	s.emit(StatusEvent{Kind: StatusDestroy, ThreadID: t.ID(), Name: t.Name(), Priority: t.Priority()})
}

// AgingSweep charges ticks of waiting time to every ready thread and promotes
// those past the aging threshold whose priority qualifies for the next tier
// up. Each thread is aged once per sweep; aging never demotes.
func (s *Scheduler) AgingSweep(ticks int64) {
	s.assertInterruptsOff("AgingSweep")

	// L3 -> L2
	toL2 := s.ageTier(L3, ticks, func(t *thread.Thread, crossed bool) bool {
		return crossed && t.Priority() >= L2MinPriority
	})

	// L2 -> L1
	toL1 := s.ageTier(L2, ticks, func(t *thread.Thread, crossed bool) bool {
		return crossed && t.Priority() >= L1MinPriority
	}, toL2...)

	// L1 has nowhere to go
	s.ageTier(L1, ticks, func(*thread.Thread, bool) bool { return false }, toL1...)
}

// ageTier drains level, ages each thread, and reinserts the ones that stay.
// Threads in arrivals were promoted into level earlier in the sweep and are
// inserted without being aged again. It returns the threads to promote.
func (s *Scheduler) ageTier(level Level, ticks int64, promote func(*thread.Thread, bool) bool, arrivals ...*thread.Thread) []*thread.Thread {
	q := s.tier(level)

	var stay, up []*thread.Thread
	for t := q.RemoveFront(); t != nil; t = q.RemoveFront() {
		crossed := t.IncreaseWaitingTime(ticks, s.agingThreshold)
		if promote(t, crossed) {
			up = append(up, t)
		} else {
			stay = append(stay, t)
		}
	}

	for _, t := range arrivals {
		s.promoteInto(t, level)
	}
	for _, t := range stay {
		q.Insert(t)
	}
	return up
}

func (s *Scheduler) promoteInto(t *thread.Thread, level Level) {
	if s.resetOnPromote {
		t.ResetWaitingTime()
	}
	s.tier(level).Insert(t)

	s.log.WithFields(log.Fields{"tick": s.now(), "thread": t.ID(), "tier": level, "waiting": t.WaitingTime()}).
		Debug("promoted by aging")
	s.emit(StatusEvent{Kind: StatusPromote, ThreadID: t.ID(), Name: t.Name(), Tier: level, Priority: t.Priority()})
}

// Snapshot lists the thread IDs of each tier in service order.
type Snapshot struct {
	L1, L2, L3 []thread.ID
}

// Snapshot returns the tier contents without changing them.
func (s *Scheduler) Snapshot() Snapshot {
	collect := func(l Level) []thread.ID {
		vs := s.tier(l).Values()
		out := make([]thread.ID, 0, len(vs))
		for _, t := range vs {
			out = append(out, t.ID())
		}
		return out
	}
	return Snapshot{L1: collect(L1), L2: collect(L2), L3: collect(L3)}
}

// Print writes the contents of every non-empty tier, in tier order. For debugging.
func (s *Scheduler) Print(w io.Writer) {
	for _, level := range []Level{L1, L2, L3} {
		q := s.tier(level)
		if q.Empty() {
			continue
		}
		names := make([]string, 0, q.Len())
		for _, t := range q.Values() {
			names = append(names, t.String())
		}
		fmt.Fprintf(w, "%s: %s\n", level, strings.Join(names, " "))
	}
}

// Len returns the number of ready threads across all tiers.
func (s *Scheduler) Len() int {
	n := 0
	for _, q := range s.tiers {
		n += q.Len()
	}
	return n
}

// PendingDisposal returns the thread awaiting destruction, if any.
func (s *Scheduler) PendingDisposal() *thread.Thread { return s.toBeDestroyed }

// Switches returns how many real context switches Run performed.
func (s *Scheduler) Switches() int64 { return s.switches }

// Destroyed returns how many threads have been destroyed.
func (s *Scheduler) Destroyed() int64 { return s.destroyed }
