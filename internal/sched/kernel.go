package sched

import (
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/btree"

	"tierq/internal/machine"
	"tierq/internal/thread"
	"tierq/internal/threadtable"
)

// Stats summarizes a run of the machine.
type Stats struct {
	TotalTicks int64
	IdleTicks  int64
	Switches   int64
	Destroyed  int64
	Forked     int
	Blocked    int // threads left blocked when the machine halted
}

// sleeper is a thread parked by WaitUntil.
type sleeper struct {
	wake int64
	t    *thread.Thread
}

// Kernel wires the scheduler to the simulated machine and provides the
// thread operations built on it: Fork, Yield, Sleep, Finish, and timed waits.
type Kernel struct {
	Env
	Scheduler *Scheduler
	Threads   *threadtable.Table

	cfg      Config
	log      *log.Entry
	observer func(StatusEvent)

	nextID   thread.ID
	forked   int
	sleepers *btree.BTreeG[sleeper]

	nextTimer     int64
	lastAging     int64
	yieldOnReturn bool
	inIdle        bool
	idleTicks     int64

	done chan struct{}
}

// NewKernel creates a kernel with interrupts off and an empty ready queue.
func NewKernel(cfg Config, logger *log.Logger) *Kernel {
	cfg = cfg.clamped()
	if logger == nil {
		logger = log.StandardLogger()
	}

	k := &Kernel{
		Env: Env{
			Interrupt: machine.NewInterrupt(),
			Clock:     machine.NewTickClock(),
			Machine:   machine.New(),
		},
		Threads: threadtable.New(),
		cfg:     cfg,
		log:     logger.WithField("component", "kernel"),
		sleepers: btree.NewBTreeG(func(a, b sleeper) bool {
			if a.wake != b.wake {
				return a.wake < b.wake
			}
			return a.t.ID() < b.t.ID()
		}),
		done: make(chan struct{}),
	}
	k.Scheduler = New(cfg, &k.Env, WithLogger(logger), WithObserver(k.emit))
	return k
}

// Observe registers fn to receive scheduler and kernel events.
// Must be called before Boot.
func (k *Kernel) Observe(fn func(StatusEvent)) { k.observer = fn }

func (k *Kernel) emit(ev StatusEvent) {
	if k.observer == nil {
		return
	}
	if ev.Tick == 0 {
		ev.Tick = k.Clock.Count()
	}
	k.observer(ev)
}

// Config returns the kernel's effective configuration.
func (k *Kernel) Config() Config { return k.cfg }

// Boot starts thread 0 ("main") running body and blocks until the machine
// halts, i.e. no thread is ready and none can become ready again.
func (k *Kernel) Boot(body func(*Kernel)) Stats {
	if k.cfg.TickMS > 0 {
		k.Clock.Pace(time.Duration(k.cfg.TickMS) * time.Millisecond)
		defer k.Clock.Stop()
	}

	main := k.newThread("main", 0)
	main.Bind(func() {
		k.begin()
		body(k)
		k.Finish()
	})

	k.Current = main
	main.SetStatus(thread.Running)
	main.SetStartTime(k.Clock.Count())
	k.nextTimer = k.Clock.Count() + k.cfg.TimerTicks
	k.lastAging = k.Clock.Count()

	thread.Start(main)
	<-k.done

	// whatever is left is parked for good; let the goroutines go
	k.Threads.Ascend(func(t *thread.Thread) bool {
		t.Release()
		return true
	})
	return k.Stats()
}

// Stats reports counters for the run so far.
func (k *Kernel) Stats() Stats {
	return Stats{
		TotalTicks: k.Clock.Count(),
		IdleTicks:  k.idleTicks,
		Switches:   k.Scheduler.Switches(),
		Destroyed:  k.Scheduler.Destroyed(),
		Forked:     k.forked,
		Blocked:    k.Threads.CountStatus(thread.Blocked),
	}
}

func (k *Kernel) newThread(name string, priority int) *thread.Thread {
	t := thread.New(k.nextID, name, priority, k.cfg.StackWords)
	k.nextID++
	t.OnDestroy(func(d *thread.Thread) { k.Threads.Delete(d.ID()) })
	k.Threads.Insert(t)
	return t
}

// ForkOption adjusts a thread before it is first admitted.
type ForkOption func(*thread.Thread)

// WithSpace gives the thread a user address space.
func WithSpace(space thread.AddrSpace) ForkOption {
	return func(t *thread.Thread) { t.SetSpace(space) }
}

// WithApproxBurst seeds the burst prediction used to order L1 and L2.
func WithApproxBurst(ticks float64) ForkOption {
	return func(t *thread.Thread) { t.SetApproxBurstTime(ticks) }
}

// Fork creates a thread that runs body and admits it to the ready queue.
// The caller keeps running; the new thread runs when it is selected.
func (k *Kernel) Fork(name string, priority int, body func(*Kernel), opts ...ForkOption) *thread.Thread {
	t := k.newThread(name, priority)
	for _, opt := range opts {
		opt(t)
	}
	t.Bind(func() {
		k.begin()
		body(k)
		k.Finish()
	})
	k.forked++

	old := k.Interrupt.SetLevel(machine.IntOff)
	k.Scheduler.ReadyToRun(t)
	k.Interrupt.SetLevel(old)
	return t
}

// begin is the first thing a new thread runs: it was switched to from Run,
// so it finishes that dispatch's cleanup and turns interrupts back on.
func (k *Kernel) begin() {
	k.Scheduler.CheckToBeDestroyed()

	if space := k.Current.Space(); space != nil {
		k.Machine.Registers = [machine.NumTotalRegs]int{}
		k.Machine.WriteRegister(machine.NextPCReg, 4)
		space.RestoreState()
	}

	k.log.WithFields(log.Fields{"tick": k.Clock.Count(), "thread": k.Current.ID()}).Debug("thread started")
	k.Interrupt.Enable()
}

// Yield gives up the CPU if another thread is at least as deserving. The
// current thread is readmitted first, so it may be selected again.
func (k *Kernel) Yield() {
	old := k.Interrupt.SetLevel(machine.IntOff)

	k.Scheduler.ReadyToRun(k.Current)
	next := k.Scheduler.FindNextToRun()
	k.Scheduler.Run(next, false)

	k.Interrupt.SetLevel(old)
}

// Sleep relinquishes the CPU because the current thread is blocked or
// finishing. Interrupts must already be off. A blocked thread's burst
// prediction is updated from the run that just ended. When nothing is
// ready, the CPU idles until a timed wait expires, or halts the machine if
// none is pending.
func (k *Kernel) Sleep(finishing bool) {
	assertf(k.Interrupt.Disabled(), InterruptsEnabled, "Sleep called with interrupts on")

	cur := k.Current
	if finishing {
		cur.SetStatus(thread.Finished)
	} else {
		cur.SetStatus(thread.Blocked)
		cur.UpdateApproxBurst(k.Clock.Count()-cur.StartTime(), k.cfg.Alpha)
	}

	next := k.Scheduler.FindNextToRun()
	for next == nil {
		if !k.idle() {
			k.halt()
		}
		next = k.Scheduler.FindNextToRun()
	}
	k.Scheduler.Run(next, finishing)
}

// Finish ends the current thread. It does not return.
func (k *Kernel) Finish() {
	k.Interrupt.SetLevel(machine.IntOff)
	k.log.WithFields(log.Fields{"tick": k.Clock.Count(), "thread": k.Current.ID()}).Debug("finishing thread")
	k.Sleep(true)
}

// halt stops the machine from the flow that found nothing left to run.
func (k *Kernel) halt() {
	k.Scheduler.CheckToBeDestroyed()

	st := k.Stats()
	k.log.WithFields(log.Fields{
		"tick":     st.TotalTicks,
		"idle":     st.IdleTicks,
		"switches": st.Switches,
		"blocked":  st.Blocked,
	}).Info("no threads ready or runnable, machine halting")
	k.emit(StatusEvent{Kind: StatusHalt, ThreadID: k.Current.ID(), Name: k.Current.Name()})

	close(k.done)
	runtime.Goexit()
}
