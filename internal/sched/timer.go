package sched

import (
	log "github.com/sirupsen/logrus"

	"tierq/internal/machine"
)

// Consume runs the current thread on the CPU for ticks ticks. A user thread
// steps its program counter once per tick. The timer interrupt fires every
// TimerTicks; on return from it the thread may be made to yield.
func (k *Kernel) Consume(ticks int64) {
	for i := int64(0); i < ticks; i++ {
		if k.Current.Space() != nil {
			k.Machine.AdvancePC()
		}
		if now := k.Clock.Advance(1); now < k.nextTimer {
			continue
		}
		k.timerInterrupt()
		if k.yieldOnReturn {
			k.yieldOnReturn = false
			k.Yield()
		}
	}
}

// WaitUntil blocks the current thread for at least ticks ticks. It is woken
// by the first timer interrupt at or after its wake-up tick.
func (k *Kernel) WaitUntil(ticks int64) {
	old := k.Interrupt.SetLevel(machine.IntOff)

	wake := k.Clock.Count() + ticks
	k.sleepers.Set(sleeper{wake: wake, t: k.Current})
	k.log.WithFields(log.Fields{"tick": k.Clock.Count(), "thread": k.Current.ID(), "wake": wake}).Debug("waiting")
	k.Sleep(false)

	k.Interrupt.SetLevel(old)
}

// timerInterrupt ages the ready queue by the ticks since the last sweep,
// then readmits sleepers that are due. An L3 thread caught running is asked
// to yield, giving that tier its round robin.
func (k *Kernel) timerInterrupt() {
	old := k.Interrupt.SetLevel(machine.IntOff)

	now := k.Clock.Count()
	k.nextTimer = now + k.cfg.TimerTicks

	k.Scheduler.AgingSweep(now - k.lastAging)
	k.lastAging = now
	k.wakeSleepers(now)
	k.emit(StatusEvent{Kind: StatusTimer})

	if !k.inIdle && k.cfg.RoundRobinL3 && LevelFor(k.Current.Priority()) == L3 {
		k.yieldOnReturn = true
	}

	k.Interrupt.SetLevel(old)
}

func (k *Kernel) wakeSleepers(now int64) {
	for {
		s, ok := k.sleepers.Min()
		if !ok || s.wake > now {
			return
		}
		k.sleepers.Delete(s)
		k.Scheduler.ReadyToRun(s.t)
	}
}

// idle advances the clock to the timer interrupt that will wake the earliest
// sleeper and delivers it. It returns false if there is nothing to wait for.
func (k *Kernel) idle() bool {
	s, ok := k.sleepers.Min()
	if !ok {
		return false
	}

	target := k.nextTimer
	for target < s.wake {
		target += k.cfg.TimerTicks
	}
	before := k.Clock.Count()
	k.Clock.AdvanceTo(target)
	k.idleTicks += k.Clock.Count() - before

	k.inIdle = true
	k.timerInterrupt()
	k.inIdle = false
	return true
}
