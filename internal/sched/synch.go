package sched

import (
	"github.com/emirpasic/gods/queues/linkedlistqueue"

	"tierq/internal/machine"
	"tierq/internal/thread"
)

// Semaphore is a counting semaphore whose waiters block through the
// scheduler. Atomicity comes from disabling interrupts, not from a lock.
type Semaphore struct {
	k       *Kernel
	name    string
	value   int
	waiters *linkedlistqueue.Queue
}

// NewSemaphore creates a semaphore with the given initial value.
func (k *Kernel) NewSemaphore(name string, initial int) *Semaphore {
	return &Semaphore{k: k, name: name, value: initial, waiters: linkedlistqueue.New()}
}

// P waits until the value is positive, then decrements it.
func (s *Semaphore) P() {
	old := s.k.Interrupt.SetLevel(machine.IntOff)

	for s.value == 0 {
		s.waiters.Enqueue(s.k.Current)
		s.k.Sleep(false)
	}
	s.value--

	s.k.Interrupt.SetLevel(old)
}

// V increments the value, waking one waiter if there is one.
func (s *Semaphore) V() {
	old := s.k.Interrupt.SetLevel(machine.IntOff)

	if v, ok := s.waiters.Dequeue(); ok {
		s.k.Scheduler.ReadyToRun(v.(*thread.Thread))
	}
	s.value++

	s.k.Interrupt.SetLevel(old)
}

func (s *Semaphore) Name() string { return s.name }
func (s *Semaphore) Value() int   { return s.value }
