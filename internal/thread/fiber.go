package thread

import (
	"runtime"
	"sync"
)

// fiber is a resumable flow of control backed by a goroutine. Exactly one
// fiber of a kernel runs at a time; the others are parked in park and only
// move again when another fiber hands the processor over through Switch.
type fiber struct {
	wake     chan struct{}
	dead     chan struct{}
	deadOnce sync.Once
	started  bool
	body     func()
}

func newFiber() *fiber {
	return &fiber{
		wake: make(chan struct{}, 1),
		dead: make(chan struct{}),
	}
}

// park suspends the calling goroutine until the fiber is switched to again.
// A released fiber never resumes: its goroutine exits, dropping its stack.
func (f *fiber) park() {
	select {
	case <-f.wake:
	case <-f.dead:
		runtime.Goexit()
	}
}

func (f *fiber) resume() {
	if !f.started {
		f.started = true
		go f.body()
		return
	}
	f.wake <- struct{}{}
}

func (f *fiber) release() {
	f.deadOnce.Do(func() { close(f.dead) })
}

// Bind sets the function a never-run thread starts executing when it is
// first switched to.
func (t *Thread) Bind(body func()) {
	t.fiber.body = body
}

// Adopt makes the calling goroutine the thread's flow of control, as for the
// boot thread that is already running when the kernel starts.
func (t *Thread) Adopt() {
	t.fiber.started = true
}

// Start launches a never-run thread without suspending the caller.
func Start(t *Thread) {
	t.fiber.resume()
}

// Release lets a parked thread's goroutine exit without running any more of
// its code. Used when the machine halts with threads still blocked.
func (t *Thread) Release() {
	t.fiber.release()
}

// Switch suspends the calling flow, which must belong to old, and transfers
// the processor to next: to its last suspension point, or to its body if it
// has never run. Switch returns only when some later Switch names old as
// the next thread.
func Switch(old, next *Thread) {
	next.fiber.resume()
	old.fiber.park()
}
