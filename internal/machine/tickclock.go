// internal/machine/tickclock.go

package machine

import (
	"sync/atomic"
	"time"
)

// TickClock is the kernel's monotonically increasing tick counter.
// Ticks only move when the kernel advances them; pacing optionally ties each
// tick to a wall-clock interval so a run can be watched in real time.
type TickClock struct {
	count  atomic.Int64
	ticker *time.Ticker
}

// NewTickClock creates a clock at tick zero.
func NewTickClock() *TickClock {
	return &TickClock{}
}

// Pace makes every subsequent tick wait for the given wall-clock interval.
// A non-positive interval disables pacing.
func (c *TickClock) Pace(interval time.Duration) {
	c.Stop()
	if interval > 0 {
		c.ticker = time.NewTicker(interval)
	}
}

// Stop releases the pacing ticker, if any.
func (c *TickClock) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

// Advance moves the clock forward by n ticks and returns the new count.
func (c *TickClock) Advance(n int64) int64 {
	if n <= 0 {
		return c.count.Load()
	}
	if c.ticker != nil {
		for i := int64(0); i < n; i++ {
			<-c.ticker.C
		}
	}
	return c.count.Add(n)
}

// AdvanceTo moves the clock to tick if it is in the future.
func (c *TickClock) AdvanceTo(tick int64) int64 {
	return c.Advance(tick - c.count.Load())
}

// Count returns the current tick count atomically.
func (c *TickClock) Count() int64 {
	return c.count.Load()
}
