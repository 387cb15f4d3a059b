package job

import (
	"tierq/internal/sched"
)

// CPUWork returns a thread body that just burns the given CPU ticks.
func CPUWork(ticks int64) func(*sched.Kernel) {
	return func(k *sched.Kernel) {
		k.Consume(ticks)
	}
}

// BurstWork returns a body that alternates CPU bursts with I/O waits of io
// ticks. There is no wait after the last burst.
func BurstWork(bursts []int64, io int64) func(*sched.Kernel) {
	return func(k *sched.Kernel) {
		for i, b := range bursts {
			k.Consume(b)
			if io > 0 && i < len(bursts)-1 {
				k.WaitUntil(io)
			}
		}
	}
}
