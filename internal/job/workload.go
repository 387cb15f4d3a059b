// Package job describes the threads a simulation run forks and the work
// each one does.
package job

import (
	"errors"
	"fmt"
	"os"

	yaml "github.com/goccy/go-yaml"

	"tierq/internal/sched"
	"tierq/internal/thread"
	"tierq/internal/userprog"
)

// ThreadSpec mirrors one entry of a workload file.
type ThreadSpec struct {
	Name        string  `yaml:"name"`
	Priority    int     `yaml:"priority"`
	Bursts      []int64 `yaml:"bursts"`       // CPU ticks per burst
	IO          int64   `yaml:"io"`           // ticks waited between bursts
	ApproxBurst float64 `yaml:"approx_burst"` // initial burst prediction
	User        bool    `yaml:"user"`         // runs in its own address space
	Pages       int     `yaml:"pages"`        // address space size, 8 (by default)
}

// Workload is the set of threads main forks at boot.
type Workload struct {
	Threads []ThreadSpec `yaml:"threads"`
}

var errEmptyWorkload = errors.New("workload has no threads")

// Load reads and validates a workload file.
func Load(path string) (Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Workload{}, fmt.Errorf("read workload %s: %w", path, err)
	}
	w, err := Parse(data)
	if err != nil {
		return Workload{}, fmt.Errorf("workload %s: %w", path, err)
	}
	return w, nil
}

// Parse decodes and validates a workload document.
func Parse(data []byte) (Workload, error) {
	var w Workload
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Workload{}, fmt.Errorf("parse: %w", err)
	}
	if err := w.Validate(); err != nil {
		return Workload{}, err
	}
	return w, nil
}

// Validate checks every thread entry.
func (w Workload) Validate() error {
	if len(w.Threads) == 0 {
		return errEmptyWorkload
	}
	for i, ts := range w.Threads {
		if ts.Name == "" {
			return fmt.Errorf("thread %d: missing name", i)
		}
		if ts.Priority < thread.MinPriority || ts.Priority > thread.MaxPriority {
			return fmt.Errorf("thread %s: priority %d outside [%d, %d]",
				ts.Name, ts.Priority, thread.MinPriority, thread.MaxPriority)
		}
		if len(ts.Bursts) == 0 {
			return fmt.Errorf("thread %s: no bursts", ts.Name)
		}
		for _, b := range ts.Bursts {
			if b <= 0 {
				return fmt.Errorf("thread %s: burst %d must be positive", ts.Name, b)
			}
		}
		if ts.IO < 0 {
			return fmt.Errorf("thread %s: negative io wait", ts.Name)
		}
	}
	return nil
}

// Demo is the workload used when no file is given: one thread per tier, an
// I/O-bound L1 thread, and a user program.
func Demo() Workload {
	return Workload{Threads: []ThreadSpec{
		{Name: "editor", Priority: 120, Bursts: []int64{40, 40, 40}, IO: 300, ApproxBurst: 40},
		{Name: "compiler", Priority: 110, Bursts: []int64{900}, ApproxBurst: 900},
		{Name: "indexer", Priority: 70, Bursts: []int64{600, 200}, IO: 150, ApproxBurst: 400},
		{Name: "shell", Priority: 55, Bursts: []int64{120}, User: true},
		{Name: "backup", Priority: 20, Bursts: []int64{700}},
		{Name: "logrotate", Priority: 10, Bursts: []int64{300}},
	}}
}

// Spawn forks every thread of the workload from the calling thread, in file
// order, and returns them.
func (w Workload) Spawn(k *sched.Kernel) []*thread.Thread {
	out := make([]*thread.Thread, 0, len(w.Threads))
	nextFrame := 0
	for _, ts := range w.Threads {
		opts := []sched.ForkOption{sched.WithApproxBurst(ts.ApproxBurst)}
		if ts.User {
			pages := ts.Pages
			if pages <= 0 {
				pages = 8
			}
			opts = append(opts, sched.WithSpace(userprog.NewAddrSpace(k.Machine, pages, nextFrame)))
			nextFrame += pages
		}
		out = append(out, k.Fork(ts.Name, ts.Priority, BurstWork(ts.Bursts, ts.IO), opts...))
	}
	return out
}

// TotalCPU is the sum of all bursts in the workload.
func (w Workload) TotalCPU() int64 {
	var total int64
	for _, ts := range w.Threads {
		for _, b := range ts.Bursts {
			total += b
		}
	}
	return total
}
