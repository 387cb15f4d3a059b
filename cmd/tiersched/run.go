package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tierq/internal/job"
	"tierq/internal/sched"
	"tierq/internal/thread"
)

func newRunCmd() *cobra.Command {
	var (
		csvPath   string
		quiet     bool
		showTimer bool
	)

	cmd := &cobra.Command{
		Use:   "run [workload.yml]",
		Short: "Boot the kernel and run a workload until the machine halts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := job.Demo()
			if len(args) == 1 {
				var err error
				if w, err = job.Load(args[0]); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			events := io.Discard
			if !quiet {
				events = out
			}
			evlog := sched.NewEventLog(events, showTimer)
			if csvPath != "" {
				if err := evlog.EnableCSV(csvPath); err != nil {
					return err
				}
			}
			defer evlog.Close()

			k := sched.NewKernel(cfg, logger)
			k.Observe(evlog.Handle)

			logger.WithField("threads", len(w.Threads)).Info("booting")
			st := k.Boot(func(k *sched.Kernel) { w.Spawn(k) })

			printSummary(out, k, st)
			return evlog.Close()
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Also write events to this CSV file")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print events")
	cmd.Flags().BoolVar(&showTimer, "show-timer", false, "Print timer interrupts too")
	return cmd
}

func printSummary(w io.Writer, k *sched.Kernel, st sched.Stats) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Ticks: total %d, idle %d\n", st.TotalTicks, st.IdleTicks)
	fmt.Fprintf(w, "Threads: forked %d, destroyed %d, left blocked %d\n", st.Forked, st.Destroyed, st.Blocked)
	fmt.Fprintf(w, "Context switches: %d\n", st.Switches)

	k.Threads.Ascend(func(t *thread.Thread) bool {
		fmt.Fprintf(w, "  %-12s status=%-8s priority=%d\n", t, t.Status(), t.Priority())
		return true
	})
	k.Scheduler.Print(w)
}
