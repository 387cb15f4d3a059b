package sched

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// EventLog prints scheduler events as one line each and can mirror them to
// a CSV file.
type EventLog struct {
	out       io.Writer
	showTimer bool

	csvFile   *os.File
	csvWriter *csv.Writer
}

// NewEventLog writes human-readable lines to out. Timer events are skipped
// unless showTimer is set, for the brevity of output.
func NewEventLog(out io.Writer, showTimer bool) *EventLog {
	return &EventLog{out: out, showTimer: showTimer}
}

// EnableCSV opens the given file path for CSV logging of events.
// Must be called before the kernel boots.
func (l *EventLog) EnableCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv log: %w", err)
	}
	w := csv.NewWriter(f)

	// write header
	if err := w.Write([]string{"tick", "event", "thread_id", "name", "tier", "priority", "ran_ticks", "prev_id"}); err != nil {
		f.Close()
		return fmt.Errorf("write csv header: %w", err)
	}
	w.Flush()
	l.csvFile = f
	l.csvWriter = w
	return nil
}

// Handle records one event.
func (l *EventLog) Handle(ev StatusEvent) {
	if ev.Kind == StatusTimer && !l.showTimer {
		return
	}

	// an auxiliary function to center the event kind in the output
	center := func(str string, width int) string {
		spaces := (width - len(str)) / 2
		return strings.Repeat(" ", spaces) + str + strings.Repeat(" ", width-(spaces+len(str)))
	}

	msg := fmt.Sprintf("Tick: %07d [%s] => Thread: %04d %-10s",
		ev.Tick, center(ev.Kind.String(), 10), ev.ThreadID, ev.Name)
	switch ev.Kind {
	case StatusEnqueue, StatusPromote:
		msg += fmt.Sprintf(" tier=%s priority=%d", ev.Tier, ev.Priority)
	case StatusDispatch:
		msg += fmt.Sprintf(" replaces=%04d after %d ticks", ev.PrevID, ev.RanTicks)
	}
	fmt.Fprintln(l.out, msg)

	if l.csvFile != nil {
		rec := []string{
			strconv.FormatInt(ev.Tick, 10),
			ev.Kind.String(),
			strconv.Itoa(int(ev.ThreadID)),
			ev.Name,
			ev.Tier.String(),
			strconv.Itoa(ev.Priority),
			strconv.FormatInt(ev.RanTicks, 10),
			strconv.Itoa(int(ev.PrevID)),
		}
		l.csvWriter.Write(rec)
		l.csvWriter.Flush()
	}
}

// Close flushes and closes the CSV file, if any.
func (l *EventLog) Close() error {
	if l.csvFile == nil {
		return nil
	}
	f := l.csvFile
	l.csvFile = nil

	l.csvWriter.Flush()
	if err := l.csvWriter.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
