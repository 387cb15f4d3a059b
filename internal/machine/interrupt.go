package machine

// IntStatus is the interrupt level of the simulated processor.
type IntStatus int

const (
	IntOff IntStatus = iota
	IntOn
)

func (s IntStatus) String() string {
	switch s {
	case IntOff:
		return "off"
	case IntOn:
		return "on"
	default:
		return "unknown"
	}
}

// Interrupt tracks whether asynchronous interrupts may be delivered.
// On a single processor, running with interrupts off is the kernel's only
// form of mutual exclusion below the blocking primitives.
type Interrupt struct {
	level IntStatus
}

// NewInterrupt returns a controller with interrupts disabled, as at boot.
func NewInterrupt() *Interrupt {
	return &Interrupt{level: IntOff}
}

// Level returns the current interrupt level.
func (i *Interrupt) Level() IntStatus { return i.level }

// SetLevel changes the interrupt level and returns the previous one so the
// caller can restore it when its critical section ends.
func (i *Interrupt) SetLevel(level IntStatus) IntStatus {
	old := i.level
	i.level = level
	return old
}

// Enable turns interrupts on.
func (i *Interrupt) Enable() { i.SetLevel(IntOn) }

// Disabled reports whether interrupts are off.
func (i *Interrupt) Disabled() bool { return i.level == IntOff }
