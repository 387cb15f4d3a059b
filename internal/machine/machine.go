// Package machine simulates the pieces of hardware the scheduler touches:
// the interrupt level, the tick clock, and the user-mode register file and
// page table that are saved and restored across context switches.
package machine

// Register indices with a fixed role.
const (
	PCReg        = 34
	NextPCReg    = 35
	PrevPCReg    = 36
	NumTotalRegs = 40
)

// TranslationEntry maps one virtual page to a physical frame.
type TranslationEntry struct {
	VirtualPage  int
	PhysicalPage int
	Valid        bool
	ReadOnly     bool
}

// Machine is the user-mode CPU state visible to the kernel.
type Machine struct {
	Registers [NumTotalRegs]int
	PageTable []TranslationEntry
}

// New returns a machine with zeroed registers and no page table installed.
func New() *Machine {
	return &Machine{}
}

// ReadRegister returns the value of register r.
func (m *Machine) ReadRegister(r int) int { return m.Registers[r] }

// WriteRegister sets register r.
func (m *Machine) WriteRegister(r, value int) { m.Registers[r] = value }

// AdvancePC steps the program counters by one instruction word.
func (m *Machine) AdvancePC() {
	m.Registers[PrevPCReg] = m.Registers[PCReg]
	m.Registers[PCReg] = m.Registers[NextPCReg]
	m.Registers[NextPCReg] += 4
}
