// Package userprog provides the address space attached to user-program
// threads. Loading executables is out of scope; a space here is only the
// page table that has to follow its thread across context switches.
package userprog

import "tierq/internal/machine"

// AddrSpace is a linear page table for one user program.
type AddrSpace struct {
	m         *machine.Machine
	pageTable []machine.TranslationEntry
	saves     int
	restores  int
}

// NewAddrSpace maps numPages virtual pages onto frames starting at firstFrame.
func NewAddrSpace(m *machine.Machine, numPages, firstFrame int) *AddrSpace {
	pt := make([]machine.TranslationEntry, numPages)
	for i := range pt {
		pt[i] = machine.TranslationEntry{
			VirtualPage:  i,
			PhysicalPage: firstFrame + i,
			Valid:        true,
		}
	}
	return &AddrSpace{m: m, pageTable: pt}
}

// SaveState is called when the owning thread is switched out. The page table
// lives here already, so there is nothing to copy back from the machine.
func (as *AddrSpace) SaveState() {
	as.saves++
}

// RestoreState installs this space's page table on the machine.
func (as *AddrSpace) RestoreState() {
	as.restores++
	as.m.PageTable = as.pageTable
}

// NumPages returns the size of the space in pages.
func (as *AddrSpace) NumPages() int { return len(as.pageTable) }

// Installed reports whether the machine is currently translating through
// this space.
func (as *AddrSpace) Installed() bool {
	return len(as.pageTable) > 0 && len(as.m.PageTable) > 0 && &as.m.PageTable[0] == &as.pageTable[0]
}

// Switches returns how many times the space was saved and restored.
func (as *AddrSpace) Switches() (saves, restores int) { return as.saves, as.restores }
