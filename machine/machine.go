package machine

import (
	"fmt"
	"strings"
)

const (
	MEMORY_SIZE = 10000 // Words in the arena.
	GPR_COUNT   = 8     // General purpose registers.
)

// Processor status register modes.
const (
	PSR_OS   = Word(1) // Operating system mode, whole arena addressable.
	PSR_USER = Word(2) // User mode, only the user region is addressable.
)

const (
	END_OF_LIST = Address(-1) // Terminates free lists and PCB queues.
	NO_ADDRESS  = Address(-1) // Operand has no memory address.
)

// Word is a single signed arena cell.
type Word int64

// Address is an index into the arena.
type Address int

// Address interprets the word as an arena index.
func (w Word) Address() Address {
	return Address(w)
}

// Word converts the address so it can be stored in the arena.
func (a Address) Word() Word {
	return Word(a)
}

// Registers is the register file of the machine.
type Registers struct {
	Gpr   [GPR_COUNT]Word // General purpose registers.
	Sp    Word            // Stack pointer.
	Pc    Word            // Program counter.
	Ir    Word            // Instruction register.
	Mar   Word            // Memory address register.
	Mbr   Word            // Memory buffer register.
	Psr   Word            // Processor status register.
	Clock Word            // Accumulated instruction cost.
}

// Machine is the arena plus the live registers.
type Machine struct {
	Registers
	Memory [MEMORY_SIZE]Word
}

// NewMachine creates a machine in the reset state.
func NewMachine() (m *Machine) {
	m = &Machine{}
	m.Reset()
	return
}

// Reset clears the arena and the registers. The machine comes out of reset
// in OS mode.
func (m *Machine) Reset() {
	clear(m.Memory[:])
	m.Registers = Registers{Psr: PSR_OS}
}

// Load reads an arena word.
func (m *Machine) Load(addr Address) (value Word, err error) {
	if !ARENA_REGION.Contains(addr) {
		err = ErrInvalidAddress
		return
	}

	value = m.Memory[addr]
	return
}

// Store writes an arena word.
func (m *Machine) Store(addr Address, value Word) (err error) {
	if !ARENA_REGION.Contains(addr) {
		err = ErrInvalidAddress
		return
	}

	m.Memory[addr] = value
	return
}

// Addressable reports whether an instruction may touch addr in the current
// processor mode.
func (m *Machine) Addressable(addr Address) bool {
	if m.Psr == PSR_OS {
		return ARENA_REGION.Contains(addr)
	}
	return USER_REGION.Contains(addr)
}

// Dump is a snapshot of the registers and a window of the arena.
type Dump struct {
	Label     string
	Registers Registers
	Start     Address
	Words     []Word
}

// Dump captures the registers and length words starting at start.
func (m *Machine) Dump(label string, start Address, length int) (dump Dump, err error) {
	if !ARENA_REGION.ContainsExtent(start, length) {
		err = ErrInvalidAddress
		return
	}

	dump = Dump{
		Label:     label,
		Registers: m.Registers,
		Start:     start,
		Words:     append([]Word(nil), m.Memory[start:start+Address(length)]...),
	}

	return
}

// String returns the register file as text.
func (r *Registers) String() string {
	var sb strings.Builder
	for n, val := range r.Gpr {
		fmt.Fprintf(&sb, "  r%d: %d\n", n, val)
	}
	fmt.Fprintf(&sb, "  sp: %d\n", r.Sp)
	fmt.Fprintf(&sb, "  pc: %d\n", r.Pc)
	fmt.Fprintf(&sb, "  ir: %06d\n", r.Ir)
	fmt.Fprintf(&sb, " psr: %d\n", r.Psr)
	fmt.Fprintf(&sb, "clock: %d\n", r.Clock)
	return sb.String()
}
