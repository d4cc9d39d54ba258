package kernel

import (
	"github.com/ezrec/hypo/machine"
)

// PCB word offsets.
const (
	PCB_NEXT        = 0
	PCB_PID         = 1
	PCB_STATE       = 2
	PCB_REASON      = 3
	PCB_PRIORITY    = 4
	PCB_STACK_START = 5
	PCB_STACK_SIZE  = 6
	PCB_GPR         = 7 // GPR0 .. GPR7
	PCB_SP          = PCB_GPR + machine.GPR_COUNT
	PCB_PC          = PCB_SP + 1
	PCB_PSR         = PCB_PC + 1
	PCB_SIZE        = PCB_PSR + 1
)

// State of a process.
type State int

//go:generate go tool stringer -linecomment -type=State

const (
	STATE_NONE    = State(0) // none
	STATE_READY   = State(1) // ready
	STATE_RUNNING = State(2) // running
	STATE_WAITING = State(3) // waiting
)

// Reason a process is waiting.
type Reason int

//go:generate go tool stringer -linecomment -type=Reason

const (
	REASON_NONE   = Reason(0) // none
	REASON_INPUT  = Reason(1) // input
	REASON_OUTPUT = Reason(2) // output
)

// PCB is a process control block. It lives in the OS region of the arena,
// and is copied in and out with LoadPCB and StorePCB.
type PCB struct {
	Addr machine.Address // Arena location, not stored.

	Next       machine.Address
	Pid        machine.Word
	State      State
	Reason     Reason
	Priority   machine.Word
	StackStart machine.Address
	StackSize  int

	Gpr [machine.GPR_COUNT]machine.Word
	Sp  machine.Word
	Pc  machine.Word
	Psr machine.Word
}

// validPCB checks that a PCB at addr lies in the OS region.
func validPCB(addr machine.Address) bool {
	return machine.OS_REGION.ContainsExtent(addr, PCB_SIZE)
}

// LoadPCB reads the PCB at addr.
func LoadPCB(mach *machine.Machine, addr machine.Address) (pcb PCB, err error) {
	if !validPCB(addr) {
		err = machine.ErrInvalidAddress
		return
	}

	mem := mach.Memory[addr : addr+PCB_SIZE]

	pcb = PCB{
		Addr:       addr,
		Next:       mem[PCB_NEXT].Address(),
		Pid:        mem[PCB_PID],
		State:      State(mem[PCB_STATE]),
		Reason:     Reason(mem[PCB_REASON]),
		Priority:   mem[PCB_PRIORITY],
		StackStart: mem[PCB_STACK_START].Address(),
		StackSize:  int(mem[PCB_STACK_SIZE]),
		Sp:         mem[PCB_SP],
		Pc:         mem[PCB_PC],
		Psr:        mem[PCB_PSR],
	}
	copy(pcb.Gpr[:], mem[PCB_GPR:PCB_SP])

	return
}

// StorePCB writes the PCB to its arena location.
func StorePCB(mach *machine.Machine, pcb *PCB) (err error) {
	if !validPCB(pcb.Addr) {
		err = machine.ErrInvalidAddress
		return
	}

	mem := mach.Memory[pcb.Addr : pcb.Addr+PCB_SIZE]

	mem[PCB_NEXT] = pcb.Next.Word()
	mem[PCB_PID] = pcb.Pid
	mem[PCB_STATE] = machine.Word(pcb.State)
	mem[PCB_REASON] = machine.Word(pcb.Reason)
	mem[PCB_PRIORITY] = pcb.Priority
	mem[PCB_STACK_START] = pcb.StackStart.Word()
	mem[PCB_STACK_SIZE] = machine.Word(pcb.StackSize)
	copy(mem[PCB_GPR:PCB_SP], pcb.Gpr[:])
	mem[PCB_SP] = pcb.Sp
	mem[PCB_PC] = pcb.Pc
	mem[PCB_PSR] = pcb.Psr

	return
}

// field reads a single PCB word. The PCB must already be validated.
func field(mach *machine.Machine, addr machine.Address, offset int) machine.Word {
	return mach.Memory[addr+machine.Address(offset)]
}

// setField writes a single PCB word. The PCB must already be validated.
func setField(mach *machine.Machine, addr machine.Address, offset int, value machine.Word) {
	mach.Memory[addr+machine.Address(offset)] = value
}
