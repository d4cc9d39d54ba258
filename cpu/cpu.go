package cpu

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/hypo/machine"
)

// Exit is the reason the cpu stopped running a process.
type Exit int

//go:generate go tool stringer -linecomment -type=Exit

const (
	EXIT_RUNNING    = Exit(0) // running
	EXIT_HALT       = Exit(1) // halt
	EXIT_TIME_SLICE = Exit(2) // time slice
	EXIT_INPUT      = Exit(3) // input
	EXIT_OUTPUT     = Exit(4) // output
)


// Supervisor services system calls on behalf of the running process.
type Supervisor interface {
	SystemCall(id machine.Word) (exit Exit, err error)
}

// Cpu is the execution engine of the HYPO machine.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	*machine.Machine // Arena and live registers.

	Supervisor Supervisor // System call handler.

	StackRegion machine.Region // Bounds of push and pop.
}

// NewCpu creates an execution engine for a machine.
func NewCpu(mach *machine.Machine, sv Supervisor) (cpu *Cpu) {
	cpu = &Cpu{
		Machine:     mach,
		Supervisor:  sv,
		StackRegion: machine.HEAP_REGION,
	}

	return
}

// Stack returns the stack of the running process.
func (cpu *Cpu) Stack() Stack {
	return Stack{Region: cpu.StackRegion, mach: cpu.Machine}
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []string{
		"pc", "ir",
		"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
		"sp", "stack",
		"psr", "clock",
	}
	for _, reg := range regs {
		var strval string
		switch reg {
		case "pc":
			strval = fmt.Sprintf("%04d", cpu.Pc)
		case "ir":
			strval = fmt.Sprintf("%06d %v", cpu.Ir, Code{Word: cpu.Ir}.String())
		case "r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7":
			strval = fmt.Sprintf("%d", cpu.Gpr[reg[1]-'0'])
		case "sp":
			strval = fmt.Sprintf("%04d", cpu.Sp)
		case "stack":
			val, ok := cpu.Stack().Peek()
			if ok {
				strval = fmt.Sprintf("%d", val)
			} else {
				strval = "----"
			}
		case "psr":
			strval = "user"
			if cpu.Psr == machine.PSR_OS {
				strval = "os"
			}
		case "clock":
			strval = fmt.Sprintf("%d", cpu.Clock)
		}
		text += fmt.Sprintf("% 5s: %v\n", reg, strval)
	}

	return
}

// Fetch reads the instruction at the program counter into the
// instruction register, and advances the program counter.
func (cpu *Cpu) Fetch() (code Code, err error) {
	pc := cpu.Pc.Address()
	if !machine.USER_REGION.Contains(pc) {
		err = machine.ErrInvalidAddress
		return
	}

	cpu.Mar = cpu.Pc
	cpu.Mbr = cpu.Memory[cpu.Mar.Address()]
	cpu.Ir = cpu.Mbr
	cpu.Pc++

	code = Code{Word: cpu.Ir}
	return
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (exit Exit, cost int, err error) {
	exit = EXIT_RUNNING

	code, err := cpu.Fetch()
	if err != nil {
		return
	}

	return cpu.Execute(code)
}

// Run executes instructions until the process halts, faults, blocks on a
// system call, or consumes the time slice. The slice is checked between
// instructions, so the last instruction may overrun it.
func (cpu *Cpu) Run(slice int) (exit Exit, err error) {
	for slice > 0 {
		var cost int
		exit, cost, err = cpu.Tick()
		if err != nil || exit != EXIT_RUNNING {
			return
		}
		slice -= cost
	}

	exit = EXIT_TIME_SLICE
	return
}

// Execute executes a single decoded instruction. The program counter
// must already point past the instruction word.
func (cpu *Cpu) Execute(code Code) (exit Exit, cost int, err error) {
	exit = EXIT_RUNNING

	defer func() {
		if err != nil {
			exit = EXIT_RUNNING
			err = errors.Join(ErrOpcode(code), err)
		}
	}()

	op, mode1, reg1, mode2, reg2, err := code.Decode()
	if err != nil {
		return
	}

	if cpu.Verbose {
		log.WithFields(log.Fields{
			"pc": cpu.Mar,
			"ir": fmt.Sprintf("%06d", code.Word),
		}).Debugf("cpu: %v", code)
	}

	switch op {
	case OP_HALT:
		exit = EXIT_HALT
	case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_MOVE:
		if mode1 == MODE_IMMEDIATE {
			err = machine.ErrImmediateMode
			return
		}
		var dst machine.Address
		var a, b machine.Word
		dst, a, err = cpu.Operand(mode1, reg1)
		if err != nil {
			return
		}
		_, b, err = cpu.Operand(mode2, reg2)
		if err != nil {
			return
		}
		var result machine.Word
		switch op {
		case OP_ADD:
			result = a + b
		case OP_SUB:
			result = a - b
		case OP_MUL:
			result = a * b
		case OP_DIV:
			if b == 0 {
				err = machine.ErrRuntime
				return
			}
			result = a / b
		case OP_MOVE:
			result = b
		}
		err = cpu.store(mode1, reg1, dst, result)
		if err != nil {
			return
		}
	case OP_BR:
		var target machine.Word
		target, err = cpu.stream()
		if err != nil {
			return
		}
		cpu.Pc = target
	case OP_BMI, OP_BPL, OP_BZ:
		var value, target machine.Word
		_, value, err = cpu.Operand(mode1, reg1)
		if err != nil {
			return
		}
		target, err = cpu.stream()
		if err != nil {
			return
		}
		var taken bool
		switch op {
		case OP_BMI:
			taken = value < 0
		case OP_BPL:
			taken = value > 0
		case OP_BZ:
			taken = value == 0
		}
		if taken {
			cpu.Pc = target
		} else {
			cpu.Pc++
		}
	case OP_PUSH:
		var value machine.Word
		_, value, err = cpu.Operand(mode1, reg1)
		if err != nil {
			return
		}
		err = cpu.Stack().Push(value)
		if err != nil {
			return
		}
	case OP_POP:
		if mode1 == MODE_IMMEDIATE {
			err = machine.ErrImmediateMode
			return
		}
		stack := cpu.Stack()
		value, ok := stack.Peek()
		if !ok {
			err = machine.ErrStackUnderflow
			return
		}
		var dst machine.Address
		dst, _, err = cpu.Operand(mode1, reg1)
		if err != nil {
			return
		}
		err = cpu.store(mode1, reg1, dst, value)
		if err != nil {
			return
		}
		_, err = stack.Pop()
		if err != nil {
			return
		}
	case OP_SYSCALL:
		var id machine.Word
		_, id, err = cpu.Operand(mode1, reg1)
		if err != nil {
			return
		}
		if cpu.Supervisor == nil {
			err = errors.Join(machine.ErrInvalidSystemCall, ErrSupervisorMissing)
			return
		}
		exit, err = cpu.Supervisor.SystemCall(id)
		if err != nil {
			return
		}
	}

	cost = op.Cost()
	cpu.Clock += machine.Word(cost)

	return
}
