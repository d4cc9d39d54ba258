package cpu

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/hypo/machine"
)

type fakeSupervisor struct {
	ids  []machine.Word
	exit Exit
	err  error
}

func (fs *fakeSupervisor) SystemCall(id machine.Word) (exit Exit, err error) {
	fs.ids = append(fs.ids, id)
	return fs.exit, fs.err
}

// newUserCpu creates a cpu in user mode.
func newUserCpu(sv Supervisor) *Cpu {
	mach := machine.NewMachine()
	mach.Psr = machine.PSR_USER
	mach.Sp = machine.HEAP_BASE.Word() - 1
	return NewCpu(mach, sv)
}

// place writes codes to consecutive words starting at addr.
func place(cpu *Cpu, addr machine.Address, codes ...Code) machine.Address {
	for _, code := range codes {
		cpu.Memory[addr] = code.Word
		addr++
		for _, imm := range code.Immediates {
			cpu.Memory[addr] = imm
			addr++
		}
	}
	return addr
}

func TestCpu_AddHalt(t *testing.T) {
	assert := assert.New(t)

	cpu := newUserCpu(nil)

	add := MakeCode(OP_ADD, MODE_REGISTER, 0, MODE_IMMEDIATE, 0, 4)
	assert.Equal(machine.Word(11060), add.Word)

	place(cpu, 0, add, MakeCode(OP_HALT, MODE_NONE, 0, MODE_NONE, 0))
	cpu.Gpr[0] = 3

	exit, err := cpu.Run(200)
	assert.NoError(err)
	assert.Equal(EXIT_HALT, exit)
	assert.Equal(machine.Word(7), cpu.Gpr[0])
	assert.Equal(machine.Word(15), cpu.Clock)
	assert.Equal(machine.Word(3), cpu.Pc)
	assert.Equal(machine.Word(0), cpu.Ir)
}

func TestCpu_Fetch(t *testing.T) {
	assert := assert.New(t)

	cpu := newUserCpu(nil)
	cpu.Memory[20] = 51060
	cpu.Pc = 20

	code, err := cpu.Fetch()
	assert.NoError(err)
	assert.Equal(machine.Word(51060), code.Word)
	assert.Equal(machine.Word(20), cpu.Mar)
	assert.Equal(machine.Word(51060), cpu.Mbr)
	assert.Equal(machine.Word(51060), cpu.Ir)
	assert.Equal(machine.Word(21), cpu.Pc)

	cpu.Pc = machine.HEAP_BASE.Word()
	_, _, err = cpu.Tick()
	assert.ErrorIs(err, machine.ErrInvalidAddress)
	assert.Equal(machine.HEAP_BASE.Word(), cpu.Pc)

	cpu.Pc = -1
	_, _, err = cpu.Tick()
	assert.ErrorIs(err, machine.ErrInvalidAddress)
}

func TestCpu_Arithmetic(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code   Code
		r0     machine.Word
		result machine.Word
		cost   int
	}){
		{MakeCode(OP_ADD, MODE_REGISTER, 0, MODE_IMMEDIATE, 0, 5), 10, 15, 3},
		{MakeCode(OP_SUB, MODE_REGISTER, 0, MODE_IMMEDIATE, 0, 5), 10, 5, 3},
		{MakeCode(OP_SUB, MODE_REGISTER, 0, MODE_IMMEDIATE, 0, 15), 10, -5, 3},
		{MakeCode(OP_MUL, MODE_REGISTER, 0, MODE_IMMEDIATE, 0, -3), 10, -30, 6},
		{MakeCode(OP_DIV, MODE_REGISTER, 0, MODE_IMMEDIATE, 0, 3), 10, 3, 6},
		{MakeCode(OP_DIV, MODE_REGISTER, 0, MODE_IMMEDIATE, 0, -3), 10, -3, 6},
		{MakeCode(OP_MOVE, MODE_REGISTER, 0, MODE_IMMEDIATE, 0, 42), 10, 42, 2},
		{MakeCode(OP_ADD, MODE_REGISTER, 0, MODE_REGISTER, 0), 10, 20, 3},
	}

	for _, entry := range table {
		cpu := newUserCpu(nil)
		place(cpu, 0, entry.code)
		cpu.Gpr[0] = entry.r0

		exit, cost, err := cpu.Tick()
		assert.NoError(err, entry.code.String())
		assert.Equal(EXIT_RUNNING, exit)
		assert.Equal(entry.cost, cost, entry.code.String())
		assert.Equal(entry.result, cpu.Gpr[0], entry.code.String())
		assert.Equal(machine.Word(entry.cost), cpu.Clock)
	}
}

func TestCpu_MemoryDestination(t *testing.T) {
	assert := assert.New(t)

	cpu := newUserCpu(nil)
	cpu.Gpr[1] = 100
	cpu.Gpr[2] = 200
	cpu.Memory[100] = 7
	cpu.Memory[199] = 3

	end := place(cpu, 0,
		MakeCode(OP_MOVE, MODE_DIRECT, 0, MODE_IMMEDIATE, 0, 50, 9),  // mem[50] = 9
		MakeCode(OP_ADD, MODE_AUTO_INC, 1, MODE_AUTO_DEC, 2),         // mem[100] += mem[199]
		MakeCode(OP_SUB, MODE_DEFERRED, 1, MODE_DIRECT, 0, 50),       // mem[101] -= mem[50]
		MakeCode(OP_MOVE, MODE_REGISTER, 3, MODE_DEFERRED, 2),        // r3 = mem[199]
		MakeCode(OP_HALT, MODE_NONE, 0, MODE_NONE, 0),
	)

	exit, err := cpu.Run(100)
	assert.NoError(err)
	assert.Equal(EXIT_HALT, exit)
	assert.Equal(end.Word(), cpu.Pc)

	assert.Equal(machine.Word(9), cpu.Memory[50])
	assert.Equal(machine.Word(10), cpu.Memory[100])
	assert.Equal(machine.Word(-9), cpu.Memory[101])
	assert.Equal(machine.Word(101), cpu.Gpr[1])
	assert.Equal(machine.Word(199), cpu.Gpr[2])
	assert.Equal(machine.Word(3), cpu.Gpr[3])
	assert.Equal(machine.Word(2+3+3+2+12), cpu.Clock)
}

func TestCpu_Branch(t *testing.T) {
	assert := assert.New(t)

	cpu := newUserCpu(nil)

	place(cpu, 0,
		MakeCode(OP_MOVE, MODE_REGISTER, 0, MODE_IMMEDIATE, 0, -1),
		MakeCode(OP_BMI, MODE_REGISTER, 0, MODE_NONE, 0, 10),
		MakeCode(OP_HALT, MODE_NONE, 0, MODE_NONE, 0),
	)
	place(cpu, 10, MakeCode(OP_BZ, MODE_REGISTER, 1, MODE_NONE, 0, 20))
	place(cpu, 20,
		MakeCode(OP_BPL, MODE_REGISTER, 0, MODE_NONE, 0, 30),
		MakeCode(OP_BR, MODE_NONE, 0, MODE_NONE, 0, 40),
	)
	place(cpu, 30, MakeCode(OP_HALT, MODE_NONE, 0, MODE_NONE, 0))
	place(cpu, 40, MakeCode(OP_HALT, MODE_NONE, 0, MODE_NONE, 0))

	exit, err := cpu.Run(1000)
	assert.NoError(err)
	assert.Equal(EXIT_HALT, exit)
	assert.Equal(machine.Word(41), cpu.Pc)
	assert.Equal(machine.Word(2+4+4+4+2+12), cpu.Clock)
}

func TestCpu_BranchConditions(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		op    CodeOp
		value machine.Word
		taken bool
	}){
		{OP_BMI, -1, true},
		{OP_BMI, 0, false},
		{OP_BMI, 1, false},
		{OP_BPL, -1, false},
		{OP_BPL, 0, false},
		{OP_BPL, 1, true},
		{OP_BZ, -1, false},
		{OP_BZ, 0, true},
		{OP_BZ, 1, false},
	}

	for _, entry := range table {
		cpu := newUserCpu(nil)
		cpu.Gpr[5] = entry.value
		place(cpu, 0, MakeCode(entry.op, MODE_REGISTER, 5, MODE_NONE, 0, 77))

		_, cost, err := cpu.Tick()
		assert.NoError(err)
		assert.Equal(4, cost)

		expected := machine.Word(2)
		if entry.taken {
			expected = 77
		}
		assert.Equal(expected, cpu.Pc, fmt.Sprintf("%+v", entry))
	}
}

func TestCpu_PushPop(t *testing.T) {
	assert := assert.New(t)

	cpu := newUserCpu(nil)
	cpu.Gpr[1] = 11

	place(cpu, 0,
		MakeCode(OP_PUSH, MODE_IMMEDIATE, 0, MODE_NONE, 0, 7),
		MakeCode(OP_PUSH, MODE_REGISTER, 1, MODE_NONE, 0),
		MakeCode(OP_POP, MODE_REGISTER, 2, MODE_NONE, 0),
		MakeCode(OP_POP, MODE_DIRECT, 0, MODE_NONE, 0, 60),
		MakeCode(OP_POP, MODE_REGISTER, 3, MODE_NONE, 0),
	)

	for range 4 {
		_, _, err := cpu.Tick()
		assert.NoError(err)
	}

	assert.Equal(machine.Word(11), cpu.Gpr[2])
	assert.Equal(machine.Word(7), cpu.Memory[60])
	assert.Equal(machine.HEAP_BASE.Word()-1, cpu.Sp)
	assert.Equal(machine.Word(8), cpu.Clock)

	_, _, err := cpu.Tick()
	assert.ErrorIs(err, machine.ErrStackUnderflow)
	assert.Equal(machine.Word(0), cpu.Gpr[3])
	assert.Equal(machine.HEAP_BASE.Word()-1, cpu.Sp)
	assert.Equal(machine.Word(8), cpu.Clock)

	cpu = newUserCpu(nil)
	cpu.Sp = machine.HEAP_LIMIT.Word()
	place(cpu, 0, MakeCode(OP_PUSH, MODE_REGISTER, 1, MODE_NONE, 0))
	_, _, err = cpu.Tick()
	assert.ErrorIs(err, machine.ErrStackOverflow)
	assert.Equal(machine.HEAP_LIMIT.Word(), cpu.Sp)
}

func TestCpu_Faults(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		code  Code
		fault machine.Fault
	}){
		{"negative", Code{Word: -1}, machine.ErrInvalidInstruction},
		{"opcode", Code{Word: 130000}, machine.ErrInvalidOpcode},
		{"opcode_large", Code{Word: 999999}, machine.ErrInvalidOpcode},
		{"mode_7", Code{Word: 17000}, machine.ErrInvalidInstruction},
		{"mode_9", Code{Word: 11090}, machine.ErrInvalidInstruction},
		{"reg_8", MakeCode(OP_ADD, MODE_REGISTER, 8, MODE_REGISTER, 0), machine.ErrInvalidInstruction},
		{"reg_9", MakeCode(OP_ADD, MODE_REGISTER, 0, MODE_REGISTER, 9), machine.ErrInvalidInstruction},
		{"mode_0", MakeCode(OP_ADD, MODE_NONE, 0, MODE_REGISTER, 0), machine.ErrInvalidMode},
		{"divide_zero", MakeCode(OP_DIV, MODE_REGISTER, 0, MODE_IMMEDIATE, 0, 0), machine.ErrRuntime},
		{"immediate_dst", MakeCode(OP_MOVE, MODE_IMMEDIATE, 0, MODE_REGISTER, 1, 5), machine.ErrImmediateMode},
		{"immediate_pop", MakeCode(OP_POP, MODE_IMMEDIATE, 0, MODE_NONE, 0, 5), machine.ErrImmediateMode},
		{"deferred_heap", MakeCode(OP_MOVE, MODE_REGISTER, 0, MODE_DEFERRED, 7), machine.ErrInvalidAddress},
		{"direct_os", MakeCode(OP_MOVE, MODE_DIRECT, 0, MODE_REGISTER, 0, 9000), machine.ErrInvalidAddress},
		{"no_supervisor", MakeCode(OP_SYSCALL, MODE_IMMEDIATE, 0, MODE_NONE, 0, 4), machine.ErrInvalidSystemCall},
	}

	for _, entry := range table {
		cpu := newUserCpu(nil)
		cpu.Gpr[7] = machine.HEAP_BASE.Word()
		place(cpu, 0, entry.code)

		exit, cost, err := cpu.Tick()
		assert.Error(err, entry.name)
		assert.ErrorIs(err, entry.fault, entry.name)
		assert.ErrorIs(err, ErrOpcode{}, entry.name)
		assert.Equal(EXIT_RUNNING, exit, entry.name)
		assert.Equal(0, cost, entry.name)
		assert.Equal(machine.Word(0), cpu.Clock, entry.name)

		fault, ok := machine.FaultOf(err)
		assert.True(ok, entry.name)
		assert.Equal(entry.fault, fault, entry.name)
	}
}

func TestCpu_TimeSlice(t *testing.T) {
	assert := assert.New(t)

	cpu := newUserCpu(nil)
	place(cpu, 0, MakeCode(OP_BR, MODE_NONE, 0, MODE_NONE, 0, 0))

	exit, err := cpu.Run(10)
	assert.NoError(err)
	assert.Equal(EXIT_TIME_SLICE, exit)
	assert.Equal(machine.Word(10), cpu.Clock)

	// The last instruction may overrun the slice.
	exit, err = cpu.Run(1)
	assert.NoError(err)
	assert.Equal(EXIT_TIME_SLICE, exit)
	assert.Equal(machine.Word(12), cpu.Clock)
	assert.Equal(machine.Word(0), cpu.Pc)
}

func TestCpu_SystemCall(t *testing.T) {
	assert := assert.New(t)

	sv := &fakeSupervisor{exit: EXIT_INPUT}
	cpu := newUserCpu(sv)
	cpu.Gpr[4] = 9

	place(cpu, 0,
		MakeCode(OP_SYSCALL, MODE_IMMEDIATE, 0, MODE_NONE, 0, 8),
		MakeCode(OP_SYSCALL, MODE_REGISTER, 4, MODE_NONE, 0),
	)

	exit, err := cpu.Run(1000)
	assert.NoError(err)
	assert.Equal(EXIT_INPUT, exit)
	assert.Equal([]machine.Word{8}, sv.ids)
	assert.Equal(machine.Word(12), cpu.Clock)
	assert.Equal(machine.Word(2), cpu.Pc)

	sv.exit = EXIT_RUNNING
	sv.err = machine.ErrNoFreeMemory
	_, _, err = cpu.Tick()
	assert.ErrorIs(err, machine.ErrNoFreeMemory)
	assert.Equal([]machine.Word{8, 9}, sv.ids)
	assert.Equal(machine.Word(12), cpu.Clock)
}

func TestCpu_Operand(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		mode  CodeMode
		reg   int
		pc    machine.Word
		addr  machine.Address
		value machine.Word
		err   error
		gpr   machine.Word // Register value after resolution.
		pcOut machine.Word
	}){
		{"register", MODE_REGISTER, 1, 10, machine.NO_ADDRESS, 100, nil, 100, 10},
		{"deferred", MODE_DEFERRED, 1, 10, 100, 55, nil, 100, 10},
		{"autoinc", MODE_AUTO_INC, 1, 10, 100, 55, nil, 101, 10},
		{"autodec", MODE_AUTO_DEC, 1, 10, 99, 44, nil, 99, 10},
		{"direct", MODE_DIRECT, 1, 10, 100, 55, nil, 100, 11},
		{"immediate", MODE_IMMEDIATE, 1, 10, machine.NO_ADDRESS, 100, nil, 100, 11},
		{"none", MODE_NONE, 1, 10, machine.NO_ADDRESS, 0, machine.ErrInvalidMode, 100, 10},
		{"mode_7", CodeMode(7), 1, 10, machine.NO_ADDRESS, 0, machine.ErrInvalidMode, 100, 10},
		{"reg_8", MODE_REGISTER, 8, 10, machine.NO_ADDRESS, 0, machine.ErrInvalidInstruction, 0, 10},
		{"deferred_heap", MODE_DEFERRED, 2, 10, machine.NO_ADDRESS, 0, machine.ErrInvalidAddress, 4000, 10},
		{"autoinc_heap", MODE_AUTO_INC, 2, 10, machine.NO_ADDRESS, 0, machine.ErrInvalidAddress, 4000, 10},
		{"autodec_zero", MODE_AUTO_DEC, 3, 10, machine.NO_ADDRESS, 0, machine.ErrInvalidAddress, 0, 10},
		{"direct_bad_pointer", MODE_DIRECT, 1, 12, machine.NO_ADDRESS, 0, machine.ErrInvalidAddress, 100, 12},
		{"direct_bad_pc", MODE_DIRECT, 1, 4000, machine.NO_ADDRESS, 0, machine.ErrRuntime, 100, 4000},
		{"immediate_bad_pc", MODE_IMMEDIATE, 1, -1, machine.NO_ADDRESS, 0, machine.ErrRuntime, 100, -1},
	}

	for _, entry := range table {
		cpu := newUserCpu(nil)
		cpu.Gpr[1] = 100
		cpu.Gpr[2] = 4000
		cpu.Gpr[3] = 0
		cpu.Memory[99] = 44
		cpu.Memory[100] = 55
		cpu.Memory[10] = 100
		cpu.Memory[12] = 5000
		cpu.Pc = entry.pc

		addr, value, err := cpu.Operand(entry.mode, entry.reg)
		if entry.err == nil {
			assert.NoError(err, entry.name)
		} else {
			assert.ErrorIs(err, entry.err, entry.name)
		}
		assert.Equal(entry.addr, addr, entry.name)
		assert.Equal(entry.value, value, entry.name)
		if entry.reg < machine.GPR_COUNT {
			assert.Equal(entry.gpr, cpu.Gpr[entry.reg], entry.name)
		}
		assert.Equal(entry.pcOut, cpu.Pc, entry.name)
	}
}

func TestCpu_OperandOS(t *testing.T) {
	assert := assert.New(t)

	cpu := newUserCpu(nil)
	cpu.Psr = machine.PSR_OS
	cpu.Gpr[0] = 9000
	cpu.Memory[9000] = 12

	addr, value, err := cpu.Operand(MODE_DEFERRED, 0)
	assert.NoError(err)
	assert.Equal(machine.Address(9000), addr)
	assert.Equal(machine.Word(12), value)

	cpu.Psr = machine.PSR_USER
	_, _, err = cpu.Operand(MODE_DEFERRED, 0)
	assert.ErrorIs(err, machine.ErrInvalidAddress)
}

func TestCpu_String(t *testing.T) {
	assert := assert.New(t)

	cpu := newUserCpu(nil)
	cpu.Gpr[3] = 42
	cpu.Ir = 11060

	text := cpu.String()
	assert.Contains(text, "   r3: 42\n")
	assert.Contains(text, "   ir: 011060 add r0, #?\n")
	assert.Contains(text, "stack: ----\n")
	assert.Contains(text, "  psr: user\n")

	assert.NoError(cpu.Stack().Push(5))
	assert.Contains(cpu.String(), "stack: 5\n")
}

func TestExit_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("halt", EXIT_HALT.String())
	assert.Equal("time slice", EXIT_TIME_SLICE.String())
	assert.Equal("Exit(9)", Exit(9).String())
}

func TestCode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code Code
		text string
		need int
	}){
		{MakeCode(OP_HALT, MODE_NONE, 0, MODE_NONE, 0), "halt", 0},
		{MakeCode(OP_ADD, MODE_REGISTER, 0, MODE_IMMEDIATE, 0, 4), "add r0, #4", 1},
		{MakeCode(OP_MOVE, MODE_DIRECT, 0, MODE_DIRECT, 0, 10, 20), "move @10, @20", 2},
		{MakeCode(OP_MOVE, MODE_AUTO_INC, 1, MODE_AUTO_DEC, 2), "move (r1)+, -(r2)", 0},
		{MakeCode(OP_BR, MODE_NONE, 0, MODE_NONE, 0, 12), "br 12", 1},
		{MakeCode(OP_BMI, MODE_DEFERRED, 3, MODE_NONE, 0, 7), "bmi (r3), 7", 1},
		{MakeCode(OP_BZ, MODE_IMMEDIATE, 0, MODE_NONE, 0, 1, 7), "bz #1, 7", 2},
		{MakeCode(OP_SYSCALL, MODE_IMMEDIATE, 0, MODE_NONE, 0, 9), "syscall #9", 1},
		{Code{Word: 130000}, "130000", 0},
	}

	for _, entry := range table {
		assert.Equal(entry.text, entry.code.String())
		assert.Equal(entry.need, entry.code.ImmediateNeed(), entry.text)
		if entry.code.Word < 130000 {
			assert.Equal(entry.need, len(entry.code.Immediates), entry.text)
		}
	}

	op, mode1, reg1, mode2, reg2, err := Code{Word: 53142}.Decode()
	assert.NoError(err)
	assert.Equal(OP_MOVE, op)
	assert.Equal(MODE_AUTO_INC, mode1)
	assert.Equal(1, reg1)
	assert.Equal(MODE_AUTO_DEC, mode2)
	assert.Equal(2, reg2)

	assert.Equal("syscall", OP_SYSCALL.String())
	assert.Equal(12, OP_SYSCALL.Cost())
	assert.Equal("autoincrement", MODE_AUTO_INC.String())
	assert.True(strings.HasPrefix(CodeOp(13).String(), "CodeOp"))

	_, _, _, _, _, err = Code{Word: -5}.Decode()
	assert.True(errors.Is(err, machine.ErrInvalidInstruction))
}
