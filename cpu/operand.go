package cpu

import (
	"github.com/ezrec/hypo/machine"
)

// Operand resolves an operand to its arena address and value.
//
// The address is machine.NO_ADDRESS for register and immediate operands.
// Register increments, decrements and program counter advances happen only
// when the operand resolves.
func (cpu *Cpu) Operand(mode CodeMode, reg int) (addr machine.Address, value machine.Word, err error) {
	addr = machine.NO_ADDRESS

	if reg < 0 || reg >= machine.GPR_COUNT {
		err = machine.ErrInvalidInstruction
		return
	}

	switch mode {
	case MODE_REGISTER:
		value = cpu.Gpr[reg]
	case MODE_DEFERRED:
		addr, value, err = cpu.deref(cpu.Gpr[reg].Address())
	case MODE_AUTO_INC:
		addr, value, err = cpu.deref(cpu.Gpr[reg].Address())
		if err == nil {
			cpu.Gpr[reg]++
		}
	case MODE_AUTO_DEC:
		addr, value, err = cpu.deref(cpu.Gpr[reg].Address() - 1)
		if err == nil {
			cpu.Gpr[reg]--
		}
	case MODE_DIRECT:
		var ptr machine.Word
		ptr, err = cpu.stream()
		if err != nil {
			return
		}
		addr, value, err = cpu.deref(ptr.Address())
		if err == nil {
			cpu.Pc++
		}
	case MODE_IMMEDIATE:
		value, err = cpu.stream()
		if err == nil {
			cpu.Pc++
		}
	default:
		err = machine.ErrInvalidMode
	}

	if err != nil {
		addr = machine.NO_ADDRESS
		value = 0
	}

	return
}

// deref reads an addressable arena word.
func (cpu *Cpu) deref(addr machine.Address) (machine.Address, machine.Word, error) {
	if !cpu.Addressable(addr) {
		return machine.NO_ADDRESS, 0, machine.ErrInvalidAddress
	}

	return addr, cpu.Memory[addr], nil
}

// stream reads the instruction stream word at the program counter, without
// advancing it.
func (cpu *Cpu) stream() (value machine.Word, err error) {
	pc := cpu.Pc.Address()
	if !machine.USER_REGION.Contains(pc) {
		err = machine.ErrRuntime
		return
	}

	value = cpu.Memory[pc]
	return
}

// store writes a result to the destination of a resolved operand.
func (cpu *Cpu) store(mode CodeMode, reg int, addr machine.Address, value machine.Word) (err error) {
	switch mode {
	case MODE_REGISTER:
		cpu.Gpr[reg] = value
	case MODE_IMMEDIATE:
		err = machine.ErrImmediateMode
	default:
		if !cpu.Addressable(addr) {
			err = machine.ErrInvalidAddress
			return
		}
		cpu.Memory[addr] = value
	}

	return
}
