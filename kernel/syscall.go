package kernel

import (
	"fmt"
	"iter"
	"maps"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/hypo/cpu"
	"github.com/ezrec/hypo/machine"
)

// SysCall is a system call id, passed as the operand of the syscall opcode.
type SysCall int

//go:generate go tool stringer -linecomment -type=SysCall

const (
	SYS_PROCESS_CREATE  = SysCall(1)  // SYS_PROCESS_CREATE
	SYS_PROCESS_DELETE  = SysCall(2)  // SYS_PROCESS_DELETE
	SYS_PROCESS_INQUIRY = SysCall(3)  // SYS_PROCESS_INQUIRY
	SYS_MEM_ALLOC       = SysCall(4)  // SYS_MEM_ALLOC
	SYS_MEM_FREE        = SysCall(5)  // SYS_MEM_FREE
	SYS_MSG_SEND        = SysCall(6)  // SYS_MSG_SEND
	SYS_MSG_RECEIVE     = SysCall(7)  // SYS_MSG_RECEIVE
	SYS_IO_GETC         = SysCall(8)  // SYS_IO_GETC
	SYS_IO_PUTC         = SysCall(9)  // SYS_IO_PUTC
	SYS_TIME_GET        = SysCall(10) // SYS_TIME_GET
	SYS_TIME_SET        = SysCall(11) // SYS_TIME_SET
)

// Status words a program can test after a system call.
var _status_defines = map[string]machine.Fault{
	"ERR_INVALID_ADDRESS":     machine.ErrInvalidAddress,
	"ERR_NO_FREE_MEMORY":      machine.ErrNoFreeMemory,
	"ERR_INVALID_MEMORY_SIZE": machine.ErrInvalidMemorySize,
	"ERR_INVALID_SYSTEM_CALL": machine.ErrInvalidSystemCall,
}

// Defines iterates over the system call and status equates for the assembler.
func Defines() iter.Seq2[string, string] {
	defines := map[string]string{
		"STATUS_OK": fmt.Sprintf("%d", machine.STATUS_OK),
	}
	for sc := SYS_PROCESS_CREATE; sc <= SYS_TIME_SET; sc++ {
		defines[sc.String()] = fmt.Sprintf("%d", int(sc))
	}
	for name, fault := range _status_defines {
		defines[name] = fmt.Sprintf("%d", fault.Word())
	}
	return maps.All(defines)
}

// SystemCall services a syscall opcode of the running process.
//
// The PSR is OS for the duration of the call and user on return. Failures
// are reported to the process in GPR0, and never fault the process.
func (k *Kernel) SystemCall(id machine.Word) (exit cpu.Exit, err error) {
	mach := k.Machine

	mach.Psr = machine.PSR_OS
	defer func() {
		mach.Psr = machine.PSR_USER
	}()

	exit = cpu.EXIT_RUNNING

	sc := SysCall(id)
	if k.Verbose {
		log.WithField("pid", k.running).Debugf("syscall: %v", sc)
	}

	switch sc {
	case SYS_PROCESS_CREATE, SYS_PROCESS_DELETE, SYS_PROCESS_INQUIRY,
		SYS_MSG_SEND, SYS_MSG_RECEIVE, SYS_TIME_GET, SYS_TIME_SET:
		// Not implemented; reported as successful.
		mach.Gpr[0] = machine.STATUS_OK
	case SYS_MEM_ALLOC:
		mach.Gpr[1], mach.Gpr[2], mach.Gpr[0] = k.memAlloc(mach.Gpr[2])
	case SYS_MEM_FREE:
		mach.Gpr[0] = k.memFree(mach.Gpr[1], mach.Gpr[2])
	case SYS_IO_GETC:
		mach.Gpr[0] = machine.STATUS_OK
		exit = cpu.EXIT_INPUT
	case SYS_IO_PUTC:
		mach.Gpr[0] = machine.STATUS_OK
		exit = cpu.EXIT_OUTPUT
	default:
		log.WithField("pid", k.running).Warnf("syscall: %v", machine.ErrInvalidSystemCall)
		mach.Gpr[0] = machine.ErrInvalidSystemCall.Word()
	}

	return
}

// memAlloc allocates size words from the user heap, and returns the
// words granted. A program frees the block with the granted size.
func (k *Kernel) memAlloc(size machine.Word) (addr machine.Word, granted machine.Word, status machine.Word) {
	addr = machine.END_OF_LIST.Word()
	granted = size

	if size < 1 || size > machine.Word(k.UserMemory.Region.Size()) {
		status = machine.ErrInvalidMemorySize.Word()
		return
	}

	block, words, err := k.UserMemory.AllocateBlock(int(size))
	if err != nil {
		status = machine.StatusOf(err)
		return
	}

	addr = block.Word()
	granted = machine.Word(words)
	status = machine.STATUS_OK
	return
}

// memFree returns size words at addr to the user heap.
func (k *Kernel) memFree(addr machine.Word, size machine.Word) (status machine.Word) {
	if size < 1 || size > machine.Word(k.UserMemory.Region.Size()) {
		return machine.ErrInvalidMemorySize.Word()
	}

	err := k.UserMemory.Free(addr.Address(), int(size))
	return machine.StatusOf(err)
}
