package kernel

import (
	"errors"
	"iter"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/hypo/alloc"
	"github.com/ezrec/hypo/cpu"
	"github.com/ezrec/hypo/machine"
)

const (
	DEFAULT_TIME_SLICE = 200 // Clock ticks per dispatch.
	DEFAULT_STACK_SIZE = 10  // Stack words per process.
	DEFAULT_PRIORITY   = 128 // Priority of a process started without one.
)

// Loader places a program into the user region of the machine and returns
// its start address.
type Loader interface {
	Load(mach *machine.Machine, name string) (start machine.Address, err error)
}

// IoRequest is the I/O a blocked process waits on.
type IoRequest struct {
	Pid    machine.Word
	Reason Reason
	Char   machine.Word // Character to write, for output requests.
}

// Kernel is the HYPO operating system: process creation and teardown,
// the ready and waiting queues, and the scheduling loop.
type Kernel struct {
	Verbose bool // Set to enable verbose logging.

	TimeSlice int    // Clock ticks per dispatch.
	StackSize int    // Stack words per process.
	Loader    Loader // Program loader for CreateProcess.

	OnCreate func(pid machine.Word, name string)              // Called when a process is queued.
	OnBlock  func(req IoRequest)                              // Called when a process blocks on I/O.
	OnExit   func(pid machine.Word, exit cpu.Exit, err error) // Called before a process is torn down.

	Machine    *machine.Machine
	Cpu        *cpu.Cpu
	OsMemory   *alloc.FreeList // PCBs.
	UserMemory *alloc.FreeList // Stacks and mem_alloc blocks.

	Ready   Queue
	Waiting Queue

	nextPid  machine.Word
	running  machine.Word
	shutdown bool
}

// NewKernel creates a kernel with a freshly reset machine.
func NewKernel(loader Loader) (k *Kernel, err error) {
	k = &Kernel{
		TimeSlice: DEFAULT_TIME_SLICE,
		StackSize: DEFAULT_STACK_SIZE,
		Loader:    loader,
		Machine:   machine.NewMachine(),
	}

	k.Cpu = cpu.NewCpu(k.Machine, k)

	err = k.Reset()
	if err != nil {
		k = nil
		return
	}

	return
}

// Reset clears the machine, the queues and both allocators.
func (k *Kernel) Reset() (err error) {
	k.Machine.Reset()

	k.OsMemory, err = alloc.NewFreeList("os", k.Machine, machine.OS_REGION)
	if err != nil {
		return
	}
	k.UserMemory, err = alloc.NewFreeList("user", k.Machine, machine.HEAP_REGION)
	if err != nil {
		return
	}

	k.OsMemory.Verbose = k.Verbose
	k.UserMemory.Verbose = k.Verbose
	k.Cpu.Verbose = k.Verbose

	k.Ready = NewQueue("ready", k.Machine)
	k.Waiting = NewQueue("waiting", k.Machine)

	k.nextPid = 1
	k.running = 0
	k.shutdown = false

	return
}

// SetVerbose toggles verbose logging in the kernel and everything it owns.
func (k *Kernel) SetVerbose(verbose bool) {
	k.Verbose = verbose
	k.Cpu.Verbose = verbose
	k.OsMemory.Verbose = verbose
	k.UserMemory.Verbose = verbose
}

func (k *Kernel) logger(addr machine.Address) *log.Entry {
	fields := log.Fields{"pcb": addr}
	if validPCB(addr) {
		fields["pid"] = field(k.Machine, addr, PCB_PID)
	}
	return log.WithFields(fields)
}

// CreateProcess loads a program and queues a new process to run it.
//
// On any failure, the PCB and stack are released and nothing is queued.
func (k *Kernel) CreateProcess(name string, priority machine.Word) (pid machine.Word, err error) {
	if k.Loader == nil {
		err = ErrLoaderMissing
		return
	}

	addr, err := k.OsMemory.Allocate(PCB_SIZE)
	if err != nil {
		return
	}

	pcb := PCB{
		Addr:     addr,
		Next:     machine.END_OF_LIST,
		Priority: priority,
		Psr:      machine.PSR_USER,
	}

	start, err := k.Loader.Load(k.Machine, name)
	if err != nil {
		_ = k.OsMemory.Free(addr, PCB_SIZE)
		return
	}

	stack, stackSize, err := k.UserMemory.AllocateBlock(k.StackSize)
	if err != nil {
		_ = k.OsMemory.Free(addr, PCB_SIZE)
		return
	}

	pcb.Pid = k.nextPid
	pcb.Pc = start.Word()
	pcb.StackStart = stack
	pcb.StackSize = stackSize
	pcb.Sp = stack.Word() - 1

	err = StorePCB(k.Machine, &pcb)
	if err == nil {
		err = k.InsertReady(addr)
	}
	if err != nil {
		_ = k.UserMemory.Free(stack, stackSize)
		_ = k.OsMemory.Free(addr, PCB_SIZE)
		return
	}

	k.nextPid++
	pid = pcb.Pid

	if k.OnCreate != nil {
		k.OnCreate(pid, name)
	}

	log.WithFields(log.Fields{
		"pid":      pid,
		"program":  name,
		"priority": priority,
	}).Info("process created")

	return
}

// TerminateProcess releases the stack and PCB of a process that is in
// no queue.
func (k *Kernel) TerminateProcess(addr machine.Address) (err error) {
	pcb, err := LoadPCB(k.Machine, addr)
	if err != nil {
		return
	}

	var errs []error
	if pcb.StackSize > 0 {
		errs = append(errs, k.UserMemory.Free(pcb.StackStart, pcb.StackSize))
	}
	errs = append(errs, k.OsMemory.Free(addr, PCB_SIZE))

	err = errors.Join(errs...)
	if err != nil {
		return
	}

	if k.Verbose {
		k.logger(addr).Debug("process terminated")
	}
	return
}

// InsertReady queues a PCB on the Ready queue in priority order.
func (k *Kernel) InsertReady(addr machine.Address) (err error) {
	if !validPCB(addr) {
		k.logger(addr).Warnf("ready: %v", machine.ErrInvalidAddress)
		err = machine.ErrInvalidAddress
		return
	}

	setField(k.Machine, addr, PCB_STATE, machine.Word(STATE_READY))
	return k.Ready.Insert(addr)
}

// InsertWaiting pushes a PCB on the head of the Waiting queue.
func (k *Kernel) InsertWaiting(addr machine.Address) (err error) {
	if !validPCB(addr) {
		k.logger(addr).Warnf("waiting: %v", machine.ErrInvalidAddress)
		err = machine.ErrInvalidAddress
		return
	}

	setField(k.Machine, addr, PCB_STATE, machine.Word(STATE_WAITING))
	return k.Waiting.PushHead(addr)
}

// SelectNext pops the highest priority ready PCB, or END_OF_LIST.
func (k *Kernel) SelectNext() (addr machine.Address) {
	addr, err := k.Ready.Pop()
	if err != nil {
		log.WithField("queue", k.Ready.Name).Warn(err)
		k.Ready.Clear()
	}
	return
}

// RemoveWaiting unlinks the waiting PCB with the given pid.
func (k *Kernel) RemoveWaiting(pid machine.Word) (addr machine.Address, err error) {
	addr, err = k.Waiting.Remove(pid)
	if err != nil {
		return
	}
	if addr == machine.END_OF_LIST {
		err = ErrProcessMissing(pid)
	}
	return
}

// SaveContext copies the live registers into a PCB.
func (k *Kernel) SaveContext(addr machine.Address) (err error) {
	pcb, err := LoadPCB(k.Machine, addr)
	if err != nil {
		return
	}

	regs := &k.Machine.Registers
	pcb.Gpr = regs.Gpr
	pcb.Sp = regs.Sp
	pcb.Pc = regs.Pc
	pcb.Psr = regs.Psr

	return StorePCB(k.Machine, &pcb)
}

// Dispatch copies a PCB into the live registers, enters user mode, and
// marks the process running.
func (k *Kernel) Dispatch(addr machine.Address) (err error) {
	pcb, err := LoadPCB(k.Machine, addr)
	if err != nil {
		return
	}

	regs := &k.Machine.Registers
	regs.Gpr = pcb.Gpr
	regs.Sp = pcb.Sp
	regs.Pc = pcb.Pc
	regs.Psr = machine.PSR_USER

	k.Cpu.StackRegion = machine.HEAP_REGION
	if pcb.StackSize > 0 {
		k.Cpu.StackRegion = machine.Region{
			Base:  pcb.StackStart,
			Limit: pcb.StackStart + machine.Address(pcb.StackSize) - 1,
		}
	}

	pcb.State = STATE_RUNNING
	err = StorePCB(k.Machine, &pcb)
	if err != nil {
		return
	}

	k.running = pcb.Pid

	if k.Verbose {
		k.logger(addr).Debugf("dispatch pc %d", pcb.Pc)
	}
	return
}

// Processes iterates over the ready, then the waiting, processes.
func (k *Kernel) Processes() iter.Seq[PCB] {
	return func(yield func(pcb PCB) bool) {
		for pcb := range k.Ready.All() {
			if !yield(pcb) {
				return
			}
		}
		for pcb := range k.Waiting.All() {
			if !yield(pcb) {
				return
			}
		}
	}
}

// Idle is true if no process is ready or waiting.
func (k *Kernel) Idle() bool {
	return k.Ready.Empty() && k.Waiting.Empty()
}
