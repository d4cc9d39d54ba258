// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"maps"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/hypo/cpu"
	"github.com/ezrec/hypo/internal"
	device "github.com/ezrec/hypo/io"
	"github.com/ezrec/hypo/kernel"
	"github.com/ezrec/hypo/machine"
)

const (
	// Pending interrupts and I/O requests. Larger than the number of PCBs
	// the OS region can hold, so a blocked process never stalls the kernel.
	INTERRUPT_QUEUE = 256
)

// SOURCES are the program file extensions that are assembled when loaded.
var SOURCES = []string{".s", ".asm"}

// Result is the outcome of a finished process.
type Result struct {
	Pid     machine.Word
	Program string
	Exit    cpu.Exit
	Err     error
}

// Emulator state. Kernel + program loader + I/O device.
type Emulator struct {
	Verbose bool   // If set, enables verbose logging.
	Config  Config // Tunables.

	*kernel.Kernel // Operating system and machine.

	Assembler *cpu.Assembler  // Assembler for program sources.
	Loader    *cpu.FileLoader // Program loader.
	Channel   device.Channel  // Device for io_getc and io_putc.
	Output    io.Writer       // Destination of process dumps.
	Batch     bool            // Shut down when the last process exits.
	Results   []Result        // Finished processes, in exit order.

	programs   map[machine.Word]*cpu.Program
	names      map[machine.Word]string
	interrupts chan kernel.Interrupt
	requests   chan kernel.IoRequest
}

// NewEmulator creates a new emulator that loads programs from fsys.
func NewEmulator(fsys fs.FS, cfg Config) (emu *Emulator, err error) {
	err = cfg.Validate()
	if err != nil {
		return
	}

	emu = &Emulator{
		Config:     cfg,
		Assembler:  &cpu.Assembler{},
		programs:   map[machine.Word]*cpu.Program{},
		names:      map[machine.Word]string{},
		interrupts: make(chan kernel.Interrupt, INTERRUPT_QUEUE),
		requests:   make(chan kernel.IoRequest, INTERRUPT_QUEUE),
	}

	for name, value := range emu.Defines() {
		emu.Assembler.Predefine(name, value)
	}

	emu.Loader = &cpu.FileLoader{
		FS:        fsys,
		Assembler: emu.Assembler,
		Sources:   SOURCES,
	}

	emu.Kernel, err = kernel.NewKernel(emu.Loader)
	if err != nil {
		emu = nil
		return
	}

	emu.Kernel.TimeSlice = cfg.TimeSlice
	emu.Kernel.StackSize = cfg.StackSize
	emu.Kernel.OnCreate = emu.onCreate
	emu.Kernel.OnBlock = emu.onBlock
	emu.Kernel.OnExit = emu.onExit

	return
}

// Defines returns an iterator over all of the assembler predefines.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	emulator_defines := map[string]string{
		"TIME_SLICE":       fmt.Sprintf("%v", emu.Config.TimeSlice),
		"STACK_SIZE":       fmt.Sprintf("%v", emu.Config.StackSize),
		"DEFAULT_PRIORITY": fmt.Sprintf("%v", emu.Config.DefaultPriority),
	}

	return internal.IterSeq2Concat(maps.All(emulator_defines),
		machine.Defines(),
		kernel.Defines(),
	)
}

// SetVerbose sets the verbosity of the emulator and everything it owns.
func (emu *Emulator) SetVerbose(verbose bool) {
	emu.Verbose = verbose
	emu.Assembler.Verbose = verbose
	emu.Loader.Verbose = verbose
	emu.Kernel.SetVerbose(verbose)
}

// RunProgram queues a program directly. It must not be called while Run
// is active; use Post instead.
func (emu *Emulator) RunProgram(name string, priority machine.Word) (pid machine.Word, err error) {
	return emu.Kernel.CreateProcess(name, priority)
}

// Post queues an interrupt for the kernel.
func (emu *Emulator) Post(ctx context.Context, intr kernel.Interrupt) (err error) {
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case emu.interrupts <- intr:
	}
	return
}

// Run runs the kernel until shutdown, servicing I/O on the device channel
// when auto I/O is enabled.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	if emu.autoIo() {
		sv := &device.Servicer{Verbose: emu.Verbose, Channel: emu.Channel}
		wg.Add(1)
		go func() {
			defer wg.Done()
			serr := sv.Serve(ctx, emu.requests, emu.interrupts)
			if serr != nil && !errors.Is(serr, context.Canceled) {
				log.Warnf("io: %v", serr)
			}
		}()
	}

	// Batch runs with nothing queued have nothing to wait for.
	if emu.Batch && emu.Kernel.Idle() {
		emu.Kernel.Shutdown()
	}

	err = emu.Kernel.Run(ctx, emu.interrupts)

	cancel()
	wg.Wait()

	return
}

// Faults returns the number of processes that ended in a fault.
func (emu *Emulator) Faults() (count int) {
	for _, result := range emu.Results {
		if result.Err != nil && !errors.Is(result.Err, kernel.ErrShutdown) {
			count++
		}
	}
	return
}

func (emu *Emulator) autoIo() bool {
	return emu.Config.AutoIo && emu.Channel != nil
}

func (emu *Emulator) onCreate(pid machine.Word, name string) {
	emu.programs[pid] = emu.Loader.Program
	emu.names[pid] = name

	if emu.Verbose {
		emu.writeDump(f("Program %v loaded", name))
	}
}

func (emu *Emulator) onBlock(req kernel.IoRequest) {
	if emu.autoIo() {
		emu.requests <- req
		return
	}

	logger := log.WithField("pid", req.Pid)
	switch req.Reason {
	case kernel.REASON_INPUT:
		logger.Infof("waiting for input: 3 %v <char>", req.Pid)
	case kernel.REASON_OUTPUT:
		logger.Infof("output %q: 4 %v", rune(req.Char), req.Pid)
	}
}

func (emu *Emulator) onExit(pid machine.Word, exit cpu.Exit, err error) {
	name := emu.names[pid]
	prog := emu.programs[pid]
	delete(emu.names, pid)
	delete(emu.programs, pid)

	shutdown := errors.Is(err, kernel.ErrShutdown)

	if err != nil && !shutdown {
		lineno := 0
		if prog != nil {
			dbg := prog.Debug(emu.Machine.Mar.Address())
			if dbg.Opcode != nil {
				lineno = dbg.LineNo
			}
		}
		err = &ErrProcess{Pid: pid, Program: name, LineNo: lineno, Err: err}
	}

	emu.Results = append(emu.Results, Result{
		Pid:     pid,
		Program: name,
		Exit:    exit,
		Err:     err,
	})

	if !shutdown {
		status := machine.StatusOf(err)
		emu.writeDump(f("Process %v %v: %v, status %v", pid, name, exit, status))
	}

	if emu.Batch && emu.Kernel.Idle() {
		select {
		case emu.interrupts <- kernel.Interrupt{Id: kernel.INT_SHUTDOWN}:
		default:
			emu.Kernel.Shutdown()
		}
	}
}

func (emu *Emulator) writeDump(label string) {
	if emu.Output == nil {
		return
	}

	dump, err := emu.Machine.Dump(label, machine.USER_BASE, emu.Config.DumpLength)
	if err == nil {
		err = WriteDump(emu.Output, dump)
	}
	if err != nil {
		log.Warnf("dump: %v", err)
	}
}
