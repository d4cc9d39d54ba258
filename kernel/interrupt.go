package kernel

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/hypo/cpu"
	"github.com/ezrec/hypo/machine"
)

// InterruptId selects the action of an interrupt.
type InterruptId int

//go:generate go tool stringer -linecomment -type=InterruptId

const (
	INT_NONE        = InterruptId(0) // none
	INT_RUN_PROGRAM = InterruptId(1) // run program
	INT_SHUTDOWN    = InterruptId(2) // shutdown
	INT_INPUT_DONE  = InterruptId(3) // input done
	INT_OUTPUT_DONE = InterruptId(4) // output done
)

// Interrupt is an event delivered to the scheduler between time slices.
type Interrupt struct {
	Id       InterruptId
	Program  string       // INT_RUN_PROGRAM
	Priority machine.Word // INT_RUN_PROGRAM
	Pid      machine.Word // INT_INPUT_DONE, INT_OUTPUT_DONE
	Char     machine.Word // INT_INPUT_DONE
}

// HandleInterrupt services a single interrupt.
func (k *Kernel) HandleInterrupt(intr Interrupt) (err error) {
	if k.Verbose {
		log.WithField("pid", intr.Pid).Debugf("interrupt: %v", intr.Id)
	}

	switch intr.Id {
	case INT_NONE:
	case INT_RUN_PROGRAM:
		_, err = k.CreateProcess(intr.Program, intr.Priority)
	case INT_SHUTDOWN:
		k.Shutdown()
	case INT_INPUT_DONE, INT_OUTPUT_DONE:
		reason := REASON_OUTPUT
		if intr.Id == INT_INPUT_DONE {
			reason = REASON_INPUT
		}
		err = k.checkWaiting(intr.Pid, reason)
		if err != nil {
			return
		}

		var addr machine.Address
		addr, err = k.RemoveWaiting(intr.Pid)
		if err != nil {
			return
		}
		if intr.Id == INT_INPUT_DONE {
			setField(k.Machine, addr, PCB_GPR+1, intr.Char)
		}
		setField(k.Machine, addr, PCB_REASON, machine.Word(REASON_NONE))
		err = k.InsertReady(addr)
	default:
		err = ErrInterruptInvalid(intr.Id)
	}

	return
}

// checkWaiting verifies the waiting process pid is blocked for reason.
func (k *Kernel) checkWaiting(pid machine.Word, reason Reason) (err error) {
	for pcb := range k.Waiting.All() {
		if pcb.Pid != pid {
			continue
		}
		if pcb.Reason != reason {
			err = &ErrWaitReason{Pid: int64(pid), Reason: pcb.Reason}
		}
		return
	}

	return ErrProcessMissing(pid)
}

// Shutdown terminates every queued process. The scheduling loop returns
// once the queues are empty.
func (k *Kernel) Shutdown() {
	k.shutdown = true

	for _, queue := range []*Queue{&k.Ready, &k.Waiting} {
		for !queue.Empty() {
			addr, err := queue.Pop()
			if err != nil {
				log.WithField("queue", queue.Name).Warn(err)
				queue.Clear()
				break
			}
			k.exit(addr, cpu.EXIT_HALT, ErrShutdown)
		}
	}
}

// exit reports and tears down a process that is in no queue.
func (k *Kernel) exit(addr machine.Address, exit cpu.Exit, err error) {
	pid := field(k.Machine, addr, PCB_PID)

	logger := k.logger(addr)
	switch {
	case err == nil:
		logger.Infof("process %v", exit)
	case errors.Is(err, ErrShutdown):
		logger.Info(err)
	default:
		logger.WithField("status", machine.StatusOf(err)).Warn(err)
	}

	if k.OnExit != nil {
		k.OnExit(pid, exit, err)
	}

	terr := k.TerminateProcess(addr)
	if terr != nil {
		logger.Warnf("terminate: %v", terr)
	}
}

// RunProcess dispatches a PCB, runs it for one time slice, and routes it by
// the reason the cpu stopped.
func (k *Kernel) RunProcess(addr machine.Address) (exit cpu.Exit, err error) {
	err = k.Dispatch(addr)
	if err != nil {
		k.exit(addr, cpu.EXIT_RUNNING, err)
		return
	}
	defer func() {
		k.running = 0
	}()

	exit, err = k.Cpu.Run(k.TimeSlice)
	if err != nil || exit == cpu.EXIT_HALT {
		k.exit(addr, exit, err)
		return
	}

	err = k.SaveContext(addr)
	if err != nil {
		k.exit(addr, exit, err)
		return
	}

	switch exit {
	case cpu.EXIT_TIME_SLICE:
		err = k.InsertReady(addr)
	case cpu.EXIT_INPUT, cpu.EXIT_OUTPUT:
		req := IoRequest{
			Pid:    field(k.Machine, addr, PCB_PID),
			Reason: REASON_INPUT,
		}
		if exit == cpu.EXIT_OUTPUT {
			req.Reason = REASON_OUTPUT
			req.Char = k.Machine.Gpr[1]
		}
		setField(k.Machine, addr, PCB_REASON, machine.Word(req.Reason))
		err = k.InsertWaiting(addr)
		if err == nil && k.OnBlock != nil {
			k.OnBlock(req)
		}
	}

	if err != nil {
		k.exit(addr, exit, err)
	}

	return
}

// Run is the scheduling loop. It takes at most one interrupt per time
// slice, waiting for one only while no process is ready, and returns
// after a shutdown once both queues are empty.
//
// A closed interrupt channel is a shutdown.
func (k *Kernel) Run(ctx context.Context, interrupts <-chan Interrupt) (err error) {
	for {
		if k.shutdown && k.Idle() {
			return
		}

		var intr Interrupt
		var ok bool
		var got bool

		if k.Ready.Empty() {
			select {
			case <-ctx.Done():
				err = ctx.Err()
				return
			case intr, ok = <-interrupts:
				got = true
			}
		} else {
			select {
			case <-ctx.Done():
				err = ctx.Err()
				return
			case intr, ok = <-interrupts:
				got = true
			default:
			}
		}

		if got {
			if !ok {
				interrupts = nil
				intr = Interrupt{Id: INT_SHUTDOWN}
			}
			ierr := k.HandleInterrupt(intr)
			if ierr != nil {
				log.WithField("interrupt", intr.Id).Warn(ierr)
			}
		}

		if k.shutdown && k.Idle() {
			return
		}

		addr := k.SelectNext()
		if addr == machine.END_OF_LIST {
			continue
		}

		_, _ = k.RunProcess(addr)
	}
}
