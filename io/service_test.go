package io

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/hypo/cpu"
	"github.com/ezrec/hypo/kernel"
	"github.com/ezrec/hypo/machine"
)

func TestComplete(t *testing.T) {
	assert := assert.New(t)

	var out bytes.Buffer
	tape := &Tape{Input: strings.NewReader("q"), Output: &out}

	table := [](struct {
		name string
		req  kernel.IoRequest
		intr kernel.Interrupt
		err  bool
	}){
		{"input", kernel.IoRequest{Pid: 1, Reason: kernel.REASON_INPUT},
			kernel.Interrupt{Id: kernel.INT_INPUT_DONE, Pid: 1, Char: 'q'}, false},
		{"eof", kernel.IoRequest{Pid: 2, Reason: kernel.REASON_INPUT},
			kernel.Interrupt{Id: kernel.INT_INPUT_DONE, Pid: 2, Char: EOF}, true},
		{"output", kernel.IoRequest{Pid: 3, Reason: kernel.REASON_OUTPUT, Char: 'Z'},
			kernel.Interrupt{Id: kernel.INT_OUTPUT_DONE, Pid: 3}, false},
		{"bad_char", kernel.IoRequest{Pid: 4, Reason: kernel.REASON_OUTPUT, Char: -3},
			kernel.Interrupt{Id: kernel.INT_OUTPUT_DONE, Pid: 4}, true},
		{"none", kernel.IoRequest{Pid: 5},
			kernel.Interrupt{Id: kernel.INT_NONE, Pid: 5}, false},
	}

	for _, entry := range table {
		intr, err := Complete(tape, entry.req)
		assert.Equal(entry.intr, intr, entry.name)
		assert.Equal(entry.err, err != nil, entry.name)
	}

	assert.Equal("Z", out.String())
}

func TestServicer(t *testing.T) {
	assert := assert.New(t)

	var out bytes.Buffer
	sv := &Servicer{Channel: &Tape{Input: strings.NewReader("ab"), Output: &out}}

	requests := make(chan kernel.IoRequest, 3)
	interrupts := make(chan kernel.Interrupt, 3)

	requests <- kernel.IoRequest{Pid: 1, Reason: kernel.REASON_OUTPUT, Char: 'x'}
	requests <- kernel.IoRequest{Pid: 2, Reason: kernel.REASON_INPUT}
	requests <- kernel.IoRequest{Pid: 1, Reason: kernel.REASON_INPUT}
	close(requests)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := sv.Serve(ctx, requests, interrupts)
	assert.NoError(err)

	assert.Equal(kernel.Interrupt{Id: kernel.INT_OUTPUT_DONE, Pid: 1}, <-interrupts)
	assert.Equal(kernel.Interrupt{Id: kernel.INT_INPUT_DONE, Pid: 2, Char: 'a'}, <-interrupts)
	assert.Equal(kernel.Interrupt{Id: kernel.INT_INPUT_DONE, Pid: 1, Char: 'b'}, <-interrupts)
	assert.Equal("x", out.String())
}

func TestServicer_Cancel(t *testing.T) {
	assert := assert.New(t)

	sv := &Servicer{Channel: &Tape{}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sv.Serve(ctx, make(chan kernel.IoRequest), make(chan kernel.Interrupt))
	assert.ErrorIs(err, context.Canceled)
}

type fixedLoader []machine.Word

func (fl fixedLoader) Load(mach *machine.Machine, name string) (start machine.Address, err error) {
	copy(mach.Memory[:], fl)
	return
}

// The servicer wakes a process blocked in a running kernel.
func TestServicer_Kernel(t *testing.T) {
	assert := assert.New(t)

	k, err := kernel.NewKernel(fixedLoader{
		126000, machine.Word(kernel.SYS_IO_GETC), // syscall #SYS_IO_GETC
		126000, machine.Word(kernel.SYS_IO_PUTC), // syscall #SYS_IO_PUTC
		0, // halt
	})
	assert.NoError(err)

	var out bytes.Buffer
	sv := &Servicer{Channel: &Tape{Input: strings.NewReader("k"), Output: &out}}

	requests := make(chan kernel.IoRequest, 4)
	interrupts := make(chan kernel.Interrupt, 4)

	k.OnBlock = func(req kernel.IoRequest) {
		requests <- req
	}
	k.OnExit = func(pid machine.Word, exit cpu.Exit, err error) {
		assert.NoError(err)
		interrupts <- kernel.Interrupt{Id: kernel.INT_SHUTDOWN}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go sv.Serve(ctx, requests, interrupts)

	interrupts <- kernel.Interrupt{Id: kernel.INT_RUN_PROGRAM, Program: "echo"}

	err = k.Run(ctx, interrupts)
	assert.NoError(err)
	assert.Equal("k", out.String())
}
