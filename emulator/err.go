package emulator

import (
	"errors"

	"github.com/ezrec/hypo/machine"
	"github.com/ezrec/hypo/translate"
)

var f = translate.From

var (
	ErrTimeSlice     = errors.New(f("time slice must be positive"))
	ErrStackSize     = errors.New(f("stack size out of range"))
	ErrDumpLength    = errors.New(f("dump length out of range"))
	ErrInterruptLine = errors.New(f("unable to parse interrupt"))
)

// ErrProcess indicates the program line where a process faulted.
type ErrProcess struct {
	Pid     machine.Word
	Program string
	LineNo  int
	Err     error
}

func (err *ErrProcess) Error() string {
	if err.LineNo == 0 {
		return f("pid %v %v: %v", err.Pid, err.Program, err.Err)
	}
	return f("pid %v %v line %v: %v", err.Pid, err.Program, err.LineNo, err.Err)
}

func (err *ErrProcess) Unwrap() error {
	return err.Err
}

// ErrConfig indicates a configuration file problem.
type ErrConfig struct {
	Path string
	Err  error
}

func (err *ErrConfig) Error() string {
	return f("%v: %v", err.Path, err.Err)
}

func (err *ErrConfig) Unwrap() error {
	return err.Err
}
