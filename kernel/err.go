package kernel

import (
	"errors"

	"github.com/ezrec/hypo/translate"
)

var f = translate.From

var ErrLoaderMissing = errors.New(f("no program loader"))
var ErrShutdown = errors.New(f("system shutdown"))

// ErrProcessMissing is returned when no waiting process has the pid.
type ErrProcessMissing int64

func (err ErrProcessMissing) Error() string {
	return f("process %v is not waiting", int64(err))
}

// ErrWaitReason is returned when an I/O completion does not match the
// request the process is waiting on.
type ErrWaitReason struct {
	Pid    int64
	Reason Reason
}

func (err *ErrWaitReason) Error() string {
	return f("process %v is waiting on %v", err.Pid, err.Reason)
}

// ErrInterruptInvalid is returned for an unknown interrupt id.
type ErrInterruptInvalid int

func (err ErrInterruptInvalid) Error() string {
	return f("invalid interrupt %v", int(err))
}
