package monitor

import (
	"errors"

	"github.com/ezrec/hypo/translate"
)

var f = translate.From

var ErrProgramMissing = errors.New(f("run request without a program"))

// ErrStatus is a monitor reply other than accepted.
type ErrStatus struct {
	Code    int
	Message string
}

func (err *ErrStatus) Error() string {
	if len(err.Message) == 0 {
		return f("monitor status %v", err.Code)
	}
	return f("monitor status %v: %v", err.Code, err.Message)
}
