package machine

import (
	"errors"

	"github.com/ezrec/hypo/translate"
)

var f = translate.From

// STATUS_OK is the status word for a successful operation.
const STATUS_OK = Word(0)

// Fault is a machine status code. All faults are negative.
type Fault int

const (
	ErrFileOpen           = Fault(-2)
	ErrInvalidAddress     = Fault(-3)
	ErrInvalidPCValue     = Fault(-4)
	ErrNoEndOfProgram     = Fault(-5)
	ErrInvalidInstruction = Fault(-6)
	ErrInvalidOpcode      = Fault(-7)
	ErrInvalidMode        = Fault(-8)
	ErrImmediateMode      = Fault(-9)
	ErrRuntime            = Fault(-10)
	ErrStackOverflow      = Fault(-11)
	ErrStackUnderflow     = Fault(-12)
	ErrNoFreeMemory       = Fault(-13)
	ErrInvalidMemorySize  = Fault(-14)
	ErrInvalidSystemCall  = Fault(-15)
)

func (ft Fault) Error() string {
	switch ft {
	case ErrFileOpen:
		return f("unable to open file")
	case ErrInvalidAddress:
		return f("invalid address")
	case ErrInvalidPCValue:
		return f("invalid program counter value")
	case ErrNoEndOfProgram:
		return f("no end of program indicator")
	case ErrInvalidInstruction:
		return f("invalid instruction")
	case ErrInvalidOpcode:
		return f("invalid opcode")
	case ErrInvalidMode:
		return f("invalid addressing mode")
	case ErrImmediateMode:
		return f("destination cannot be immediate")
	case ErrRuntime:
		return f("runtime error")
	case ErrStackOverflow:
		return f("stack overflow")
	case ErrStackUnderflow:
		return f("stack underflow")
	case ErrNoFreeMemory:
		return f("no free memory")
	case ErrInvalidMemorySize:
		return f("invalid memory size")
	case ErrInvalidSystemCall:
		return f("invalid system call")
	}
	return f("fault %d", int(ft))
}

// Word returns the status word a program sees for this fault.
func (ft Fault) Word() Word {
	return Word(ft)
}

// FaultOf extracts the first Fault in err's tree.
func FaultOf(err error) (fault Fault, ok bool) {
	ok = errors.As(err, &fault)
	return
}

// StatusOf converts an error into a status word. Errors that carry no
// Fault are reported as runtime faults.
func StatusOf(err error) Word {
	if err == nil {
		return STATUS_OK
	}
	fault, ok := FaultOf(err)
	if !ok {
		return ErrRuntime.Word()
	}
	return fault.Word()
}
