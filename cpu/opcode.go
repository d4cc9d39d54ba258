package cpu

import (
	"fmt"
	"strings"

	"github.com/ezrec/hypo/machine"
)

// CodeOp is the operation digit pair of an instruction word.
type CodeOp int

//go:generate go tool stringer -linecomment -type=CodeOp

const (
	OP_HALT    = CodeOp(0)  // halt
	OP_ADD     = CodeOp(1)  // add
	OP_SUB     = CodeOp(2)  // sub
	OP_MUL     = CodeOp(3)  // mul
	OP_DIV     = CodeOp(4)  // div
	OP_MOVE    = CodeOp(5)  // move
	OP_BR      = CodeOp(6)  // br
	OP_BMI     = CodeOp(7)  // bmi
	OP_BPL     = CodeOp(8)  // bpl
	OP_BZ      = CodeOp(9)  // bz
	OP_PUSH    = CodeOp(10) // push
	OP_POP     = CodeOp(11) // pop
	OP_SYSCALL = CodeOp(12) // syscall
)

// Clock cost of each operation.
var _op_cost = [...]int{
	OP_HALT:    12,
	OP_ADD:     3,
	OP_SUB:     3,
	OP_MUL:     6,
	OP_DIV:     6,
	OP_MOVE:    2,
	OP_BR:      2,
	OP_BMI:     4,
	OP_BPL:     4,
	OP_BZ:      4,
	OP_PUSH:    2,
	OP_POP:     2,
	OP_SYSCALL: 12,
}

func (op CodeOp) Valid() bool {
	return op >= OP_HALT && op <= OP_SYSCALL
}

// Cost returns the clock cost of the operation.
func (op CodeOp) Cost() int {
	if !op.Valid() {
		return 0
	}
	return _op_cost[op]
}

// Operands returns the number of addressed operands the operation uses.
func (op CodeOp) Operands() int {
	switch op {
	case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_MOVE:
		return 2
	case OP_BMI, OP_BPL, OP_BZ, OP_PUSH, OP_POP, OP_SYSCALL:
		return 1
	}
	return 0
}

// Branch is true when the operation is followed by a branch target word.
func (op CodeOp) Branch() bool {
	return op >= OP_BR && op <= OP_BZ
}

// CodeMode is an operand addressing mode.
type CodeMode int

//go:generate go tool stringer -linecomment -type=CodeMode

const (
	MODE_NONE      = CodeMode(0) // -
	MODE_REGISTER  = CodeMode(1) // register
	MODE_DEFERRED  = CodeMode(2) // deferred
	MODE_AUTO_INC  = CodeMode(3) // autoincrement
	MODE_AUTO_DEC  = CodeMode(4) // autodecrement
	MODE_DIRECT    = CodeMode(5) // direct
	MODE_IMMEDIATE = CodeMode(6) // immediate
)

// Extended returns true if the mode consumes a word from the instruction stream.
func (mode CodeMode) Extended() bool {
	return mode == MODE_DIRECT || mode == MODE_IMMEDIATE
}

// Opcode represents a line of assembled code with its source location and generated words.
type Opcode struct {
	LineNo int             // Source line number.
	Addr   machine.Address // Address of the first generated word.
	Words  []string        // Source words.
	Codes  []Code          // Generated instruction, or data words.
	Data   bool            // Codes are data words, not an instruction.
	Links  []Link          // Words to patch with label addresses.
}

// Link is a label reference at a word offset from the start of an Opcode.
type Link struct {
	Index int
	Label string
}

// Len returns the number of arena words the opcode occupies.
func (op *Opcode) Len() (count int) {
	for _, code := range op.Codes {
		count += 1 + len(code.Immediates)
	}
	return
}

// Values returns the arena words of the opcode in address order.
func (op *Opcode) Values() (values []machine.Word) {
	for _, code := range op.Codes {
		values = append(values, code.Word)
		values = append(values, code.Immediates...)
	}
	return
}

// set replaces the word at index.
func (op *Opcode) set(index int, value machine.Word) bool {
	for n := range op.Codes {
		code := &op.Codes[n]
		if index == 0 {
			code.Word = value
			return true
		}
		index--
		if index < len(code.Immediates) {
			code.Immediates[index] = value
			return true
		}
		index -= len(code.Immediates)
	}
	return false
}

// Code is a single instruction word with the operand and branch target
// words that follow it.
type Code struct {
	Word       machine.Word
	Immediates []machine.Word
}

// MakeCode creates an instruction.
func MakeCode(op CodeOp, mode1 CodeMode, reg1 int, mode2 CodeMode, reg2 int, imms ...machine.Word) Code {
	word := machine.Word(op)*10000 +
		machine.Word(mode1)*1000 + machine.Word(reg1)*100 +
		machine.Word(mode2)*10 + machine.Word(reg2)

	return Code{
		Word:       word,
		Immediates: imms,
	}
}

// Decode unpacks and validates the instruction word.
func (code Code) Decode() (op CodeOp, mode1 CodeMode, reg1 int, mode2 CodeMode, reg2 int, err error) {
	word := code.Word
	if word < 0 {
		err = machine.ErrInvalidInstruction
		return
	}

	op = CodeOp(word / 10000)
	mode1 = CodeMode((word / 1000) % 10)
	reg1 = int((word / 100) % 10)
	mode2 = CodeMode((word / 10) % 10)
	reg2 = int(word % 10)

	if !op.Valid() {
		err = machine.ErrInvalidOpcode
		return
	}

	if mode1 > MODE_IMMEDIATE || mode2 > MODE_IMMEDIATE {
		err = machine.ErrInvalidInstruction
		return
	}

	if reg1 >= machine.GPR_COUNT || reg2 >= machine.GPR_COUNT {
		err = machine.ErrInvalidInstruction
		return
	}

	return
}

// ImmediateNeed returns the number of words that follow the instruction word.
func (code Code) ImmediateNeed() (need int) {
	op, mode1, _, mode2, _, err := code.Decode()
	if err != nil {
		return
	}

	if op.Operands() >= 1 && mode1.Extended() {
		need++
	}
	if op.Operands() >= 2 && mode2.Extended() {
		need++
	}
	if op.Branch() {
		need++
	}

	return
}

// operandString renders an operand in assembler syntax.
func operandString(mode CodeMode, reg int, imms []machine.Word) (out string, rest []machine.Word) {
	rest = imms
	switch mode {
	case MODE_REGISTER:
		out = fmt.Sprintf("r%d", reg)
	case MODE_DEFERRED:
		out = fmt.Sprintf("(r%d)", reg)
	case MODE_AUTO_INC:
		out = fmt.Sprintf("(r%d)+", reg)
	case MODE_AUTO_DEC:
		out = fmt.Sprintf("-(r%d)", reg)
	case MODE_DIRECT, MODE_IMMEDIATE:
		prefix := "@"
		if mode == MODE_IMMEDIATE {
			prefix = "#"
		}
		if len(rest) == 0 {
			out = prefix + "?"
			break
		}
		out = fmt.Sprintf("%v%d", prefix, rest[0])
		rest = rest[1:]
	default:
		out = "-"
	}
	return
}

// String returns the assembly language representation of this instruction.
func (code Code) String() string {
	op, mode1, reg1, mode2, reg2, err := code.Decode()
	if err != nil {
		return fmt.Sprintf("%06d", code.Word)
	}

	imms := code.Immediates

	var args []string
	var arg string
	if op.Operands() >= 1 {
		arg, imms = operandString(mode1, reg1, imms)
		args = append(args, arg)
	}
	if op.Operands() >= 2 {
		arg, imms = operandString(mode2, reg2, imms)
		args = append(args, arg)
	}
	if op.Branch() {
		if len(imms) > 0 {
			args = append(args, fmt.Sprintf("%d", imms[0]))
		} else {
			args = append(args, "?")
		}
	}

	if len(args) == 0 {
		return op.String()
	}

	return op.String() + " " + strings.Join(args, ", ")
}
