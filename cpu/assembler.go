// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/hypo/machine"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Maximum depth of equates that refer to other equates.
const EQUATE_DEPTH = 16

// Assembler is a single pass assembler for HYPO programs.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string          // Predefines
	Label     map[string]machine.Address // Map of labels to addresses.
	Equate    map[string]string          // Map of equates.

	addr  machine.Address // Next address to assemble to.
	start string          // Argument of 'end'.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

var opMap = map[string]CodeOp{
	"halt":    OP_HALT,
	"add":     OP_ADD,
	"sub":     OP_SUB,
	"mul":     OP_MUL,
	"div":     OP_DIV,
	"move":    OP_MOVE,
	"br":      OP_BR,
	"bmi":     OP_BMI,
	"bpl":     OP_BPL,
	"bz":      OP_BZ,
	"push":    OP_PUSH,
	"pop":     OP_POP,
	"syscall": OP_SYSCALL,
}

var (
	reIdent    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	reChar     = regexp.MustCompile(`'\\?[^']'`)
	reParen    = regexp.MustCompile(`\$\([^\$]*\)`)
	reRegister = regexp.MustCompile(`^(-?)\((.*)\)(\+?)$`)
)

// equate expands a word through the equate table.
func (asm *Assembler) equate(word string) (out string, err error) {
	out = word
	for range EQUATE_DEPTH {
		value, ok := asm.Equate[out]
		if !ok {
			return
		}
		out = value
	}

	err = ErrEquateLoop
	return
}

// valueOf returns the value of a simple word. A word that is a valid label
// name, but not an equate, is returned as a label to be linked later.
func (asm *Assembler) valueOf(word string) (value machine.Word, label string, err error) {
	word, err = asm.equate(word)
	if err != nil {
		return
	}

	if len(word) == 0 {
		err = ErrParseValue(word)
		return
	}

	if reIdent.MatchString(word) {
		label = word
		return
	}

	v64, err := strconv.ParseInt(word, 0, 64)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = machine.Word(v64)
	return
}

// register parses a register name.
func (asm *Assembler) register(word string) (reg int, ok bool) {
	word, err := asm.equate(word)
	if err != nil {
		return
	}

	if len(word) != 2 || word[0] != 'r' || word[1] < '0' || word[1] >= '0'+machine.GPR_COUNT {
		return
	}

	reg = int(word[1] - '0')
	ok = true
	return
}

// operand encodes an operand. Direct and immediate operands generate an
// extra word, possibly a label to be linked.
func (asm *Assembler) operand(word string) (mode CodeMode, reg int, imms []machine.Word, label string, err error) {
	word, err = asm.equate(word)
	if err != nil {
		return
	}

	if len(word) == 0 {
		err = ErrOpcodeMissing
		return
	}

	var ok bool
	reg, ok = asm.register(word)
	if ok {
		mode = MODE_REGISTER
		return
	}

	parts := reRegister.FindStringSubmatch(word)
	if parts != nil {
		reg, ok = asm.register(parts[2])
		if !ok {
			err = ErrRegisterInvalid
			return
		}
		switch {
		case parts[1] == "-" && parts[3] == "+":
			err = ErrParseValue(word)
		case parts[1] == "-":
			mode = MODE_AUTO_DEC
		case parts[3] == "+":
			mode = MODE_AUTO_INC
		default:
			mode = MODE_DEFERRED
		}
		return
	}

	prefix := word[0]
	if prefix == '#' || prefix == '@' {
		word = word[1:]
	}

	var value machine.Word
	value, label, err = asm.valueOf(word)
	if err != nil {
		return
	}

	switch {
	case prefix == '#':
		mode = MODE_IMMEDIATE
	case prefix == '@', len(label) != 0:
		mode = MODE_DIRECT
	default:
		// Bare numbers are immediates.
		mode = MODE_IMMEDIATE
	}

	imms = []machine.Word{value}
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value machine.Word, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v64, err := strconv.ParseInt(str, 0, 64)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt64(v64)
	}
	for key, addr := range asm.Label {
		_, ok := pred[key]
		if !ok {
			pred[key] = starlark.MakeInt(int(addr))
		}
	}
	pred["HERE"] = starlark.MakeInt(int(asm.addr))

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = machine.Word(st_int64)
	return
}

// parseLine expands a single line, and splits it into its label,
// mnemonic and argument words.
func (asm *Assembler) parseLine(line string, lineno int) (labels []string, words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = reChar.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "s":
				str = " "
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	fields := strings.Fields(line)
	for len(fields) > 0 && strings.HasSuffix(fields[0], ":") {
		label := strings.TrimSuffix(fields[0], ":")
		if !reIdent.MatchString(label) {
			err = ErrLabelInvalid
			return
		}
		labels = append(labels, label)
		fields = fields[1:]
	}

	if len(fields) == 0 {
		return
	}

	words = []string{fields[0]}
	args := strings.Join(fields[1:], " ")
	if len(args) == 0 {
		return
	}

	if fields[0] == ".equ" {
		words = append(words, fields[1:]...)
		return
	}

	for arg := range strings.SplitSeq(args, ",") {
		words = append(words, strings.TrimSpace(arg))
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Label = make(map[string]machine.Address, 16)
	asm.Opcode = asm.Opcode[:0]
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}
	asm.addr = machine.USER_BASE
	asm.start = ""

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Debugf("asm: %v: %v", lineno, text)
		}

		line = strings.TrimSpace(strings.Split(text, ";")[0])

		var labels, words []string
		labels, words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		for _, label := range labels {
			_, ok := asm.Label[label]
			if ok {
				err = ErrLabelDuplicate
				return
			}
			asm.Label[label] = asm.addr
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	line = ""

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]
		lineno = op.LineNo
		for _, link := range op.Links {
			addr, ok := asm.Label[link.Label]
			if !ok {
				err = ErrLabelMissing(link.Label)
				return
			}
			if !op.set(link.Index, addr.Word()) {
				log.Fatalf("Unable to link label '%s' to line %d: %v", link.Label, op.LineNo, op.Words)
			}
		}
	}

	if len(asm.start) == 0 {
		err = ErrEndMissing
		return
	}

	start, label, err := asm.valueOf(asm.start)
	if err != nil {
		return
	}
	if len(label) != 0 {
		addr, ok := asm.Label[label]
		if !ok {
			err = ErrLabelMissing(label)
			return
		}
		start = addr.Word()
	}
	if !machine.USER_REGION.Contains(start.Address()) {
		err = machine.ErrInvalidPCValue
		return
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
		Start:   start.Address(),
	}

	return
}

// emit appends an opcode at the current address.
func (asm *Assembler) emit(op Opcode) (err error) {
	op.Addr = asm.addr
	next := asm.addr + machine.Address(op.Len())
	if next > machine.USER_LIMIT+1 {
		err = ErrProgramOverflow
		return
	}

	asm.Opcode = append(asm.Opcode, op)
	asm.addr = next
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	// no-op
	if len(words) == 0 {
		return
	}

	if asm.start != "" {
		err = ErrEndTrailing
		return
	}

	args := words[1:]

	switch words[0] {
	case ".equ":
		// .equ CONST VALUE
		if len(args) != 2 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[args[0]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[args[0]] = args[1]
		return
	case ".org":
		if len(args) != 1 {
			err = ErrOrgSyntax
			return
		}
		var value machine.Word
		var label string
		value, label, err = asm.valueOf(args[0])
		if err != nil {
			return
		}
		if len(label) != 0 || !machine.USER_REGION.Contains(value.Address()) {
			err = ErrOrgSyntax
			return
		}
		asm.addr = value.Address()
		return
	case ".word":
		if len(args) == 0 {
			err = ErrWordSyntax
			return
		}
		op := Opcode{LineNo: lineno, Words: words, Data: true}
		for n, arg := range args {
			var value machine.Word
			var label string
			value, label, err = asm.valueOf(arg)
			if err != nil {
				return
			}
			if len(label) != 0 {
				op.Links = append(op.Links, Link{Index: n, Label: label})
			}
			op.Codes = append(op.Codes, Code{Word: value})
		}
		return asm.emit(op)
	case "end":
		if len(args) != 1 {
			err = ErrEndSyntax
			return
		}
		asm.start = args[0]
		return
	}

	code, ok := opMap[words[0]]
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	need := code.Operands()
	if code.Branch() {
		need++
	}
	if len(args) < need {
		err = ErrOpcodeMissing
		return
	}
	if len(args) > need {
		err = ErrOpcodeExtraArgs
		return
	}

	op := Opcode{LineNo: lineno, Words: words}

	var modes [2]CodeMode
	var regs [2]int
	var imms []machine.Word

	for n := range code.Operands() {
		var opImms []machine.Word
		var label string
		modes[n], regs[n], opImms, label, err = asm.operand(args[n])
		if err != nil {
			return
		}
		if len(label) != 0 {
			op.Links = append(op.Links, Link{Index: 1 + len(imms), Label: label})
		}
		imms = append(imms, opImms...)
	}

	// Destinations cannot be immediate.
	switch code {
	case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_MOVE, OP_POP:
		if modes[0] == MODE_IMMEDIATE {
			err = ErrTargetInvalid
			return
		}
	}

	if code.Branch() {
		var value machine.Word
		var label string
		value, label, err = asm.valueOf(strings.TrimPrefix(args[len(args)-1], "@"))
		if err != nil {
			return
		}
		if len(label) != 0 {
			op.Links = append(op.Links, Link{Index: 1 + len(imms), Label: label})
		}
		imms = append(imms, value)
	}

	op.Codes = []Code{MakeCode(code, modes[0], regs[0], modes[1], regs[1], imms...)}

	return asm.emit(op)
}
