package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"path"
	"slices"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/hypo/machine"
)

// END_OF_PROGRAM is the address field of the program file terminator line.
const END_OF_PROGRAM = machine.Word(-1)

// Program is an assembled or loaded user program.
type Program struct {
	Opcodes []Opcode
	Start   machine.Address // Initial program counter.
}

type Debug struct {
	*Opcode
	Index int
}

// Debug finds the opcode that generated the word at addr.
func (prog *Program) Debug(addr machine.Address) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if addr >= op.Addr && addr < op.Addr+machine.Address(op.Len()) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr - op.Addr),
			}
			break
		}
	}

	return
}

// Words iterates over the program's arena words.
func (prog *Program) Words() iter.Seq2[machine.Address, machine.Word] {
	return func(yield func(addr machine.Address, value machine.Word) bool) {
		for _, op := range prog.Opcodes {
			for n, value := range op.Values() {
				if !yield(op.Addr+machine.Address(n), value) {
					return
				}
			}
		}
	}
}

// WriteTo writes the program in program file format: one 'address value'
// pair per line, terminated by '-1 start'.
func (prog *Program) WriteTo(w io.Writer) (n int64, err error) {
	bw := bufio.NewWriter(w)

	var count int
	for addr, value := range prog.Words() {
		count, err = fmt.Fprintf(bw, "%d %d\n", addr, value)
		n += int64(count)
		if err != nil {
			return
		}
	}

	count, err = fmt.Fprintf(bw, "%d %d\n", END_OF_PROGRAM, prog.Start)
	n += int64(count)
	if err != nil {
		return
	}

	err = bw.Flush()
	return
}

// ReadProgram parses a program file. Blank lines, and text after a ';',
// are ignored.
func ReadProgram(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	prog = &Program{}
	ended := false

	for scanner.Scan() {
		lineno++
		line = strings.TrimSpace(strings.Split(scanner.Text(), ";")[0])
		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}
		if len(words) != 2 {
			err = ErrParseValue(line)
			return
		}

		var values [2]machine.Word
		for n, word := range words {
			var v64 int64
			v64, err = strconv.ParseInt(word, 10, 64)
			if err != nil {
				err = ErrParseNumber(word)
				return
			}
			values[n] = machine.Word(v64)
		}

		addr, value := values[0], values[1]
		if addr == END_OF_PROGRAM {
			if !machine.USER_REGION.Contains(value.Address()) {
				err = machine.ErrInvalidPCValue
				return
			}
			prog.Start = value.Address()
			ended = true
			break
		}

		if !machine.USER_REGION.Contains(addr.Address()) {
			err = machine.ErrInvalidAddress
			return
		}

		prog.Opcodes = append(prog.Opcodes, Opcode{
			LineNo: lineno,
			Addr:   addr.Address(),
			Words:  words,
			Codes:  []Code{{Word: value}},
		})
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if !ended {
		err = machine.ErrNoEndOfProgram
		return
	}

	return
}

// Load copies the program into user memory and returns its start address.
func (prog *Program) Load(mach *machine.Machine) (start machine.Address, err error) {
	for addr, value := range prog.Words() {
		if !machine.USER_REGION.Contains(addr) {
			err = machine.ErrInvalidAddress
			return
		}
		err = mach.Store(addr, value)
		if err != nil {
			return
		}
	}

	if !machine.USER_REGION.Contains(prog.Start) {
		err = machine.ErrInvalidPCValue
		return
	}

	start = prog.Start
	return
}

// FileLoader loads program files by name from a file system. Names ending
// in one of the Sources extensions are assembled first.
type FileLoader struct {
	Verbose   bool
	FS        fs.FS
	Assembler *Assembler
	Sources   []string // Assembly source extensions, ie ".s"

	// Program is the most recently loaded program.
	Program *Program
}

// Load reads, and possibly assembles, a program and copies it into user memory.
func (fl *FileLoader) Load(mach *machine.Machine, name string) (start machine.Address, err error) {
	file, err := fl.FS.Open(name)
	if err != nil {
		err = errors.Join(machine.ErrFileOpen, err)
		return
	}
	defer file.Close()

	var prog *Program
	if fl.Assembler != nil && fl.isSource(name) {
		prog, err = fl.Assembler.Parse(file)
	} else {
		prog, err = ReadProgram(file)
	}
	if err != nil {
		err = fmt.Errorf("%v: %w", name, err)
		return
	}

	start, err = prog.Load(mach)
	if err != nil {
		err = fmt.Errorf("%v: %w", name, err)
		return
	}

	if fl.Verbose {
		log.WithField("program", name).Debugf("loaded, start %d", start)
	}

	fl.Program = prog
	return
}

func (fl *FileLoader) isSource(name string) bool {
	return slices.Contains(fl.Sources, path.Ext(name))
}
