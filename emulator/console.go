package emulator

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/hypo/kernel"
	"github.com/ezrec/hypo/machine"
)

// ParseInterrupt parses a console line:
//
//	0                 no interrupt
//	1 program [prio]  run a program
//	2                 shutdown
//	3 pid c           input c completes for pid
//	4 pid             output completes for pid
//
// The input character is taken literally when it is a single character,
// otherwise it is parsed as a number.
func ParseInterrupt(line string, defaultPriority machine.Word) (intr kernel.Interrupt, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		err = ErrInterruptLine
		return
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		err = errors.Join(ErrInterruptLine, err)
		return
	}

	args := fields[1:]
	intr.Id = kernel.InterruptId(id)

	switch intr.Id {
	case kernel.INT_NONE, kernel.INT_SHUTDOWN:
		if len(args) != 0 {
			err = ErrInterruptLine
		}
	case kernel.INT_RUN_PROGRAM:
		if len(args) < 1 || len(args) > 2 {
			err = ErrInterruptLine
			return
		}
		intr.Program = args[0]
		intr.Priority = defaultPriority
		if len(args) == 2 {
			intr.Priority, err = parseWord(args[1])
		}
	case kernel.INT_INPUT_DONE:
		if len(args) != 2 {
			err = ErrInterruptLine
			return
		}
		intr.Pid, err = parseWord(args[0])
		if err != nil {
			return
		}
		if utf8.RuneCountInString(args[1]) == 1 {
			r, _ := utf8.DecodeRuneInString(args[1])
			intr.Char = machine.Word(r)
		} else {
			intr.Char, err = parseWord(args[1])
		}
	case kernel.INT_OUTPUT_DONE:
		if len(args) != 1 {
			err = ErrInterruptLine
			return
		}
		intr.Pid, err = parseWord(args[0])
	default:
		err = errors.Join(ErrInterruptLine, kernel.ErrInterruptInvalid(id))
	}

	return
}

func parseWord(text string) (value machine.Word, err error) {
	v64, err := strconv.ParseInt(text, 0, 64)
	if err != nil {
		err = errors.Join(ErrInterruptLine, err)
		return
	}

	value = machine.Word(v64)
	return
}

// Console posts one interrupt per input line. Blank lines and lines
// starting with '#' are skipped, and malformed lines are logged. The end
// of the input posts a shutdown.
func (emu *Emulator) Console(ctx context.Context, input io.Reader) (err error) {
	scanner := bufio.NewScanner(input)

	lineno := 0
	for scanner.Scan() {
		lineno++

		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		intr, perr := ParseInterrupt(line, emu.Config.DefaultPriority)
		if perr != nil {
			log.WithField("line", lineno).Warnf("console: %v", perr)
			continue
		}

		err = emu.Post(ctx, intr)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	err = emu.Post(ctx, kernel.Interrupt{Id: kernel.INT_SHUTDOWN})
	return
}
