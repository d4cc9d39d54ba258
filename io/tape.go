package io

import (
	"bufio"
	"errors"
	"io"
	"unicode"
	"unicode/utf8"

	"github.com/ezrec/hypo/machine"
)

// Tape is a character channel over a byte stream. Input is read as UTF-8
// runes, and output is written as UTF-8.
type Tape struct {
	Input  io.Reader
	Output io.Writer

	reader *bufio.Reader
}

// Getc reads the next rune from the input stream. At the end of the
// stream, or without an input, it returns EOF and io.EOF.
func (tc *Tape) Getc() (ch machine.Word, err error) {
	if tc.Input == nil {
		return EOF, io.EOF
	}

	if tc.reader == nil {
		tc.reader = bufio.NewReader(tc.Input)
	}

	r, _, err := tc.reader.ReadRune()
	if err != nil {
		return EOF, err
	}

	ch = machine.Word(r)
	return
}

// Putc writes a rune to the output stream. Without an output the
// character is discarded.
func (tc *Tape) Putc(ch machine.Word) (err error) {
	r, err := toRune(ch)
	if err != nil {
		return
	}

	if tc.Output == nil {
		return
	}

	_, err = tc.Output.Write(utf8.AppendRune(nil, r))
	return
}

// toRune checks that a word is a valid character.
func toRune(ch machine.Word) (r rune, err error) {
	if ch < 0 || ch > unicode.MaxRune {
		err = ErrCharacter(ch)
		return
	}

	r = rune(ch)
	if !utf8.ValidRune(r) {
		err = ErrCharacter(ch)
		return
	}

	return
}

// isEOF is true for errors that end an input stream.
func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, ErrChannelClosed)
}
