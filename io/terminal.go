package io

import (
	"sync"

	"github.com/mattn/go-tty"

	"github.com/ezrec/hypo/machine"
)

// Terminal is a character channel on a tty, read one key at a time
// without echo.
type Terminal struct {
	mutex sync.Mutex
	tty   *tty.TTY
}

// OpenTerminal opens a tty device. An empty path opens the controlling
// terminal.
func OpenTerminal(path string) (term *Terminal, err error) {
	var tt *tty.TTY
	if len(path) == 0 {
		tt, err = tty.Open()
	} else {
		tt, err = tty.OpenDevice(path)
	}
	if err != nil {
		return
	}

	term = &Terminal{tty: tt}
	return
}

func (term *Terminal) device() (tt *tty.TTY, err error) {
	term.mutex.Lock()
	defer term.mutex.Unlock()

	if term.tty == nil {
		err = ErrChannelClosed
		return
	}

	tt = term.tty
	return
}

// Getc waits for a key press.
func (term *Terminal) Getc() (ch machine.Word, err error) {
	tt, err := term.device()
	if err != nil {
		return EOF, err
	}

	r, err := tt.ReadRune()
	if err != nil {
		return EOF, err
	}

	ch = machine.Word(r)
	return
}

// Putc writes a character to the terminal.
func (term *Terminal) Putc(ch machine.Word) (err error) {
	r, err := toRune(ch)
	if err != nil {
		return
	}

	tt, err := term.device()
	if err != nil {
		return
	}

	_, err = tt.Output().WriteString(string(r))
	return
}

// Close restores the terminal settings and closes the device.
func (term *Terminal) Close() (err error) {
	term.mutex.Lock()
	defer term.mutex.Unlock()

	if term.tty == nil {
		return
	}

	err = term.tty.Close()
	term.tty = nil
	return
}
