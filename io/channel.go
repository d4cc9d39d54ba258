// Package io provides the character devices behind the io_getc and io_putc
// system calls of the HYPO machine, and the servicer that completes blocked
// I/O requests with interrupts.
package io

import (
	"github.com/ezrec/hypo/machine"
)

// EOF is the character delivered when a channel has no more input.
const EOF = machine.Word(-1)

// Channel is a character device.
type Channel interface {
	// Getc reads a single character.
	Getc() (ch machine.Word, err error)
	// Putc writes a single character.
	Putc(ch machine.Word) error
}
