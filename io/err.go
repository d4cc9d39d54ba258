package io

import (
	"errors"

	"github.com/ezrec/hypo/translate"
)

var f = translate.From

var (
	// Channel errors
	ErrChannelClosed = errors.New(f("channel closed"))
)

// ErrCharacter is returned when a word cannot be written as a character.
type ErrCharacter int64

func (err ErrCharacter) Error() string {
	return f("invalid character %v", int64(err))
}
