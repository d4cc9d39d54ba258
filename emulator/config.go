package emulator

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/ezrec/hypo/kernel"
	"github.com/ezrec/hypo/machine"
)

const (
	DEFAULT_DUMP_LENGTH = 100 // Words of user memory in a dump.
)

// Config holds the tunables of the emulator.
type Config struct {
	TimeSlice       int          `json:"time_slice"`       // Clock ticks per dispatch.
	StackSize       int          `json:"stack_size"`       // Stack words per process.
	DefaultPriority machine.Word `json:"default_priority"` // Priority when none is given.
	AutoIo          bool         `json:"auto_io"`          // Complete I/O on the device channel.
	DumpLength      int          `json:"dump_length"`      // Words of user memory in a dump, 0 for none.
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		TimeSlice:       kernel.DEFAULT_TIME_SLICE,
		StackSize:       kernel.DEFAULT_STACK_SIZE,
		DefaultPriority: kernel.DEFAULT_PRIORITY,
		AutoIo:          true,
		DumpLength:      DEFAULT_DUMP_LENGTH,
	}
}

// LoadConfig reads a JSON configuration file over the defaults.
func LoadConfig(path string) (cfg Config, err error) {
	cfg = DefaultConfig()

	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	decoder.DisallowUnknownFields()

	err = decoder.Decode(&cfg)
	if err != nil {
		err = &ErrConfig{Path: path, Err: err}
		return
	}

	err = cfg.Validate()
	if err != nil {
		err = &ErrConfig{Path: path, Err: err}
		return
	}

	return
}

// Validate checks the configuration ranges.
func (cfg Config) Validate() (err error) {
	var errs []error

	if cfg.TimeSlice < 1 {
		errs = append(errs, ErrTimeSlice)
	}
	if cfg.StackSize < 1 || cfg.StackSize > machine.HEAP_REGION.Size() {
		errs = append(errs, ErrStackSize)
	}
	if cfg.DumpLength < 0 || cfg.DumpLength > machine.USER_REGION.Size() {
		errs = append(errs, ErrDumpLength)
	}

	return errors.Join(errs...)
}
