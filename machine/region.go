package machine

import (
	"fmt"
	"iter"
	"maps"
)

// Region bounds, inclusive.
const (
	USER_BASE  = Address(0)    // First user code/data word.
	USER_LIMIT = Address(3999) // Last user code/data word.
	HEAP_BASE  = Address(4000) // First user heap/stack word.
	HEAP_LIMIT = Address(6999) // Last user heap/stack word.
	OS_BASE    = Address(7000) // First OS word.
	OS_LIMIT   = Address(9999) // Last OS word.
)

// Region is an inclusive range of arena addresses.
type Region struct {
	Base  Address
	Limit Address
}

var (
	ARENA_REGION = Region{Base: 0, Limit: MEMORY_SIZE - 1}
	USER_REGION  = Region{Base: USER_BASE, Limit: USER_LIMIT}
	HEAP_REGION  = Region{Base: HEAP_BASE, Limit: HEAP_LIMIT}
	OS_REGION    = Region{Base: OS_BASE, Limit: OS_LIMIT}
)

var _machine_defines = map[string]string{
	"MEMORY_SIZE": fmt.Sprintf("%v", MEMORY_SIZE),
	"GPR_COUNT":   fmt.Sprintf("%v", GPR_COUNT),
	"USER_BASE":   fmt.Sprintf("%v", USER_BASE),
	"USER_LIMIT":  fmt.Sprintf("%v", USER_LIMIT),
	"HEAP_BASE":   fmt.Sprintf("%v", HEAP_BASE),
	"HEAP_LIMIT":  fmt.Sprintf("%v", HEAP_LIMIT),
	"OS_BASE":     fmt.Sprintf("%v", OS_BASE),
	"OS_LIMIT":    fmt.Sprintf("%v", OS_LIMIT),
}

// Defines for the memory layout.
func Defines() iter.Seq2[string, string] {
	return maps.All(_machine_defines)
}

// Contains reports whether addr lies in the region.
func (r Region) Contains(addr Address) bool {
	return addr >= r.Base && addr <= r.Limit
}

// ContainsExtent reports whether all of [addr, addr+size) lies in the region.
func (r Region) ContainsExtent(addr Address, size int) bool {
	if size < 0 || !r.Contains(addr) {
		return false
	}
	if size == 0 {
		return true
	}
	return addr+Address(size)-1 <= r.Limit
}

// Size of the region in words.
func (r Region) Size() int {
	return int(r.Limit-r.Base) + 1
}

func (r Region) String() string {
	return fmt.Sprintf("[%d, %d]", r.Base, r.Limit)
}
