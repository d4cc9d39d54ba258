package cpu

import (
	"github.com/ezrec/hypo/machine"
)

// Stack is an upward growing stack in arena memory. The stack pointer
// addresses the top entry, and is outside of the region when the stack
// is empty.
type Stack struct {
	Region machine.Region
	mach   *machine.Machine
}

// Push writes value above the current top of stack.
func (s Stack) Push(value machine.Word) (err error) {
	if s.Full() {
		err = machine.ErrStackOverflow
		return
	}

	s.mach.Sp++
	s.mach.Memory[s.mach.Sp] = value
	return
}

// Pop removes the top of stack.
func (s Stack) Pop() (value machine.Word, err error) {
	value, ok := s.Peek()
	if !ok {
		err = machine.ErrStackUnderflow
		return
	}

	s.mach.Sp--
	return
}

// Empty is true if there is nothing to pop.
func (s Stack) Empty() bool {
	return !s.Region.Contains(s.mach.Sp.Address())
}

// Full is true if there is no room to push.
func (s Stack) Full() bool {
	return !s.Region.Contains(s.mach.Sp.Address() + 1)
}

// Peek returns the top of stack without removing it.
func (s Stack) Peek() (value machine.Word, ok bool) {
	if s.Empty() {
		return
	}

	return s.mach.Memory[s.mach.Sp], true
}
