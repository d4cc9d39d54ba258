// Package cpu implements the execution engine and assembler for the HYPO machine.
//
// The engine fetches 6-digit decimal instruction words from user memory,
// resolves up to two operands through six addressing modes (register,
// deferred, autoincrement, autodecrement, direct and immediate), and runs a
// process until it halts, faults, blocks in a system call, or uses up its
// time slice. System calls are handed to a Supervisor.
//
// The assembler accepts HYPO assembly with labels, equates, '.org', '.word'
// and compile-time $(...) expressions, and produces a Program that can be
// written in, or read from, the 'address value' program file format.
package cpu
