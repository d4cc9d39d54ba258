// Package machine models the hardware of the HYPO decimal machine: one flat
// arena of signed words and the register file that the execution engine and
// the operating system share.
//
// The arena is split by convention into three regions. User programs and
// their data live in [0, 3999], user heap blocks and process stacks in
// [4000, 6999], and operating system control blocks in [7000, 9999]. While
// the processor status register is in user mode only the user region is
// addressable by instructions.
//
// Machine level failures are reported as Fault values. A Fault is an error
// that also carries the negative status code a HYPO program observes.
package machine
