// Package kernel is the HYPO operating system.
//
// Process control blocks are PCB_SIZE words in the OS region of the arena,
// allocated from an OS free list. Process stacks and mem_alloc blocks come
// from a user free list over the heap region.
//
// Ready processes are kept in priority order, highest first, with equal
// priorities served in arrival order. Processes blocked on I/O are pushed
// on the head of the Waiting queue until an interrupt completes their
// request.
package kernel
