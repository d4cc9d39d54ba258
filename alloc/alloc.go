// Package alloc implements the first-fit free-list allocator that carves
// variable sized blocks out of a region of the machine arena.
//
// Free blocks are kept in the arena itself. The first word of a free block
// holds the address of the next free block, or machine.END_OF_LIST, and the
// second word holds the size of the block. Freed blocks are pushed on the
// head of the list and are never coalesced.
package alloc

import (
	"iter"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/hypo/machine"
)

const (
	MIN_BLOCK_SIZE = 2 // Smallest block that can carry the free list header.
)

// Memory is the arena access the allocator needs.
type Memory interface {
	Load(addr machine.Address) (machine.Word, error)
	Store(addr machine.Address, value machine.Word) error
}

// FreeList is an allocator for a single arena region.
type FreeList struct {
	Verbose bool   // Set to enable verbose logging.
	Name    string // Name used in log messages.

	Region machine.Region // Region managed by this list.

	mem  Memory
	head machine.Address
}

// NewFreeList creates an allocator whose free list is the whole region.
func NewFreeList(name string, mem Memory, region machine.Region) (fl *FreeList, err error) {
	fl = &FreeList{
		Name:   name,
		Region: region,
		mem:    mem,
		head:   machine.END_OF_LIST,
	}

	err = fl.Reset()
	return
}

// Reset returns the entire region to the free list as one block.
func (fl *FreeList) Reset() (err error) {
	fl.head = machine.END_OF_LIST

	size := fl.Region.Size()
	if size < MIN_BLOCK_SIZE {
		return
	}

	err = fl.writeBlock(fl.Region.Base, machine.END_OF_LIST, size)
	if err != nil {
		return
	}

	fl.head = fl.Region.Base
	return
}

// Head returns the address of the first free block.
func (fl *FreeList) Head() machine.Address {
	return fl.head
}

func (fl *FreeList) logger() *log.Entry {
	return log.WithField("list", fl.Name)
}

// readBlock returns the header of a free block.
func (fl *FreeList) readBlock(addr machine.Address) (next machine.Address, size int, err error) {
	word, err := fl.mem.Load(addr)
	if err != nil {
		return
	}
	next = word.Address()

	word, err = fl.mem.Load(addr + 1)
	if err != nil {
		return
	}
	size = int(word)
	return
}

// writeBlock writes the header of a free block.
func (fl *FreeList) writeBlock(addr machine.Address, next machine.Address, size int) (err error) {
	err = fl.mem.Store(addr, next.Word())
	if err != nil {
		return
	}

	err = fl.mem.Store(addr+1, machine.Word(size))
	return
}

// setNext updates the link that points at a block. A prev of END_OF_LIST
// is the list head.
func (fl *FreeList) setNext(prev machine.Address, next machine.Address) (err error) {
	if prev == machine.END_OF_LIST {
		fl.head = next
		return
	}

	return fl.mem.Store(prev, next.Word())
}

// checkBlock verifies a free block header read from the arena.
func (fl *FreeList) checkBlock(addr machine.Address, next machine.Address, size int) (err error) {
	if size < MIN_BLOCK_SIZE || !fl.Region.ContainsExtent(addr, size) {
		err = machine.ErrInvalidAddress
		return
	}
	if next != machine.END_OF_LIST && !fl.Region.Contains(next) {
		err = machine.ErrInvalidAddress
		return
	}
	return
}

// Allocate takes the first free block that can hold size words.
func (fl *FreeList) Allocate(size int) (addr machine.Address, err error) {
	addr, _, err = fl.AllocateBlock(size)
	return
}

// AllocateBlock takes the first free block that can hold size words, and
// returns the number of words granted. Free the block with that count.
//
// An exact fit is unlinked whole. A larger block is split: the low part is
// returned and the remainder takes the block's place in the list. A block
// that would leave a single word behind is granted whole.
//
// A corrupt block header stops the walk with ErrInvalidAddress, and the
// list is left as it was.
func (fl *FreeList) AllocateBlock(size int) (addr machine.Address, granted int, err error) {
	if size < 1 {
		err = machine.ErrInvalidMemorySize
		return
	}
	if size < MIN_BLOCK_SIZE {
		size = MIN_BLOCK_SIZE
	}

	prev := machine.END_OF_LIST
	limit := fl.Region.Size() / MIN_BLOCK_SIZE
	for current := fl.head; current != machine.END_OF_LIST; limit-- {
		if limit == 0 {
			fl.logger().Warnf("allocate: free list cycle at %d", current)
			err = machine.ErrInvalidAddress
			return
		}

		var next machine.Address
		var blockSize int
		next, blockSize, err = fl.readBlock(current)
		if err == nil {
			err = fl.checkBlock(current, next, blockSize)
		}
		if err != nil {
			fl.logger().Warnf("allocate: bad block at %d: %v", current, err)
			return
		}

		switch {
		case blockSize == size, blockSize == size+1:
			granted = blockSize
			err = fl.setNext(prev, next)
		case blockSize > size:
			granted = size
			remainder := current + machine.Address(size)
			err = fl.writeBlock(remainder, next, blockSize-size)
			if err == nil {
				err = fl.setNext(prev, remainder)
			}
		default:
			prev = current
			current = next
			continue
		}
		if err != nil {
			granted = 0
			return
		}

		// Allocated blocks are not linked anywhere.
		err = fl.mem.Store(current, machine.END_OF_LIST.Word())
		if err != nil {
			granted = 0
			return
		}

		if fl.Verbose {
			fl.logger().Debugf("allocate %d words at %d", granted, current)
		}

		addr = current
		return
	}

	if fl.Verbose {
		fl.logger().Debugf("allocate %d words: no free memory", size)
	}

	err = machine.ErrNoFreeMemory
	return
}

// Free returns the extent [addr, addr+size) to the head of the list.
func (fl *FreeList) Free(addr machine.Address, size int) (err error) {
	if size < 1 {
		err = machine.ErrInvalidMemorySize
		return
	}
	if size < MIN_BLOCK_SIZE {
		size = MIN_BLOCK_SIZE
	}

	if !fl.Region.ContainsExtent(addr, size) {
		err = machine.ErrInvalidAddress
		return
	}

	err = fl.writeBlock(addr, fl.head, size)
	if err != nil {
		return
	}

	fl.head = addr

	if fl.Verbose {
		fl.logger().Debugf("free %d words at %d", size, addr)
	}

	return
}

// Blocks iterates over the free list, yielding each block's address and size.
func (fl *FreeList) Blocks() iter.Seq2[machine.Address, int] {
	return func(yield func(addr machine.Address, size int) bool) {
		// A list can never hold more blocks than the region has pairs of
		// words, so a longer walk means the list has a cycle.
		limit := fl.Region.Size() / MIN_BLOCK_SIZE
		for current := fl.head; current != machine.END_OF_LIST && limit > 0; limit-- {
			next, size, err := fl.readBlock(current)
			if err == nil {
				err = fl.checkBlock(current, next, size)
			}
			if err != nil {
				return
			}
			if !yield(current, size) {
				return
			}
			current = next
		}
	}
}

// Available returns the total number of free words.
func (fl *FreeList) Available() (total int) {
	for _, size := range fl.Blocks() {
		total += size
	}
	return
}
