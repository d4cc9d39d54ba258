package kernel

import (
	"iter"

	"github.com/ezrec/hypo/machine"
)

// Queue is a singly linked list of PCBs, threaded through the PCB_NEXT
// word of each PCB in the arena.
type Queue struct {
	Name string // Name used in log messages.

	mach *machine.Machine
	head machine.Address
}

// NewQueue creates an empty queue.
func NewQueue(name string, mach *machine.Machine) Queue {
	return Queue{
		Name: name,
		mach: mach,
		head: machine.END_OF_LIST,
	}
}

// Head returns the first PCB of the queue, or END_OF_LIST.
func (q *Queue) Head() machine.Address {
	return q.head
}

// Empty is true if the queue has no PCBs.
func (q *Queue) Empty() bool {
	return q.head == machine.END_OF_LIST
}

// Clear empties the queue without touching the arena.
func (q *Queue) Clear() {
	q.head = machine.END_OF_LIST
}

// next returns the link of a PCB, checking that it points to a valid PCB.
func (q *Queue) next(addr machine.Address) (next machine.Address, err error) {
	next = field(q.mach, addr, PCB_NEXT).Address()
	if next != machine.END_OF_LIST && !validPCB(next) {
		err = machine.ErrInvalidAddress
	}
	return
}

// PushHead places a PCB at the front of the queue.
func (q *Queue) PushHead(addr machine.Address) (err error) {
	if !validPCB(addr) {
		err = machine.ErrInvalidAddress
		return
	}

	setField(q.mach, addr, PCB_NEXT, q.head.Word())
	q.head = addr
	return
}

// Insert places a PCB in priority order: after every PCB with a priority
// greater than or equal to its own, and before the first with a lower one.
func (q *Queue) Insert(addr machine.Address) (err error) {
	if !validPCB(addr) {
		err = machine.ErrInvalidAddress
		return
	}

	priority := field(q.mach, addr, PCB_PRIORITY)

	prev := machine.END_OF_LIST
	current := q.head
	for current != machine.END_OF_LIST {
		if field(q.mach, current, PCB_PRIORITY) < priority {
			break
		}
		prev = current
		current, err = q.next(current)
		if err != nil {
			return
		}
	}

	setField(q.mach, addr, PCB_NEXT, current.Word())
	if prev == machine.END_OF_LIST {
		q.head = addr
	} else {
		setField(q.mach, prev, PCB_NEXT, addr.Word())
	}

	return
}

// Pop removes and returns the first PCB, or END_OF_LIST if the queue is empty.
func (q *Queue) Pop() (addr machine.Address, err error) {
	addr = q.head
	if addr == machine.END_OF_LIST {
		return
	}

	next, err := q.next(addr)
	if err != nil {
		addr = machine.END_OF_LIST
		return
	}

	q.head = next
	setField(q.mach, addr, PCB_NEXT, machine.END_OF_LIST.Word())
	return
}

// Remove unlinks the PCB with the given pid. It returns END_OF_LIST if no
// such PCB is queued.
func (q *Queue) Remove(pid machine.Word) (addr machine.Address, err error) {
	prev := machine.END_OF_LIST
	for current := q.head; current != machine.END_OF_LIST; {
		var next machine.Address
		next, err = q.next(current)
		if err != nil {
			addr = machine.END_OF_LIST
			return
		}

		if field(q.mach, current, PCB_PID) == pid {
			if prev == machine.END_OF_LIST {
				q.head = next
			} else {
				setField(q.mach, prev, PCB_NEXT, next.Word())
			}
			setField(q.mach, current, PCB_NEXT, machine.END_OF_LIST.Word())
			addr = current
			return
		}

		prev = current
		current = next
	}

	addr = machine.END_OF_LIST
	return
}

// All iterates over the queued PCBs, in queue order.
func (q *Queue) All() iter.Seq[PCB] {
	return func(yield func(pcb PCB) bool) {
		// The OS region can hold only so many PCBs; a longer walk is a cycle.
		limit := machine.OS_REGION.Size() / PCB_SIZE
		for current := q.head; current != machine.END_OF_LIST && limit > 0; limit-- {
			pcb, err := LoadPCB(q.mach, current)
			if err != nil {
				return
			}
			if !yield(pcb) {
				return
			}
			current = pcb.Next
		}
	}
}

// Len returns the number of queued PCBs.
func (q *Queue) Len() (count int) {
	for range q.All() {
		count++
	}
	return
}
