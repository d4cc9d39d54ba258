package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/hypo/machine"
)

func FuzzCpu(f *testing.F) {
	seeds := []int64{0, 11060, 53142, 60000, 81100, 106000, 111200, 126000, 129999, 130000, -1, 999999}
	for _, word := range seeds {
		f.Add(word, int64(3), false)
		f.Add(word, int64(-4000), true)
		f.Add(word, int64(4100), false)
	}

	f.Fuzz(func(t *testing.T, word int64, value int64, os bool) {
		assert := assert.New(t)

		mach := machine.NewMachine()
		mach.Psr = machine.PSR_USER
		if os {
			mach.Psr = machine.PSR_OS
		}
		for n := range mach.Gpr {
			mach.Gpr[n] = machine.Word(value + int64(n))
		}
		mach.Sp = machine.HEAP_BASE.Word() + 10
		mach.Memory[100] = machine.Word(word)
		mach.Memory[101] = machine.Word(value)
		mach.Memory[102] = machine.Word(value)
		mach.Memory[103] = machine.Word(value)
		mach.Pc = 100

		sv := &fakeSupervisor{exit: EXIT_RUNNING}
		cpu := NewCpu(mach, sv)

		exit, cost, err := cpu.Tick()
		if err != nil {
			_, ok := machine.FaultOf(err)
			assert.True(ok, "%v", err)
			assert.Equal(EXIT_RUNNING, exit)
			assert.Equal(0, cost)
			assert.Equal(machine.Word(0), mach.Clock)
			return
		}

		op, _, _, _, _, err := Code{Word: machine.Word(word)}.Decode()
		assert.NoError(err)
		assert.Equal(op.Cost(), cost)
		assert.Equal(machine.Word(cost), mach.Clock)

		switch op {
		case OP_HALT:
			assert.Equal(EXIT_HALT, exit)
		case OP_SYSCALL:
			assert.Len(sv.ids, 1)
		default:
			assert.Equal(EXIT_RUNNING, exit)
		}

		// Stack pointer stays inside, or just below, the heap.
		assert.True(mach.Sp >= machine.HEAP_BASE.Word()-1 && mach.Sp <= machine.HEAP_LIMIT.Word())
	})
}
