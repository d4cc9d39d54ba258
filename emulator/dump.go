package emulator

import (
	"fmt"
	"io"
	"strings"

	"github.com/ezrec/hypo/machine"
)

const DUMP_ROW = 10 // Words per dump row.

// WriteDump prints a dump as tab separated tables: the registers, then the
// memory window in rows of DUMP_ROW words, then the clock and PSR.
// Rows start on a multiple of DUMP_ROW; cells outside the window are blank.
func WriteDump(w io.Writer, dump machine.Dump) (err error) {
	var sb strings.Builder

	regs := &dump.Registers

	fmt.Fprintf(&sb, "%s\n", dump.Label)

	for n := range machine.GPR_COUNT {
		fmt.Fprintf(&sb, "\tG%d", n)
	}
	fmt.Fprintf(&sb, "\tSP\tPC\n")

	for _, value := range regs.Gpr {
		fmt.Fprintf(&sb, "\t%d", value)
	}
	fmt.Fprintf(&sb, "\t%d\t%d\n", regs.Sp, regs.Pc)

	if len(dump.Words) != 0 {
		fmt.Fprintf(&sb, "Address")
		for n := range DUMP_ROW {
			fmt.Fprintf(&sb, "\t+%d", n)
		}
		fmt.Fprintf(&sb, "\n")

		end := dump.Start + machine.Address(len(dump.Words))
		for row := (dump.Start / DUMP_ROW) * DUMP_ROW; row < end; row += DUMP_ROW {
			fmt.Fprintf(&sb, "%d", row)
			for addr := row; addr < row+DUMP_ROW; addr++ {
				if addr < dump.Start || addr >= end {
					fmt.Fprintf(&sb, "\t")
				} else {
					fmt.Fprintf(&sb, "\t%d", dump.Words[addr-dump.Start])
				}
			}
			fmt.Fprintf(&sb, "\n")
		}
	}

	fmt.Fprintf(&sb, "Clock\t%d\n", regs.Clock)
	fmt.Fprintf(&sb, "PSR\t%d\n", regs.Psr)

	_, err = io.WriteString(w, sb.String())
	return
}
