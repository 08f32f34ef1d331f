package main

import (
	"fmt"
	"io"

	"github.com/raymyers/stepc/pkg/memory"
)

// dumpMemory prints every segment with one line per cell. The string
// literal segment is summarized.
func dumpMemory(w io.Writer, mem memory.Inspector) {
	for _, seg := range mem.All() {
		state := ""
		if !seg.Alive() {
			state = " (released)"
		}
		fmt.Fprintf(w, "%s %s: %s%s\n", seg.Kind(), seg.Name(), seg.Type(), state)
		if seg.Kind() == memory.StringLiterals {
			fmt.Fprintf(w, "\t%d cells\n", seg.Len())
			continue
		}
		for i := 0; i < seg.Len(); i++ {
			fmt.Fprintf(w, "\t[%d] %s = %s\n", i, seg.CellType(i), seg.Cell(i))
		}
	}
	fmt.Fprintf(w, "heap blocks allocated: %d\n", mem.Allocations())
}
