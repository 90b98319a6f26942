package builtins

import (
	"github.com/google/uuid"

	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
	"github.com/knotlang/knot/internal/strs"
)

func miscOps() []*heap.ModFunc {
	return []*heap.ModFunc{
		hashOp(),
		op("Uuid", "( -- string) random UUID", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			in.Push(strs.FromString(in.Mem, uuid.NewString()))
			return nil
		}),
		op("Gc", "( -- ) force a collection", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			in.GC()
			return nil
		}),
		op("Cells", "( -- int) live cell count", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			in.Push(heap.Int(in.Mem, in.Mem.CellsInUse()))
			return nil
		}),
		op("Fragmentation", "( -- float) allocated/live cell ratio", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			in.Push(heap.Float(in.Mem, in.Mem.Fragmentation()))
			return nil
		}),
	}
}
