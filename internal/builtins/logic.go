package builtins

import (
	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
)

func popBool(in *machine.Interpreter, name string) (bool, heap.Status) {
	c := in.Pop()
	if tagOf(c) != heap.TagBool {
		return false, fail(in, "type error: %s needs a boolean, got %s", name, tagOf(c))
	}
	return c.B, nil
}

func binBool(name string, f func(a, b bool) bool) *heap.ModFunc {
	return op(name, "boolean binary operator", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
		if st := need(in, 2, name); st != nil {
			return st
		}
		b, st := popBool(in, name)
		if st != nil {
			return st
		}
		a, st := popBool(in, name)
		if st != nil {
			return st
		}
		in.Push(heap.Bool(in.Mem, f(a, b)))
		return nil
	})
}

func logicOps() []*heap.ModFunc {
	return []*heap.ModFunc{
		binBool("And", func(a, b bool) bool { return a && b }),
		binBool("Or", func(a, b bool) bool { return a || b }),
		binBool("Xor", func(a, b bool) bool { return a != b }),
		op("Not", "(bool -- bool)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Not"); st != nil {
				return st
			}
			a, st := popBool(in, "Not")
			if st != nil {
				return st
			}
			in.Push(heap.Bool(in.Mem, !a))
			return nil
		}),
	}
}
