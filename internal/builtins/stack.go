package builtins

import (
	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
)

func stackOps() []*heap.ModFunc {
	return []*heap.ModFunc{
		op("Dup", "(a -- a a)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Dup"); st != nil {
				return st
			}
			a := in.Pop()
			in.Push(a)
			in.Push(a)
			return nil
		}),
		op("Drop", "(a -- )", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Drop"); st != nil {
				return st
			}
			in.Pop()
			return nil
		}),
		op("Swap", "(a b -- b a)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 2, "Swap"); st != nil {
				return st
			}
			b, a := in.Pop(), in.Pop()
			in.Push(b)
			in.Push(a)
			return nil
		}),
		op("Over", "(a b -- a b a)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 2, "Over"); st != nil {
				return st
			}
			b, a := in.Pop(), in.Pop()
			in.Push(a)
			in.Push(b)
			in.Push(a)
			return nil
		}),
		op("Rot", "(a b c -- b c a)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 3, "Rot"); st != nil {
				return st
			}
			c, b, a := in.Pop(), in.Pop(), in.Pop()
			in.Push(b)
			in.Push(c)
			in.Push(a)
			return nil
		}),
		op("Depth", "( -- n) current stack depth", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			in.Push(heap.Int(in.Mem, int64(heap.ListLen(in.Stack))))
			return nil
		}),
		// Stack pushes a list snapshot of the whole stack, topmost item
		// first. The operand stack is a persistent cons spine (pushes
		// cons, pops step the head), so the snapshot safely shares it.
		op("Stack", "( -- list) snapshot of the stack, top first", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			in.Push(in.Stack)
			return nil
		}),
		op("Clear", "(... -- ) empty the stack", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			in.Stack = nil
			return nil
		}),
	}
}
