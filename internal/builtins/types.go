package builtins

import (
	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
)

func predicate(name string, test func(c *heap.Cell) bool) *heap.ModFunc {
	return op(name, "type predicate", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
		if st := need(in, 1, name); st != nil {
			return st
		}
		in.Push(heap.Bool(in.Mem, test(in.Pop())))
		return nil
	})
}

func typeOps() []*heap.ModFunc {
	return []*heap.ModFunc{
		predicate("Integer?", func(c *heap.Cell) bool { return tagOf(c) == heap.TagInt }),
		predicate("Float?", func(c *heap.Cell) bool { return tagOf(c) == heap.TagFloat }),
		predicate("Number?", func(c *heap.Cell) bool {
			t := tagOf(c)
			return t == heap.TagInt || t == heap.TagFloat
		}),
		predicate("Boolean?", func(c *heap.Cell) bool { return tagOf(c) == heap.TagBool }),
		predicate("String?", isString),
		predicate("List?", func(c *heap.Cell) bool { return c.IsList() }),
		predicate("Symbol?", func(c *heap.Cell) bool { return tagOf(c) == heap.TagSymbol }),
		predicate("Identifier?", func(c *heap.Cell) bool { return tagOf(c) == heap.TagIdentifier }),
		predicate("Block?", func(c *heap.Cell) bool {
			t := tagOf(c)
			return t == heap.TagBlock || t == heap.TagClosure
		}),
		predicate("Continuation?", func(c *heap.Cell) bool { return tagOf(c) == heap.TagContinuation }),
		predicate("EOF?", func(c *heap.Cell) bool { return tagOf(c) == heap.TagEOF }),

		op("Box", "(v -- box) mutable one-slot cell", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Box"); st != nil {
				return st
			}
			in.Push(heap.Box(in.Mem, in.Pop()))
			return nil
		}),
		op("Unbox", "(box -- v)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Unbox"); st != nil {
				return st
			}
			b := in.Pop()
			if tagOf(b) != heap.TagBox {
				return fail(in, "type error: Unbox needs a box, got %s", tagOf(b))
			}
			in.Push(b.BoxGet())
			return nil
		}),
		op("Set!", "(v box -- ) replace a box's held value", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 2, "Set!"); st != nil {
				return st
			}
			b := in.Pop()
			v := in.Pop()
			if tagOf(b) != heap.TagBox {
				return fail(in, "type error: Set! needs a box, got %s", tagOf(b))
			}
			b.BoxSet(v)
			return nil
		}),
	}
}
