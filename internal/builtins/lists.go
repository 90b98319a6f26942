package builtins

import (
	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
	"github.com/knotlang/knot/internal/strs"
)

func ensureList(in *machine.Interpreter, c *heap.Cell, name string) heap.Status {
	if !c.IsList() {
		return fail(in, "type error: %s needs a list, got %s", name, tagOf(c))
	}
	return nil
}

func listOps() []*heap.ModFunc {
	return []*heap.ModFunc{
		op("List", "( -- ()) push the empty list", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			in.Push(nil)
			return nil
		}),
		op("Cons", "(item list -- (item . list))", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 2, "Cons"); st != nil {
				return st
			}
			list, item := in.Pop(), in.Pop()
			if st := ensureList(in, list, "Cons"); st != nil {
				return st
			}
			in.Push(heap.Cons(in.Mem, item, list))
			return nil
		}),
		op("First", "(list -- head)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "First"); st != nil {
				return st
			}
			list := in.Pop()
			if st := ensureList(in, list, "First"); st != nil {
				return st
			}
			if list == nil {
				return fail(in, "First: empty list")
			}
			in.Push(list.Item)
			return nil
		}),
		op("Rest", "(list -- tail)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Rest"); st != nil {
				return st
			}
			list := in.Pop()
			if st := ensureList(in, list, "Rest"); st != nil {
				return st
			}
			if list == nil {
				return fail(in, "Rest: empty list")
			}
			in.Push(list.Next)
			return nil
		}),
		// Nth is zero-based and generic over lists and strings; a string
		// yields a one-byte string, matching the rope's byte-sequence view.
		op("Nth", "(seq n -- item)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 2, "Nth"); st != nil {
				return st
			}
			nc := in.Pop()
			seq := in.Pop()
			if tagOf(nc) != heap.TagInt {
				return fail(in, "type error: Nth needs an integer index, got %s", tagOf(nc))
			}
			n := int(nc.I)
			if n < 0 {
				return fail(in, "Nth: index %d out of range", nc.I)
			}
			if isString(seq) {
				b, ok := strs.NthByte(seq, n)
				if !ok {
					return fail(in, "Nth: index %d out of range", n)
				}
				in.Push(strs.Character(in.Mem, b))
				return nil
			}
			if st := ensureList(in, seq, "Nth"); st != nil {
				return st
			}
			for seq != nil && n > 0 {
				seq = seq.Next
				n--
			}
			if seq == nil {
				return fail(in, "Nth: index %d out of range", nc.I)
			}
			in.Push(seq.Item)
			return nil
		}),
		op("Length", "(seq -- n) list or string length", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Length"); st != nil {
				return st
			}
			seq := in.Pop()
			if isString(seq) {
				in.Push(heap.Int(in.Mem, int64(strs.Len(seq))))
				return nil
			}
			if st := ensureList(in, seq, "Length"); st != nil {
				return st
			}
			in.Push(heap.Int(in.Mem, int64(heap.ListLen(seq))))
			return nil
		}),
		op("Reverse", "(list -- list) fresh reversed copy", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Reverse"); st != nil {
				return st
			}
			list := in.Pop()
			if st := ensureList(in, list, "Reverse"); st != nil {
				return st
			}
			var out *heap.Cell
			for c := list; c != nil; c = c.Next {
				out = heap.Cons(in.Mem, c.Item, out)
			}
			in.Push(out)
			return nil
		}),
	}
}
