package builtins

import (
	"hash/fnv"
	"math"
	"strings"

	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
	"github.com/knotlang/knot/internal/registry"
)

// HashValue computes the deterministic hash behind the HASH method and
// the Hash operator. Floats are hashed through their bit pattern with
// negative zero folded onto positive zero first, so hash(-0.0) equals
// hash(+0.0). Identifier hashing folds case to match identifier equality.
func HashValue(c *heap.Cell) int64 {
	switch tagOf(c) {
	case heap.TagInt:
		return c.I
	case heap.TagFloat:
		f := c.F
		if f == 0 {
			f = 0 // collapses -0.0
		}
		return int64(math.Float64bits(f))
	case heap.TagBool:
		if c.B {
			return 1
		}
		return 0
	case heap.TagStringChunk:
		return hashString(heap.StringText(c))
	case heap.TagIdentifier:
		return hashString(strings.ToLower(heap.IdentifierText(c)))
	case heap.TagSymbol:
		return HashValue(c.Next) ^ 0x5b
	case heap.TagList:
		var h int64 = 17
		for ; c != nil; c = c.Next {
			h = h*31 + HashValue(c.Item)
		}
		return h
	}
	return 0
}

func hashString(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}

func hashMethod(m heap.Machine) heap.Status {
	self := m.Pop()
	m.Push(heap.Int(m.Heap(), HashValue(self)))
	return nil
}

// HashModule implements the HASH well-known method for every hashable
// core variant; dispatch finds it after the core EXEC module.
func HashModule() *registry.Module {
	meth := func(tag heap.Tag) *registry.Method {
		return &registry.Method{Tag: tag, Kind: registry.HASH, Fn: hashMethod}
	}
	return &registry.Module{
		Name: "builtins/hash",
		Methods: []*registry.Method{
			meth(heap.TagList), meth(heap.TagInt), meth(heap.TagFloat),
			meth(heap.TagBool), meth(heap.TagStringChunk),
			meth(heap.TagIdentifier), meth(heap.TagSymbol),
		},
	}
}

func hashOp() *heap.ModFunc {
	return op("Hash", "(v -- int) deterministic hash", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
		if st := need(in, 1, "Hash"); st != nil {
			return st
		}
		v := in.Pop()
		res := in.RunWellKnown(v, registry.HASH)
		if res == in.St.NotImpl {
			return fail(in, "type error: Hash not defined for %s", tagOf(v))
		}
		return res
	})
}
