package builtins

import (
	"math"

	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
)

// number unwraps an Integer or Float cell; ok is false for anything
// else.
func number(c *heap.Cell) (f float64, isInt bool, i int64, ok bool) {
	switch tagOf(c) {
	case heap.TagInt:
		return float64(c.I), true, c.I, true
	case heap.TagFloat:
		return c.F, false, 0, true
	}
	return 0, false, 0, false
}

// binNum pops two numbers (b above a) and pushes intOp(a,b) when both are
// integers, floatOp(a,b) otherwise. A nil intOp forces the float path.
func binNum(name string, intOp func(a, b int64) (int64, bool), floatOp func(a, b float64) float64) *heap.ModFunc {
	return op(name, "numeric binary operator", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
		if st := need(in, 2, name); st != nil {
			return st
		}
		bc, ac := in.Pop(), in.Pop()
		bf, bInt, bi, bok := number(bc)
		af, aInt, ai, aok := number(ac)
		if !aok || !bok {
			return fail(in, "type error: %s needs numbers, got %s and %s", name, tagOf(ac), tagOf(bc))
		}
		if aInt && bInt && intOp != nil {
			r, ok := intOp(ai, bi)
			if !ok {
				return fail(in, "%s: division by zero", name)
			}
			in.Push(heap.Int(in.Mem, r))
			return nil
		}
		in.Push(heap.Float(in.Mem, floatOp(af, bf)))
		return nil
	})
}

// unFloat pops one number and pushes f(x) as a Float.
func unFloat(name string, f func(float64) float64) *heap.ModFunc {
	return op(name, "numeric unary operator", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
		if st := need(in, 1, name); st != nil {
			return st
		}
		c := in.Pop()
		x, _, _, ok := number(c)
		if !ok {
			return fail(in, "type error: %s needs a number, got %s", name, tagOf(c))
		}
		in.Push(heap.Float(in.Mem, f(x)))
		return nil
	})
}

// unToInt pops one number and pushes f(x) truncated to an Integer.
func unToInt(name string, f func(float64) float64) *heap.ModFunc {
	return op(name, "numeric rounding operator", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
		if st := need(in, 1, name); st != nil {
			return st
		}
		c := in.Pop()
		if tagOf(c) == heap.TagInt {
			in.Push(c)
			return nil
		}
		x, _, _, ok := number(c)
		if !ok {
			return fail(in, "type error: %s needs a number, got %s", name, tagOf(c))
		}
		in.Push(heap.Int(in.Mem, int64(f(x))))
		return nil
	})
}

// compare pops two values (b above a) and pushes the boolean pred(cmp)
// where cmp is the three-way ordering of a against b. Numbers order
// numerically (across int/float), strings byte-wise.
func compare(name string, pred func(cmp int) bool) *heap.ModFunc {
	return op(name, "ordering comparison", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
		if st := need(in, 2, name); st != nil {
			return st
		}
		bc, ac := in.Pop(), in.Pop()
		cmp, ok := orderCells(ac, bc)
		if !ok {
			return fail(in, "type error: %s can't order %s against %s", name, tagOf(ac), tagOf(bc))
		}
		in.Push(heap.Bool(in.Mem, pred(cmp)))
		return nil
	})
}

func orderCells(a, b *heap.Cell) (int, bool) {
	af, _, _, aNum := number(a)
	bf, _, _, bNum := number(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	if isString(a) && isString(b) {
		return cmpStrings(a, b), true
	}
	return 0, false
}

func cmpStrings(a, b *heap.Cell) int {
	sa, sb := heap.StringText(a), heap.StringText(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

// equalCells is the structural equality behind `=`: numbers compare
// numerically, strings byte-wise, identifiers case-insensitively, lists
// recursively, everything else by cell identity.
func equalCells(a, b *heap.Cell) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false // one empty list against anything non-empty
	}
	ta, tb := tagOf(a), tagOf(b)
	if cmp, ok := orderCells(a, b); ok {
		return cmp == 0
	}
	if ta != tb {
		return false
	}
	switch ta {
	case heap.TagBool:
		return a.B == b.B
	case heap.TagIdentifier:
		return heap.SameIdentifier(a, b)
	case heap.TagSymbol:
		return heap.SameIdentifier(a.Next, b.Next)
	case heap.TagList:
		return equalCells(a.Item, b.Item) && equalCells(a.Next, b.Next)
	}
	return false
}

func mathOps() []*heap.ModFunc {
	return []*heap.ModFunc{
		binNum("+", func(a, b int64) (int64, bool) { return a + b, true }, func(a, b float64) float64 { return a + b }),
		binNum("-", func(a, b int64) (int64, bool) { return a - b, true }, func(a, b float64) float64 { return a - b }),
		binNum("*", func(a, b int64) (int64, bool) { return a * b, true }, func(a, b float64) float64 { return a * b }),
		binNum("/", func(a, b int64) (int64, bool) {
			if b == 0 {
				return 0, false
			}
			return a / b, true
		}, func(a, b float64) float64 { return a / b }),
		binNum("Mod", func(a, b int64) (int64, bool) {
			if b == 0 {
				return 0, false
			}
			return a % b, true
		}, math.Mod),
		binNum("Min", func(a, b int64) (int64, bool) {
			if b < a {
				return b, true
			}
			return a, true
		}, math.Min),
		binNum("Max", func(a, b int64) (int64, bool) {
			if b > a {
				return b, true
			}
			return a, true
		}, math.Max),
		binNum("Pow", nil, math.Pow),
		binNum("Atan2", nil, math.Atan2),

		op("Neg", "(n -- -n)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Neg"); st != nil {
				return st
			}
			c := in.Pop()
			switch tagOf(c) {
			case heap.TagInt:
				in.Push(heap.Int(in.Mem, -c.I))
			case heap.TagFloat:
				in.Push(heap.Float(in.Mem, -c.F))
			default:
				return fail(in, "type error: Neg needs a number, got %s", tagOf(c))
			}
			return nil
		}),
		op("Abs", "(n -- |n|)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Abs"); st != nil {
				return st
			}
			c := in.Pop()
			switch tagOf(c) {
			case heap.TagInt:
				v := c.I
				if v < 0 {
					v = -v
				}
				in.Push(heap.Int(in.Mem, v))
			case heap.TagFloat:
				in.Push(heap.Float(in.Mem, math.Abs(c.F)))
			default:
				return fail(in, "type error: Abs needs a number, got %s", tagOf(c))
			}
			return nil
		}),

		unFloat("Sqrt", math.Sqrt),
		unFloat("Exp", math.Exp),
		unFloat("Ln", math.Log),
		unFloat("Log", math.Log10),
		unFloat("Sin", math.Sin),
		unFloat("Cos", math.Cos),
		unFloat("Tan", math.Tan),
		unFloat("Asin", math.Asin),
		unFloat("Acos", math.Acos),
		unFloat("Atan", math.Atan),

		unToInt("Floor", math.Floor),
		unToInt("Ceiling", math.Ceil),
		unToInt("Round", math.Round),

		op("=", "(a b -- bool) structural equality", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 2, "="); st != nil {
				return st
			}
			b, a := in.Pop(), in.Pop()
			in.Push(heap.Bool(in.Mem, equalCells(a, b)))
			return nil
		}),
		op("<>", "(a b -- bool) structural inequality", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 2, "<>"); st != nil {
				return st
			}
			b, a := in.Pop(), in.Pop()
			in.Push(heap.Bool(in.Mem, !equalCells(a, b)))
			return nil
		}),
		compare("<", func(c int) bool { return c < 0 }),
		compare(">", func(c int) bool { return c > 0 }),
		compare("<=", func(c int) bool { return c <= 0 }),
		compare(">=", func(c int) bool { return c >= 0 }),
	}
}
