package builtins

import (
	"unicode/utf8"

	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
	"github.com/knotlang/knot/internal/strs"
)

// caseMap rewrites ASCII letters through f and passes every other byte
// through untouched, so multibyte sequences survive unharmed.
func caseMap(s string, f func(byte) byte) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = f(s[i])
	}
	return string(out)
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

func stringOps() []*heap.ModFunc {
	return []*heap.ModFunc{
		// Append is generic over the two sequence shapes: two strings
		// concatenate as ropes, two lists splice (the result shares the
		// right operand's spine).
		op("Append", "(a b -- ab) concatenate strings or lists", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 2, "Append"); st != nil {
				return st
			}
			b, a := in.Pop(), in.Pop()
			if isString(a) && isString(b) {
				in.Push(strs.Append(in.Mem, a, b))
				return nil
			}
			if a.IsList() && b.IsList() {
				items := heap.ListToSlice(a)
				out := b
				for i := len(items) - 1; i >= 0; i-- {
					out = heap.Cons(in.Mem, items[i], out)
				}
				in.Push(out)
				return nil
			}
			return fail(in, "type error: Append needs two strings or two lists, got %s and %s", tagOf(a), tagOf(b))
		}),
		op("Substring", "(s start end -- sub)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 3, "Substring"); st != nil {
				return st
			}
			endc, startc := in.Pop(), in.Pop()
			s := in.Pop()
			if !isString(s) {
				return fail(in, "type error: Substring needs a string, got %s", tagOf(s))
			}
			if tagOf(startc) != heap.TagInt || tagOf(endc) != heap.TagInt {
				return fail(in, "type error: Substring needs integer bounds")
			}
			in.Push(strs.Substring(in.Mem, s, int(startc.I), int(endc.I)))
			return nil
		}),
		// Ordinal and Character convert between a character (a string
		// holding one rune, multibyte allowed) and its code point.
		op("Ordinal", "(char -- int)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Ordinal"); st != nil {
				return st
			}
			s := in.Pop()
			if !isString(s) {
				return fail(in, "type error: Ordinal needs a string, got %s", tagOf(s))
			}
			text := strs.Text(s)
			if text == "" {
				return fail(in, "Ordinal: empty string")
			}
			r, _ := utf8.DecodeRuneInString(text)
			in.Push(heap.Int(in.Mem, int64(r)))
			return nil
		}),
		op("Character", "(int -- char)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Character"); st != nil {
				return st
			}
			c := in.Pop()
			if tagOf(c) != heap.TagInt {
				return fail(in, "type error: Character needs an integer, got %s", tagOf(c))
			}
			in.Push(strs.FromString(in.Mem, string(rune(c.I))))
			return nil
		}),
		op("Lowercase", "(s -- s) ASCII byte-wise lowercase", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Lowercase"); st != nil {
				return st
			}
			s := in.Pop()
			if !isString(s) {
				return fail(in, "type error: Lowercase needs a string, got %s", tagOf(s))
			}
			in.Push(strs.FromString(in.Mem, caseMap(strs.Text(s), lower)))
			return nil
		}),
		op("Uppercase", "(s -- s) ASCII byte-wise uppercase", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Uppercase"); st != nil {
				return st
			}
			s := in.Pop()
			if !isString(s) {
				return fail(in, "type error: Uppercase needs a string, got %s", tagOf(s))
			}
			in.Push(strs.FromString(in.Mem, caseMap(strs.Text(s), upper)))
			return nil
		}),
	}
}
