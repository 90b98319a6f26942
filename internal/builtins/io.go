package builtins

import (
	"strings"

	"github.com/knotlang/knot/internal/dump"
	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
	"github.com/knotlang/knot/internal/strs"
)

// text renders v for output: strings write their raw bytes, everything
// else goes through the non-readable dump.
func text(in *machine.Interpreter, v *heap.Cell) string {
	if isString(v) {
		return strs.Text(v)
	}
	return dump.Show(in, v, false)
}

// isStreamy gates the operators that dispatch STREAM methods: handing a
// non-stream to strict dispatch would abort the process, and a bad
// operand from a script deserves a type error instead.
func isStreamy(c *heap.Cell) bool {
	t := tagOf(c)
	return t == heap.TagIOString || t == heap.TagStream
}

func ioOps() []*heap.ModFunc {
	return []*heap.ModFunc{
		op("Print", "(v -- ) write v to stdout, non-readably", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Print"); st != nil {
				return st
			}
			in.PutString(in.Stdout, text(in, in.Pop()))
			return nil
		}),
		op("Show", "(v -- string) render v readably", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Show"); st != nil {
				return st
			}
			in.Push(strs.FromString(in.Mem, dump.Show(in, in.Pop(), true)))
			return nil
		}),
		op("Newline", "( -- ) write a newline to stdout", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			in.PutString(in.Stdout, "\n")
			return nil
		}),
		op("Write", "(v stream -- ) write v to a stream", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 2, "Write"); st != nil {
				return st
			}
			stream := in.Pop()
			v := in.Pop()
			if !isStreamy(stream) {
				return fail(in, "type error: Write needs a stream, got %s", tagOf(stream))
			}
			in.PutString(stream, text(in, v))
			return nil
		}),
		op("ReadChar", "(stream -- char-or-EOF)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "ReadChar"); st != nil {
				return st
			}
			stream := in.Pop()
			if !isStreamy(stream) {
				return fail(in, "type error: ReadChar needs a stream, got %s", tagOf(stream))
			}
			b, ok := in.GetChar(stream)
			if !ok {
				in.Push(heap.EOF(in.Mem))
				return nil
			}
			in.Push(strs.Character(in.Mem, b))
			return nil
		}),
		op("ReadLine", "(stream -- string-or-EOF) read up to a newline", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "ReadLine"); st != nil {
				return st
			}
			stream := in.Pop()
			if !isStreamy(stream) {
				return fail(in, "type error: ReadLine needs a stream, got %s", tagOf(stream))
			}
			var sb strings.Builder
			read := false
			for {
				b, ok := in.GetChar(stream)
				if !ok {
					if !read {
						in.Push(heap.EOF(in.Mem))
						return nil
					}
					break
				}
				read = true
				if b == '\n' {
					break
				}
				sb.WriteByte(b)
			}
			in.Push(strs.FromString(in.Mem, sb.String()))
			return nil
		}),
		op("Format", "(args fmt -- string) printf-style formatting, %O dumps", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 2, "Format"); st != nil {
				return st
			}
			fmtCell := in.Pop()
			args := in.Pop()
			if !isString(fmtCell) {
				return fail(in, "type error: Format needs a format string, got %s", tagOf(fmtCell))
			}
			if !args.IsList() {
				return fail(in, "type error: Format needs an argument list, got %s", tagOf(args))
			}
			out := dump.Printf(in, strs.Text(fmtCell), heap.ListToSlice(args))
			in.Push(strs.FromString(in.Mem, out))
			return nil
		}),
		op("Stdout", "( -- stream)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			in.Push(in.Stdout)
			return nil
		}),
		op("Stderr", "( -- stream)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			in.Push(in.Stderr)
			return nil
		}),
		op("Stdin", "( -- stream)", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			in.Push(in.Stdin)
			return nil
		}),
	}
}
