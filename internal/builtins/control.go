package builtins

import (
	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
)

// runValue schedules v's execution in front of the pending queue. A bare
// Block (one that never got EXECed into a closure, e.g. pulled out of a
// parsed structure) is captured against the live scopes first; anything
// else — closure, builtin, continuation, plain literal — goes through its
// own EXEC method.
func runValue(in *machine.Interpreter, v *heap.Cell, cookie *heap.Cell) {
	if v != nil && v.Tag == heap.TagBlock {
		in.ExecBlock(v, true)
		return
	}
	in.RunNextFront(v, nil, cookie)
}

// whileStep re-examines the condition's result and, while it holds,
// schedules body, condition, and itself again. Assigned in init to allow
// the self-reference.
var whileStep *heap.ModFunc

func init() {
	whileStep = &heap.ModFunc{
		Name: "[[WhileStep]]",
		Doc:  "loop internal: consumes the condition flag, reschedules the body",
		Fn: func(m heap.Machine, cookie *heap.Cell) heap.Status {
			in := m.(*machine.Interpreter)
			flag, ok := in.PopChecked()
			if !ok || tagOf(flag) != heap.TagBool {
				return fail(in, "type error: While condition must leave a boolean")
			}
			if !flag.B {
				return nil
			}
			cond, body := cookie.Item, cookie.Next.Item
			// Front-load, in reverse, so the queue reads body, cond, step.
			in.RunNextFront(heap.Builtin(in.Mem, whileStep), nil, cookie)
			runValue(in, cond, nil)
			runValue(in, body, nil)
			return nil
		},
	}
}

func controlOps() []*heap.ModFunc {
	return []*heap.ModFunc{
		op("Do", "(q -- ...) run a quotation", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Do"); st != nil {
				return st
			}
			runValue(in, in.Pop(), nil)
			return nil
		}),
		op("If", "(cond then else -- ...) run then or else", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 3, "If"); st != nil {
				return st
			}
			elseQ, thenQ := in.Pop(), in.Pop()
			cond := in.Pop()
			if tagOf(cond) != heap.TagBool {
				return fail(in, "type error: If needs a boolean condition, got %s", tagOf(cond))
			}
			if cond.B {
				runValue(in, thenQ, nil)
			} else {
				runValue(in, elseQ, nil)
			}
			return nil
		}),
		op("While", "(cond body -- ...) run body while cond leaves True", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 2, "While"); st != nil {
				return st
			}
			body, cond := in.Pop(), in.Pop()
			// Capture bare blocks once, so each iteration reuses the
			// same closure instead of re-binding per pass.
			if tagOf(cond) == heap.TagBlock {
				cond = heap.Closure(in.Mem, cond, in.Scopes.Snapshot())
			}
			if tagOf(body) == heap.TagBlock {
				body = heap.Closure(in.Mem, body, in.Scopes.Snapshot())
			}
			pair := heap.Cons(in.Mem, cond, heap.Cons(in.Mem, body, nil))
			in.RunNextFront(heap.Builtin(in.Mem, whileStep), nil, pair)
			runValue(in, cond, nil)
			return nil
		}),
		op("Call/cc", "(q -- ...) call q with the current continuation", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Call/cc"); st != nil {
				return st
			}
			body := in.Pop()
			switch tagOf(body) {
			case heap.TagBlock, heap.TagClosure:
				in.CallCC(body)
				return nil
			}
			return fail(in, "type error: Call/cc needs a quotation, got %s", tagOf(body))
		}),
		op("Resume", "(arg k -- ...) invoke a continuation with arg", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 2, "Resume"); st != nil {
				return st
			}
			k := in.Pop()
			arg := in.Pop()
			if tagOf(k) != heap.TagContinuation {
				return fail(in, "type error: Resume needs a continuation, got %s", tagOf(k))
			}
			in.RunNextFront(k, nil, arg)
			return nil
		}),
		op("Fail", "(msg -- ) raise an error with msg as the diagnostic", func(in *machine.Interpreter, _ *heap.Cell) heap.Status {
			if st := need(in, 1, "Fail"); st != nil {
				return st
			}
			return in.St.Error
		}),
	}
}
