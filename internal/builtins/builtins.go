// Package builtins provides the standard operator catalog: arithmetic,
// comparison, logic, stack shuffles, list and string operators, control
// combinators, and the stream-facing I/O words. Every operator consults
// and mutates only the work stack and the environment through the
// machine's public surface.
package builtins

import (
	"fmt"

	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
	"github.com/knotlang/knot/internal/registry"
)

// op wraps a typed builtin body as a ModFunc, hiding the Machine →
// Interpreter downcast every operator would otherwise repeat.
func op(name, doc string, fn func(in *machine.Interpreter, cookie *heap.Cell) heap.Status) *heap.ModFunc {
	return &heap.ModFunc{
		Name: name,
		Doc:  doc,
		Fn: func(m heap.Machine, cookie *heap.Cell) heap.Status {
			return fn(m.(*machine.Interpreter), cookie)
		},
	}
}

// fail pushes a diagnostic string and returns the Error status, the
// error-signalling convention every operator uses.
func fail(in *machine.Interpreter, format string, args ...any) heap.Status {
	in.Push(heap.NewString(in.Mem, fmt.Sprintf(format, args...)))
	return in.St.Error
}

// need enforces the operator's arity before it starts popping: nil means
// the stack is deep enough, otherwise the returned status is the arity
// error already raised.
func need(in *machine.Interpreter, n int, name string) heap.Status {
	if heap.ListLen(in.Stack) < n {
		return fail(in, "arity error: %s needs %d item(s) on the stack", name, n)
	}
	return nil
}

func tagOf(c *heap.Cell) heap.Tag {
	if c == nil {
		return heap.TagList
	}
	return c.Tag
}

func isString(c *heap.Cell) bool { return c != nil && c.Tag == heap.TagStringChunk }

// Module assembles the whole catalog in one registration unit.
func Module() *registry.Module {
	var funcs []*heap.ModFunc
	funcs = append(funcs, mathOps()...)
	funcs = append(funcs, logicOps()...)
	funcs = append(funcs, stackOps()...)
	funcs = append(funcs, listOps()...)
	funcs = append(funcs, stringOps()...)
	funcs = append(funcs, controlOps()...)
	funcs = append(funcs, ioOps()...)
	funcs = append(funcs, typeOps()...)
	funcs = append(funcs, yamlOps()...)
	funcs = append(funcs, miscOps()...)
	return &registry.Module{
		Name:  "builtins",
		Funcs: funcs,
	}
}
