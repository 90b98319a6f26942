// Package pipeline assembles a complete interpreter — heap, registry with
// every module registered, pre-bound standard streams — and drives source
// text through parse and the mainloop.
package pipeline

import (
	_ "embed"
	"os"

	"github.com/knotlang/knot/internal/builtins"
	"github.com/knotlang/knot/internal/database"
	"github.com/knotlang/knot/internal/dump"
	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
	"github.com/knotlang/knot/internal/parser"
	"github.com/knotlang/knot/internal/registry"
	"github.com/knotlang/knot/internal/streams"
	"github.com/knotlang/knot/internal/strs"
)

//go:embed prelude.knot
var prelude string

// New builds an interpreter with the standard registry: core EXEC
// methods, IO-string and file/websocket streams, the operator catalog,
// hashing, and the SQL operators, registered in that scan order. The
// standard streams are bound to the process's descriptors; callers (and
// tests) may rebind them to any STREAM-capable cell.
func New() *machine.Interpreter {
	reg := registry.New()
	reg.Add(machine.CoreModule())
	reg.Add(strs.Module())
	reg.Add(streams.FileModule())
	reg.Add(streams.WebsocketModule())
	reg.Add(builtins.Module())
	reg.Add(builtins.HashModule())
	reg.Add(database.Module())

	in := machine.New(reg)
	in.Stdout = streams.NewFile(in.Mem, os.Stdout)
	in.Stderr = streams.NewFile(in.Mem, os.Stderr)
	in.Stdin = streams.NewFile(in.Mem, os.Stdin)
	return in
}

// Boot runs the embedded prelude in the interpreter's top scope.
func Boot(in *machine.Interpreter) error {
	status, err := RunSource(in, prelude)
	if err != nil {
		return err
	}
	if status != nil {
		return &parser.ParseError{Msg: "prelude failed: " + ErrorMessage(in, status)}
	}
	return nil
}

// BindParameters exposes argv to scripts as the Parameters list, bound as
// a Var so that executing the identifier pushes the list.
func BindParameters(in *machine.Interpreter, args []string) {
	items := make([]*heap.Cell, len(args))
	for i, a := range args {
		items[i] = strs.FromString(in.Mem, a)
	}
	list := heap.SliceToList(in.Mem, items)
	id := heap.MakeIdentifier(in.Mem, "Parameters", in.Reg.LookupFunction)
	in.Scopes.Define(in.Mem, id, heap.Var(in.Mem, list))
}

// RunSource parses src completely, then executes the resulting block in
// the interpreter's current scope (no fresh scope: top-level definitions
// persist) and drains the queue. The returned status is nil on normal
// completion, or the raised status identifier (the diagnostic stays on
// the stack for the caller, per the error-signalling convention).
func RunSource(in *machine.Interpreter, src string) (heap.Status, error) {
	stream := strs.NewIOString(in.Mem, heap.NewString(in.Mem, src))
	return RunStream(in, stream)
}

// RunStream is RunSource over any STREAM_GETCH-capable cell.
func RunStream(in *machine.Interpreter, stream *heap.Cell) (heap.Status, error) {
	block, err := parser.ParseProgram(in, stream)
	if err != nil {
		return nil, err
	}
	in.ExecBlock(block, false)
	return in.Mainloop(nil), nil
}

// RunFile reads and runs one source file.
func RunFile(in *machine.Interpreter, path string) (heap.Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return RunSource(in, string(data))
}

// ErrorMessage consumes the diagnostic a raised status left on the stack
// and renders the user-visible failure line.
func ErrorMessage(in *machine.Interpreter, status heap.Status) string {
	if status == nil {
		return ""
	}
	diag := in.Pop()
	return "ERROR: " + dump.Printf(in, "%#O", []*heap.Cell{diag})
}
