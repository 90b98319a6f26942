package machine

import (
	"fmt"

	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/registry"
)

// Every well-known EXEC method obeys one convention throughout this file:
// self has already been pushed by registry.Dispatch, and cookie was
// pushed by the mainloop (or by whoever called RunNext) before that. Each
// method's first two steps are always "pop self, pop cookie" — what it
// does with either afterward is where the variants differ.

// PushSelfMethod implements EXEC for every self-evaluating literal:
// Integer, Float, Bool, String chunks, Symbol, EOF, Sentinel, Pointer.
// Running one of these simply leaves it on the stack as data.
func PushSelfMethod(m heap.Machine) heap.Status {
	self := m.Pop()
	m.Pop() // cookie, unused by literals
	m.Push(self)
	return nil
}

// ExecBuiltinMethod implements EXEC for Builtin-wrapped ModFuncs: it pops
// self and cookie, then hands cookie to the wrapped function alongside
// the machine, per the ModFunc.Fn contract.
func ExecBuiltinMethod(m heap.Machine) heap.Status {
	self := m.Pop()
	cookie := m.Pop()
	return self.Func.Fn(m, cookie)
}

// ExecIdentifierMethod implements EXEC for Identifier: look up a binding
// in the live scope stack and re-enqueue it (so the binding's own EXEC
// decides what running it means — this is what makes def vs let differ,
// since `let` bindings are Var-wrapped); failing that, fall back to a
// tier-1 built-in function reference; failing that, raise a name error.
func ExecIdentifierMethod(m heap.Machine) heap.Status {
	in := m.(*Interpreter)
	self := in.Pop()
	cookie := in.Pop()

	// Resolution splices the bound value in immediately ahead of whatever
	// is already queued (RunNextFront), not merely somewhere before the
	// queue drains (RunNext): an identifier command stands in for its
	// definition in place, the way a macro expansion would, so no
	// already-queued sibling command runs before it does.
	if def, found := in.Scopes.Lookup(self); found {
		in.RunNextFront(def, nil, cookie)
		return nil
	}
	if self.Func != nil {
		in.RunNextFront(heap.Builtin(in.Mem, self.Func), nil, cookie)
		return nil
	}
	in.Push(heap.NewString(in.Mem, fmt.Sprintf("undefined: %s", heap.IdentifierText(self))))
	return in.St.Error
}

// ExecVarMethod implements EXEC for Var: push the held value rather than
// resolving/running it further — the `let` half of the def/let split.
func ExecVarMethod(m heap.Machine) heap.Status {
	self := m.Pop()
	m.Pop()
	m.Push(self.VarGet())
	return nil
}

// ExecBlockMethod implements EXEC for Block: wrap it in a Closure bound to
// the live scope stack (late-bound at the moment of block evaluation, not
// parse-time) and push the closure. A quotation met as a command becomes a
// first-class value; combinators (Do, If, While, Call/cc) are what actually
// run it.
func ExecBlockMethod(m heap.Machine) heap.Status {
	in := m.(*Interpreter)
	self := in.Pop()
	in.Pop() // cookie, unused
	in.Push(heap.Closure(in.Mem, self, in.Scopes.Snapshot()))
	return nil
}

// ExecClosureMethod implements EXEC for an already-built Closure value
// (e.g. one returned by a higher-order builtin, stored in a variable,
// or invoked a second time).
func ExecClosureMethod(m heap.Machine) heap.Status {
	in := m.(*Interpreter)
	self := in.Pop()
	cookie := in.Pop()
	in.execClosure(self, pushNewFlag(cookie))
	return nil
}

func pushNewFlag(cookie *heap.Cell) bool {
	if cookie == nil {
		return true
	}
	if cookie.Tag == heap.TagBool {
		return cookie.B
	}
	return true
}

// ExecClosure schedules a closure call: install its captured scopes, run
// the body, restore the caller's scopes. pushNew is true for a normal
// call (the call gets its own fresh top scope) and false when the body
// should run directly in the interpreter's current scope, as top-level
// script loading does.
func (in *Interpreter) ExecClosure(closure *heap.Cell, pushNew bool) {
	in.execClosure(closure, pushNew)
}

// ExecBlock is ExecClosure for a not-yet-captured Block: it binds the
// block to the live scope stack first.
func (in *Interpreter) ExecBlock(block *heap.Cell, pushNew bool) {
	in.execClosure(heap.Closure(in.Mem, block, in.Scopes.Snapshot()), pushNew)
}

// execClosure arranges the three-frame call shape: enqueue the OnExit
// restore frame, prepend the block's body in order, then enqueue the
// OnEnter install frame — so the final run order is
// install -> body... -> restore -> (whatever was already queued).
func (in *Interpreter) execClosure(closure *heap.Cell, pushNew bool) {
	block := closure.Item
	capturedScopes := closure.Next
	callerScopes := in.Scopes.Snapshot()

	body := heap.ListToSlice(block.Next)

	onEnterCookie := heap.Cons(in.Mem, capturedScopes, heap.Cons(in.Mem, heap.Bool(in.Mem, pushNew), nil))
	onExitCookie := callerScopes

	// Push, back to front, so the head ends up: [OnEnter, body..., OnExit].
	// The two scope hooks are unconditional: they fire whatever the live
	// status is, keeping scope depth balanced across error unwinds.
	in.runAlwaysFront(restoreCallerScopeAction(in), in.St.OnExit, onExitCookie)
	for i := len(body) - 1; i >= 0; i-- {
		in.RunNextFront(body[i], nil, nil)
	}
	in.runAlwaysFront(installCallScopeAction(in), in.St.OnEnter, onEnterCookie)
}

var installFunc = &heap.ModFunc{
	Name: "[[InstallCallScope]]",
	Doc:  "parser/closure internal: installs a captured scope stack, optionally pushing a fresh top scope",
	Fn: func(m heap.Machine, cookie *heap.Cell) heap.Status {
		in := m.(*Interpreter)
		capturedScopes := cookie.Item
		pushNew := cookie.Next.Item.B
		in.Scopes.Restore(capturedScopes)
		if pushNew {
			in.Scopes.PushNew(in.Mem)
		}
		return nil
	},
}

var restoreFunc = &heap.ModFunc{
	Name: "[[RestoreCallerScope]]",
	Doc:  "closure internal: restores the caller's scope stack after a call returns",
	Fn: func(m heap.Machine, cookie *heap.Cell) heap.Status {
		in := m.(*Interpreter)
		in.Scopes.Restore(cookie)
		return nil
	},
}

func installCallScopeAction(in *Interpreter) *heap.Cell { return heap.Builtin(in.Mem, installFunc) }
func restoreCallerScopeAction(in *Interpreter) *heap.Cell { return heap.Builtin(in.Mem, restoreFunc) }

// ExecBinderMethod implements EXEC for Binder, the cell the parser emits
// right after a `def`/`let` target's value token. It pops
// the value the preceding command left on the stack and defines it on
// the current top scope, wrapped in a Var for `let` so that executing the
// identifier later merely pushes the value back (ExecVarMethod) rather
// than running it the way `def` does.
func ExecBinderMethod(m heap.Machine) heap.Status {
	in := m.(*Interpreter)
	self := in.Pop()
	in.Pop() // cookie, unused

	value, ok := in.PopChecked()
	if !ok {
		verb := "def"
		if self.BinderWrapped() {
			verb = "let"
		}
		in.Push(heap.NewString(in.Mem, fmt.Sprintf("arity error: %s %s requires a value on the stack", verb, heap.IdentifierText(self.BinderIdentifier()))))
		return in.St.Error
	}
	if self.BinderWrapped() {
		value = heap.Var(in.Mem, value)
	}
	in.Scopes.Define(in.Mem, self.BinderIdentifier(), value)
	return nil
}

// ExecContinuationMethod implements EXEC for Continuation: restore the
// captured (work stack, command queue, scope stack) and push cookie (the
// single argument the continuation was invoked with) onto the restored
// stack. Matches call/cc's "control returns to the capture point with the
// argument on top" contract.
func ExecContinuationMethod(m heap.Machine) heap.Status {
	in := m.(*Interpreter)
	self := in.Pop()
	cookie := in.Pop()

	in.Stack = self.Item
	in.Queue = self.ContinuationQueue()
	in.Scopes.Restore(self.ContinuationScopes())
	in.Push(cookie)
	return nil
}

// CallCC implements the call/cc-like primitive: capture the current
// (work stack, command queue, scope stack), push the continuation as the
// first argument to body, then run body. body may be a Block (captured
// against the live scopes here) or an already-built Closure.
func (in *Interpreter) CallCC(body *heap.Cell) {
	cont := heap.Continuation(in.Mem, in.Stack, in.Queue, in.Scopes.Snapshot())
	in.Push(cont)
	if body != nil && body.Tag == heap.TagBlock {
		body = heap.Closure(in.Mem, body, in.Scopes.Snapshot())
	}
	in.execClosure(body, true)
}

// CoreModule bundles the EXEC methods every bare value variant needs, so
// the mainloop can always find (tag, EXEC) for anything it's asked to run.
func CoreModule() *registry.Module {
	lit := func(tag heap.Tag) *registry.Method {
		return &registry.Method{Tag: tag, Kind: registry.EXEC, Fn: PushSelfMethod}
	}
	return &registry.Module{
		Name: "core/exec",
		Methods: []*registry.Method{
			lit(heap.TagInt), lit(heap.TagFloat), lit(heap.TagBool),
			lit(heap.TagStringChunk), lit(heap.TagSymbol), lit(heap.TagEOF),
			lit(heap.TagSentinel), lit(heap.TagPointer),
			{Tag: heap.TagBuiltin, Kind: registry.EXEC, Fn: ExecBuiltinMethod},
			{Tag: heap.TagIdentifier, Kind: registry.EXEC, Fn: ExecIdentifierMethod},
			{Tag: heap.TagVar, Kind: registry.EXEC, Fn: ExecVarMethod},
			{Tag: heap.TagBlock, Kind: registry.EXEC, Fn: ExecBlockMethod},
			{Tag: heap.TagClosure, Kind: registry.EXEC, Fn: ExecClosureMethod},
			{Tag: heap.TagContinuation, Kind: registry.EXEC, Fn: ExecContinuationMethod},
			{Tag: heap.TagBinder, Kind: registry.EXEC, Fn: ExecBinderMethod},
			lit(heap.TagBox),
		},
		Types: []heap.Tag{
			heap.TagList, heap.TagInt, heap.TagFloat, heap.TagBool, heap.TagStringChunk,
			heap.TagIdentifier, heap.TagSymbol, heap.TagBlock, heap.TagClosure,
			heap.TagContinuation, heap.TagBuiltin, heap.TagBox, heap.TagVar,
			heap.TagIOString, heap.TagPointer, heap.TagEOF, heap.TagSentinel,
			heap.TagBinder, heap.TagStream,
		},
	}
}
