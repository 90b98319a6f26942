// Package machine implements the trampoline mainloop over a when-guarded
// command queue, and the closure/continuation machinery built on top of
// it (scope-enter/scope-exit hooks, first-class continuations).
package machine

import (
	"fmt"

	"github.com/knotlang/knot/internal/env"
	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/registry"
)

// Statuses holds the well-known status identifiers interned once at
// interpreter construction: Error, OnEnter, OnExit, NotImplemented.
type Statuses struct {
	Error   *heap.Cell
	OnEnter *heap.Cell
	OnExit  *heap.Cell
	NotImpl *heap.Cell
}

// Interpreter is the whole machine state as an explicit value: nothing
// here lives in package-level globals, so independent interpreters
// coexist and tests stay hermetic.
type Interpreter struct {
	Mem *heap.Heap
	Reg *registry.Registry

	Scopes *env.Scopes

	Stack  *heap.Cell // operand stack, head = top
	Queue  *heap.Cell // command queue, head = next frame
	Status *heap.Cell

	Stdout, Stdin, Stderr *heap.Cell
	Modules               *heap.Cell // list of Pointer cells wrapping *registry.Module

	St Statuses
}

// New wires a fresh Interpreter: empty heap, empty stack/queue, one scope,
// and the well-known status identifiers interned as long-form identifiers
// (their bracketed spelling is not a legal packed or user identifier, so
// they never collide with a script-defined name of the same text).
func New(reg *registry.Registry) *Interpreter {
	h := heap.New()
	in := &Interpreter{
		Mem:    h,
		Reg:    reg,
		Scopes: env.NewStack(h),
	}
	in.St.Error = heap.MakeIdentifier(h, "[[Error]]", nil)
	in.St.OnEnter = heap.MakeIdentifier(h, "[[OnEnter]]", nil)
	in.St.OnExit = heap.MakeIdentifier(h, "[[OnExit]]", nil)
	in.St.NotImpl = heap.MakeIdentifier(h, "[[NotImplemented]]", nil)
	h.Roots.ErrorSym = in.St.Error
	h.Roots.NotImplSym = in.St.NotImpl
	// OnEnter/OnExit live only in frame when-slots while a call is in
	// flight; pin them so an idle-time collection can't reclaim them.
	h.Pin(in.St.OnEnter)
	h.Pin(in.St.OnExit)
	return in
}

// heap.Machine interface -------------------------------------------------

func (in *Interpreter) Push(c *heap.Cell) { in.Stack = heap.Cons(in.Mem, c, in.Stack) }

func (in *Interpreter) Pop() *heap.Cell {
	if in.Stack == nil {
		return nil
	}
	top := in.Stack.Item
	in.Stack = in.Stack.Next
	return top
}

// PopChecked is Pop plus an explicit underflow signal: Pop alone can't
// tell "stack empty" from "top value is the empty list", both of which
// are a nil *heap.Cell. Arity-sensitive callers (operators, the def/let
// binder) need the distinction to raise an arity error only on genuine
// underflow.
func (in *Interpreter) PopChecked() (*heap.Cell, bool) {
	if in.Stack == nil {
		return nil, false
	}
	return in.Pop(), true
}

func (in *Interpreter) Heap() *heap.Heap { return in.Mem }

// syncRoots refreshes the GC root set from live interpreter state; called
// right before a collection rather than kept continuously current.
func (in *Interpreter) syncRoots() {
	in.Mem.Roots.Stdout = in.Stdout
	in.Mem.Roots.Stdin = in.Stdin
	in.Mem.Roots.Stderr = in.Stderr
	in.Mem.Roots.Modules = in.Modules
	in.Mem.Roots.Stack = in.Stack
	in.Mem.Roots.Queue = in.Queue
	in.Mem.Roots.Scopes = in.Scopes.Snapshot()
}

// GC forces a collection with the current machine state rooted.
func (in *Interpreter) GC() {
	in.syncRoots()
	in.Mem.GC()
}

func (in *Interpreter) maybeGC() {
	in.syncRoots()
	in.Mem.MaybeGC(in.Status)
}

// Frames ------------------------------------------------------------------

// RunNext enqueues a frame at the back of the queue: when action runs,
// cookie is pushed onto the work stack first, per the frame contract.
// FIFO with respect to each RunNext call.
func (in *Interpreter) RunNext(item, when, cookie *heap.Cell) {
	in.Queue = appendOne(in.Mem, in.Queue, in.makeFrame(item, when, cookie, false))
}

// RunNextFront enqueues a frame ahead of everything already scheduled.
// Used to splice a whole sequence of frames in front of the existing
// queue (block bodies, OnEnter/OnExit installation) by calling it once
// per frame in reverse encounter order.
func (in *Interpreter) RunNextFront(item, when, cookie *heap.Cell) {
	in.Queue = heap.Cons(in.Mem, in.makeFrame(item, when, cookie, false), in.Queue)
}

// runAlwaysFront is RunNextFront for the closure machinery's scope
// install/restore hooks: the frame fires regardless of the live status
// ("the frame's installer chose to run it unconditionally"), so a call's
// scope bookkeeping stays balanced even while an error is unwinding.
func (in *Interpreter) runAlwaysFront(item, when, cookie *heap.Cell) {
	in.Queue = heap.Cons(in.Mem, in.makeFrame(item, when, cookie, true), in.Queue)
}

// makeFrame builds a (when . (action . cookie)) frame cell. The
// unconditional bit rides in the head cell's otherwise-unused B field
// rather than a fourth list element, keeping frames two conses.
func (in *Interpreter) makeFrame(item, when, cookie *heap.Cell, always bool) *heap.Cell {
	frame := heap.Cons(in.Mem, when, heap.Cons(in.Mem, item, cookie))
	frame.B = always
	return frame
}

func appendOne(h *heap.Heap, list, item *heap.Cell) *heap.Cell {
	if list == nil {
		return heap.Cons(h, item, nil)
	}
	items := heap.ListToSlice(list)
	items = append(items, item)
	return heap.SliceToList(h, items)
}

func frameWhen(f *heap.Cell) *heap.Cell   { return f.Item }
func frameAction(f *heap.Cell) *heap.Cell { return f.Next.Item }
func frameCookie(f *heap.Cell) *heap.Cell { return f.Next.Next }

// Dispatch ------------------------------------------------------------

// RunWellKnown is soft dispatch: scans for (self.Tag, kind), returning
// in.St.NotImpl if nothing matched.
func (in *Interpreter) RunWellKnown(self *heap.Cell, kind registry.Kind) heap.Status {
	return in.Reg.Dispatch(in, self, kind, in.St.NotImpl)
}

// RunWellKnownStrict aborts if no implementation exists — a programmer
// bug, not a script bug.
func (in *Interpreter) RunWellKnownStrict(self *heap.Cell, kind registry.Kind) heap.Status {
	res := in.RunWellKnown(self, kind)
	if res == in.St.NotImpl {
		panic(fmt.Sprintf("knot: %s not implemented for %s", kind, tagOf(self)))
	}
	return res
}

func tagOf(c *heap.Cell) heap.Tag {
	if c == nil {
		return heap.TagList
	}
	return c.Tag
}

// Mainloop ------------------------------------------------------------

// Mainloop drives the trampoline until the queue is empty, returning the
// final status. Each round pops a frame, decides whether it fires under
// the live status, runs it, then gives the collector a chance.
func (in *Interpreter) Mainloop(status *heap.Cell) *heap.Cell {
	in.Status = status
	for in.Queue != nil {
		frame := in.Queue.Item
		in.Queue = in.Queue.Next

		when := frameWhen(frame)
		action := frameAction(frame)
		cookie := frameCookie(frame)
		always := frame.B

		if !always && !frameRuns(in.Status, when) {
			continue
		}

		in.Push(cookie)
		res := in.RunWellKnown(action, registry.EXEC)
		if res == in.St.NotImpl {
			in.Pop()
			in.Push(heap.NewString(in.Mem, fmt.Sprintf("Can't run %s", describe(action))))
			in.Status = in.St.Error
		} else if always && res == nil {
			// scope hooks run for effect; a nil return leaves the live
			// status (normal or error) flowing past them untouched.
		} else {
			in.Status = res
		}

		in.maybeGC()
	}
	return in.Status
}

// describe is a terse, non-dumper-dependent rendering used only for the
// mainloop's own "Can't run" diagnostic; internal/dump's %O formatter is
// what user code and the REPL actually see when printing values.
func describe(c *heap.Cell) string {
	if c == nil {
		return "()"
	}
	switch c.Tag {
	case heap.TagIdentifier:
		return heap.IdentifierText(c)
	case heap.TagStringChunk:
		return heap.StringText(c)
	default:
		return c.Tag.String()
	}
}

// frameRuns decides whether a conditional frame fires under the current
// status: a normal frame (when == nil) runs only when status == nil; any
// other frame runs exactly when its when matches the live status.
// Unconditional frames (the closure machinery's scope hooks) are decided
// before this is consulted.
func frameRuns(status, when *heap.Cell) bool {
	if when == nil {
		return status == nil
	}
	if status == nil {
		return false
	}
	return heap.SameIdentifier(status, when)
}
