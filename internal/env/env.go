// Package env implements the lexical environment: a stack of scopes,
// each scope an association list of (identifier, value) pairs. Define
// updates-or-prepends on the top scope only; Lookup walks top to bottom.
package env

import "github.com/knotlang/knot/internal/heap"

// Scopes is the interpreter's scope stack: a list of scope cells, each
// scope itself a list of (identifier . value) pair cells. Represented
// directly as heap.Cell chains (not a separate Go slice) so that it can
// be captured wholesale into a Closure or Continuation snapshot and
// walked by the GC like any other value.
type Scopes struct {
	Top *heap.Cell // list of scopes; Top.Item is the top scope's alist
}

// NewStack returns an empty scope stack with a single empty top scope.
func NewStack(h *heap.Heap) *Scopes {
	return &Scopes{Top: heap.Cons(h, nil, nil)}
}

// Push installs scope as the new top of the stack.
func (s *Scopes) Push(h *heap.Heap, scope *heap.Cell) {
	s.Top = heap.Cons(h, scope, s.Top)
}

// PushNew installs a fresh, empty scope as the new top.
func (s *Scopes) PushNew(h *heap.Heap) {
	s.Push(h, nil)
}

// Pop discards the top scope, exposing the one beneath it.
func (s *Scopes) Pop() {
	if s.Top != nil {
		s.Top = s.Top.Next
	}
}

// Snapshot returns the current scope-stack list cell, suitable for
// embedding directly in a Closure or Continuation. Push and Pop never
// touch the snapshot's cells; Define rewrites the top scope cell's alist
// pointer in place, so a snapshot sharing that cell sees later
// definitions made in the same scope.
func (s *Scopes) Snapshot() *heap.Cell { return s.Top }

// Restore replaces the live stack with a previously captured snapshot.
func (s *Scopes) Restore(snapshot *heap.Cell) { s.Top = snapshot }

func assoc(alist, key *heap.Cell) *heap.Cell {
	for pair := alist; pair != nil; pair = pair.Next {
		if pair.Item != nil && heap.SameIdentifier(pair.Item.Item, key) {
			return pair.Item
		}
	}
	return nil
}

// Define updates id's binding on the top scope if present, else prepends
// a fresh (id . value) pair.
func (s *Scopes) Define(h *heap.Heap, id, value *heap.Cell) {
	top := s.Top.Item
	if pair := assoc(top, id); pair != nil {
		pair.Next = value
		return
	}
	pair := heap.Cons(h, id, value)
	s.Top.Item = heap.Cons(h, pair, top)
}

// Lookup walks scopes top to bottom for id, returning (value, true) on a
// hit, or (nil, false) if unbound anywhere.
func (s *Scopes) Lookup(id *heap.Cell) (*heap.Cell, bool) {
	for scope := s.Top; scope != nil; scope = scope.Next {
		if pair := assoc(scope.Item, id); pair != nil {
			return pair.Next, true
		}
	}
	return nil, false
}
