package heap

// This file collects the per-variant construction helpers: one
// constructor per variant (the string and stream ones live in
// internal/strs and internal/streams).

func Int(h *Heap, v int64) *Cell {
	c := h.Alloc(TagInt)
	c.I = v
	return c
}

func Float(h *Heap, v float64) *Cell {
	c := h.Alloc(TagFloat)
	c.F = v
	return c
}

func Bool(h *Heap, v bool) *Cell {
	c := h.Alloc(TagBool)
	c.B = v
	return c
}

func EOF(h *Heap) *Cell { return h.Alloc(TagEOF) }

// Sentinel carries a terminator byte seen by the parser (')', ']', '}', or
// the internal 0xff "stream exhausted" marker).
func Sentinel(h *Heap, terminator byte) *Cell {
	c := h.Alloc(TagSentinel)
	c.Bytes[0] = terminator
	c.Count = 1
	return c
}

func (c *Cell) SentinelByte() byte {
	if c == nil || c.Tag != TagSentinel {
		return 0
	}
	return c.Bytes[0]
}

// Symbol wraps identifier so that executing it pushes itself rather than
// resolving a binding.
func Symbol(h *Heap, identifier *Cell) *Cell {
	c := h.Alloc(TagSymbol)
	c.Next = identifier
	return c
}

// Block wraps a parsed command list, not yet bound to any scope.
func Block(h *Heap, commands *Cell) *Cell {
	c := h.Alloc(TagBlock)
	c.Next = commands
	return c
}

// Closure pairs a Block with the scope stack captured at the moment the
// block was evaluated (late-bound: captured when the Block cell itself is
// executed, not when it was parsed).
func Closure(h *Heap, block, capturedScopes *Cell) *Cell {
	c := h.Alloc(TagClosure)
	c.Item = block
	c.Next = capturedScopes
	return c
}

// Continuation snapshots (work stack, command queue, scope stack) as of
// the moment of capture.
func Continuation(h *Heap, workStack, queue, scopes *Cell) *Cell {
	c := h.Alloc(TagContinuation)
	c.Item = workStack
	c.Next = Cons(h, queue, Cons(h, scopes, nil))
	return c
}

func (c *Cell) ContinuationQueue() *Cell  { return c.Next.Item }
func (c *Cell) ContinuationScopes() *Cell { return c.Next.Next.Item }

// Builtin wraps a registered ModFunc as a directly executable value (used
// when an identifier resolves to a builtin but is pushed as a first-class
// value rather than run immediately).
func Builtin(h *Heap, fn *ModFunc) *Cell {
	c := h.Alloc(TagBuiltin)
	c.Func = fn
	return c
}

// Box allocates a mutable single-slot cell; Set/Get operate on Next.
func Box(h *Heap, held *Cell) *Cell {
	c := h.Alloc(TagBox)
	c.Next = held
	return c
}

func (c *Cell) BoxGet() *Cell     { return c.Next }
func (c *Cell) BoxSet(v *Cell)    { c.Next = v }

// Var wraps a value so that executing it pushes the inner value rather
// than resolving/running it; distinguishes `let` bindings from `def`.
func Var(h *Heap, held *Cell) *Cell {
	c := h.Alloc(TagVar)
	c.Next = held
	return c
}

func (c *Cell) VarGet() *Cell { return c.Next }

// Stream wraps an opaque Go value implementing byte-oriented I/O (a file
// handle, a websocket connection, …) as a first-class cell dispatching
// STREAM_PUTS/STREAM_GETCH/STREAM_UNGETS, distinct from Pointer so that a
// DB handle and a stream never collide on (variant, kind) dispatch.
func Stream(h *Heap, ptr any, destroy func(*Cell)) *Cell {
	c := h.Alloc(TagStream)
	c.Ptr = ptr
	c.Destroy = destroy
	return c
}

// Pointer wraps an opaque Go value (file handle, DB handle, …) with an
// optional destructor invoked exactly once during sweep, and an optional
// owner cell kept alive alongside it.
func Pointer(h *Heap, ptr any, owner *Cell, destroy func(*Cell)) *Cell {
	c := h.Alloc(TagPointer)
	c.Ptr = ptr
	c.Owner = owner
	c.Next = owner
	c.Destroy = destroy
	return c
}

// Binder is the cell the parser emits for a `def`/`let` prefix:
// executing it pops the value left on the stack by the token parsed
// immediately ahead of it and binds it to identifier, wrapped in a Var
// when wrapped is true (`let`) or bound bare when false (`def`).
func Binder(h *Heap, identifier *Cell, wrapped bool) *Cell {
	c := h.Alloc(TagBinder)
	c.Next = identifier
	c.B = wrapped
	return c
}

func (c *Cell) BinderIdentifier() *Cell { return c.Next }
func (c *Cell) BinderWrapped() bool     { return c.B }
