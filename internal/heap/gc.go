package heap

// slabSize is the cell count per slab: cells are carved out of fixed
// arrays, never allocated one at a time from the Go heap.
const slabSize = 32

type slab struct {
	cells [slabSize]Cell
	next  *slab
}

// Walker lets a variant describe how to traverse its children during
// mark/sweep. It returns the cells reachable through fields other than
// Next (Next is always walked by the caller); returning nil means "no
// extra children beyond Next".
type Walker func(c *Cell) []*Cell

// Roots is the GC root set: every cell reachable from these fields is
// kept alive across a collection.
type Roots struct {
	Protected *Cell // gc_protected list
	Stdout    *Cell
	Stdin     *Cell
	Stderr    *Cell
	Modules   *Cell
	Stack     *Cell
	Queue     *Cell
	Scopes    *Cell
	ErrorSym  *Cell
	NotImplSym *Cell
	// Extra lets callers (e.g. the REPL, suspended continuations parked
	// outside the machine) register additional roots walked each cycle.
	Extra []*Cell
}

// Heap owns all allocated slabs, the free list and per-variant walkers.
type Heap struct {
	slabs       *slab
	freeList    *Cell
	freeCount   int
	allocChunks int64
	nextGC      int64

	walkers [int(TagSentinel) + 1]Walker

	Roots Roots

	// Stats, exposed for cells_in_use()/fragmentation().
	gcCycles int64
}

// New creates an empty heap with the default per-variant walkers
// registered (list cells are always walked regardless of this table).
func New() *Heap {
	h := &Heap{nextGC: 2}
	// Every other variant's children live entirely in Next (or nowhere),
	// which the mark loop already follows unconditionally; only Closure
	// and Continuation carry a second, non-Next child (the captured
	// Block / work-stack snapshot, respectively) that needs an explicit
	// walker.
	h.RegisterWalker(TagClosure, walkItem)
	h.RegisterWalker(TagContinuation, walkItem)
	return h
}

func walkItem(c *Cell) []*Cell { return []*Cell{c.Item} }

// RegisterWalker installs (or clears, with nil) the walker for tag.
func (h *Heap) RegisterWalker(tag Tag, w Walker) {
	h.walkers[int(tag)] = w
}

// Alloc returns a zeroed cell of the given tag, popping the free list or
// growing the heap by one slab when it is empty. Infallible: allocation
// failure aborts rather than returning an error.
func (h *Heap) Alloc(tag Tag) *Cell {
	if h.freeList == nil {
		h.growSlab()
	}
	c := h.freeList
	h.freeList = c.Next
	h.freeCount--
	*c = Cell{Tag: tag}
	return c
}

func (h *Heap) growSlab() {
	s := &slab{next: h.slabs}
	h.slabs = s
	for i := range s.cells {
		cell := &s.cells[i]
		cell.Next = h.freeList
		h.freeList = cell
		h.freeCount++
	}
	h.allocChunks++
}

// Pin roots obj through teardown by prepending it to the protected list.
func (h *Heap) Pin(obj *Cell) {
	h.Roots.Protected = Cons(h, obj, h.Roots.Protected)
}

// CellsInUse returns the number of live (non-free) cells.
func (h *Heap) CellsInUse() int64 {
	return h.allocChunks*slabSize - int64(h.freeCount)
}

// Fragmentation is allocated-cells / live-cells, 1.0 meaning no slack.
func (h *Heap) Fragmentation() float64 {
	used := h.CellsInUse()
	if used == 0 {
		return 1.0
	}
	allocated := used + int64(h.freeCount)
	return float64(allocated) / float64(used)
}

// MaybeGC runs a collection if the allocated-chunk count has exceeded the
// current threshold, then doubles the threshold.
func (h *Heap) MaybeGC(protectExtra ...*Cell) {
	if h.allocChunks <= h.nextGC {
		return
	}
	n := len(h.Roots.Extra)
	h.Roots.Extra = append(h.Roots.Extra, protectExtra...)
	h.GC()
	h.Roots.Extra = h.Roots.Extra[:n]
	h.nextGC *= 2
}

// GC runs an unconditional mark/sweep collection.
func (h *Heap) GC() {
	h.gcCycles++
	h.mark(h.Roots.Protected)
	h.mark(h.Roots.Stdout)
	h.mark(h.Roots.Stdin)
	h.mark(h.Roots.Stderr)
	h.mark(h.Roots.Modules)
	h.mark(h.Roots.Stack)
	h.mark(h.Roots.Queue)
	h.mark(h.Roots.Scopes)
	h.mark(h.Roots.ErrorSym)
	h.mark(h.Roots.NotImplSym)
	for _, c := range h.Roots.Extra {
		h.mark(c)
	}
	h.sweep()
}

// GCCycles reports how many collections have run; surfaced by the REPL's
// gc_trace stats lines and by tests asserting that collection happened.
func (h *Heap) GCCycles() int64 { return h.gcCycles }

func (h *Heap) mark(root *Cell) {
	for root != nil {
		if root.marked {
			return
		}
		root.marked = true
		if root.Tag == TagList {
			h.mark(root.Item)
			root = root.Next
			continue
		}
		if w := h.walkers[int(root.Tag)]; w != nil {
			for _, child := range w(root) {
				h.mark(child)
			}
		}
		root = root.Next
	}
}

func (h *Heap) sweep() {
	h.freeList = nil
	h.freeCount = 0
	prev := &h.slabs
	for s := *prev; s != nil; s = *prev {
		freeListBeforeSlab := h.freeList
		freeCountBeforeSlab := h.freeCount
		empty := true
		for i := range s.cells {
			c := &s.cells[i]
			if !c.marked {
				if c.Destroy != nil {
					c.Destroy(c)
				}
				*c = Cell{}
				c.Next = h.freeList
				h.freeList = c
				h.freeCount++
			} else {
				c.marked = false
				empty = false
			}
		}
		if empty {
			// every cell just threaded onto freeList belonged to this
			// departing slab; drop them back to the pre-slab snapshot.
			*prev = s.next
			h.allocChunks--
			h.freeList = freeListBeforeSlab
			h.freeCount = freeCountBeforeSlab
		} else {
			prev = &s.next
		}
	}
}
