package strs

import "github.com/knotlang/knot/internal/heap"

// NewIOString allocates an in-memory bidirectional stream over contents:
// (cursor, unget-buffer, contents). The unget-buffer and contents pair is
// stored as a 2-element list in Next so the GC's generic list-walking
// picks both up with no custom walker needed.
func NewIOString(h *heap.Heap, contents *heap.Cell) *heap.Cell {
	c := h.Alloc(heap.TagIOString)
	c.I = 0
	c.Next = heap.Cons(h, nil /* unget buffer, empty */, heap.Cons(h, contents, nil))
	return c
}

func ioPair(c *heap.Cell) (ungetRef, contentsRef *heap.Cell) {
	return c.Next, c.Next.Next
}

func Cursor(c *heap.Cell) int64 { return c.I }

func Contents(c *heap.Cell) *heap.Cell {
	_, contentsRef := ioPair(c)
	return contentsRef.Item
}

func ungetBuf(c *heap.Cell) *heap.Cell {
	ungetRef, _ := ioPair(c)
	return ungetRef.Item
}

// Getch reads one byte: first from the unget buffer (LIFO), then from
// contents at the cursor, advancing it; returns ok=false past EOF.
func Getch(c *heap.Cell) (b byte, ok bool) {
	ungetRef, _ := ioPair(c)
	if ungetRef.Item != nil {
		b = ungetRef.Item.Item.Bytes[0]
		ungetRef.Item = ungetRef.Item.Next
		return b, true
	}
	contents := Contents(c)
	idx := int(c.I)
	nb, inRange := NthByte(contents, idx)
	if !inRange {
		return 0, false
	}
	c.I++
	return nb, true
}

// Ungets pushes s back onto the unget buffer, most-recently-pushed first,
// so a subsequent Getch sequence reproduces s in original order.
func Ungets(h *heap.Heap, c *heap.Cell, s string) {
	ungetRef, _ := ioPair(c)
	for i := len(s) - 1; i >= 0; i-- {
		oneByte := Character(h, s[i])
		ungetRef.Item = heap.Cons(h, oneByte, ungetRef.Item)
	}
}

// Puts writes s at the current cursor: overwriting within contents,
// appending past the end. Rejected (returns false) while the unget buffer
// is non-empty.
func Puts(h *heap.Heap, c *heap.Cell, s string) bool {
	if ungetBuf(c) != nil {
		return false
	}
	_, contentsRef := ioPair(c)
	contents := contentsRef.Item
	idx := int(c.I)
	total := Len(contents)
	for i := 0; i < len(s); i++ {
		if idx+i < total {
			SetNthByte(contents, idx+i, s[i])
		} else {
			contents = AppendByte(h, contents, s[i])
			total++
		}
	}
	contentsRef.Item = contents
	c.I += int64(len(s))
	return true
}
