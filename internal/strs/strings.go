// Package strs implements the chunked byte-sequence rope backing every
// string value, and the cursored in-memory IO-string stream built on top
// of it.
package strs

import (
	"strings"

	"github.com/knotlang/knot/internal/heap"
)

// Empty returns a single, zero-length chunk — the canonical empty string.
func Empty(h *heap.Heap) *heap.Cell {
	return heap.NewString(h, "")
}

// Character returns a one-byte string cell, for the single-byte case
// used throughout the core; multibyte sequences travel as whole strings.
func Character(h *heap.Heap, c byte) *heap.Cell {
	return heap.NewString(h, string(c))
}

// FromString allocates a fresh chunked rope holding s.
func FromString(h *heap.Heap, s string) *heap.Cell {
	return heap.NewString(h, s)
}

// Text flattens a chunk chain back to a Go string.
func Text(c *heap.Cell) string {
	return heap.StringText(c)
}

// Len is the logical byte length of the rope.
func Len(c *heap.Cell) int {
	n := 0
	for c != nil {
		n += int(c.Count)
		c = c.Next
	}
	return n
}

// NthByte returns the byte at logical index i, and whether i was in range.
func NthByte(c *heap.Cell, i int) (byte, bool) {
	if i < 0 {
		return 0, false
	}
	for c != nil {
		if i < int(c.Count) {
			return c.Bytes[i], true
		}
		i -= int(c.Count)
		c = c.Next
	}
	return 0, false
}

// SetNthByte overwrites the byte at logical index i in place, returning
// false if i is out of range.
func SetNthByte(c *heap.Cell, i int, v byte) bool {
	if i < 0 {
		return false
	}
	for c != nil {
		if i < int(c.Count) {
			c.Bytes[i] = v
			return true
		}
		i -= int(c.Count)
		c = c.Next
	}
	return false
}

// lastChunk walks to the final chunk of c, returning nil if c is empty.
func lastChunk(c *heap.Cell) *heap.Cell {
	if c == nil {
		return nil
	}
	for c.Next != nil {
		c = c.Next
	}
	return c
}

// AppendByte appends one byte, reusing the tail chunk's spare capacity
// when available, else allocating a new chunk.
func AppendByte(h *heap.Heap, head *heap.Cell, b byte) *heap.Cell {
	tail := lastChunk(head)
	if tail != nil && int(tail.Count) < len(tail.Bytes) {
		tail.Bytes[tail.Count] = b
		tail.Count++
		return head
	}
	fresh := heap.NewString(h, string(b))
	if head == nil {
		return fresh
	}
	tail.Next = fresh
	return head
}

// PrependByte conses a new single-byte chunk onto the front.
func PrependByte(h *heap.Heap, head *heap.Cell, b byte) *heap.Cell {
	fresh := heap.NewString(h, string(b))
	fresh.Next = head
	return fresh
}

// InsertByteAt inserts v before logical index i (i == Len(head) appends).
// Implemented by rebuilding the rope, which keeps chunk-boundary
// invariants simple at the cost of an O(n) copy; acceptable since this is
// an occasional mutation, not the steady-state append path.
func InsertByteAt(h *heap.Heap, head *heap.Cell, i int, v byte) *heap.Cell {
	s := Text(head)
	if i < 0 {
		i = 0
	}
	if i > len(s) {
		i = len(s)
	}
	return heap.NewString(h, s[:i]+string(v)+s[i:])
}

// DeleteByteAt removes the byte at logical index i, if in range.
func DeleteByteAt(h *heap.Heap, head *heap.Cell, i int) *heap.Cell {
	s := Text(head)
	if i < 0 || i >= len(s) {
		return head
	}
	return heap.NewString(h, s[:i]+s[i+1:])
}

// Substring returns an independent copy of the logical range [start, end).
func Substring(h *heap.Heap, head *heap.Cell, start, end int) *heap.Cell {
	s := Text(head)
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start >= end {
		return Empty(h)
	}
	return heap.NewString(h, s[start:end])
}

// Append returns the logical concatenation of a and b. When a is empty
// it returns b itself, and when b is nil it returns a; otherwise the
// result is a fresh rope, and neither a's nor b's chunks are mutated.
func Append(h *heap.Heap, a, b *heap.Cell) *heap.Cell {
	if a == nil || Len(a) == 0 {
		return b
	}
	if b == nil {
		return a
	}
	return heap.NewString(h, Text(a)+Text(b))
}

// Cmp is a three-way byte-wise comparison (-1, 0, 1).
func Cmp(a, b *heap.Cell) int {
	return strings.Compare(Text(a), Text(b))
}

// CmpCI is Cmp, case-insensitively (ASCII byte-wise).
func CmpCI(a, b *heap.Cell) int {
	sa, sb := strings.ToLower(Text(a)), strings.ToLower(Text(b))
	return strings.Compare(sa, sb)
}

// CmpWithCString compares a rope against a Go string directly, without an
// intermediate cell allocation.
func CmpWithCString(a *heap.Cell, s string) int {
	return strings.Compare(Text(a), s)
}

// ToCString copies up to cap-1 bytes into buf and NUL-terminates, for
// interop with external byte-oriented APIs (file paths, C-style buffers).
func ToCString(c *heap.Cell, buf []byte) int {
	s := Text(c)
	n := copy(buf[:len(buf)-1], s)
	buf[n] = 0
	return n
}
