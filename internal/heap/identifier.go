package heap

import "strings"

// PackedAlphabet is the 49-symbol alphabet packed identifiers are encoded
// over: digits, lowercase letters, and the punctuation the language's
// operator names use. Order matters: it defines each symbol's digit value.
const PackedAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz-?!'+/\\*>=<^."

// MaxPackedLen is the longest identifier (after lowercasing) that fits in
// a packed inline encoding. 11 symbols over a 49-letter alphabet fits in
// 62 bits (49^11 < 2^62), leaving bit 0 free as the packed/function tag.
const MaxPackedLen = 11

func packedIndex(b byte) int {
	return strings.IndexByte(PackedAlphabet, b)
}

// packIdentifier attempts to encode text (case folded) as a packed
// identifier. ok is false when text is empty, longer than MaxPackedLen,
// contains a byte outside PackedAlphabet, or starts with '0' (a leading
// zero digit would vanish on decode).
func packIdentifier(text string) (packed int64, ok bool) {
	if len(text) == 0 || len(text) > MaxPackedLen {
		return 0, false
	}
	base := int64(len(PackedAlphabet))
	var res int64
	for i := 0; i < len(text); i++ {
		idx := packedIndex(lowerASCII(text[i]))
		if idx < 0 || (i == 0 && idx == 0) {
			return 0, false
		}
		res = res*base + int64(idx)
	}
	return (res << 1) | 1, true
}

// unpackIdentifier reconstructs the case-folded (all lowercase) text from
// a packed payload. Display-casing (first letter up for bare identifiers,
// as-is for symbols) is a rendering concern left to the dumper.
func unpackIdentifier(packed int64) string {
	s := packed >> 1
	base := int64(len(PackedAlphabet))
	div := int64(1)
	for div*base <= s {
		div *= base
	}
	var sb strings.Builder
	for {
		digit := (s / div) % base
		sb.WriteByte(PackedAlphabet[digit])
		if div == 1 {
			break
		}
		div /= base
	}
	return sb.String()
}

func lowerASCII(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// BuiltinLookup finds a function by case-insensitive name across modules,
// in registration order, first match wins.
type BuiltinLookup func(name string) *ModFunc

// MakeIdentifier builds an Identifier cell for text, trying the tiers in
// order: (1) a registered built-in function reference, (2) a packed inline
// encoding, (3) a long identifier carrying the text itself in Next.
func MakeIdentifier(h *Heap, text string, lookup BuiltinLookup) *Cell {
	c := h.Alloc(TagIdentifier)
	if lookup != nil {
		if fn := lookup(text); fn != nil {
			c.Func = fn
			return c
		}
	}
	if packed, ok := packIdentifier(text); ok {
		c.I = packed
		return c
	}
	c.Next = NewString(h, text)
	return c
}

// IdentifierText decodes an Identifier cell back to its text, whichever
// tier encodes it: packed, built-in, or long.
func IdentifierText(c *Cell) string {
	if c == nil || c.Tag != TagIdentifier {
		return ""
	}
	if c.I&1 == 1 {
		return unpackIdentifier(c.I)
	}
	if c.Func != nil {
		return c.Func.Name
	}
	return StringText(c.Next)
}

// SameIdentifier compares two identifiers by decoded, lower-cased text —
// the contract every tier of encoding must satisfy identically.
func SameIdentifier(a, b *Cell) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return strings.EqualFold(IdentifierText(a), IdentifierText(b))
}

// NewString and StringText are declared as heap-local shims so identifier
// packing doesn't need to import the strs package (which in turn imports
// heap for Cell/Alloc): a one-byte-at-a-time chunk builder suffices here
// since identifiers are short by construction once they reach the "long"
// tier this helper is only used for round-tripping small names.
func NewString(h *Heap, text string) *Cell {
	var head, tail *Cell
	for i := 0; i < len(text); i += inlineCap {
		end := i + inlineCap
		if end > len(text) {
			end = len(text)
		}
		chunk := h.Alloc(TagStringChunk)
		n := copy(chunk.Bytes[:], text[i:end])
		chunk.Count = uint8(n)
		if head == nil {
			head = chunk
		} else {
			tail.Next = chunk
		}
		tail = chunk
	}
	if head == nil {
		head = h.Alloc(TagStringChunk)
	}
	return head
}

func StringText(c *Cell) string {
	var sb strings.Builder
	for c != nil && c.Tag == TagStringChunk {
		sb.Write(c.Bytes[:c.Count])
		c = c.Next
	}
	return sb.String()
}
