package strs

import (
	"testing"

	"github.com/knotlang/knot/internal/heap"
)

func TestLenAndNthByte(t *testing.T) {
	h := heap.New()
	s := FromString(h, "hello, chunked world")
	if got := Len(s); got != 20 {
		t.Fatalf("Len = %d, want 20", got)
	}
	for i, want := range []byte("hello, chunked world") {
		b, ok := NthByte(s, i)
		if !ok || b != want {
			t.Fatalf("NthByte(%d) = %q/%v, want %q", i, b, ok, want)
		}
	}
	if _, ok := NthByte(s, 20); ok {
		t.Fatalf("NthByte past end should fail")
	}
}

func TestSetNthByte(t *testing.T) {
	h := heap.New()
	s := FromString(h, "abcdefgh")
	if !SetNthByte(s, 6, 'X') {
		t.Fatalf("SetNthByte in range failed")
	}
	if got := Text(s); got != "abcdefXh" {
		t.Fatalf("Text = %q", got)
	}
	if SetNthByte(s, 8, 'X') {
		t.Fatalf("SetNthByte out of range should fail")
	}
}

func TestSubstringAppendIdentity(t *testing.T) {
	h := heap.New()
	for _, text := range []string{"", "a", "abcdef", "hello, chunked world"} {
		s := FromString(h, text)
		for i := 0; i <= len(text); i++ {
			left := Substring(h, s, 0, i)
			right := Substring(h, s, i, len(text))
			if got := Text(Append(h, left, right)); got != text {
				t.Fatalf("split at %d of %q rejoined to %q", i, text, got)
			}
		}
	}
}

func TestSubstringIndependence(t *testing.T) {
	h := heap.New()
	s := FromString(h, "abcdefgh")
	sub := Substring(h, s, 2, 6)
	SetNthByte(sub, 0, 'X')
	if got := Text(s); got != "abcdefgh" {
		t.Fatalf("mutating a substring changed the original: %q", got)
	}
	if got := Text(sub); got != "Xdef" {
		t.Fatalf("substring = %q, want %q", got, "Xdef")
	}
}

func TestAppendPrependInsertDelete(t *testing.T) {
	h := heap.New()
	s := FromString(h, "bcd")
	s = AppendByte(h, s, 'e')
	s = PrependByte(h, s, 'a')
	if got := Text(s); got != "abcde" {
		t.Fatalf("after append/prepend: %q", got)
	}
	s = InsertByteAt(h, s, 2, 'X')
	if got := Text(s); got != "abXcde" {
		t.Fatalf("after insert: %q", got)
	}
	s = DeleteByteAt(h, s, 2)
	if got := Text(s); got != "abcde" {
		t.Fatalf("after delete: %q", got)
	}
}

func TestAppendByteFillsTailChunk(t *testing.T) {
	h := heap.New()
	s := FromString(h, "abc")
	before := s
	s = AppendByte(h, s, 'd')
	if s != before {
		t.Fatalf("appending into spare tail capacity should not reallocate the head")
	}
	for i := 0; i < 10; i++ {
		s = AppendByte(h, s, byte('e'+i))
	}
	if got := Text(s); got != "abcdefghijklmn" {
		t.Fatalf("after growth: %q", got)
	}
}

func TestCompare(t *testing.T) {
	h := heap.New()
	tests := []struct {
		a, b string
		cmp  int
		ci   int
	}{
		{"", "", 0, 0},
		{"a", "b", -1, -1},
		{"b", "a", 1, 1},
		{"ABC", "abc", -1, 0},
		{"abc", "abcd", -1, -1},
	}
	for _, tt := range tests {
		a, b := FromString(h, tt.a), FromString(h, tt.b)
		if got := Cmp(a, b); got != tt.cmp {
			t.Errorf("Cmp(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.cmp)
		}
		if got := CmpCI(a, b); got != tt.ci {
			t.Errorf("CmpCI(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.ci)
		}
	}
	if got := CmpWithCString(FromString(h, "abc"), "abd"); got != -1 {
		t.Errorf("CmpWithCString = %d, want -1", got)
	}
}

func TestToCString(t *testing.T) {
	h := heap.New()
	buf := make([]byte, 6)
	n := ToCString(FromString(h, "hello, world"), buf)
	if n != 5 || string(buf[:5]) != "hello" || buf[5] != 0 {
		t.Fatalf("ToCString truncation wrong: n=%d buf=%q", n, buf)
	}
}

func TestEmptyAndCharacter(t *testing.T) {
	h := heap.New()
	if got := Len(Empty(h)); got != 0 {
		t.Fatalf("Empty length = %d", got)
	}
	if got := Text(Character(h, 'x')); got != "x" {
		t.Fatalf("Character = %q", got)
	}
}

func TestIOStringReadWrite(t *testing.T) {
	h := heap.New()
	io := NewIOString(h, FromString(h, "abc"))

	var read []byte
	for {
		b, ok := Getch(io)
		if !ok {
			break
		}
		read = append(read, b)
	}
	if string(read) != "abc" {
		t.Fatalf("read %q, want abc", read)
	}

	// Writes past the end append.
	if !Puts(h, io, "def") {
		t.Fatalf("append write rejected")
	}
	if got := Text(Contents(io)); got != "abcdef" {
		t.Fatalf("contents = %q", got)
	}
}

func TestIOStringUngetOrder(t *testing.T) {
	h := heap.New()
	io := NewIOString(h, FromString(h, "z"))
	Ungets(h, io, "xy")
	var read []byte
	for {
		b, ok := Getch(io)
		if !ok {
			break
		}
		read = append(read, b)
	}
	if string(read) != "xyz" {
		t.Fatalf("read %q, want xyz", read)
	}
}

func TestIOStringWriteRejectedDuringUnget(t *testing.T) {
	h := heap.New()
	io := NewIOString(h, FromString(h, "abc"))
	Ungets(h, io, "q")
	if Puts(h, io, "x") {
		t.Fatalf("write with a non-empty unget buffer should be rejected")
	}
	if b, ok := Getch(io); !ok || b != 'q' {
		t.Fatalf("unget byte lost")
	}
	if !Puts(h, io, "x") {
		t.Fatalf("write after the unget buffer drained should succeed")
	}
}

func TestIOStringOverwriteWithinContents(t *testing.T) {
	h := heap.New()
	io := NewIOString(h, FromString(h, "abcdef"))
	Getch(io)
	Getch(io) // cursor now at 2
	if !Puts(h, io, "XY") {
		t.Fatalf("overwrite rejected")
	}
	if got := Text(Contents(io)); got != "abXYef" {
		t.Fatalf("contents = %q, want abXYef", got)
	}
	// Cursor advanced past the overwrite; the next read sees 'e'.
	if b, ok := Getch(io); !ok || b != 'e' {
		t.Fatalf("next read = %q/%v, want e", b, ok)
	}
}
