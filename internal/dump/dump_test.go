package dump

import (
	"strings"
	"testing"

	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
	"github.com/knotlang/knot/internal/parser"
	"github.com/knotlang/knot/internal/registry"
	"github.com/knotlang/knot/internal/strs"
)

func newTestInterp() *machine.Interpreter {
	reg := registry.New()
	reg.Add(machine.CoreModule())
	reg.Add(strs.Module())
	return machine.New(reg)
}

func TestShowScalars(t *testing.T) {
	in := newTestInterp()
	h := in.Mem
	tests := []struct {
		v        *heap.Cell
		readably bool
		want     string
	}{
		{heap.Int(h, 42), true, "42"},
		{heap.Int(h, -7), true, "-7"},
		{heap.Float(h, 2.5), true, "2.5"},
		{heap.Float(h, 3), true, "3.0"},
		{heap.Bool(h, true), true, "True"},
		{heap.Bool(h, false), true, "False"},
		{heap.NewString(h, "hi"), true, `"hi"`},
		{heap.NewString(h, "hi"), false, "hi"},
		{heap.NewString(h, "a\nb"), true, `"a\nb"`},
		{heap.MakeIdentifier(h, "foo", nil), true, "Foo"},
		{heap.Symbol(h, heap.MakeIdentifier(h, "foo", nil)), true, `\foo`},
		{heap.EOF(h), true, "#<EOF>"},
		{nil, true, "()"},
	}
	for _, tt := range tests {
		if got := Show(in, tt.v, tt.readably); got != tt.want {
			t.Errorf("Show(readably=%v) = %q, want %q", tt.readably, got, tt.want)
		}
	}
}

func TestShowLists(t *testing.T) {
	in := newTestInterp()
	h := in.Mem

	list := heap.SliceToList(h, []*heap.Cell{heap.Int(h, 1), heap.Int(h, 2), heap.Int(h, 3)})
	if got := Show(in, list, true); got != "(1 2 3)" {
		t.Errorf("list = %q", got)
	}

	dotted := heap.Cons(h, heap.Int(h, 1), heap.Int(h, 2))
	if got := Show(in, dotted, true); got != "(1 . 2)" {
		t.Errorf("dotted = %q", got)
	}

	nested := heap.Cons(h, list, nil)
	if got := Show(in, nested, true); got != "((1 2 3))" {
		t.Errorf("nested = %q", got)
	}
}

func TestShowSharedStructure(t *testing.T) {
	in := newTestInterp()
	h := in.Mem

	shared := heap.SliceToList(h, []*heap.Cell{heap.Int(h, 9)})
	both := heap.SliceToList(h, []*heap.Cell{shared, shared})
	got := Show(in, both, true)
	if got != "(#1=(9) #1#)" {
		t.Errorf("shared = %q, want (#1=(9) #1#)", got)
	}
}

func TestShowCyclicStructure(t *testing.T) {
	in := newTestInterp()
	h := in.Mem
	cyc := heap.Cons(h, heap.Int(h, 1), nil)
	cyc.Next = cyc
	got := Show(in, cyc, true)
	// The cyclic tail renders as a back-reference rather than looping.
	if !strings.Contains(got, "#1#") || !strings.Contains(got, "#1=") {
		t.Errorf("cycle = %q", got)
	}
}

func TestShowBlockAndClosure(t *testing.T) {
	in := newTestInterp()
	h := in.Mem
	block := heap.Block(h, heap.SliceToList(h, []*heap.Cell{heap.Int(h, 1), heap.Int(h, 2)}))
	if got := Show(in, block, true); got != "(1 2)" {
		t.Errorf("block = %q", got)
	}
	if got := Show(in, heap.Closure(h, block, nil), true); got != "#<Closure>" {
		t.Errorf("closure = %q", got)
	}
}

func TestShowFallback(t *testing.T) {
	in := newTestInterp()
	h := in.Mem
	p := heap.Pointer(h, 1, nil, nil)
	got := Show(in, p, true)
	if !strings.HasPrefix(got, "#<Pointer:") {
		t.Errorf("pointer fallback = %q", got)
	}
}

// Round trip: show readably, reparse, expect a structurally equivalent
// value for the printable subset.
func TestShowParseRoundTrip(t *testing.T) {
	in := newTestInterp()
	h := in.Mem
	values := []*heap.Cell{
		heap.Int(h, 42),
		heap.Int(h, -1),
		heap.Float(h, 1.25),
		heap.Bool(h, true),
		heap.NewString(h, "with \"quotes\" and \n newline"),
		heap.Symbol(h, heap.MakeIdentifier(h, "sym", nil)),
		heap.MakeIdentifier(h, "name", nil),
	}
	for _, v := range values {
		text := Show(in, v, true)
		stream := strs.NewIOString(in.Mem, heap.NewString(in.Mem, text))
		block, err := parser.ParseProgram(in, stream)
		if err != nil {
			t.Fatalf("reparse %q: %v", text, err)
		}
		cmds := heap.ListToSlice(block.Next)
		if len(cmds) != 1 {
			t.Fatalf("reparse %q: %d commands", text, len(cmds))
		}
		if !structurallyEqual(v, cmds[0]) {
			t.Errorf("round trip of %q lost structure", text)
		}
	}
}

func structurallyEqual(a, b *heap.Cell) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case heap.TagInt:
		return a.I == b.I
	case heap.TagFloat:
		return a.F == b.F
	case heap.TagBool:
		return a.B == b.B
	case heap.TagStringChunk:
		return heap.StringText(a) == heap.StringText(b)
	case heap.TagIdentifier:
		return heap.SameIdentifier(a, b)
	case heap.TagSymbol:
		return heap.SameIdentifier(a.Next, b.Next)
	case heap.TagList:
		return structurallyEqual(a.Item, b.Item) && structurallyEqual(a.Next, b.Next)
	}
	return false
}

func TestPrintf(t *testing.T) {
	in := newTestInterp()
	h := in.Mem
	tests := []struct {
		format string
		args   []*heap.Cell
		want   string
	}{
		{"plain", nil, "plain"},
		{"%d", []*heap.Cell{heap.Int(h, 42)}, "42"},
		{"%x", []*heap.Cell{heap.Int(h, 255)}, "ff"},
		{"%X", []*heap.Cell{heap.Int(h, 255)}, "FF"},
		{"%o", []*heap.Cell{heap.Int(h, 8)}, "10"},
		{"%c", []*heap.Cell{heap.Int(h, 65)}, "A"},
		{"%s", []*heap.Cell{heap.NewString(h, "str")}, "str"},
		{"%%", nil, "%"},
		{"%O", []*heap.Cell{heap.NewString(h, "q")}, `"q"`},
		{"%#O", []*heap.Cell{heap.NewString(h, "q")}, "q"},
		{"a %d b %s c", []*heap.Cell{heap.Int(h, 1), heap.NewString(h, "x")}, "a 1 b x c"},
	}
	for _, tt := range tests {
		if got := Printf(in, tt.format, tt.args); got != tt.want {
			t.Errorf("Printf(%q) = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestPrintfFloatVerbs(t *testing.T) {
	in := newTestInterp()
	h := in.Mem
	got := Printf(in, "%g", []*heap.Cell{heap.Float(h, 0.5)})
	if got != "0.5" {
		t.Errorf("%%g = %q", got)
	}
	got = Printf(in, "%f", []*heap.Cell{heap.Int(h, 2)})
	if !strings.HasPrefix(got, "2.0") {
		t.Errorf("%%f of int = %q", got)
	}
}
