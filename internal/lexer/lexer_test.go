package lexer

import (
	"testing"

	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
	"github.com/knotlang/knot/internal/registry"
	"github.com/knotlang/knot/internal/strs"
)

func stream(in *machine.Interpreter, src string) *heap.Cell {
	return strs.NewIOString(in.Mem, heap.NewString(in.Mem, src))
}

func newTestInterp() *machine.Interpreter {
	reg := registry.New()
	reg.Add(machine.CoreModule())
	reg.Add(strs.Module())
	return machine.New(reg)
}

func TestNextTokenSplitsOnWhitespace(t *testing.T) {
	in := newTestInterp()
	s := stream(in, "  foo   bar\tbaz\n")
	var tokens []string
	for {
		tok, _, eof := NextToken(in, s)
		if tok != "" {
			tokens = append(tokens, tok)
		}
		if eof {
			break
		}
	}
	want := []string{"foo", "bar", "baz"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v", tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("token %d = %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestNextTokenBoundaryCharsEndToken(t *testing.T) {
	in := newTestInterp()
	for _, tt := range []struct {
		src, tok string
		nextByte byte
	}{
		{`foo(bar`, "foo", '('},
		{`foo"s"`, "foo", '"'},
		{`foo;bar`, "foo", ';'},
		{`foo~c~`, "foo", '~'},
		{`foo)`, "foo", ')'},
	} {
		s := stream(in, tt.src)
		tok, _, eof := NextToken(in, s)
		if tok != tt.tok || eof {
			t.Fatalf("src %q: token = %q eof=%v", tt.src, tok, eof)
		}
		// The boundary byte stays on the stream for the next reader.
		b, ok := in.GetChar(s)
		if !ok || b != tt.nextByte {
			t.Fatalf("src %q: next byte = %q, want %q", tt.src, b, tt.nextByte)
		}
	}
}

func TestNextTokenLoneCloser(t *testing.T) {
	in := newTestInterp()
	s := stream(in, ")")
	tok, boundary, eof := NextToken(in, s)
	if tok != "" || boundary != ')' || eof {
		t.Fatalf("lone closer: tok=%q boundary=%q eof=%v", tok, boundary, eof)
	}
}

func TestNextTokenEOF(t *testing.T) {
	in := newTestInterp()
	s := stream(in, "abc")
	tok, _, eof := NextToken(in, s)
	if tok != "abc" || !eof {
		t.Fatalf("tok=%q eof=%v", tok, eof)
	}
	tok, _, eof = NextToken(in, s)
	if tok != "" || !eof {
		t.Fatalf("at EOF: tok=%q eof=%v", tok, eof)
	}
}

func TestSkipWhitespaceAndPeek(t *testing.T) {
	in := newTestInterp()
	s := stream(in, "   x")
	SkipWhitespace(in, s)
	b, ok := PeekChar(in, s)
	if !ok || b != 'x' {
		t.Fatalf("peek = %q/%v", b, ok)
	}
	// Peek must not consume.
	b2, ok := in.GetChar(s)
	if !ok || b2 != 'x' {
		t.Fatalf("after peek, read = %q/%v", b2, ok)
	}
}
