// Package lexer implements the reader's first phase: character
// classification. It pulls bytes one at a time from any
// STREAM_GETCH-capable cell and accumulates them into a token buffer,
// deciding token boundaries via two ordered rules: characters that end a
// token before themselves, and characters that end one after being
// absorbed.
package lexer

import (
	"strings"

	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
)

// boundaryChars end a token without being part of it: whitespace and the
// characters that open/close/quote a construct.
const boundaryChars = " \t\r\n([{\"~;"

// absorbThenEnd are characters that end a token after being consumed:
// `)`, `]`, `}` are tokens in their own right (closing sentinels) but
// only once any preceding accumulated text has been flushed as its own
// token.
const absorbThenEnd = ")]}"

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// NextToken reads and returns the next raw token from stream. boundary is
// non-zero only for a standalone closer (bare "" token with boundary
// ')'/']'/'}'); a token ended by EOF or by any other boundary byte comes
// back with boundary 0, and that byte is left unread on the stream. This
// is the whole of phase one; internal/parser interprets the result.
func NextToken(in *machine.Interpreter, stream *heap.Cell) (token string, boundary byte, eof bool) {
	var sb strings.Builder
	for {
		b, ok := in.GetChar(stream)
		if !ok {
			return sb.String(), 0, true
		}
		if sb.Len() == 0 && isWhitespace(b) {
			continue
		}
		if sb.Len() == 0 && strings.IndexByte(absorbThenEnd, b) >= 0 {
			// A lone closer with nothing accumulated yet: it's a token by
			// itself, per rule (b) "absorbed if appropriate".
			return "", b, false
		}
		if strings.IndexByte(boundaryChars, b) >= 0 || strings.IndexByte(absorbThenEnd, b) >= 0 {
			in.UngetString(stream, string(b))
			return sb.String(), 0, false
		}
		sb.WriteByte(b)
	}
}

// SkipWhitespace consumes (and discards) whitespace characters, leaving
// the stream positioned at the first non-whitespace byte, or at EOF.
func SkipWhitespace(in *machine.Interpreter, stream *heap.Cell) {
	for {
		b, ok := in.GetChar(stream)
		if !ok {
			return
		}
		if !isWhitespace(b) {
			in.UngetString(stream, string(b))
			return
		}
	}
}

// PeekChar reads one byte and immediately ungets it, letting a token
// handler look ahead without committing to consuming it.
func PeekChar(in *machine.Interpreter, stream *heap.Cell) (byte, bool) {
	b, ok := in.GetChar(stream)
	if ok {
		in.UngetString(stream, string(b))
	}
	return b, ok
}
