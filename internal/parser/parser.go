// Package parser implements the reader's second phase: the ordered
// token-handler chain that turns the raw tokens internal/lexer hands it
// into parsed items, and the block accumulator that folds those items
// into Block cells.
//
// The handler chain is explicit recursion over an accumulator, one
// level per nesting of `(...)`. A separate current-statement /
// completed-statements split is not kept: a `;` never changes execution
// order (commands run strictly left to right regardless of which
// statement they fell in), so splicing completed statements ahead of
// the rest versus simply continuing to append are observably identical,
// and the latter needs no extra bookkeeping.
package parser

import (
	"fmt"
	"strings"

	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/lexer"
	"github.com/knotlang/knot/internal/machine"
)

// eofSentinel is the terminator byte a stream-exhausted close carries,
// distinct from every real closer.
const eofSentinel = 0xff

// topLevel is the closer a whole-source parse expects: EOF, not any of
// `)]}`.
const topLevel = 0

// ParseError reports a tokenizer or token-handler failure.
type ParseError struct{ Msg string }

func (e *ParseError) Error() string { return e.Msg }

func errf(format string, args ...any) error {
	return &ParseError{Msg: fmt.Sprintf(format, args...)}
}

// Parser holds what the handler chain needs: the interpreter (heap,
// registered function names for identifier interning) and the input
// stream.
type Parser struct {
	in     *machine.Interpreter
	stream *heap.Cell
}

func New(in *machine.Interpreter, stream *heap.Cell) *Parser {
	return &Parser{in: in, stream: stream}
}

// ParseProgram parses stream to EOF, returning a Block whose command list
// is the whole program in source order. Used for file/-c/REPL-chunk input.
func ParseProgram(in *machine.Interpreter, stream *heap.Cell) (*heap.Cell, error) {
	return New(in, stream).parseBlock(topLevel)
}

// parseBlock accumulates items until a sentinel matching closer is seen
// (or, for closer == topLevel, until EOF), returning the finished Block.
func (p *Parser) parseBlock(closer byte) (*heap.Cell, error) {
	h := p.in.Mem
	var cmds []*heap.Cell
	for {
		items, sentinel, err := p.nextItems()
		if err != nil {
			return nil, err
		}
		if sentinel != 0 {
			if sentinel == eofSentinel {
				if closer == topLevel {
					break
				}
				return nil, errf("unexpected EOF: expected %q", closer)
			}
			if sentinel != closer {
				return nil, errf("unexpected terminator %q", sentinel)
			}
			break
		}
		cmds = append(cmds, items...)
	}
	// cmds is already in source order, which is the order the block's
	// body is scheduled in: the first command sits at the list head.
	return heap.Block(h, heap.SliceToList(h, cmds)), nil
}

// nextItems returns the next zero-or-more items phase 2 emits for a
// single token-handler pass: normally one item, two for a def/let prefix
// (the bound token's own item, then its Binder), zero for `;` and for a
// dropped informal word (whitespace and comments are skipped inside the
// loop before the next token), or a sentinel byte when a terminator/EOF is
// reached.
func (p *Parser) nextItems() (items []*heap.Cell, sentinel byte, err error) {
	for {
		lexer.SkipWhitespace(p.in, p.stream)
		b, ok := lexer.PeekChar(p.in, p.stream)
		if !ok {
			return nil, eofSentinel, nil
		}

		switch b {
		case '~':
			if err := p.skipComment(); err != nil {
				return nil, 0, err
			}
			continue
		case '(':
			p.in.GetChar(p.stream)
			blk, err := p.parseBlock(')')
			if err != nil {
				return nil, 0, err
			}
			return []*heap.Cell{blk}, 0, nil
		case ')', ']', '}':
			p.in.GetChar(p.stream)
			return nil, b, nil
		case '"':
			p.in.GetChar(p.stream)
			s, err := p.scanString()
			if err != nil {
				return nil, 0, err
			}
			return []*heap.Cell{s}, 0, nil
		case '\\':
			p.in.GetChar(p.stream)
			tok, _, _ := lexer.NextToken(p.in, p.stream)
			if tok == "" {
				return nil, 0, errf("parse error: expected an identifier after \\")
			}
			id := heap.MakeIdentifier(p.in.Mem, tok, p.in.Reg.LookupFunction)
			return []*heap.Cell{heap.Symbol(p.in.Mem, id)}, 0, nil
		case ';':
			p.in.GetChar(p.stream)
			return nil, 0, nil
		}

		tok, _, eof := lexer.NextToken(p.in, p.stream)
		if tok == "" && eof {
			return nil, eofSentinel, nil
		}
		return p.classify(tok)
	}
}

// skipComment consumes a `~~…\n` line comment or a `~…~` block comment,
// with the leading `~` still unread on the stream.
func (p *Parser) skipComment() error {
	p.in.GetChar(p.stream) // leading '~'
	b, ok := lexer.PeekChar(p.in, p.stream)
	if ok && b == '~' {
		p.in.GetChar(p.stream)
		for {
			c, ok := p.in.GetChar(p.stream)
			if !ok || c == '\n' {
				return nil
			}
		}
	}
	for {
		c, ok := p.in.GetChar(p.stream)
		if !ok {
			return nil // unterminated block comment at EOF: tolerated
		}
		if c == '~' {
			return nil
		}
	}
}

var escapeIn = map[byte]byte{
	'n': '\n', 'r': '\r', 't': '\t', 'a': '\a', 'b': '\b',
	'f': '\f', 'v': '\v', 'e': 0x1b, '\\': '\\', '"': '"', 'z': 0,
}

func hexDigit(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10, true
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10, true
	}
	return 0, false
}

// scanString reads a `"…"` literal, the opening quote already consumed.
func (p *Parser) scanString() (*heap.Cell, error) {
	var sb strings.Builder
	for {
		c, ok := p.in.GetChar(p.stream)
		if !ok {
			return nil, errf("unterminated string")
		}
		if c == '"' {
			return heap.NewString(p.in.Mem, sb.String()), nil
		}
		if c == '\n' {
			return nil, errf("unterminated string")
		}
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		esc, ok := p.in.GetChar(p.stream)
		if !ok {
			return nil, errf("unterminated string")
		}
		if esc == 'x' {
			h1, ok1 := p.in.GetChar(p.stream)
			h2, ok2 := p.in.GetChar(p.stream)
			d1, k1 := hexDigit(h1)
			d2, k2 := hexDigit(h2)
			if !ok1 || !ok2 || !k1 || !k2 {
				return nil, errf("invalid \\x escape in string")
			}
			sb.WriteByte(byte(d1*16 + d2))
			continue
		}
		if mapped, ok := escapeIn[esc]; ok {
			sb.WriteByte(mapped)
			continue
		}
		// unknown \X: literal backslash followed by X.
		sb.WriteByte('\\')
		sb.WriteByte(esc)
	}
}

var intPattern = mustRegexp(`^-?[0-9]+$`)
var floatPattern = mustRegexp(`^-?[0-9]+(\.[0-9]+([eE][+-]?[0-9]+)?|[eE][+-]?[0-9]+)$`)

// classify tries the whole-token handlers in order: def/let, integer,
// float, boolean, the informal-syntax drop, and the identifier fallback.
func (p *Parser) classify(tok string) ([]*heap.Cell, byte, error) {
	if strings.EqualFold(tok, "def") || strings.EqualFold(tok, "let") {
		return p.parseBinder(strings.EqualFold(tok, "let"))
	}
	if intPattern.MatchString(tok) {
		return []*heap.Cell{heap.Int(p.in.Mem, parseInt(tok))}, 0, nil
	}
	if floatPattern.MatchString(tok) {
		return []*heap.Cell{heap.Float(p.in.Mem, parseFloat(tok))}, 0, nil
	}
	if strings.EqualFold(tok, "true") {
		return []*heap.Cell{heap.Bool(p.in.Mem, true)}, 0, nil
	}
	if strings.EqualFold(tok, "false") {
		return []*heap.Cell{heap.Bool(p.in.Mem, false)}, 0, nil
	}
	if isLowerInitial(tok) {
		return nil, 0, nil // informal flavor word, dropped
	}
	if !isValidIdentifierToken(tok) {
		return nil, 0, errf("parse error: invalid token %q", tok)
	}
	id := heap.MakeIdentifier(p.in.Mem, tok, p.in.Reg.LookupFunction)
	return []*heap.Cell{id}, 0, nil
}

// parseBinder handles a def/let prefix: read the target identifier,
// recurse for the next item, then append a Binder after it.
func (p *Parser) parseBinder(wrapped bool) ([]*heap.Cell, byte, error) {
	idTok, _, eof := lexer.NextToken(p.in, p.stream)
	if idTok == "" {
		if eof {
			return nil, 0, errf("unexpected EOF: expected an identifier after def/let")
		}
		return nil, 0, errf("parse error: expected an identifier after def/let")
	}
	id := heap.MakeIdentifier(p.in.Mem, idTok, p.in.Reg.LookupFunction)

	items, sentinel, err := p.nextItems()
	if err != nil {
		return nil, 0, err
	}
	if sentinel != 0 {
		return nil, 0, errf("unexpected terminator: def/let needs a value")
	}
	binder := heap.Binder(p.in.Mem, id, wrapped)
	return append(items, binder), 0, nil
}

func isLowerInitial(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	return c >= 'a' && c <= 'z'
}

// identPunct is the punctuation legal in an identifier alongside digits
// and letters: the packed alphabet's operator characters.
const identPunct = "-?!'+/\\*>=<^."

func isValidIdentifierToken(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	if !isAlpha(c) {
		return true // non-alpha-starting tokens are accepted unconditionally
	}
	if c < 'A' || c > 'Z' {
		return false // lowercase-initial was already dropped as informal
	}
	for i := 0; i < len(tok); i++ {
		ch := tok[i]
		if isAlpha(ch) || (ch >= '0' && ch <= '9') || strings.IndexByte(identPunct, ch) >= 0 {
			continue
		}
		return false
	}
	return true
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
