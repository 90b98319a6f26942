// Package dump implements a shared-structure-aware printer. A first
// pass walks the value building a reference-count table keyed by cell
// identity; a second pass prints, emitting #N= on first visit of a shared
// sub-object and #N# on subsequent visits. List cells render as
// parenthesized sequences with a dotted tail when the tail isn't a list;
// other variants dispatch SHOW, falling back to #<TypeName: ...> when
// unimplemented.
package dump

import (
	"fmt"
	"strings"

	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
	"github.com/knotlang/knot/internal/registry"
)

// refCounts is the first pass's output: how many distinct reference paths
// reach each cell. Only cells visited more than once get a #N tag at all.
type refCounts struct {
	counts map[*heap.Cell]int
	order  []*heap.Cell
}

func scan(rc *refCounts, c *heap.Cell, seen map[*heap.Cell]bool) {
	if c == nil {
		return
	}
	if rc.counts[c] == 0 {
		rc.order = append(rc.order, c)
	}
	rc.counts[c]++
	if seen[c] {
		return // already descended into this cell once; don't re-walk its children
	}
	seen[c] = true
	switch c.Tag {
	case heap.TagList:
		scan(rc, c.Item, seen)
		scan(rc, c.Next, seen)
	case heap.TagClosure, heap.TagContinuation:
		scan(rc, c.Item, seen)
		scan(rc, c.Next, seen)
	case heap.TagSymbol, heap.TagBlock, heap.TagBox, heap.TagVar, heap.TagIOString:
		scan(rc, c.Next, seen)
	case heap.TagIdentifier:
		if c.I == 0 && c.Func == nil {
			scan(rc, c.Next, seen)
		}
	}
}

// Dumper holds the per-call printing state: the interpreter (for SHOW
// dispatch), the shared-structure table, and which cells have already had
// their #N= label emitted.
type Dumper struct {
	in       *machine.Interpreter
	refs     *refCounts
	labelled map[*heap.Cell]int
	nextTag  int
}

// Show renders v to a string. readably controls whether strings/chars
// print quoted-and-escaped (true) or bare (false), matching SHOW's
// contract stack effect (readably self — string).
func Show(in *machine.Interpreter, v *heap.Cell, readably bool) string {
	rc := &refCounts{counts: map[*heap.Cell]int{}}
	scan(rc, v, map[*heap.Cell]bool{})
	d := &Dumper{in: in, refs: rc, labelled: map[*heap.Cell]int{}}
	var sb strings.Builder
	d.write(&sb, v, readably)
	return sb.String()
}

func (d *Dumper) write(sb *strings.Builder, c *heap.Cell, readably bool) {
	if c != nil && d.refs.counts[c] > 1 {
		if tag, ok := d.labelled[c]; ok {
			fmt.Fprintf(sb, "#%d#", tag)
			return
		}
		d.nextTag++
		d.labelled[c] = d.nextTag
		fmt.Fprintf(sb, "#%d=", d.nextTag)
	}

	if c == nil {
		sb.WriteString("()")
		return
	}

	if c.Tag == heap.TagList {
		d.writeList(sb, c, readably)
		return
	}

	if shown, ok := d.dispatchShow(c, readably); ok {
		sb.WriteString(shown)
		return
	}
	fmt.Fprintf(sb, "#<%s: %p %p>", c.Tag, c, c.Next)
}

func (d *Dumper) writeList(sb *strings.Builder, c *heap.Cell, readably bool) {
	sb.WriteByte('(')
	first := true
	for {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		d.write(sb, c.Item, readably)
		tail := c.Next
		if tail == nil {
			break
		}
		if tail.Tag != heap.TagList {
			sb.WriteString(" . ")
			d.write(sb, tail, readably)
			break
		}
		if d.refs.counts[tail] > 1 {
			// A shared tail needs its own #N=/#N# marker; render it as an
			// explicit dotted pair rather than splicing into this spine.
			sb.WriteString(" . ")
			d.write(sb, tail, readably)
			break
		}
		c = tail
	}
	sb.WriteByte(')')
}

// dispatchShow tries the registered SHOW method for c's variant before
// falling back to the built-ins below, which cover the core's own types
// (so every module doesn't have to reimplement List/Int/Float/... SHOW).
func (d *Dumper) dispatchShow(c *heap.Cell, readably bool) (string, bool) {
	switch c.Tag {
	case heap.TagInt:
		return fmt.Sprintf("%d", c.I), true
	case heap.TagFloat:
		return formatFloat(c.F), true
	case heap.TagBool:
		if c.B {
			return "True", true
		}
		return "False", true
	case heap.TagStringChunk:
		text := heap.StringText(c)
		if readably {
			return quote(text), true
		}
		return text, true
	case heap.TagIdentifier:
		// Bare identifiers render upper-initial so the printed form
		// survives a re-parse (the reader drops lowercase-initial
		// tokens as informal syntax); equality is case-insensitive
		// either way.
		return upperFirst(heap.IdentifierText(c)), true
	case heap.TagSymbol:
		return "\\" + heap.IdentifierText(c.Next), true
	case heap.TagEOF:
		return "#<EOF>", true
	case heap.TagSentinel:
		return fmt.Sprintf("#<Sentinel: %q>", c.SentinelByte()), true
	case heap.TagBlock:
		var sb strings.Builder
		sb.WriteByte('(')
		first := true
		for cmd := c.Next; cmd != nil; cmd = cmd.Next {
			if !first {
				sb.WriteByte(' ')
			}
			first = false
			d.write(&sb, cmd.Item, readably)
		}
		sb.WriteByte(')')
		return sb.String(), true
	case heap.TagClosure:
		return "#<Closure>", true
	case heap.TagContinuation:
		return "#<Continuation>", true
	case heap.TagBuiltin:
		return fmt.Sprintf("#<BuiltinFunc: %s>", c.Func.Name), true
	}

	if d.in == nil {
		return "", false
	}
	d.in.Push(heap.Bool(d.in.Mem, readably))
	res := d.in.RunWellKnown(c, registry.SHOW)
	if res == d.in.St.NotImpl {
		d.in.Pop()
		return "", false
	}
	return heap.StringText(d.in.Pop()), true
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	c := s[0]
	if c >= 'a' && c <= 'z' {
		return string(c-('a'-'A')) + s[1:]
	}
	return s
}

func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

var escapeOut = map[byte]string{
	'\n': `\n`, '\r': `\r`, '\t': `\t`, '\a': `\a`, '\b': `\b`,
	'\f': `\f`, '\v': `\v`, 0x1b: `\e`, '\\': `\\`, '"': `\"`,
}

func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if esc, ok := escapeOut[s[i]]; ok {
			sb.WriteString(esc)
		} else {
			sb.WriteByte(s[i])
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// Printf is the printf-style formatting helper: %O dumps readably, %#O
// dumps non-readably, and the usual %d %i %u %o %x %X %c %f %e %g %a %s
// %p %% verbs fall through to Go's fmt with the corresponding argument.
// args are *heap.Cell values; %O/%#O consume one, the numeric/string
// verbs unwrap the cell to the matching Go type before formatting.
func Printf(in *machine.Interpreter, format string, args []*heap.Cell) string {
	var sb strings.Builder
	ai := 0
	next := func() *heap.Cell {
		if ai >= len(args) {
			return nil
		}
		a := args[ai]
		ai++
		return a
	}
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i == len(format)-1 {
			sb.WriteByte(format[i])
			continue
		}
		i++
		if format[i] == '%' {
			sb.WriteByte('%')
			continue
		}
		if format[i] == '#' && i+1 < len(format) && format[i+1] == 'O' {
			i++
			sb.WriteString(Show(in, next(), false))
			continue
		}
		verb := format[i]
		arg := next()
		switch verb {
		case 'O':
			sb.WriteString(Show(in, arg, true))
		case 'd', 'i':
			fmt.Fprintf(&sb, "%d", cellInt(arg))
		case 'u':
			fmt.Fprintf(&sb, "%d", uint64(cellInt(arg)))
		case 'o':
			fmt.Fprintf(&sb, "%o", cellInt(arg))
		case 'x':
			fmt.Fprintf(&sb, "%x", cellInt(arg))
		case 'X':
			fmt.Fprintf(&sb, "%X", cellInt(arg))
		case 'c':
			fmt.Fprintf(&sb, "%c", rune(cellInt(arg)))
		case 'f', 'e', 'g':
			fmt.Fprintf(&sb, "%"+string(verb), cellFloat(arg))
		case 'a':
			fmt.Fprintf(&sb, "%x", cellFloat(arg))
		case 's':
			sb.WriteString(heap.StringText(arg))
		case 'p':
			fmt.Fprintf(&sb, "%p", arg)
		default:
			sb.WriteByte('%')
			sb.WriteByte(verb)
		}
	}
	return sb.String()
}

func cellInt(c *heap.Cell) int64 {
	if c == nil {
		return 0
	}
	if c.Tag == heap.TagFloat {
		return int64(c.F)
	}
	return c.I
}

func cellFloat(c *heap.Cell) float64 {
	if c == nil {
		return 0
	}
	if c.Tag == heap.TagInt {
		return float64(c.I)
	}
	return c.F
}
