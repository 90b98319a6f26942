package machine

import (
	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/registry"
)

// GetChar dispatches STREAM_GETCH on stream, returning the byte read and
// ok=false on EOF. Any value answering the three stream methods
// (IOString, file-backed, network-backed) may substitute.
func (in *Interpreter) GetChar(stream *heap.Cell) (b byte, ok bool) {
	in.RunWellKnownStrict(stream, registry.STREAM_GETCH)
	result := in.Pop()
	if result == nil || result.Tag == heap.TagEOF {
		return 0, false
	}
	return result.Bytes[0], true
}

// UngetString dispatches STREAM_UNGETS, pushing s back onto stream so a
// subsequent GetChar sequence reproduces it in order.
func (in *Interpreter) UngetString(stream *heap.Cell, s string) {
	in.Push(heap.NewString(in.Mem, s))
	in.RunWellKnownStrict(stream, registry.STREAM_UNGETS)
}

// PutString dispatches STREAM_PUTS, writing s to stream.
func (in *Interpreter) PutString(stream *heap.Cell, s string) {
	in.Push(heap.NewString(in.Mem, s))
	in.RunWellKnownStrict(stream, registry.STREAM_PUTS)
}
