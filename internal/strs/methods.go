package strs

import (
	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/registry"
)

// streamGetch implements STREAM_GETCH for IOString: (stream — char-or-EOF).
func streamGetch(m heap.Machine) heap.Status {
	self := m.Pop()
	b, ok := Getch(self)
	if !ok {
		m.Push(heap.EOF(m.Heap()))
		return nil
	}
	m.Push(Character(m.Heap(), b))
	return nil
}

// streamPuts implements STREAM_PUTS for IOString: (string stream — ).
func streamPuts(m heap.Machine) heap.Status {
	self := m.Pop()
	s := m.Pop()
	Puts(m.Heap(), self, Text(s))
	return nil
}

// streamUngets implements STREAM_UNGETS for IOString: (string stream — ).
func streamUngets(m heap.Machine) heap.Status {
	self := m.Pop()
	s := m.Pop()
	Ungets(m.Heap(), self, Text(s))
	return nil
}

// Module bundles the IOString variant's STREAM_* methods.
func Module() *registry.Module {
	return &registry.Module{
		Name: "strings/iostring",
		Methods: []*registry.Method{
			{Tag: heap.TagIOString, Kind: registry.STREAM_GETCH, Fn: streamGetch},
			{Tag: heap.TagIOString, Kind: registry.STREAM_PUTS, Fn: streamPuts},
			{Tag: heap.TagIOString, Kind: registry.STREAM_UNGETS, Fn: streamUngets},
		},
		Types: []heap.Tag{heap.TagStringChunk, heap.TagIOString},
	}
}
