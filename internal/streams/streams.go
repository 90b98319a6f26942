// Package streams provides file-descriptor-backed stream cells: values
// answering STREAM_PUTS / STREAM_GETCH / STREAM_UNGETS over an os.File.
// Any other value answering the same three methods (an IO-string, a
// websocket stream) substitutes freely.
package streams

import (
	"bufio"
	"os"

	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
	"github.com/knotlang/knot/internal/registry"
	"github.com/knotlang/knot/internal/strs"
)

// File is the opaque payload of a file-backed stream cell. Reads go
// through a buffered reader with an explicit pushback queue in front;
// writes bypass the reader entirely.
type File struct {
	f      *os.File
	r      *bufio.Reader
	unget  []byte
	closed bool
}

func (fs *File) getch() (byte, bool) {
	if n := len(fs.unget); n > 0 {
		b := fs.unget[0]
		fs.unget = fs.unget[1:]
		return b, true
	}
	b, err := fs.r.ReadByte()
	if err != nil {
		return 0, false
	}
	return b, true
}

func (fs *File) ungets(s string) {
	fs.unget = append([]byte(s), fs.unget...)
}

func (fs *File) puts(s string) error {
	_, err := fs.f.WriteString(s)
	return err
}

// Close closes the underlying descriptor once; further calls are no-ops,
// keeping the GC-sweep destructor idempotent.
func (fs *File) Close() {
	if fs.closed {
		return
	}
	fs.closed = true
	fs.f.Close()
}

// NewFile wraps f as a stream cell that does not own the descriptor (no
// destructor): used for the pre-bound stdin/stdout/stderr streams.
func NewFile(h *heap.Heap, f *os.File) *heap.Cell {
	return heap.Stream(h, &File{f: f, r: bufio.NewReader(f)}, nil)
}

// NewOwnedFile wraps f as a stream cell whose descriptor closes when the
// cell is swept (or explicitly via the Close operator).
func NewOwnedFile(h *heap.Heap, f *os.File) *heap.Cell {
	fs := &File{f: f, r: bufio.NewReader(f)}
	return heap.Stream(h, fs, func(*heap.Cell) { fs.Close() })
}

// The three method bodies decline (pop self, return NotImplemented) when
// the stream cell's payload isn't a *File, letting dispatch carry on to
// the next stream flavor registered for the same variant.

func fileGetch(m heap.Machine) heap.Status {
	in := m.(*machine.Interpreter)
	self := m.Pop()
	fs, ok := self.Ptr.(*File)
	if !ok {
		return in.St.NotImpl
	}
	b, ok := fs.getch()
	if !ok {
		m.Push(heap.EOF(m.Heap()))
		return nil
	}
	m.Push(strs.Character(m.Heap(), b))
	return nil
}

func filePuts(m heap.Machine) heap.Status {
	in := m.(*machine.Interpreter)
	self := m.Pop()
	fs, ok := self.Ptr.(*File)
	if !ok {
		return in.St.NotImpl
	}
	s := m.Pop()
	if err := fs.puts(strs.Text(s)); err != nil {
		m.Push(heap.NewString(m.Heap(), "I/O error: "+err.Error()))
		return in.St.Error
	}
	return nil
}

func fileUngets(m heap.Machine) heap.Status {
	in := m.(*machine.Interpreter)
	self := m.Pop()
	fs, ok := self.Ptr.(*File)
	if !ok {
		return in.St.NotImpl
	}
	s := m.Pop()
	fs.ungets(strs.Text(s))
	return nil
}

func modeFlags(mode string) (int, bool) {
	switch mode {
	case "r":
		return os.O_RDONLY, true
	case "w":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, true
	case "a":
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, true
	case "rw":
		return os.O_RDWR | os.O_CREATE, true
	}
	return 0, false
}

// FileModule bundles the file stream's STREAM_* methods and its two
// user-facing operators.
func FileModule() *registry.Module {
	return &registry.Module{
		Name: "streams/file",
		Methods: []*registry.Method{
			{Tag: heap.TagStream, Kind: registry.STREAM_GETCH, Fn: fileGetch},
			{Tag: heap.TagStream, Kind: registry.STREAM_PUTS, Fn: filePuts},
			{Tag: heap.TagStream, Kind: registry.STREAM_UNGETS, Fn: fileUngets},
		},
		Funcs: []*heap.ModFunc{
			{
				Name: "Open",
				Doc:  "(path mode -- stream) open a file; mode is r, w, a, or rw",
				Fn: func(m heap.Machine, _ *heap.Cell) heap.Status {
					in := m.(*machine.Interpreter)
					if heap.ListLen(in.Stack) < 2 {
						in.Push(heap.NewString(in.Mem, "arity error: Open needs 2 item(s) on the stack"))
						return in.St.Error
					}
					mode := in.Pop()
					path := in.Pop()
					flags, ok := modeFlags(strs.Text(mode))
					if !ok {
						in.Push(heap.NewString(in.Mem, "Open: bad mode "+strs.Text(mode)))
						return in.St.Error
					}
					f, err := os.OpenFile(strs.Text(path), flags, 0o644)
					if err != nil {
						in.Push(heap.NewString(in.Mem, "I/O error: "+err.Error()))
						return in.St.Error
					}
					in.Push(NewOwnedFile(in.Mem, f))
					return nil
				},
			},
			{
				Name: "Close",
				Doc:  "(stream -- ) close a stream now, ahead of its sweep",
				Fn: func(m heap.Machine, _ *heap.Cell) heap.Status {
					in := m.(*machine.Interpreter)
					c, ok := in.PopChecked()
					if !ok {
						in.Push(heap.NewString(in.Mem, "arity error: Close needs 1 item(s) on the stack"))
						return in.St.Error
					}
					if c != nil && c.Destroy != nil {
						c.Destroy(c)
						c.Destroy = nil
					}
					return nil
				},
			},
		},
		Types: []heap.Tag{heap.TagStream},
	}
}
