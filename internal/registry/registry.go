// Package registry implements method dispatch: modules bundle a function table (named
// callables), a method table (well-known per-(variant,kind) methods) and
// the list of variants they introduce. Dispatch is a linear scan in
// registration order, first match wins — deliberately not memoized, so
// that soft dispatch's "try the next candidate" semantics stay visible.
package registry

import "github.com/knotlang/knot/internal/heap"

// Kind names a well-known method contract.
type Kind uint8

const (
	EXEC Kind = iota
	SHOW
	HASH
	STREAM_PUTS
	STREAM_GETCH
	STREAM_UNGETS
)

func (k Kind) String() string {
	switch k {
	case EXEC:
		return "EXEC"
	case SHOW:
		return "SHOW"
	case HASH:
		return "HASH"
	case STREAM_PUTS:
		return "STREAM_PUTS"
	case STREAM_GETCH:
		return "STREAM_GETCH"
	case STREAM_UNGETS:
		return "STREAM_UNGETS"
	default:
		return "UNKNOWN"
	}
}

// MethodFunc is a well-known method body. It receives the Machine the same
// way a ModFunc does (cookie/self already on the work stack per the
// contract table) and returns the resulting Status.
type MethodFunc func(m heap.Machine) heap.Status

// Method binds a MethodFunc to the (variant, kind) pair it implements.
type Method struct {
	Tag  heap.Tag
	Kind Kind
	Fn   MethodFunc
}

// Module is a named collection of built-in functions, well-known method
// implementations, and the variants it introduces (informational, for
// diagnostics/dumping only — dispatch never consults it).
type Module struct {
	Name    string
	Funcs   []*heap.ModFunc
	Methods []*Method
	Types   []heap.Tag
}

// Registry holds modules in registration order; Dispatch and
// LookupFunction both scan in that order, first match wins.
type Registry struct {
	modules []*Module
}

func New() *Registry { return &Registry{} }

// Add registers a module, appending it to the scan order.
func (r *Registry) Add(m *Module) { r.modules = append(r.modules, m) }

// Modules returns the registered modules in scan order.
func (r *Registry) Modules() []*Module { return r.modules }

// LookupFunction finds the first registered function named name
// (case-insensitively), across modules in registration order. Used by
// identifier construction to pick tier-1 (built-in reference) encoding.
func (r *Registry) LookupFunction(name string) *heap.ModFunc {
	for _, mod := range r.modules {
		for _, fn := range mod.Funcs {
			if equalFold(fn.Name, name) {
				return fn
			}
		}
	}
	return nil
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// When no module implements (tag, kind), Dispatch (soft mode) returns
// the notImpl cell its caller passed in. Callers compare by identity
// against the interpreter's well-known NotImplemented identifier cell;
// the Interpreter supplies that same cell as notImpl, so identity
// comparisons downstream stay correct.

// Dispatch scans modules in order for the first Method matching
// (self.Tag, kind). Before each candidate call it pushes self onto the
// work stack, per the method contract's "(cookie self — …)" stack effect;
// a method that declines (returns notImpl, by pointer identity) must pop
// exactly what it was given before returning, since the next candidate
// gets a fresh push of the same self. If nothing matches, Dispatch
// returns notImpl itself (soft dispatch); strict dispatch is a thin
// wrapper that aborts instead.
func (r *Registry) Dispatch(m heap.Machine, self *heap.Cell, kind Kind, notImpl *heap.Cell) heap.Status {
	tag := heap.TagList
	if self != nil {
		tag = self.Tag
	}
	for _, mod := range r.modules {
		for _, meth := range mod.Methods {
			if meth.Tag != tag || meth.Kind != kind {
				continue
			}
			m.Push(self)
			res := meth.Fn(m)
			if res == notImpl {
				continue
			}
			return res
		}
	}
	return notImpl
}
