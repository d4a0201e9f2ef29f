package evaluator

import (
	"maps"
	"slices"

	"github.com/thomasrohde/ct/pkg/ast"
)

// NativeFn is a host function callable from ct. It receives the evaluated
// arguments in order (absent values are nil) and returns one value or nil.
// Failures are reported by returning a CtError, never by panicking.
type NativeFn func(args []Value) Value

// Natives is the immutable native function table.
type Natives struct {
	fns map[string]NativeFn
}

// NewNatives builds a native table from fns. The map is copied.
func NewNatives(fns map[string]NativeFn) *Natives {
	return &Natives{fns: maps.Clone(fns)}
}

// Contains reports whether a native named name exists.
func (n *Natives) Contains(name string) bool {
	if n == nil {
		return false
	}
	_, ok := n.fns[name]
	return ok
}

// Execute invokes the native name with args. It returns nil when name is unknown.
func (n *Natives) Execute(name string, args []Value) Value {
	if !n.Contains(name) {
		return nil
	}
	return n.fns[name](args)
}

// Names returns the registered native names in sorted order.
func (n *Natives) Names() []string {
	if n == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(n.fns))
}

// Struct is a host-registered structure: a constructor plus a prototype
// mapping member names to values (usually CtFunction methods).
type Struct struct {
	Constructor *ast.FnDecl
	Prototype   map[string]Value
}

// Get returns the prototype member name.
func (s *Struct) Get(name string) (Value, bool) {
	val, ok := s.Prototype[name]
	return val, ok
}

// Structs is the immutable structure table, keyed by runtime type name.
type Structs struct {
	structs map[string]*Struct
}

// NewStructs builds a structure table. The map is copied.
func NewStructs(structs map[string]*Struct) *Structs {
	return &Structs{structs: maps.Clone(structs)}
}

// Contains reports whether a structure is registered for name.
func (s *Structs) Contains(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.structs[name]
	return ok
}

// Get returns the structure registered for name.
func (s *Structs) Get(name string) (*Struct, bool) {
	if s == nil {
		return nil, false
	}
	st, ok := s.structs[name]
	return st, ok
}

// Names returns the registered structure names in sorted order.
func (s *Structs) Names() []string {
	if s == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(s.structs))
}
