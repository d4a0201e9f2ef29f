// Package stdlib provides the ct native function modules.
package stdlib

import (
	"maps"
	"slices"

	"github.com/thomasrohde/ct/pkg/evaluator"
)

// Fn represents a native function and the module that contributed it.
type Fn struct {
	Name    string
	Module  string
	Execute evaluator.NativeFn
}

// Module contributes an ordered set of natives to a registry.
type Module interface {
	Name() string
	Extend(r *Registry)
}

// Registry holds registered native functions while the host assembles them.
// Build freezes it into the immutable table the evaluator consumes.
type Registry struct {
	fns map[string]*Fn
}

// NewRegistry creates a new empty native registry.
func NewRegistry() *Registry {
	return &Registry{
		fns: make(map[string]*Fn),
	}
}

// Register adds a native function to the registry. A later registration
// under the same name replaces the earlier one.
func (r *Registry) Register(fn Fn) {
	r.fns[fn.Name] = &fn
}

// Append lets a module register its natives.
func (r *Registry) Append(m Module) {
	m.Extend(r)
}

// Get retrieves a native function by name.
func (r *Registry) Get(name string) *Fn {
	return r.fns[name]
}

// All returns all registered native functions.
func (r *Registry) All() map[string]*Fn {
	return r.fns
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.fns))
}

// Build returns the immutable native table for the evaluator.
func (r *Registry) Build() *evaluator.Natives {
	table := make(map[string]evaluator.NativeFn, len(r.fns))
	for name, fn := range r.fns {
		table[name] = fn.Execute
	}
	return evaluator.NewNatives(table)
}

// --- argument helpers shared by the modules ---

func arityError(name string, want int, args []evaluator.Value) evaluator.Value {
	if len(args) == want {
		return nil
	}
	return evaluator.NewError("%s expects %d argument(s), but received %d", name, want, len(args))
}

func stringArg(name string, args []evaluator.Value, i int) (string, evaluator.Value) {
	s, ok := args[i].(evaluator.CtString)
	if !ok {
		return "", evaluator.NewError("%s expects argument %d to be of type String, but received: %s",
			name, i+1, evaluator.TypeOf(args[i]))
	}
	return s.Value, nil
}

// stringArgs checks arity and that every argument is a String.
func stringArgs(name string, want int, args []evaluator.Value) ([]string, evaluator.Value) {
	if errVal := arityError(name, want, args); errVal != nil {
		return nil, errVal
	}
	out := make([]string, want)
	for i := range args {
		s, errVal := stringArg(name, args, i)
		if errVal != nil {
			return nil, errVal
		}
		out[i] = s
	}
	return out, nil
}
