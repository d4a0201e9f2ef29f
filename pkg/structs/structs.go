// Package structs provides the host-registered ct structures.
package structs

import (
	"fmt"

	"github.com/thomasrohde/ct/pkg/ast"
	"github.com/thomasrohde/ct/pkg/diagnostics"
	"github.com/thomasrohde/ct/pkg/evaluator"
	"github.com/thomasrohde/ct/pkg/parser"
)

// stringPrelude defines the String methods. Each receives the receiver as
// its first parameter and forwards to the native of the same name.
const stringPrelude = `
let len(let s) { return len(s); }
let upper(let s) { return upper(s); }
let lower(let s) { return lower(s); }
let trim(let s) { return trim(s); }
let contains(let s, let sub) { return contains(s, sub); }
let replace(let s, let from, let to) { return replace(s, from, to); }
let starts_with(let s, let prefix) { return starts_with(s, prefix); }
let ends_with(let s, let suffix) { return ends_with(s, suffix); }
`

// Registry collects structures by runtime type name before they are frozen.
type Registry struct {
	structs map[string]*evaluator.Struct
}

// NewRegistry creates an empty structure registry.
func NewRegistry() *Registry {
	return &Registry{structs: make(map[string]*evaluator.Struct)}
}

// Append registers s under name, replacing any earlier registration.
func (r *Registry) Append(name string, s *evaluator.Struct) {
	r.structs[name] = s
}

// Build returns the immutable structure table for the evaluator.
func (r *Registry) Build() *evaluator.Structs {
	return evaluator.NewStructs(r.structs)
}

// FromSource builds a structure whose prototype holds every function
// defined in src. Any other top-level statement is rejected.
func FromSource(name, src string) (*evaluator.Struct, error) {
	prog, diags := parser.Parse(src, name+".prelude")
	if len(diags) > 0 {
		return nil, fmt.Errorf("structure %s: %s", name, diagnostics.FormatDiagnostics(diags, true))
	}

	st := &evaluator.Struct{
		Constructor: &ast.FnDecl{Header: ast.FnHeader{Name: "constructor", ReturnType: name}},
		Prototype:   make(map[string]evaluator.Value),
	}
	for _, stmt := range prog.Statements {
		fn, ok := stmt.(*ast.FnDecl)
		if !ok {
			return nil, fmt.Errorf("structure %s: only function definitions are allowed, found %s", name, stmt.Kind())
		}
		st.Prototype[fn.Header.Name] = evaluator.NewFunction(fn)
	}
	return st, nil
}

// String returns the built-in String structure.
func String() *evaluator.Struct {
	st, err := FromSource(evaluator.TypeString, stringPrelude)
	if err != nil {
		panic(err) // the prelude is a constant
	}
	return st
}

// RegisterDefaults adds every built-in structure.
func RegisterDefaults(r *Registry) {
	r.Append(evaluator.TypeString, String())
}
