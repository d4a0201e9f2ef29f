// Package evaluator implements the ct runtime evaluator.
package evaluator

import (
	"fmt"
	"strconv"

	"github.com/thomasrohde/ct/pkg/ast"
)

// Type names reported by TypeName and used to select a struct for member access.
const (
	TypeString   = "String"
	TypeInt      = "int"
	TypeFloat    = "float"
	TypeBool     = "bool"
	TypeFunction = "fun"
	TypeError    = "err"
	TypeNull     = "null"
)

// Value is the interface for all ct runtime values. A nil Value means the
// expression produced no value.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	TypeName() string
	String() string
	ctvalue() // sealed marker
}

// CtInt represents an integer value.
type CtInt struct {
	Value int64
}

func (CtInt) ctvalue()         {}
func (CtInt) TypeName() string { return TypeInt }
func (v CtInt) String() string { return strconv.FormatInt(v.Value, 10) }

// CtFloat represents a floating point value.
type CtFloat struct {
	Value float64
}

func (CtFloat) ctvalue()         {}
func (CtFloat) TypeName() string { return TypeFloat }

// String prints the shortest decimal that round-trips, without exponent.
func (v CtFloat) String() string {
	return strconv.FormatFloat(v.Value, 'f', -1, 64)
}

// CtBool represents a boolean value.
type CtBool struct {
	Value bool
}

func (CtBool) ctvalue()         {}
func (CtBool) TypeName() string { return TypeBool }
func (v CtBool) String() string { return strconv.FormatBool(v.Value) }

// CtString represents a string value.
type CtString struct {
	Value string
}

func (CtString) ctvalue()         {}
func (CtString) TypeName() string { return TypeString }
func (v CtString) String() string { return v.Value }

// CtFunction is a user-defined function. It carries no captured scope:
// the body resolves names against the chain active at the call site.
type CtFunction struct {
	Decl *ast.FnDecl
}

func (CtFunction) ctvalue()         {}
func (CtFunction) TypeName() string { return TypeFunction }
func (v CtFunction) String() string { return fmt.Sprintf("<fun %s/%d>", v.Decl.Header.Name, v.Arity()) }

// Name returns the declared function name.
func (v CtFunction) Name() string { return v.Decl.Header.Name }

// Arity returns the number of declared parameters.
func (v CtFunction) Arity() int { return len(v.Decl.Header.Params) }

// CtError is a soft error value. Natives return it instead of aborting;
// programs can print and inspect it like any other value.
type CtError struct {
	Message string
}

func (CtError) ctvalue()         {}
func (CtError) TypeName() string { return TypeError }
func (v CtError) String() string { return "error: " + v.Message }

// NewInt creates an integer value.
func NewInt(n int64) Value {
	return CtInt{Value: n}
}

// NewFloat creates a float value.
func NewFloat(f float64) Value {
	return CtFloat{Value: f}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return CtBool{Value: b}
}

// NewString creates a string value.
func NewString(s string) Value {
	return CtString{Value: s}
}

// NewFunction wraps a function definition as a value.
func NewFunction(decl *ast.FnDecl) Value {
	return CtFunction{Decl: decl}
}

// NewError creates a soft error value.
func NewError(format string, args ...any) Value {
	return CtError{Message: fmt.Sprintf(format, args...)}
}

// TypeOf returns the type name of v, or "null" when v is absent.
func TypeOf(v Value) string {
	if v == nil {
		return TypeNull
	}
	return v.TypeName()
}

// Format renders v the way print does. Absent values render as "None".
func Format(v Value) string {
	if v == nil {
		return "None"
	}
	return v.String()
}

// IsError reports whether v is a soft error value.
func IsError(v Value) bool {
	_, ok := v.(CtError)
	return ok
}
