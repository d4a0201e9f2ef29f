// Package diagnostics defines ct diagnostic types for lex/parse/runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thomasrohde/ct/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex            = "E_LEX"
	EParse          = "E_PARSE"
	EUnknownVar     = "E_UNKNOWN_VAR"
	EUnknownFn      = "E_UNKNOWN_FN"
	EArity          = "E_ARITY"
	EFnDup          = "E_FN_DUP"
	EAssign         = "E_ASSIGN"
	ECondType       = "E_COND_TYPE"
	EOperator       = "E_OPERATOR"
	EMissingOperand = "E_MISSING_OPERAND"
	EDivZero        = "E_DIV_ZERO"
	EControl        = "E_CONTROL"
	EStruct         = "E_STRUCT"
	EUnsupported    = "E_UNSUPPORTED"
	EDepth          = "E_DEPTH"
	EIterations     = "E_ITERATIONS"
	ECanceled       = "E_CANCELED"
	EDupParam       = "E_DUP_PARAM"
	EIO             = "E_IO"
	EConfig         = "E_CONFIG"
)

// Diagnostic represents a lex, parse, validation, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// Diagnosable is implemented by every error type that carries a diagnostic.
type Diagnosable interface {
	error
	Diagnostic() Diagnostic
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
