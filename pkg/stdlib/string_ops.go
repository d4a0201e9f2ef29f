package stdlib

import (
	"strings"
	"unicode/utf8"

	"github.com/thomasrohde/ct/pkg/evaluator"
)

// Str provides the string natives. The String struct's methods forward to them.
type Str struct{}

// Name returns the module name.
func (Str) Name() string { return "string" }

// Extend registers the module's natives.
func (m Str) Extend(r *Registry) {
	r.Register(Fn{Name: "len", Module: m.Name(), Execute: strLen})
	r.Register(Fn{Name: "upper", Module: m.Name(), Execute: strUpper})
	r.Register(Fn{Name: "lower", Module: m.Name(), Execute: strLower})
	r.Register(Fn{Name: "trim", Module: m.Name(), Execute: strTrim})
	r.Register(Fn{Name: "contains", Module: m.Name(), Execute: strContains})
	r.Register(Fn{Name: "replace", Module: m.Name(), Execute: strReplace})
	r.Register(Fn{Name: "starts_with", Module: m.Name(), Execute: strStartsWith})
	r.Register(Fn{Name: "ends_with", Module: m.Name(), Execute: strEndsWith})
}

// len(s) → int, counted in characters
func strLen(args []evaluator.Value) evaluator.Value {
	if len(args) != 1 || args[0] == nil {
		return evaluator.NewError("Not enough arguments provided")
	}
	s, ok := args[0].(evaluator.CtString)
	if !ok {
		return evaluator.NewError("Expected structure that has function length, but received: %s", evaluator.Format(args[0]))
	}
	return evaluator.NewInt(int64(utf8.RuneCountInString(s.Value)))
}

// upper(s) → String
func strUpper(args []evaluator.Value) evaluator.Value {
	s, errVal := stringArgs("upper", 1, args)
	if errVal != nil {
		return errVal
	}
	return evaluator.NewString(strings.ToUpper(s[0]))
}

// lower(s) → String
func strLower(args []evaluator.Value) evaluator.Value {
	s, errVal := stringArgs("lower", 1, args)
	if errVal != nil {
		return errVal
	}
	return evaluator.NewString(strings.ToLower(s[0]))
}

// trim(s) → String
func strTrim(args []evaluator.Value) evaluator.Value {
	s, errVal := stringArgs("trim", 1, args)
	if errVal != nil {
		return errVal
	}
	return evaluator.NewString(strings.TrimSpace(s[0]))
}

// contains(s, sub) → bool
func strContains(args []evaluator.Value) evaluator.Value {
	s, errVal := stringArgs("contains", 2, args)
	if errVal != nil {
		return errVal
	}
	return evaluator.NewBool(strings.Contains(s[0], s[1]))
}

// replace(s, from, to) → String, every occurrence
func strReplace(args []evaluator.Value) evaluator.Value {
	s, errVal := stringArgs("replace", 3, args)
	if errVal != nil {
		return errVal
	}
	return evaluator.NewString(strings.ReplaceAll(s[0], s[1], s[2]))
}

// starts_with(s, prefix) → bool
func strStartsWith(args []evaluator.Value) evaluator.Value {
	s, errVal := stringArgs("starts_with", 2, args)
	if errVal != nil {
		return errVal
	}
	return evaluator.NewBool(strings.HasPrefix(s[0], s[1]))
}

// ends_with(s, suffix) → bool
func strEndsWith(args []evaluator.Value) evaluator.Value {
	s, errVal := stringArgs("ends_with", 2, args)
	if errVal != nil {
		return errVal
	}
	return evaluator.NewBool(strings.HasSuffix(s[0], s[1]))
}
