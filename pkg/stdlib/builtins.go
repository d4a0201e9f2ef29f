package stdlib

import (
	"io"

	"github.com/thomasrohde/ct/pkg/capabilities"
	"github.com/thomasrohde/ct/pkg/evaluator"
)

// Core provides value inspection natives.
type Core struct{}

// Name returns the module name.
func (Core) Name() string { return "core" }

// Extend registers the module's natives.
func (m Core) Extend(r *Registry) {
	r.Register(Fn{Name: "type_of", Module: m.Name(), Execute: coreTypeOf})
	r.Register(Fn{Name: "is_error", Module: m.Name(), Execute: coreIsError})
	r.Register(Fn{Name: "error", Module: m.Name(), Execute: coreError})
}

// RegisterDefaults adds every built-in module, in registration order.
func RegisterDefaults(r *Registry, out io.Writer, in io.Reader, policy *capabilities.Policy) {
	r.Append(Core{})
	r.Append(NewIOStream(out, in))
	r.Append(NewFileStream(policy))
	r.Append(Str{})
	r.Append(NewSystem(policy))
}

// type_of(v) → String naming the runtime type ("null" when v has no value)
func coreTypeOf(args []evaluator.Value) evaluator.Value {
	if errVal := arityError("type_of", 1, args); errVal != nil {
		return errVal
	}
	return evaluator.NewString(evaluator.TypeOf(args[0]))
}

// is_error(v) → bool
func coreIsError(args []evaluator.Value) evaluator.Value {
	if errVal := arityError("is_error", 1, args); errVal != nil {
		return errVal
	}
	return evaluator.NewBool(evaluator.IsError(args[0]))
}

// error(msg) → err, a soft error value the program can pass around
func coreError(args []evaluator.Value) evaluator.Value {
	if errVal := arityError("error", 1, args); errVal != nil {
		return errVal
	}
	return evaluator.CtError{Message: evaluator.Format(args[0])}
}
