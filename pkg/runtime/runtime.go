// Package runtime provides the top-level ct runtime orchestrator.
package runtime

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/thomasrohde/ct/pkg/capabilities"
	"github.com/thomasrohde/ct/pkg/config"
	"github.com/thomasrohde/ct/pkg/diagnostics"
	"github.com/thomasrohde/ct/pkg/evaluator"
	"github.com/thomasrohde/ct/pkg/formatter"
	"github.com/thomasrohde/ct/pkg/lexer"
	"github.com/thomasrohde/ct/pkg/parser"
	"github.com/thomasrohde/ct/pkg/stdlib"
	"github.com/thomasrohde/ct/pkg/structs"
	"github.com/thomasrohde/ct/pkg/validator"
)

// Result holds the outcome of a program execution.
type Result struct {
	// Value is the payload of a top-level return, nil when the program ran off its end.
	Value evaluator.Value
	// Statements counts the top-level statements executed.
	Statements int
}

// Runtime wires together all ct components for program execution.
type Runtime struct {
	stdout io.Writer
	stdin  io.Reader
	logger *slog.Logger
	limits evaluator.Limits
	policy *capabilities.Policy
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStdout sets where print and friends write. Output is buffered and
// flushed when the run ends or the program calls flush.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithStdin sets where input reads from.
func WithStdin(r io.Reader) Option {
	return func(rt *Runtime) {
		rt.stdin = r
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithLimits sets the evaluator resource ceilings.
func WithLimits(l evaluator.Limits) Option {
	return func(rt *Runtime) {
		rt.limits = l
	}
}

// WithPolicy sets the capability policy.
func WithPolicy(p *capabilities.Policy) Option {
	return func(rt *Runtime) {
		rt.policy = p
	}
}

// WithUnsafeAllowAll sets the policy to allow all capabilities.
func WithUnsafeAllowAll() Option {
	return func(rt *Runtime) {
		rt.policy = capabilities.AllowAll()
	}
}

// WithConfig applies the limits and policy of a loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(rt *Runtime) {
		rt.limits = cfg.Limits()
		rt.policy = cfg.Policy()
	}
}

// New creates a new Runtime with the given options. By default it uses the
// process streams and the default configuration.
func New(opts ...Option) *Runtime {
	def := config.Default()
	rt := &Runtime{
		stdout: os.Stdout,
		stdin:  os.Stdin,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		limits: def.Limits(),
		policy: def.Policy(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Run parses and executes a ct program one statement at a time: each
// statement runs before the next one is parsed, so output produced before a
// syntax error is kept. A parse failure is returned as a *DiagnosticError, a
// fatal runtime failure as an *evaluator.RuntimeError.
func (rt *Runtime) Run(ctx context.Context, source, filename string) (*Result, error) {
	out := bufio.NewWriter(rt.stdout)
	interp := evaluator.New(
		evaluator.WithNatives(rt.natives(out).Build()),
		evaluator.WithStructs(rt.structs().Build()),
		evaluator.WithLimits(rt.limits),
		evaluator.WithLogger(rt.logger),
	)

	res, err := rt.exec(ctx, interp, parser.New(source, filename))
	if flushErr := out.Flush(); flushErr != nil && err == nil {
		err = fmt.Errorf("flush output: %w", flushErr)
	}
	return res, err
}

func (rt *Runtime) exec(ctx context.Context, interp *evaluator.Interpreter, p *parser.Parser) (*Result, error) {
	res := &Result{}
	for {
		stmt, err := p.Next()
		if err != nil {
			return res, &DiagnosticError{Diagnostics: []diagnostics.Diagnostic{asDiagnostic(err)}}
		}
		if stmt == nil {
			rt.logger.Debug("program finished", "statements", res.Statements)
			return res, nil
		}

		step, err := interp.Exec(ctx, stmt)
		if err != nil {
			return res, err
		}
		res.Statements++
		if step.Signal == evaluator.SignalReturn {
			res.Value = step.Value
			rt.logger.Debug("program returned", "value", evaluator.Format(step.Value))
			return res, nil
		}
	}
}

func (rt *Runtime) natives(out io.Writer) *stdlib.Registry {
	reg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(reg, out, rt.stdin, rt.policy)
	rt.logger.Debug("natives registered", "count", len(reg.Names()), "capabilities", rt.policy.List())
	return reg
}

func (rt *Runtime) structs() *structs.Registry {
	reg := structs.NewRegistry()
	structs.RegisterDefaults(reg)
	rt.logger.Debug("structures registered", "names", reg.Build().Names())
	return reg
}

// Check parses and validates a ct program without executing it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return diags
	}
	return validator.Validate(program, rt.natives(io.Discard).Names())
}

// Format parses and formats a ct program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program), nil
}

// Tokens tokenizes a ct program.
func (rt *Runtime) Tokens(source, filename string) ([]lexer.Token, error) {
	toks, err := lexer.Tokenize(source, filename)
	if err != nil {
		return nil, &DiagnosticError{Diagnostics: []diagnostics.Diagnostic{asDiagnostic(err)}}
	}
	return toks, nil
}

func asDiagnostic(err error) diagnostics.Diagnostic {
	var d diagnostics.Diagnosable
	if errors.As(err, &d) {
		return d.Diagnostic()
	}
	return diagnostics.MakeDiag(diagnostics.EParse, err.Error(), nil, "")
}

// DiagnosticError wraps lex, parse or validation diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}
