package evaluator

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/thomasrohde/ct/pkg/ast"
	"github.com/thomasrohde/ct/pkg/diagnostics"
)

// Signal identifies how the evaluation of a node completed.
type Signal int

const (
	SignalNormal Signal = iota
	SignalBreak
	SignalContinue
	SignalReturn
)

func (s Signal) String() string {
	switch s {
	case SignalNormal:
		return "normal"
	case SignalBreak:
		return "break"
	case SignalContinue:
		return "continue"
	case SignalReturn:
		return "return"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

// Result is the completion of one evaluation: a value (possibly absent)
// and the control signal it carries. Only SignalReturn carries a value
// besides SignalNormal.
type Result struct {
	Value  Value
	Signal Signal
}

func normal(v Value) Result { return Result{Value: v} }

// RuntimeError represents a fatal runtime diagnostic.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
	Hint    string
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Diagnostic converts the error to a diagnostic.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, e.Hint)
}

func fail(code string, node ast.Node, format string, args ...any) *RuntimeError {
	err := &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...)}
	if node != nil {
		span := node.NodeSpan()
		err.Span = &span
	}
	return err
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithNatives sets the native function table.
func WithNatives(n *Natives) Option {
	return func(in *Interpreter) { in.natives = n }
}

// WithStructs sets the structure table.
func WithStructs(s *Structs) Option {
	return func(in *Interpreter) { in.structs = s }
}

// WithLimits sets the depth and iteration ceilings.
func WithLimits(l Limits) Option {
	return func(in *Interpreter) { in.limits = l }
}

// WithLogger sets the structured logger. Statement and call tracing is logged at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(in *Interpreter) { in.logger = l }
}

// Interpreter evaluates ct statements against one scope chain. It is not
// safe for concurrent use.
type Interpreter struct {
	natives *Natives
	structs *Structs
	limits  Limits
	logger  *slog.Logger

	chain   *Chain
	tracker BudgetTracker
}

// New creates an interpreter with an empty global scope.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		natives: NewNatives(nil),
		structs: NewStructs(nil),
		limits:  DefaultLimits(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		chain:   NewChain(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Chain returns the interpreter's scope chain.
func (in *Interpreter) Chain() *Chain {
	return in.chain
}

// Lookup resolves a variable through the current scope chain.
func (in *Interpreter) Lookup(name string) (Value, bool) {
	return in.chain.Get(name)
}

// Exec evaluates one top-level statement. A SignalReturn result means the
// program asked to stop; break and continue may not escape to the top level.
func (in *Interpreter) Exec(ctx context.Context, stmt ast.Expr) (Result, error) {
	if err := checkContext(ctx, stmt); err != nil {
		return Result{}, err
	}
	in.logger.Debug("exec", "kind", stmt.Kind(), "line", stmt.NodeSpan().StartLine)

	res, err := in.eval(ctx, stmt)
	if err != nil {
		return Result{}, err
	}
	switch res.Signal {
	case SignalBreak, SignalContinue:
		return Result{}, fail(diagnostics.EControl, stmt, "'%s' outside of a loop", res.Signal)
	}
	return res, nil
}

// Run evaluates every statement of prog in order and returns the value of
// a top-level return, if any.
func (in *Interpreter) Run(ctx context.Context, prog *ast.Program) (Value, error) {
	for _, stmt := range prog.Statements {
		res, err := in.Exec(ctx, stmt)
		if err != nil {
			return nil, err
		}
		if res.Signal == SignalReturn {
			return res.Value, nil
		}
	}
	return nil, nil
}

func checkContext(ctx context.Context, node ast.Node) error {
	if err := ctx.Err(); err != nil {
		return fail(diagnostics.ECanceled, node, "execution canceled: %v", err)
	}
	return nil
}

// evalValue evaluates an operand position, where control signals cannot occur.
func (in *Interpreter) evalValue(ctx context.Context, expr ast.Expr) (Value, error) {
	res, err := in.eval(ctx, expr)
	if err != nil {
		return nil, err
	}
	if res.Signal != SignalNormal {
		return nil, fail(diagnostics.EControl, expr, "'%s' cannot be used as a value", res.Signal)
	}
	return res.Value, nil
}

func (in *Interpreter) eval(ctx context.Context, expr ast.Expr) (Result, error) {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		return normal(NewInt(e.Value)), nil
	case *ast.FloatLiteral:
		return normal(NewFloat(e.Value)), nil
	case *ast.BoolLiteral:
		return normal(NewBool(e.Value)), nil
	case *ast.StrLiteral:
		return normal(NewString(e.Value)), nil

	case *ast.VarRef:
		val, ok := in.chain.Get(e.Name)
		if !ok {
			return Result{}, fail(diagnostics.EUnknownVar, e, "unknown variable '%s'", e.Name)
		}
		return normal(val), nil

	case *ast.VarDecl:
		in.chain.Define(e.Name, nil)
		return normal(nil), nil

	case *ast.BinaryExpr:
		val, err := in.evalBinary(ctx, e)
		return normal(val), err

	case *ast.FnDecl:
		return in.defineFunction(e)

	case *ast.FnCall:
		val, err := in.evalCall(ctx, e)
		return normal(val), err

	case *ast.MemberExpr:
		val, err := in.evalMember(ctx, e)
		return normal(val), err

	case *ast.IfChain:
		return in.evalIf(ctx, e)

	case *ast.WhileStmt:
		return in.evalWhile(ctx, e)

	case *ast.ForStmt:
		return Result{}, &RuntimeError{
			Code:    diagnostics.EUnsupported,
			Message: "'for' loops are not supported yet",
			Span:    &e.Span,
			Hint:    "use 'while (cond) { ... }' instead",
		}

	case *ast.ReturnStmt:
		val, err := in.evalValue(ctx, e.Value)
		if err != nil {
			return Result{}, err
		}
		return Result{Value: val, Signal: SignalReturn}, nil

	case *ast.BreakStmt:
		return Result{Signal: SignalBreak}, nil

	case *ast.ContinueStmt:
		return Result{Signal: SignalContinue}, nil

	case *ast.StructDecl:
		// Source-declared structures have no members and nothing to register.
		in.logger.Debug("struct declaration ignored", "name", e.Name)
		return normal(nil), nil

	default:
		return Result{}, fail(diagnostics.EUnsupported, expr, "unable to evaluate %s", expr.Kind())
	}
}

// --- Assignment and operators ---

func (in *Interpreter) evalBinary(ctx context.Context, e *ast.BinaryExpr) (Value, error) {
	switch e.Op {
	case "=":
		return in.evalAssign(ctx, e)
	case "+=", "-=":
		return in.evalCompoundAssign(ctx, e)
	}

	left, err := in.evalValue(ctx, e.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.evalValue(ctx, e.Right)
	if err != nil {
		return nil, err
	}
	return applyBinary(e, e.Op, left, right)
}

func (in *Interpreter) evalAssign(ctx context.Context, e *ast.BinaryExpr) (Value, error) {
	switch target := e.Left.(type) {
	case *ast.VarDecl:
		val, err := in.evalValue(ctx, e.Right)
		if err != nil {
			return nil, err
		}
		in.chain.Define(target.Name, val)
		return val, nil

	case *ast.VarRef:
		val, err := in.evalValue(ctx, e.Right)
		if err != nil {
			return nil, err
		}
		if !in.chain.Set(target.Name, val) {
			return nil, fail(diagnostics.EUnknownVar, target, "unknown variable '%s'", target.Name)
		}
		return val, nil
	}
	return nil, fail(diagnostics.EAssign, e.Left, "cannot assign to %s", e.Left.Kind())
}

func (in *Interpreter) evalCompoundAssign(ctx context.Context, e *ast.BinaryExpr) (Value, error) {
	target, ok := e.Left.(*ast.VarRef)
	if !ok {
		return nil, fail(diagnostics.EAssign, e.Left, "'%s' requires an existing variable on the left", e.Op)
	}
	current, ok := in.chain.Get(target.Name)
	if !ok {
		return nil, fail(diagnostics.EUnknownVar, target, "unknown variable '%s'", target.Name)
	}
	right, err := in.evalValue(ctx, e.Right)
	if err != nil {
		return nil, err
	}
	val, err := applyBinary(e, e.Op[:1], current, right)
	if err != nil {
		return nil, err
	}
	in.chain.Set(target.Name, val)
	return val, nil
}

// --- Functions ---

func (in *Interpreter) defineFunction(e *ast.FnDecl) (Result, error) {
	name := e.Header.Name
	if in.chain.Has(name) {
		return Result{}, fail(diagnostics.EFnDup, e, "function '%s' already exists", name)
	}
	fn := NewFunction(e)
	in.chain.Define(name, fn)
	return normal(fn), nil
}

func (in *Interpreter) evalArgs(ctx context.Context, args []ast.Expr) ([]Value, error) {
	vals := make([]Value, 0, len(args))
	for _, arg := range args {
		v, err := in.evalValue(ctx, arg)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func (in *Interpreter) evalCall(ctx context.Context, e *ast.FnCall) (Value, error) {
	if in.natives.Contains(e.Name) {
		args, err := in.evalArgs(ctx, e.Args)
		if err != nil {
			return nil, err
		}
		return in.natives.Execute(e.Name, args), nil
	}

	callee, ok := in.chain.Get(e.Name)
	if !ok {
		return nil, fail(diagnostics.EUnknownFn, e, "unknown function '%s'", e.Name)
	}
	fn, ok := callee.(CtFunction)
	if !ok {
		return nil, fail(diagnostics.EUnknownFn, e, "'%s' is a %s, not a function", e.Name, TypeOf(callee))
	}
	args, err := in.evalArgs(ctx, e.Args)
	if err != nil {
		return nil, err
	}
	return in.callFunction(ctx, e, fn, args)
}

// callFunction runs fn on a fresh scope pushed onto the caller's chain.
// Arguments are already evaluated in the caller's scope.
func (in *Interpreter) callFunction(ctx context.Context, site ast.Node, fn CtFunction, args []Value) (Value, error) {
	params := fn.Decl.Header.Params
	if len(args) != len(params) {
		return nil, fail(diagnostics.EArity, site, "function '%s' expects %d argument(s), got %d", fn.Name(), len(params), len(args))
	}

	if in.limits.MaxDepth > 0 && in.tracker.Depth >= in.limits.MaxDepth {
		return nil, &RuntimeError{
			Code:    diagnostics.EDepth,
			Message: fmt.Sprintf("maximum call depth exceeded (%d) calling '%s'", in.limits.MaxDepth, fn.Name()),
			Span:    spanOf(site),
			Hint:    "raise max_depth in the configuration if the recursion is intended",
		}
	}
	in.tracker.Depth++
	defer func() { in.tracker.Depth-- }()
	in.logger.Debug("call", "fn", fn.Name(), "depth", in.tracker.Depth)

	in.chain.Push()
	defer in.chain.Pop()
	for i, p := range params {
		in.chain.Define(p.Name, args[i])
	}

	for _, stmt := range fn.Decl.Body {
		res, err := in.eval(ctx, stmt)
		if err != nil {
			return nil, err
		}
		switch res.Signal {
		case SignalReturn:
			return in.settle(res.Value), nil
		case SignalBreak, SignalContinue:
			return nil, fail(diagnostics.EControl, stmt, "'%s' outside of a loop in function '%s'", res.Signal, fn.Name())
		}
	}
	return nil, nil
}

// settle reduces a returned payload a second time before the function scope
// is popped. Runtime values are already fully reduced, so this is the identity.
func (in *Interpreter) settle(v Value) Value {
	return v
}

func spanOf(node ast.Node) *ast.Span {
	if node == nil {
		return nil
	}
	span := node.NodeSpan()
	return &span
}

// --- Structures ---

func (in *Interpreter) evalMember(ctx context.Context, e *ast.MemberExpr) (Value, error) {
	recv, ok := in.chain.Get(e.Receiver)
	if !ok {
		return nil, fail(diagnostics.EUnknownVar, e, "unknown variable '%s'", e.Receiver)
	}

	typeName := TypeOf(recv)
	st, ok := in.structs.Get(typeName)
	if !ok {
		return nil, fail(diagnostics.EStruct, e, "no structure is registered for type '%s'", typeName)
	}
	member, ok := st.Get(e.Attr)
	if !ok {
		return nil, fail(diagnostics.EStruct, e, "structure '%s' has no member '%s'", typeName, e.Attr)
	}
	if !e.Call {
		return member, nil
	}

	method, ok := member.(CtFunction)
	if !ok {
		return nil, fail(diagnostics.EStruct, e, "member '%s' of '%s' is not callable", e.Attr, typeName)
	}
	args, err := in.evalArgs(ctx, e.Args)
	if err != nil {
		return nil, err
	}
	return in.callFunction(ctx, e, method, append([]Value{recv}, args...))
}

// --- Control flow ---

func (in *Interpreter) condition(ctx context.Context, cond ast.Expr, construct string) (bool, error) {
	val, err := in.evalValue(ctx, cond)
	if err != nil {
		return false, err
	}
	b, ok := val.(CtBool)
	if !ok {
		return false, fail(diagnostics.ECondType, cond, "expected a boolean condition in '%s', got %s", construct, TypeOf(val))
	}
	return b.Value, nil
}

// evalBlock runs body in a fresh scope and stops at the first control signal.
func (in *Interpreter) evalBlock(ctx context.Context, body []ast.Expr) (Result, error) {
	in.chain.Push()
	defer in.chain.Pop()

	for _, stmt := range body {
		res, err := in.eval(ctx, stmt)
		if err != nil {
			return Result{}, err
		}
		if res.Signal != SignalNormal {
			return res, nil
		}
	}
	return normal(nil), nil
}

func (in *Interpreter) evalIf(ctx context.Context, e *ast.IfChain) (Result, error) {
	for _, branch := range e.Branches {
		ok, err := in.condition(ctx, branch.Cond, "if")
		if err != nil {
			return Result{}, err
		}
		if !ok {
			continue
		}
		res, err := in.evalBlock(ctx, branch.Body)
		if err != nil {
			return Result{}, err
		}
		if res.Signal == SignalNormal {
			return normal(nil), nil
		}
		return res, nil
	}
	return normal(nil), nil
}

func (in *Interpreter) evalWhile(ctx context.Context, e *ast.WhileStmt) (Result, error) {
	for {
		if err := checkContext(ctx, e); err != nil {
			return Result{}, err
		}
		ok, err := in.condition(ctx, e.Cond, "while")
		if err != nil {
			return Result{}, err
		}
		if !ok {
			return normal(nil), nil
		}

		in.tracker.Iterations++
		if limit := in.limits.MaxIterations; limit > 0 && in.tracker.Iterations > limit {
			return Result{}, fail(diagnostics.EIterations, e, "iteration budget exceeded (max %d)", limit)
		}

		res, err := in.evalBlock(ctx, e.Body)
		if err != nil {
			return Result{}, err
		}
		switch res.Signal {
		case SignalBreak:
			return normal(nil), nil
		case SignalReturn:
			return res, nil
		}
	}
}
