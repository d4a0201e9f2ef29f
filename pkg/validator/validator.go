// Package validator implements static checks of ct programs for `ct check`.
package validator

import (
	"fmt"

	"github.com/thomasrohde/ct/pkg/ast"
	"github.com/thomasrohde/ct/pkg/diagnostics"
)

type scope struct {
	fns    map[string]bool
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{fns: make(map[string]bool), parent: parent}
}

func (s *scope) hasFn(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.fns[name] {
			return true
		}
	}
	return false
}

type validator struct {
	diags []diagnostics.Diagnostic

	// callable holds every name a call may resolve to at runtime: natives,
	// functions defined anywhere, and variables that may hold a function.
	// Nil disables the unknown-function check.
	callable map[string]bool
	loops    int
}

// Validate reports the problems in program that are certain to fail at
// runtime once reached. natives lists the host functions available to
// calls; when nil, calls are not checked.
func Validate(program *ast.Program, natives []string) []diagnostics.Diagnostic {
	v := &validator{}
	if natives != nil {
		v.callable = make(map[string]bool)
		for _, n := range natives {
			v.callable[n] = true
		}
		collectNames(program.Statements, v.callable)
	}
	v.block(program.Statements, newScope(nil))
	return v.diags
}

func (v *validator) addDiag(code string, node ast.Node, hint, format string, args ...any) {
	span := node.NodeSpan()
	v.diags = append(v.diags, diagnostics.MakeDiag(code, fmt.Sprintf(format, args...), &span, hint))
}

// collectNames gathers function and variable names from every nesting level.
// ct scoping is dynamic, so any of them may be visible at a given call.
func collectNames(stmts []ast.Expr, into map[string]bool) {
	for _, stmt := range stmts {
		walk(stmt, func(e ast.Expr) {
			switch n := e.(type) {
			case *ast.FnDecl:
				into[n.Header.Name] = true
				for _, p := range n.Header.Params {
					into[p.Name] = true
				}
			case *ast.VarDecl:
				into[n.Name] = true
			}
		})
	}
}

func (v *validator) block(stmts []ast.Expr, sc *scope) {
	for _, stmt := range stmts {
		v.stmt(stmt, sc)
	}
}

func (v *validator) stmt(e ast.Expr, sc *scope) {
	switch n := e.(type) {
	case *ast.FnDecl:
		if sc.hasFn(n.Header.Name) {
			v.addDiag(diagnostics.EFnDup, n, "", "function '%s' already exists", n.Header.Name)
		}
		sc.fns[n.Header.Name] = true
		v.fnDecl(n, sc)

	case *ast.IfChain:
		for _, br := range n.Branches {
			v.expr(br.Cond)
			v.block(br.Body, newScope(sc))
		}

	case *ast.WhileStmt:
		v.expr(n.Cond)
		v.loops++
		v.block(n.Body, newScope(sc))
		v.loops--

	case *ast.ForStmt:
		v.addDiag(diagnostics.EUnsupported, n, "use 'while (cond) { ... }' instead", "'for' loops are not supported yet")

	case *ast.BreakStmt:
		if v.loops == 0 {
			v.addDiag(diagnostics.EControl, n, "", "'break' outside of a loop")
		}

	case *ast.ContinueStmt:
		if v.loops == 0 {
			v.addDiag(diagnostics.EControl, n, "", "'continue' outside of a loop")
		}

	case *ast.ReturnStmt:
		v.expr(n.Value)

	default:
		v.expr(e)
	}
}

func (v *validator) fnDecl(n *ast.FnDecl, sc *scope) {
	seen := make(map[string]bool, len(n.Header.Params))
	for _, p := range n.Header.Params {
		if seen[p.Name] {
			span := p.Span
			v.diags = append(v.diags, diagnostics.MakeDiag(diagnostics.EDupParam,
				fmt.Sprintf("duplicate parameter '%s' in function '%s'", p.Name, n.Header.Name), &span, ""))
		}
		seen[p.Name] = true
	}

	// Loops do not extend into function bodies: break there escapes the call.
	outer := v.loops
	v.loops = 0
	v.block(n.Body, newScope(sc))
	v.loops = outer
}

// expr checks operand positions.
func (v *validator) expr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.BinaryExpr:
		switch n.Op {
		case "=":
			switch n.Left.(type) {
			case *ast.VarDecl, *ast.VarRef:
			default:
				v.addDiag(diagnostics.EAssign, n.Left, "", "cannot assign to %s", n.Left.Kind())
			}
		case "+=", "-=":
			if _, ok := n.Left.(*ast.VarRef); !ok {
				v.addDiag(diagnostics.EAssign, n.Left, "", "'%s' requires an existing variable on the left", n.Op)
			}
		}
		v.expr(n.Left)
		v.expr(n.Right)

	case *ast.FnCall:
		if v.callable != nil && !v.callable[n.Name] {
			v.addDiag(diagnostics.EUnknownFn, n, "", "unknown function '%s'", n.Name)
		}
		for _, arg := range n.Args {
			v.expr(arg)
		}

	case *ast.MemberExpr:
		for _, arg := range n.Args {
			v.expr(arg)
		}

	case *ast.BreakStmt, *ast.ContinueStmt:
		v.addDiag(diagnostics.EControl, n, "", "'%s' cannot be used as a value", n.Kind())
	}
}

// walk visits e and every expression nested in it.
func walk(e ast.Expr, visit func(ast.Expr)) {
	if e == nil {
		return
	}
	visit(e)
	switch n := e.(type) {
	case *ast.BinaryExpr:
		walk(n.Left, visit)
		walk(n.Right, visit)
	case *ast.FnDecl:
		for _, s := range n.Body {
			walk(s, visit)
		}
	case *ast.FnCall:
		for _, a := range n.Args {
			walk(a, visit)
		}
	case *ast.MemberExpr:
		for _, a := range n.Args {
			walk(a, visit)
		}
	case *ast.IfChain:
		for _, br := range n.Branches {
			walk(br.Cond, visit)
			for _, s := range br.Body {
				walk(s, visit)
			}
		}
	case *ast.WhileStmt:
		walk(n.Cond, visit)
		for _, s := range n.Body {
			walk(s, visit)
		}
	case *ast.ForStmt:
		for _, s := range n.Body {
			walk(s, visit)
		}
	case *ast.ReturnStmt:
		walk(n.Value, visit)
	}
}
