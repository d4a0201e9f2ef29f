// Package formatter implements the ct source code formatter.
package formatter

import (
	"strconv"
	"strings"

	"github.com/thomasrohde/ct/pkg/ast"
	"github.com/thomasrohde/ct/pkg/lexer"
)

const indent = "  "

// needsParens reports whether child must be parenthesized under parentOp.
// Every ct operator is left-associative, so an equal-precedence child on the
// right needs parentheses and one on the left does not.
func needsParens(child ast.Expr, parentOp string, isRight bool) bool {
	bin, ok := child.(*ast.BinaryExpr)
	if !ok {
		return false
	}
	childPrec := ast.Precedence(bin.Op)
	parentPrec := ast.Precedence(parentOp)
	if childPrec < parentPrec {
		return true
	}
	return childPrec == parentPrec && isRight
}

// Format pretty-prints a ct AST back to source code. Top-level function
// definitions are separated from their neighbours by a blank line.
// Comments are not preserved, and a `for` header is emitted empty because
// the parser does not keep it.
func Format(program *ast.Program) string {
	var lines []string
	prevFn := false
	for i, s := range program.Statements {
		_, isFn := s.(*ast.FnDecl)
		if i > 0 && (isFn || prevFn) {
			lines = append(lines, "")
		}
		lines = append(lines, formatStmt(s, 0))
		prevFn = isFn
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// HasComments checks if a source string contains ct comments (`//` outside a string literal).
func HasComments(source string) bool {
	inString := false
	escaped := false
	for i := 0; i < len(source); i++ {
		ch := source[i]
		switch {
		case escaped:
			escaped = false
		case inString && ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == '/' && i+1 < len(source) && source[i+1] == '/':
			return true
		}
	}
	return false
}

// carriesBody reports whether s ends in a `}` that waives the statement's semicolon.
func carriesBody(s ast.Expr) bool {
	switch s.(type) {
	case *ast.FnDecl, *ast.IfChain, *ast.WhileStmt, *ast.ForStmt, *ast.StructDecl:
		return true
	}
	return false
}

func formatStmt(s ast.Expr, depth int) string {
	prefix := strings.Repeat(indent, depth)
	out := prefix + formatExpr(s, depth)
	if !carriesBody(s) {
		out += ";"
	}
	return out
}

func formatBlock(stmts []ast.Expr, depth int) string {
	if len(stmts) == 0 {
		return "{}"
	}
	lines := make([]string, 0, len(stmts)+2)
	lines = append(lines, "{")
	for _, s := range stmts {
		lines = append(lines, formatStmt(s, depth+1))
	}
	lines = append(lines, strings.Repeat(indent, depth)+"}")
	return strings.Join(lines, "\n")
}

func formatExpr(e ast.Expr, depth int) string {
	switch expr := e.(type) {
	case *ast.IntLiteral:
		return strconv.FormatInt(expr.Value, 10)
	case *ast.FloatLiteral:
		return formatFloatLiteral(expr.Value)
	case *ast.BoolLiteral:
		return strconv.FormatBool(expr.Value)
	case *ast.StrLiteral:
		return lexer.Quote(expr.Value)

	case *ast.VarRef:
		return expr.Name
	case *ast.VarDecl:
		return "let " + expr.Name

	case *ast.BinaryExpr:
		left := formatExpr(expr.Left, depth)
		if needsParens(expr.Left, expr.Op, false) {
			left = "(" + left + ")"
		}
		right := formatExpr(expr.Right, depth)
		if needsParens(expr.Right, expr.Op, true) {
			right = "(" + right + ")"
		}
		return left + " " + expr.Op + " " + right

	case *ast.FnDecl:
		params := make([]string, len(expr.Header.Params))
		for i, p := range expr.Header.Params {
			params[i] = "let " + p.Name
		}
		return "let " + expr.Header.Name + "(" + strings.Join(params, ", ") + ") " + formatBlock(expr.Body, depth)

	case *ast.FnCall:
		return expr.Name + formatArgs(expr.Args, depth)

	case *ast.MemberExpr:
		out := expr.Receiver + "." + expr.Attr
		if expr.Call {
			out += formatArgs(expr.Args, depth)
		}
		return out

	case *ast.IfChain:
		var sb strings.Builder
		for i, br := range expr.Branches {
			if i > 0 {
				sb.WriteString(" else ")
				if isElse(br, i, len(expr.Branches)) {
					sb.WriteString(formatBlock(br.Body, depth))
					continue
				}
			}
			sb.WriteString("if (" + formatExpr(br.Cond, depth) + ") " + formatBlock(br.Body, depth))
		}
		return sb.String()

	case *ast.WhileStmt:
		return "while (" + formatExpr(expr.Cond, depth) + ") " + formatBlock(expr.Body, depth)

	case *ast.ForStmt:
		return "for () " + formatBlock(expr.Body, depth)

	case *ast.ReturnStmt:
		return "return " + formatExpr(expr.Value, depth)
	case *ast.BreakStmt:
		return "break"
	case *ast.ContinueStmt:
		return "continue"

	case *ast.StructDecl:
		name := expr.Name
		if !isIdentifier(name) {
			name = lexer.Quote(name)
		}
		return "struct " + name + " {}"
	}
	return ""
}

// isElse reports whether the branch at index i is a trailing else, which
// the parser stores with a literal true condition.
func isElse(br ast.IfBranch, i, n int) bool {
	if i != n-1 {
		return false
	}
	b, ok := br.Cond.(*ast.BoolLiteral)
	return ok && b.Value
}

func formatArgs(args []ast.Expr, depth int) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = formatExpr(a, depth)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, ch := range s {
		letter := ch == '_' || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z')
		if !letter && (i == 0 || ch < '0' || ch > '9') {
			return false
		}
	}
	return true
}

// formatFloatLiteral renders a float so that it lexes back as a float:
// plain digits with exactly one dot.
func formatFloatLiteral(value float64) string {
	raw := strconv.FormatFloat(value, 'g', -1, 64)
	if strings.ContainsAny(raw, "eE") {
		raw = expandScientificNotation(raw)
	}
	if !strings.Contains(raw, ".") {
		raw += ".0"
	}
	return raw
}

func expandScientificNotation(value string) string {
	lower := strings.ToLower(value)
	parts := strings.SplitN(lower, "e", 2)
	if len(parts) != 2 {
		return value
	}

	mantissa := parts[0]
	exponent, err := strconv.Atoi(parts[1])
	if err != nil {
		return value
	}

	dotIdx := strings.Index(mantissa, ".")
	intPart := mantissa
	fracPart := ""
	if dotIdx >= 0 {
		intPart = mantissa[:dotIdx]
		fracPart = mantissa[dotIdx+1:]
	}

	compact := intPart + fracPart
	decimalIndex := len(intPart) + exponent

	if decimalIndex <= 0 {
		return "0." + strings.Repeat("0", -decimalIndex) + compact
	}
	if decimalIndex >= len(compact) {
		return compact + strings.Repeat("0", decimalIndex-len(compact)) + ".0"
	}
	return compact[:decimalIndex] + "." + compact[decimalIndex:]
}
