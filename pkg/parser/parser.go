// Package parser implements the ct language parser.
package parser

import (
	"fmt"
	"strings"

	"github.com/thomasrohde/ct/pkg/ast"
	"github.com/thomasrohde/ct/pkg/diagnostics"
	"github.com/thomasrohde/ct/pkg/lexer"
)

// commentMarker starts a line comment. The lexer reads it as an operator run.
const commentMarker = "//"

// ParseError wraps a diagnostic for parse errors.
type ParseError struct {
	Diag diagnostics.Diagnostic
}

func (e *ParseError) Error() string {
	return e.Diag.Message
}

// Diagnostic returns the wrapped diagnostic.
func (e *ParseError) Diagnostic() diagnostics.Diagnostic {
	return e.Diag
}

// Parser produces one statement per call to Next. Statements end with ';'
// unless the construct just parsed (a body-carrying form) waived it for
// exactly the next call.
type Parser struct {
	lex         *lexer.Lexer
	requireSemi bool
}

// New creates a parser over source.
func New(source, filename string) *Parser {
	return &Parser{
		lex:         lexer.New(source, filename),
		requireSemi: true,
	}
}

// Parse tokenizes and parses a whole source file into an AST.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	p := New(source, filename)
	start := p.lex.Position()

	var stmts []ast.Expr
	for {
		stmt, err := p.Next()
		if err != nil {
			return nil, []diagnostics.Diagnostic{diagnosticOf(err)}
		}
		if stmt == nil {
			break
		}
		stmts = append(stmts, stmt)
	}

	return &ast.Program{
		Span:       spanFromTo(start, p.lex.Position()),
		Statements: stmts,
	}, nil
}

func diagnosticOf(err error) diagnostics.Diagnostic {
	if d, ok := err.(diagnostics.Diagnosable); ok {
		return d.Diagnostic()
	}
	return diagnostics.MakeDiag(diagnostics.EParse, err.Error(), nil, "")
}

// Next parses the next statement. It returns nil, nil at end of input.
func (p *Parser) Next() (ast.Expr, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Type == lexer.TokEOF {
		return nil, nil
	}

	stmt, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	if p.requireSemi {
		if _, err := p.expect(';'); err != nil {
			return nil, err
		}
	} else {
		p.requireSemi = true
	}
	return stmt, nil
}

// --- token helpers ---

// peek returns the next significant token, discarding comment lines.
func (p *Parser) peek() (lexer.Token, error) {
	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return tok, err
		}
		if tok.Type == lexer.TokOperator && strings.HasPrefix(tok.Value, commentMarker) {
			p.lex.SkipLine()
			continue
		}
		return tok, nil
	}
}

func (p *Parser) advance() (lexer.Token, error) {
	if _, err := p.peek(); err != nil {
		return lexer.Token{}, err
	}
	return p.lex.Next()
}

func (p *Parser) peekIs(ch rune) (bool, error) {
	tok, err := p.peek()
	if err != nil {
		return false, err
	}
	return tok.Is(ch), nil
}

func (p *Parser) expect(ch rune) (lexer.Token, error) {
	tok, err := p.peek()
	if err != nil {
		return tok, err
	}
	if !tok.Is(ch) {
		return tok, p.errorf(tok.Span, "expected '%c', but received %s", ch, tok)
	}
	return p.lex.Next()
}

func (p *Parser) errorf(span ast.Span, format string, args ...any) error {
	return &ParseError{Diag: diagnostics.MakeDiag(diagnostics.EParse, fmt.Sprintf(format, args...), &span, "")}
}

func spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

func precedenceOf(tok lexer.Token) int {
	if tok.Type != lexer.TokOperator {
		return -1
	}
	return ast.Precedence(tok.Value)
}

// --- Expressions ---

func (p *Parser) parsePrimary() (ast.Expr, error) {
	left, err := p.parseGeneric()
	if err != nil {
		return nil, err
	}
	return p.parseBinary(0, left)
}

// parseBinary folds left-associative operators whose precedence is at
// least floor onto left. A tighter operator after the right operand is
// resolved first at floor prec+1.
func (p *Parser) parseBinary(floor int, left ast.Expr) (ast.Expr, error) {
	for {
		opTok, err := p.peek()
		if err != nil {
			return nil, err
		}
		prec := precedenceOf(opTok)
		if prec < 0 || prec < floor {
			return left, nil
		}
		p.lex.Next() // consume operator

		right, err := p.parseGeneric()
		if err != nil {
			return nil, err
		}

		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		if prec < precedenceOf(next) {
			right, err = p.parseBinary(prec+1, right)
			if err != nil {
				return nil, err
			}
		}

		left = &ast.BinaryExpr{
			Span:  spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    opTok.Value,
			Left:  left,
			Right: right,
		}
	}
}

func (p *Parser) parseGeneric() (ast.Expr, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}

	switch tok.Type {
	case lexer.TokIdent:
		return p.parseIdentifier()

	case lexer.TokIntLit:
		p.lex.Next()
		return &ast.IntLiteral{Span: tok.Span, Value: tok.Int}, nil

	case lexer.TokFloatLit:
		p.lex.Next()
		return &ast.FloatLiteral{Span: tok.Span, Value: tok.Float}, nil

	case lexer.TokStringLit:
		p.lex.Next()
		return &ast.StrLiteral{Span: tok.Span, Value: tok.Value}, nil

	case lexer.TokPunct:
		if tok.Is('(') {
			return p.parseParenthesis()
		}

	case lexer.TokEOF:
		return nil, p.errorf(tok.Span, "unexpected end of file, expected an expression")
	}

	return nil, p.errorf(tok.Span, "unable to parse %s", tok)
}

func (p *Parser) parseParenthesis() (ast.Expr, error) {
	if _, err := p.expect('('); err != nil {
		return nil, err
	}
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(')'); err != nil {
		return nil, err
	}
	p.requireSemi = true
	return expr, nil
}

func (p *Parser) parseIdentifier() (ast.Expr, error) {
	tok, err := p.advance()
	if err != nil {
		return nil, err
	}

	switch tok.Value {
	case "true":
		return &ast.BoolLiteral{Span: tok.Span, Value: true}, nil
	case "false":
		return &ast.BoolLiteral{Span: tok.Span, Value: false}, nil
	case "return":
		value, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStmt{Span: spanFromTo(tok.Span, value.NodeSpan()), Value: value}, nil
	case "break":
		return &ast.BreakStmt{Span: tok.Span}, nil
	case "continue":
		return &ast.ContinueStmt{Span: tok.Span}, nil
	case "let":
		return p.parseLet(tok)
	case "if":
		return p.parseIf(tok)
	case "while":
		return p.parseWhile(tok)
	case "for":
		return p.parseFor(tok)
	case "struct":
		return p.parseStruct(tok)
	case "else":
		return nil, p.errorf(tok.Span, "'else' without a preceding 'if'")
	}

	next, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch {
	case next.Is('('):
		args, end, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		return &ast.FnCall{Span: spanFromTo(tok.Span, end), Name: tok.Value, Args: args}, nil
	case next.Is('.'):
		return p.parseMember(tok)
	}
	return &ast.VarRef{Span: tok.Span, Name: tok.Value}, nil
}

func (p *Parser) parseMember(recv lexer.Token) (ast.Expr, error) {
	p.lex.Next() // consume '.'
	attr, err := p.advance()
	if err != nil {
		return nil, err
	}
	if attr.Type != lexer.TokIdent {
		return nil, p.errorf(attr.Span, "expected structure attribute to be an identifier, but received %s", attr)
	}

	member := &ast.MemberExpr{
		Span:     spanFromTo(recv.Span, attr.Span),
		Receiver: recv.Value,
		Attr:     attr.Value,
	}
	isCall, err := p.peekIs('(')
	if err != nil {
		return nil, err
	}
	if isCall {
		args, end, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		member.Call = true
		member.Args = args
		member.Span = spanFromTo(recv.Span, end)
	}
	return member, nil
}

// parseArguments parses `(expr, expr, ...)` and returns the closing paren span.
func (p *Parser) parseArguments() ([]ast.Expr, ast.Span, error) {
	if _, err := p.expect('('); err != nil {
		return nil, ast.Span{}, err
	}

	var args []ast.Expr
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, ast.Span{}, err
		}
		if tok.Is(')') {
			break
		}
		if tok.Type == lexer.TokEOF {
			return nil, ast.Span{}, p.errorf(tok.Span, "unexpected end of file in argument list")
		}
		arg, err := p.parsePrimary()
		if err != nil {
			return nil, ast.Span{}, err
		}
		args = append(args, arg)

		closing, err := p.peekIs(')')
		if err != nil {
			return nil, ast.Span{}, err
		}
		if !closing {
			if _, err := p.expect(','); err != nil {
				return nil, ast.Span{}, err
			}
		}
	}

	end, err := p.expect(')')
	if err != nil {
		return nil, ast.Span{}, err
	}
	p.requireSemi = true
	return args, end.Span, nil
}

// --- Declarations ---

func (p *Parser) parseLet(start lexer.Token) (ast.Expr, error) {
	nameTok, err := p.advance()
	if err != nil {
		return nil, err
	}
	if nameTok.Type != lexer.TokIdent {
		return nil, p.errorf(nameTok.Span, "expected variable name, found %s", nameTok)
	}

	isFn, err := p.peekIs('(')
	if err != nil {
		return nil, err
	}
	if !isFn {
		return &ast.VarDecl{
			Span: spanFromTo(start.Span, nameTok.Span),
			Name: nameTok.Value,
			Type: ast.AnyType,
		}, nil
	}

	args, end, err := p.parseArguments()
	if err != nil {
		return nil, err
	}
	params := make([]ast.Param, 0, len(args))
	for _, arg := range args {
		switch a := arg.(type) {
		case *ast.VarDecl:
			params = append(params, ast.Param{Span: a.Span, Name: a.Name, Type: a.Type})
		case *ast.VarRef:
			params = append(params, ast.Param{Span: a.Span, Name: a.Name, Type: ast.AnyType})
		default:
			return nil, p.errorf(arg.NodeSpan(), "invalid parameter in function header '%s'", nameTok.Value)
		}
	}

	body, bodyEnd, err := p.parseBody()
	if err != nil {
		return nil, err
	}

	return &ast.FnDecl{
		Span: spanFromTo(start.Span, bodyEnd),
		Header: ast.FnHeader{
			Span:       spanFromTo(nameTok.Span, end),
			Name:       nameTok.Value,
			Params:     params,
			ReturnType: ast.AnyType,
		},
		Body: body,
	}, nil
}

// parseBody parses `{ stmt... }` and waives the semicolon for the enclosing statement.
func (p *Parser) parseBody() ([]ast.Expr, ast.Span, error) {
	if _, err := p.expect('{'); err != nil {
		return nil, ast.Span{}, err
	}

	var body []ast.Expr
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, ast.Span{}, err
		}
		if tok.Is('}') {
			break
		}
		if tok.Type == lexer.TokEOF {
			return nil, ast.Span{}, p.errorf(tok.Span, "expected '}', but received end of file")
		}
		stmt, err := p.Next()
		if err != nil {
			return nil, ast.Span{}, err
		}
		body = append(body, stmt)
	}

	end, err := p.expect('}')
	if err != nil {
		return nil, ast.Span{}, err
	}
	p.requireSemi = false
	return body, end.Span, nil
}

func (p *Parser) parseCondition() (ast.Expr, error) {
	if _, err := p.expect('('); err != nil {
		return nil, err
	}
	cond, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(')'); err != nil {
		return nil, err
	}
	return cond, nil
}

// --- Control flow ---

func (p *Parser) parseIf(start lexer.Token) (ast.Expr, error) {
	chain := &ast.IfChain{}
	branchStart := start.Span
	end := start.Span

	for {
		cond, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		body, bodyEnd, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		chain.Branches = append(chain.Branches, ast.IfBranch{
			Span: spanFromTo(branchStart, bodyEnd),
			Cond: cond,
			Body: body,
		})
		end = bodyEnd

		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if !tok.IsIdent("else") {
			break
		}
		elseTok, _ := p.lex.Next()

		tok, err = p.peek()
		if err != nil {
			return nil, err
		}
		if tok.IsIdent("if") {
			p.lex.Next()
			branchStart = elseTok.Span
			continue
		}

		body, bodyEnd, err = p.parseBody()
		if err != nil {
			return nil, err
		}
		chain.Branches = append(chain.Branches, ast.IfBranch{
			Span: spanFromTo(elseTok.Span, bodyEnd),
			Cond: &ast.BoolLiteral{Span: elseTok.Span, Value: true},
			Body: body,
		})
		end = bodyEnd
		break
	}

	chain.Span = spanFromTo(start.Span, end)
	p.requireSemi = false
	return chain, nil
}

func (p *Parser) parseWhile(start lexer.Token) (ast.Expr, error) {
	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}
	body, end, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{
		Span: spanFromTo(start.Span, end),
		Cond: cond,
		Body: body,
	}, nil
}

// parseFor accepts `for (...) { body }` with an unparsed header. The loop
// itself has no semantics yet; see ast.ForStmt.
func (p *Parser) parseFor(start lexer.Token) (ast.Expr, error) {
	if _, err := p.expect('('); err != nil {
		return nil, err
	}
	for depth := 1; depth > 0; {
		tok, err := p.advance()
		if err != nil {
			return nil, err
		}
		switch {
		case tok.Type == lexer.TokEOF:
			return nil, p.errorf(tok.Span, "unexpected end of file in 'for' header")
		case tok.Is('('):
			depth++
		case tok.Is(')'):
			depth--
		}
	}

	body, end, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{Span: spanFromTo(start.Span, end), Body: body}, nil
}

func (p *Parser) parseStruct(start lexer.Token) (ast.Expr, error) {
	nameTok, err := p.advance()
	if err != nil {
		return nil, err
	}
	if nameTok.Type != lexer.TokIdent && nameTok.Type != lexer.TokStringLit {
		return nil, p.errorf(nameTok.Span, "expected a structure name after 'struct', but received %s", nameTok)
	}

	if _, err := p.expect('{'); err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if !tok.Is('}') {
		return nil, &ParseError{Diag: diagnostics.MakeDiag(
			diagnostics.EParse,
			fmt.Sprintf("structure '%s' must have an empty body", nameTok.Value),
			&tok.Span,
			"structure members can only be registered by the host",
		)}
	}
	end, _ := p.lex.Next()

	p.requireSemi = false
	return &ast.StructDecl{Span: spanFromTo(start.Span, end.Span), Name: nameTok.Value}, nil
}
