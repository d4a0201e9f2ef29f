// Package lexer implements the ct language tokenizer.
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thomasrohde/ct/pkg/ast"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	TokIdent TokenType = iota
	TokPunct
	TokOperator
	TokStringLit
	TokIntLit
	TokFloatLit

	// Special
	TokEOF
)

func (t TokenType) String() string {
	switch t {
	case TokIdent:
		return "identifier"
	case TokPunct:
		return "punctuation"
	case TokOperator:
		return "operator"
	case TokStringLit:
		return "string"
	case TokIntLit:
		return "integer"
	case TokFloatLit:
		return "float"
	case TokEOF:
		return "end of file"
	default:
		return fmt.Sprintf("token(%d)", int(t))
	}
}

// Token represents a single lexer token. Value holds the source lexeme,
// except for string literals where it holds the decoded contents.
type Token struct {
	Type  TokenType
	Value string
	Int   int64
	Float float64
	Span  ast.Span
}

// Is reports whether the token is punctuation ch.
func (t Token) Is(ch rune) bool {
	return t.Type == TokPunct && t.Value == string(ch)
}

// IsIdent reports whether the token is the identifier name.
func (t Token) IsIdent(name string) bool {
	return t.Type == TokIdent && t.Value == name
}

func (t Token) String() string {
	switch t.Type {
	case TokEOF:
		return "end of file"
	case TokStringLit:
		return strconv.Quote(t.Value)
	default:
		return fmt.Sprintf("'%s'", t.Value)
	}
}

const (
	punctChars    = "(){}[];,."
	operatorChars = "&|%*/+-=<>!"
)

func isWhitespace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

func isIdentStart(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '-'
}

func isPunct(ch rune) bool {
	return strings.ContainsRune(punctChars, ch)
}

func isOperator(ch rune) bool {
	return strings.ContainsRune(operatorChars, ch)
}

// Lexer turns a cursor's characters into tokens with one token of lookahead.
type Lexer struct {
	cur    *Cursor
	peeked *Token
}

// New creates a lexer over source.
func New(source, filename string) *Lexer {
	return &Lexer{cur: NewCursor(source, filename)}
}

// Peek returns the next token without consuming it. The token is computed
// once and cached until Next or SkipLine.
func (l *Lexer) Peek() (Token, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}
	tok, err := l.scan()
	if err != nil {
		return Token{}, err
	}
	l.peeked = &tok
	return tok, nil
}

// Next consumes and returns the next token.
func (l *Lexer) Next() (Token, error) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, nil
	}
	return l.scan()
}

// SkipLine discards the rest of the current line without tokenizing it and
// drops any cached lookahead. The newline itself is left for the whitespace skipper.
func (l *Lexer) SkipLine() {
	for !l.cur.EOF() && l.cur.Peek() != '\n' {
		l.cur.Next()
	}
	l.peeked = nil
}

// Position returns the cursor position, used for diagnostics at end of input.
func (l *Lexer) Position() ast.Span {
	line, col := l.cur.Position()
	return ast.Span{File: l.cur.Filename(), StartLine: line, StartCol: col, EndLine: line, EndCol: col}
}

func (l *Lexer) readWhile(pred func(rune) bool) string {
	var sb strings.Builder
	for !l.cur.EOF() && pred(l.cur.Peek()) {
		sb.WriteRune(l.cur.Next())
	}
	return sb.String()
}

func (l *Lexer) scan() (Token, error) {
	l.readWhile(isWhitespace)

	startLine, startCol := l.cur.Position()
	if l.cur.EOF() {
		return Token{Type: TokEOF, Span: l.cur.SpanFrom(startLine, startCol)}, nil
	}

	ch := l.cur.Peek()
	switch {
	case ch == '"':
		s, err := l.scanString(startLine, startCol)
		if err != nil {
			return Token{}, err
		}
		return Token{Type: TokStringLit, Value: s, Span: l.cur.SpanFrom(startLine, startCol)}, nil

	case isIdentStart(ch):
		text := l.readWhile(isIdentPart)
		return Token{Type: TokIdent, Value: text, Span: l.cur.SpanFrom(startLine, startCol)}, nil

	case isPunct(ch):
		l.cur.Next()
		return Token{Type: TokPunct, Value: string(ch), Span: l.cur.SpanFrom(startLine, startCol)}, nil

	case isOperator(ch):
		text := l.readWhile(isOperator)
		return Token{Type: TokOperator, Value: text, Span: l.cur.SpanFrom(startLine, startCol)}, nil

	case isDigit(ch):
		return l.scanNumber(startLine, startCol)
	}

	return Token{}, l.cur.Error("cannot identify character '%c'", ch)
}

func (l *Lexer) scanString(startLine, startCol int) (string, error) {
	l.cur.Next() // consume opening "

	var buf strings.Builder
	escaped := false
	for !l.cur.EOF() {
		ch := l.cur.Next()
		switch {
		case escaped:
			switch ch {
			case 'n':
				buf.WriteRune('\n')
			case 't':
				buf.WriteRune('\t')
			case 'r':
				buf.WriteRune('\r')
			case '0':
				buf.WriteRune(0)
			case 'v':
				buf.WriteRune('\v')
			default:
				buf.WriteRune(ch)
			}
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '"':
			return buf.String(), nil
		default:
			buf.WriteRune(ch)
		}
	}
	return "", l.cur.ErrorAt(startLine, startCol, "unterminated string literal")
}

func (l *Lexer) scanNumber(startLine, startCol int) (Token, error) {
	var sb strings.Builder
	sawDot := false
	for !l.cur.EOF() {
		ch := l.cur.Peek()
		if isDigit(ch) {
			sb.WriteRune(l.cur.Next())
		} else if ch == '.' && !sawDot {
			sawDot = true
			sb.WriteRune(l.cur.Next())
		} else {
			break
		}
	}

	text := sb.String()
	span := l.cur.SpanFrom(startLine, startCol)
	if sawDot {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Token{}, l.cur.ErrorAt(startLine, startCol, "expected a float, found '%s'", text)
		}
		return Token{Type: TokFloatLit, Value: text, Float: f, Span: span}, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Token{}, l.cur.ErrorAt(startLine, startCol, "expected an integer, found '%s'", text)
	}
	return Token{Type: TokIntLit, Value: text, Int: n, Span: span}, nil
}

// Tokenize breaks source code into a slice of tokens ending with TokEOF.
func Tokenize(source, filename string) ([]Token, error) {
	l := New(source, filename)
	var tokens []Token

	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}

// Render reconstructs source text from tokens. Tokens are separated by a
// single space, so re-tokenizing the result yields an equivalent sequence.
func Render(tokens []Token) string {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		switch tok.Type {
		case TokEOF:
			continue
		case TokStringLit:
			parts = append(parts, Quote(tok.Value))
		default:
			parts = append(parts, tok.Value)
		}
	}
	return strings.Join(parts, " ")
}

// Quote renders s as a ct string literal using the escapes the lexer understands.
func Quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, ch := range s {
		switch ch {
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\0`)
		case '\v':
			sb.WriteString(`\v`)
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			sb.WriteRune(ch)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
