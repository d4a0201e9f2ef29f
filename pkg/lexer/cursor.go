package lexer

import (
	"fmt"

	"github.com/thomasrohde/ct/pkg/ast"
	"github.com/thomasrohde/ct/pkg/diagnostics"
)

// Cursor reads a source text one character at a time and tracks the
// 1-based line and column of the next unread character.
type Cursor struct {
	source   []rune
	filename string
	pos      int
	line     int
	col      int
}

// NewCursor creates a cursor positioned at the start of source.
func NewCursor(source, filename string) *Cursor {
	return &Cursor{
		source:   []rune(source),
		filename: filename,
		line:     1,
		col:      1,
	}
}

// EOF reports whether every character has been consumed.
func (c *Cursor) EOF() bool {
	return c.pos >= len(c.source)
}

// Peek returns the current character without consuming it.
// Callers must check EOF first.
func (c *Cursor) Peek() rune {
	return c.source[c.pos]
}

// Next consumes and returns the current character.
// Callers must check EOF first.
func (c *Cursor) Next() rune {
	ch := c.source[c.pos]
	c.pos++
	if ch == '\n' {
		c.line++
		c.col = 1
	} else {
		c.col++
	}
	return ch
}

// Position returns the line and column of the next unread character.
func (c *Cursor) Position() (line, col int) {
	return c.line, c.col
}

// Filename returns the name diagnostics report for this source.
func (c *Cursor) Filename() string {
	return c.filename
}

// SpanFrom builds a span from a start position to the current position.
func (c *Cursor) SpanFrom(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      c.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   c.line,
		EndCol:    c.col,
	}
}

// Error builds a lexical diagnostic at the current position.
func (c *Cursor) Error(format string, args ...any) error {
	return c.ErrorAt(c.line, c.col, format, args...)
}

// ErrorAt builds a lexical diagnostic at the given position.
func (c *Cursor) ErrorAt(line, col int, format string, args ...any) error {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		fmt.Sprintf(format, args...),
		&ast.Span{File: c.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

// Diagnostic returns the wrapped diagnostic.
func (e *LexError) Diagnostic() diagnostics.Diagnostic {
	return e.Diag
}
