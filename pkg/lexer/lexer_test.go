package lexer

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// helper to tokenize and fail on error
func mustTokenize(t *testing.T, source string) []Token {
	t.Helper()
	tokens, err := Tokenize(source, "test.ct")
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	return tokens
}

// helper that strips the trailing EOF for easier assertions
func mustTokenizeNoEOF(t *testing.T, source string) []Token {
	t.Helper()
	tokens := mustTokenize(t, source)
	if len(tokens) == 0 {
		t.Fatal("expected at least one token (EOF)")
	}
	if tokens[len(tokens)-1].Type != TokEOF {
		t.Fatal("last token is not EOF")
	}
	return tokens[:len(tokens)-1]
}

type tv struct {
	Type  TokenType
	Value string
}

func typesAndValues(tokens []Token) []tv {
	out := make([]tv, len(tokens))
	for i, tok := range tokens {
		out[i] = tv{tok.Type, tok.Value}
	}
	return out
}

// ---------------------------------------------------------------------------
// Test: empty and whitespace-only input produce only EOF
// ---------------------------------------------------------------------------
func TestEmptyInput(t *testing.T) {
	for _, src := range []string{"", "   ", "\n\t\r\n  "} {
		tokens := mustTokenize(t, src)
		if len(tokens) != 1 {
			t.Fatalf("%q: expected 1 token (EOF), got %d", src, len(tokens))
		}
		if tokens[0].Type != TokEOF {
			t.Errorf("%q: expected TokEOF, got %v", src, tokens[0].Type)
		}
	}
}

// ---------------------------------------------------------------------------
// Test: identifiers, including the hyphen continuation
// ---------------------------------------------------------------------------
func TestIdentifiers(t *testing.T) {
	tests := []string{"x", "_private", "camelCase", "snake_case", "with-hyphen", "a1", "let", "while"}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != TokIdent || tokens[0].Value != input {
				t.Errorf("got %v %q, want identifier %q", tokens[0].Type, tokens[0].Value, input)
			}
		})
	}
}

func TestHyphenJoinsIdentifier(t *testing.T) {
	got := typesAndValues(mustTokenizeNoEOF(t, "a-b a - b"))
	want := []tv{
		{TokIdent, "a-b"},
		{TokIdent, "a"},
		{TokOperator, "-"},
		{TokIdent, "b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// Test: punctuation is always a single character
// ---------------------------------------------------------------------------
func TestPunctuation(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "(){}[];,.")
	if len(tokens) != 9 {
		t.Fatalf("expected 9 tokens, got %d", len(tokens))
	}
	for i, tok := range tokens {
		if tok.Type != TokPunct {
			t.Errorf("token %d: expected punctuation, got %v", i, tok.Type)
		}
		if tok.Value != string("(){}[];,."[i]) {
			t.Errorf("token %d: got %q", i, tok.Value)
		}
	}
}

// ---------------------------------------------------------------------------
// Test: operators consume greedy runs
// ---------------------------------------------------------------------------
func TestOperatorsGreedy(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"+", []string{"+"}},
		{"==", []string{"=="}},
		{"<=", []string{"<="}},
		{"&&", []string{"&&"}},
		{"||", []string{"||"}},
		{"+=", []string{"+="}},
		{"//", []string{"//"}},
		{"=-", []string{"=-"}},
		{"a=b", []string{"="}},
		{"1 % 2", []string{"%"}},
		{"!=", []string{"!="}},
		{"a!=b", []string{"!="}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var got []string
			for _, tok := range mustTokenizeNoEOF(t, tt.input) {
				if tok.Type == TokOperator {
					got = append(got, tok.Value)
				}
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("operators mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Test: numbers
// ---------------------------------------------------------------------------
func TestNumbers(t *testing.T) {
	tests := []struct {
		input    string
		typ      TokenType
		intVal   int64
		floatVal float64
	}{
		{"0", TokIntLit, 0, 0},
		{"42", TokIntLit, 42, 0},
		{"3.14", TokFloatLit, 0, 3.14},
		{"2.0", TokFloatLit, 0, 2},
		{"7.", TokFloatLit, 0, 7},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			tok := tokens[0]
			if tok.Type != tt.typ {
				t.Fatalf("expected %v, got %v", tt.typ, tok.Type)
			}
			if tok.Int != tt.intVal || tok.Float != tt.floatVal {
				t.Errorf("got int=%d float=%v", tok.Int, tok.Float)
			}
		})
	}
}

func TestNumberConsumesAtMostOneDot(t *testing.T) {
	got := typesAndValues(mustTokenizeNoEOF(t, "1.2.3"))
	want := []tv{
		{TokFloatLit, "1.2"},
		{TokPunct, "."},
		{TokIntLit, "3"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestIntegerOverflowIsLexError(t *testing.T) {
	_, err := Tokenize("99999999999999999999999", "test.ct")
	if err == nil {
		t.Fatal("expected lex error")
	}
	var le *LexError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LexError, got %T", err)
	}
	if !strings.Contains(le.Diag.Message, "expected an integer") {
		t.Errorf("unexpected message: %s", le.Diag.Message)
	}
}

// ---------------------------------------------------------------------------
// Test: strings and escapes
// ---------------------------------------------------------------------------
func TestStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"hello"`, "hello"},
		{`""`, ""},
		{`"a\nb"`, "a\nb"},
		{`"a\tb"`, "a\tb"},
		{`"a\rb"`, "a\rb"},
		{`"a\0b"`, "a\x00b"},
		{`"a\vb"`, "a\vb"},
		{`"say \"hi\""`, `say "hi"`},
		{`"back\\slash"`, `back\slash`},
		{`"\q"`, "q"},
		{`"héllo"`, "héllo"},
		{"\"multi\nline\"", "multi\nline"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.input)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d", len(tokens))
			}
			if tokens[0].Type != TokStringLit {
				t.Fatalf("expected string, got %v", tokens[0].Type)
			}
			if tokens[0].Value != tt.want {
				t.Errorf("got %q, want %q", tokens[0].Value, tt.want)
			}
		})
	}
}

func TestUnterminatedString(t *testing.T) {
	_, err := Tokenize(`"abc`, "test.ct")
	if err == nil {
		t.Fatal("expected lex error")
	}
	if !strings.Contains(err.Error(), "unterminated") {
		t.Errorf("unexpected error: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Test: unrecognized characters
// ---------------------------------------------------------------------------
func TestUnrecognizedCharacter(t *testing.T) {
	for _, src := range []string{"@", "let x = 1 # c", "x ? y", "'a'"} {
		t.Run(src, func(t *testing.T) {
			_, err := Tokenize(src, "test.ct")
			if err == nil {
				t.Fatal("expected lex error")
			}
			var le *LexError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LexError, got %T", err)
			}
			if le.Diagnostic().Code != "E_LEX" {
				t.Errorf("got code %q", le.Diagnostic().Code)
			}
		})
	}
}

func TestErrorPosition(t *testing.T) {
	_, err := Tokenize("let x = 1;\n  @", "test.ct")
	var le *LexError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LexError, got %v", err)
	}
	if le.Diag.Span.StartLine != 2 || le.Diag.Span.StartCol != 3 {
		t.Errorf("got %d:%d, want 2:3", le.Diag.Span.StartLine, le.Diag.Span.StartCol)
	}
}

// ---------------------------------------------------------------------------
// Test: spans
// ---------------------------------------------------------------------------
func TestSpans(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "let x\n  = 10;")
	want := [][2]int{{1, 1}, {1, 5}, {2, 3}, {2, 5}, {2, 7}}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, w := range want {
		if tokens[i].Span.StartLine != w[0] || tokens[i].Span.StartCol != w[1] {
			t.Errorf("token %d (%s): got %d:%d, want %d:%d", i, tokens[i].Value,
				tokens[i].Span.StartLine, tokens[i].Span.StartCol, w[0], w[1])
		}
	}
	if tokens[0].Span.File != "test.ct" {
		t.Errorf("got file %q", tokens[0].Span.File)
	}
}

// ---------------------------------------------------------------------------
// Test: peek caches, next clears
// ---------------------------------------------------------------------------
func TestPeekThenNext(t *testing.T) {
	l := New("a b", "test.ct")
	p1, err := l.Peek()
	if err != nil {
		t.Fatal(err)
	}
	p2, _ := l.Peek()
	if p1.Value != "a" || p2.Value != "a" {
		t.Fatalf("peek not cached: %q %q", p1.Value, p2.Value)
	}
	n, _ := l.Next()
	if n.Value != "a" {
		t.Fatalf("next after peek: got %q", n.Value)
	}
	n, _ = l.Next()
	if n.Value != "b" {
		t.Fatalf("fresh next: got %q", n.Value)
	}
	n, _ = l.Next()
	if n.Type != TokEOF {
		t.Fatalf("expected EOF, got %v", n.Type)
	}
	n, _ = l.Next()
	if n.Type != TokEOF {
		t.Fatalf("EOF is sticky, got %v", n.Type)
	}
}

func TestSkipLine(t *testing.T) {
	l := New("// skip me @ entirely\nnext", "test.ct")
	tok, err := l.Peek()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Type != TokOperator || tok.Value != "//" {
		t.Fatalf("expected // operator, got %v %q", tok.Type, tok.Value)
	}
	l.SkipLine()
	tok, err = l.Next()
	if err != nil {
		t.Fatalf("skipped text must not be tokenized: %v", err)
	}
	if tok.Value != "next" {
		t.Errorf("got %q, want next", tok.Value)
	}
}

// ---------------------------------------------------------------------------
// Test: a full statement
// ---------------------------------------------------------------------------
func TestStatement(t *testing.T) {
	got := typesAndValues(mustTokenizeNoEOF(t, `let add(let a, let b) { return a + b; } print("{}", add(1, 2.5));`))
	want := []tv{
		{TokIdent, "let"}, {TokIdent, "add"}, {TokPunct, "("}, {TokIdent, "let"}, {TokIdent, "a"},
		{TokPunct, ","}, {TokIdent, "let"}, {TokIdent, "b"}, {TokPunct, ")"}, {TokPunct, "{"},
		{TokIdent, "return"}, {TokIdent, "a"}, {TokOperator, "+"}, {TokIdent, "b"}, {TokPunct, ";"},
		{TokPunct, "}"}, {TokIdent, "print"}, {TokPunct, "("}, {TokStringLit, "{}"}, {TokPunct, ","},
		{TokIdent, "add"}, {TokPunct, "("}, {TokIntLit, "1"}, {TokPunct, ","}, {TokFloatLit, "2.5"},
		{TokPunct, ")"}, {TokPunct, ")"}, {TokPunct, ";"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// Test: render/re-tokenize round trip
// ---------------------------------------------------------------------------
func TestRenderRoundTrip(t *testing.T) {
	sources := []string{
		`let x = 5; x`,
		`let s = "tab\there \"quoted\" back\\slash\nnl";`,
		`while (x < 3) { if (x == 1) { break; } x = x + 1; }`,
		`let f(let a) { return a * 2.5 % 3; } f(1.);`,
		`s.len(); obj.field; a-b || c && d >= 10 != e`,
	}
	ignoreSpan := cmpopts.IgnoreFields(Token{}, "Span")
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			first := mustTokenize(t, src)
			rendered := Render(first)
			second := mustTokenize(t, rendered)
			if diff := cmp.Diff(first, second, ignoreSpan); diff != "" {
				t.Errorf("round trip mismatch for %q (-first +second):\n%s", rendered, diff)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	if got := Quote("a\"b\\c\n"); got != `"a\"b\\c\n"` {
		t.Errorf("got %s", got)
	}
}
