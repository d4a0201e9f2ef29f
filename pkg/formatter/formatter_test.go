package formatter_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/thomasrohde/ct/pkg/ast"
	"github.com/thomasrohde/ct/pkg/formatter"
	"github.com/thomasrohde/ct/pkg/parser"
)

var ignoreSpans = cmpopts.IgnoreTypes(ast.Span{})

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, diags := parser.Parse(src, "test.ct")
	if len(diags) > 0 {
		t.Fatalf("parse %q: %s", src, diags[0].Message)
	}
	return prog
}

func TestFormatOutput(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"declaration", `let   x=1;`, "let x = 1;\n"},
		{"precedence kept", `x = 1 + 2 * 3;`, "x = 1 + 2 * 3;\n"},
		{"grouping kept", `x = (1 + 2) * 3;`, "x = (1 + 2) * 3;\n"},
		{"redundant parens dropped", `x = (1 * 2) + 3;`, "x = 1 * 2 + 3;\n"},
		{"right grouping", `x = 10 - (4 - 3);`, "x = 10 - (4 - 3);\n"},
		{"float", `let f = 2.50;`, "let f = 2.5;\n"},
		{"whole float", `let f = 3.0;`, "let f = 3.0;\n"},
		{"string escapes", `print("a\tb\n");`, "print(\"a\\tb\\n\");\n"},
		{"member", `s.len(); s.kind;`, "s.len();\ns.kind;\n"},
		{"struct", `struct "Point" {}`, "struct Point {}\n"},
		{"for header dropped", `for (let i = 0; i < 3; i += 1) { break; }`, "for () {\n  break;\n}\n"},
		{
			"function",
			`let add(let a, b) { return a + b; } add(1, 2);`,
			"let add(let a, let b) {\n  return a + b;\n}\n\nadd(1, 2);\n",
		},
		{
			"if chain",
			`if (x < 1) { a(); } else if (x < 2) { b(); } else { c(); }`,
			"if (x < 1) {\n  a();\n} else if (x < 2) {\n  b();\n} else {\n  c();\n}\n",
		},
		{
			"nested",
			`while (true) { if (done) { break; } }`,
			"while (true) {\n  if (done) {\n    break;\n  }\n}\n",
		},
		{"empty body", `let f() {}`, "let f() {}\n"},
		{"empty program", ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatter.Format(mustParse(t, tt.src))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Format mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Formatting then re-parsing must yield the same tree, and formatting is idempotent.
func TestRoundTrip(t *testing.T) {
	sources := []string{
		`let x = 1; x += 2; x -= 3; return x;`,
		`let y = (a = 4) + 1;`,
		`x = y = 3;`,
		`let z = a || b && c == d < e + f * g % h;`,
		`let w = ((a || b) && c) * (d - (e - f));`,
		`let fact(let n) { if (n < 2) { return 1; } return n * fact(n - 1); } print("{}\n", fact(5));`,
		`let i = 0; while (i < 10) { i = i + 1; if (i % 2 == 0) { continue; } }`,
		`let s = "q\"uote\\"; s.upper(); s.replace("a", "b");`,
		`let f = 0.000001; let g = 123456789012345678901234.5;`,
		`struct Thing {} let x;`,
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			first := mustParse(t, src)
			formatted := formatter.Format(first)
			second := mustParse(t, formatted)
			if diff := cmp.Diff(first.Statements, second.Statements, ignoreSpans); diff != "" {
				t.Errorf("round trip changed the tree (-orig +reparsed):\n%s\nformatted:\n%s", diff, formatted)
			}
			if again := formatter.Format(second); again != formatted {
				t.Errorf("not idempotent:\n%s\nvs\n%s", formatted, again)
			}
		})
	}
}

func TestHasComments(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"let x = 1; // trailing", true},
		{"// leading\nlet x = 1;", true},
		{`let url = "http://example.com";`, false},
		{`let s = "\"//"; x;`, false},
		{"let x = 4 / 2;", false},
	}
	for _, tt := range tests {
		if got := formatter.HasComments(tt.src); got != tt.want {
			t.Errorf("HasComments(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}
