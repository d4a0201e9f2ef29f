// Package help holds the text shown by `ct help`.
package help

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/thomasrohde/ct/pkg/capabilities"
	"github.com/thomasrohde/ct/pkg/stdlib"
)

// QUICKREF is printed by `ct help` without a topic.
const QUICKREF = `ct v0.1 - a small tree-walking scripting language

USAGE
  ct <file>                 run a program
  ct run <file> [flags]     run a program
  ct check <file>...        parse and validate without running
  ct fmt <file> [--write]   reformat source
  ct tokens <file>          dump the token stream
  ct help [topic]           show help

FLAGS
  --config <path>   configuration file (default .ct.yaml, then ~/.ct/config.yaml)
  --log-level <lvl> debug, info, warn or error
  --json            print diagnostics as JSON
  --unsafe-allow-all  grant every capability

TOPICS
  syntax, types, stdlib, structs, flow, caps, config, diagnostics, examples

  ct help <topic>          e.g. ct help flow
  ct help stdlib --index   list every native function
`

// TopicList is the display order of the help topics.
var TopicList = []string{"syntax", "types", "stdlib", "structs", "flow", "caps", "config", "diagnostics", "examples"}

// Topics maps a topic name to its text.
var Topics = map[string]string{
	"syntax": `SYNTAX

Statements end with ';' unless they end with a '{...}' body.

  let x = 1;              declare x in the current scope
  x = x + 1;              assign to the nearest existing x
  x += 2; x -= 1;         compound assignment on an existing variable
  let f(let a, b) { ... } define a function; 'let' on parameters is optional
  f(1, 2);                call
  s.len();                member call on a value with a registered structure
  struct Name {}          declare an (empty) structure
  // comment              runs to the end of the line

Operators, loosest first (all left-associative):
  =  +=  -=
  ||
  &&
  <  >  <=  >=  ==  !=
  +  -
  *  /  %
Parentheses group. Assignment yields the assigned value.
`,

	"types": `TYPES

  int      64-bit signed integer       42
  float    64-bit float                2.5   (3.0 prints as 3)
  bool                                 true false
  String   text                        "a\tb\n"  escapes: \n \t \r \0 \v \" \\
  fun      a function value            printed as <fun name/arity>
  err      a soft error from a native  printed as error: message

Mixing int and float promotes the int: 1 + 2.0 is 3.
Strings support + (concatenation) and comparison. bool supports == != && ||.
Integer division truncates; dividing an int by zero is E_DIV_ZERO.
`,

	"stdlib": `STDLIB

Native functions take precedence over user functions of the same name.
They never abort the program: failures come back as an err value.

  print(fmt, args...)   '{}' is replaced by the next argument, '{{' '}}' are braces
  input(prompt...)      print the prompt, read one line, trimmed
  flush(args...)        print, then flush standard output
  read_file(path)       needs fs.read
  write_file(path, v)   needs fs.write; returns the number of bytes written
  file_exists(path)     needs fs.read
  len(s) upper(s) lower(s) trim(s)
  contains(s, sub) replace(s, from, to) starts_with(s, p) ends_with(s, p)
  type_of(v) is_error(v) error(msg)
  http_get(url)         needs http.get; data: URLs are decoded locally
  sh_exec(cmd)          needs sh.exec; returns standard output

Run 'ct help stdlib --index' for the full list grouped by module.
`,

	"structs": `STRUCTS

Member access resolves the structure registered for the receiver's type.

  let s = " Hi ";
  let t = s.trim();    the receiver must be a variable
  t.len();             2

The String structure provides len, upper, lower, trim, contains, replace,
starts_with and ends_with. Each method receives the receiver as its first
argument. 'struct Name {}' in source declares nothing the runtime can use.
`,

	"flow": `FLOW

  if (cond) { ... } else if (cond) { ... } else { ... }
  while (cond) { ... }      break; continue;
  return expr;              leaves the function; at top level ends the program

Conditions must be bool. Every body opens a new scope.
Scoping is dynamic: a function sees the variables of its caller.
'for' is reserved and reported as unsupported.
`,

	"caps": `CAPABILITIES

Natives that touch the host check the capability policy.

  fs.read    read_file, file_exists
  fs.write   write_file
  http.get   http_get
  sh.exec    sh_exec

The default policy allows fs.read. Configure 'allow' and 'deny' in the
configuration file, or pass --unsafe-allow-all. A denied call returns an
err value instead of stopping the program.
`,

	"config": `CONFIG

ct reads the first of: --config <path>, ./.ct.yaml, ~/.ct/config.yaml.

  max_depth: 1000          maximum user-function call depth (0 = unlimited)
  max_iterations: 0        maximum total while-loop iterations (0 = unlimited)
  log_level: warn          debug, info, warn or error
  allow: [fs.read]
  deny: []

Unknown keys are an error (E_CONFIG).
`,

	"diagnostics": `DIAGNOSTICS

  E_LEX              malformed token
  E_PARSE            malformed statement
  E_UNKNOWN_VAR      variable not found in any scope
  E_UNKNOWN_FN       function not found
  E_ARITY            wrong number of arguments
  E_FN_DUP           function name already defined
  E_ASSIGN           invalid assignment target
  E_COND_TYPE        non-bool condition
  E_OPERATOR         operator not defined for the operand types
  E_MISSING_OPERAND  operand has no value
  E_DIV_ZERO         integer division by zero
  E_CONTROL          break/continue outside a loop
  E_STRUCT           missing structure or member
  E_UNSUPPORTED      construct not implemented (for)
  E_DEPTH            max_depth exceeded
  E_ITERATIONS       max_iterations exceeded
  E_CANCELED         execution interrupted
  E_DUP_PARAM        parameter declared twice
  E_IO               cannot read a source file
  E_CONFIG           invalid configuration

Exit codes: 1 usage/config/IO, 2 lex/parse/check, 3 runtime.
`,

	"examples": `EXAMPLES

  let fib(let n) {
    if (n < 2) { return n; }
    return fib(n - 1) + fib(n - 2);
  }
  print("fib(10) = {}\n", fib(10));

  let name = input("name? ");
  if (name.len() == 0) {
    print("nobody\n");
  } else {
    print("hello, {}\n", name);
  }
`,
}

// MatchTopic resolves an exact topic name or an unambiguous prefix.
func MatchTopic(query string) (string, string, error) {
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}
	var matches []string
	for _, name := range TopicList {
		if query != "" && strings.HasPrefix(name, query) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown help topic %q", query)
	default:
		return "", "", fmt.Errorf("ambiguous help topic %q matches %s", query, strings.Join(matches, ", "))
	}
}

// StdlibIndex lists the default natives grouped by module.
func StdlibIndex() string {
	reg := stdlib.NewRegistry()
	stdlib.RegisterDefaults(reg, io.Discard, strings.NewReader(""), capabilities.DenyAll())

	byModule := make(map[string][]string)
	var modules []string
	for _, name := range reg.Names() {
		mod := reg.Get(name).Module
		if _, seen := byModule[mod]; !seen {
			modules = append(modules, mod)
		}
		byModule[mod] = append(byModule[mod], name)
	}
	slices.Sort(modules)

	var sb strings.Builder
	total := 0
	for _, mod := range modules {
		names := byModule[mod]
		total += len(names)
		fmt.Fprintf(&sb, "%-12s %s\n", mod, strings.Join(names, ", "))
	}
	fmt.Fprintf(&sb, "\nTotal: %d functions\n", total)
	return sb.String()
}
