package stdlib

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/thomasrohde/ct/pkg/evaluator"
)

type flusher interface {
	Flush() error
}

// IOStream provides print, input and flush over a writer and a reader.
type IOStream struct {
	out io.Writer
	in  *bufio.Reader
}

// NewIOStream creates the console module. If out implements Flush, the
// flush native calls it.
func NewIOStream(out io.Writer, in io.Reader) *IOStream {
	return &IOStream{out: out, in: bufio.NewReader(in)}
}

// Name returns the module name.
func (m *IOStream) Name() string { return "iostream" }

// Extend registers the module's natives.
func (m *IOStream) Extend(r *Registry) {
	r.Register(Fn{Name: "print", Module: m.Name(), Execute: m.print})
	r.Register(Fn{Name: "input", Module: m.Name(), Execute: m.input})
	r.Register(Fn{Name: "flush", Module: m.Name(), Execute: m.flush})
}

// print(fmt, args...) writes fmt with each {} replaced by the next argument.
// A non-String first argument is printed on its own. No newline is added.
func (m *IOStream) print(args []evaluator.Value) evaluator.Value {
	if len(args) == 0 {
		return nil
	}
	if _, err := io.WriteString(m.out, Render(args)); err != nil {
		return evaluator.NewError("print: %v", err)
	}
	return nil
}

// input(prompt...) prints its arguments like print, then reads one line
// from the input and returns it without surrounding whitespace.
func (m *IOStream) input(args []evaluator.Value) evaluator.Value {
	if errVal := m.print(args); errVal != nil {
		return errVal
	}
	if f, ok := m.out.(flusher); ok {
		_ = f.Flush() // the prompt must be visible before blocking on input
	}

	line, err := m.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return evaluator.NewError("input: %v", err)
	}
	return evaluator.NewString(strings.TrimSpace(line))
}

// flush(args...) prints its arguments like print, then flushes the output.
func (m *IOStream) flush(args []evaluator.Value) evaluator.Value {
	if errVal := m.print(args); errVal != nil {
		return errVal
	}
	if f, ok := m.out.(flusher); ok {
		if err := f.Flush(); err != nil {
			return evaluator.NewError("flush: %v", err)
		}
	}
	return nil
}

// Render formats print arguments. The first argument is the template when
// it is a String: "{}" takes the next argument, "{{" and "}}" are literal
// braces. Placeholders without a matching argument, or whose argument has
// no value, are dropped. A valueless argument still uses up its placeholder,
// so the next "{}" takes the argument after it. Any other first argument is
// formatted on its own.
func Render(args []evaluator.Value) string {
	if len(args) == 0 {
		return ""
	}
	tmpl, ok := args[0].(evaluator.CtString)
	if !ok {
		return evaluator.Format(args[0])
	}

	var sb strings.Builder
	next := 1
	src := []rune(tmpl.Value)
	for i := 0; i < len(src); i++ {
		ch := src[i]
		switch {
		case ch == '{' && i+1 < len(src) && src[i+1] == '}':
			if next < len(args) {
				if args[next] != nil {
					sb.WriteString(args[next].String())
				}
				next++
			}
			i++
		case ch == '{' && i+1 < len(src) && src[i+1] == '{':
			sb.WriteRune('{')
			i++
		case ch == '}' && i+1 < len(src) && src[i+1] == '}':
			sb.WriteRune('}')
			i++
		default:
			sb.WriteRune(ch)
		}
	}
	return sb.String()
}
