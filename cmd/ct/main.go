// Command ct is the ct interpreter CLI.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	goruntime "runtime"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/thomasrohde/ct/pkg/config"
	"github.com/thomasrohde/ct/pkg/diagnostics"
	"github.com/thomasrohde/ct/pkg/evaluator"
	"github.com/thomasrohde/ct/pkg/formatter"
	"github.com/thomasrohde/ct/pkg/help"
	"github.com/thomasrohde/ct/pkg/lexer"
	"github.com/thomasrohde/ct/pkg/runtime"
	"github.com/thomasrohde/ct/pkg/stdlib"
)

// Exit codes.
const (
	exitOK      = 0
	exitUsage   = 1 // usage, configuration and I/O errors
	exitSyntax  = 2 // lex, parse and check diagnostics
	exitRuntime = 3 // fatal runtime diagnostics
)

const usage = "usage: ct <file> | ct <command> [options]\ncommands: run, check, fmt, tokens, help\n"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	wd, _ := os.Getwd()
	c := &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr, workDir: wd}
	code := c.run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

type cli struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	workDir string
}

func (c *cli) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.stderr, "ct: interactive mode is not implemented yet")
		fmt.Fprint(c.stderr, usage)
		return exitUsage
	}

	switch args[0] {
	case "run":
		return c.cmdRun(ctx, args[1:])
	case "check":
		return c.cmdCheck(ctx, args[1:])
	case "fmt":
		return c.cmdFmt(args[1:])
	case "tokens":
		return c.cmdTokens(args[1:])
	case "help", "--help", "-h":
		return c.cmdHelp(args[1:])
	default:
		return c.cmdRun(ctx, args)
	}
}

// commonFlags are accepted by every command that loads a program.
type commonFlags struct {
	configPath     string
	logLevel       string
	json           bool
	unsafeAllowAll bool
}

func (c *cli) flagSet(name string, common *commonFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.StringVar(&common.configPath, "config", "", "configuration file (default ./.ct.yaml, then ~/.ct/config.yaml)")
	fs.StringVar(&common.logLevel, "log-level", "", "log level: debug, info, warn or error (overrides the configuration)")
	fs.BoolVar(&common.json, "json", false, "print diagnostics as JSON")
	return fs
}

// setup loads the configuration and builds the logger.
func (c *cli) setup(common *commonFlags) (*config.Config, *slog.Logger, bool) {
	cfg, err := config.Load(common.configPath, c.workDir)
	if err != nil {
		c.printError(err, common.json)
		return nil, nil, false
	}
	level := cfg.LogLevel
	if common.logLevel != "" {
		level, err = config.ParseLevel(common.logLevel)
		if err != nil {
			fmt.Fprintf(c.stderr, "ct: %s\n", err)
			return nil, nil, false
		}
	}
	logger := slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))
	if cfg.Path != "" {
		logger.Debug("configuration loaded", "path", cfg.Path)
	}
	return cfg, logger, true
}

func (c *cli) cmdRun(ctx context.Context, args []string) int {
	var common commonFlags
	fs := c.flagSet("run", &common)
	fs.BoolVar(&common.unsafeAllowAll, "unsafe-allow-all", false, "grant every capability")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprint(c.stderr, "usage: ct run <file> [--config path] [--log-level lvl] [--json] [--unsafe-allow-all]\n")
		return exitUsage
	}

	cfg, logger, ok := c.setup(&common)
	if !ok {
		return exitUsage
	}
	source, filename, ok := c.readSource(fs.Arg(0), common.json)
	if !ok {
		return exitUsage
	}

	opts := []runtime.Option{
		runtime.WithConfig(cfg),
		runtime.WithLogger(logger),
		runtime.WithStdout(c.stdout),
		runtime.WithStdin(c.stdin),
	}
	if common.unsafeAllowAll {
		logger.Warn("all capabilities granted")
		opts = append(opts, runtime.WithUnsafeAllowAll())
	}

	_, err := runtime.New(opts...).Run(ctx, source, filename)
	if err == nil {
		return exitOK
	}

	var diagErr *runtime.DiagnosticError
	var rtErr *evaluator.RuntimeError
	switch {
	case errors.As(err, &diagErr):
		fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, !common.json))
		return exitSyntax
	case errors.As(err, &rtErr):
		logger.Debug("runtime error", "code", rtErr.Code, "file", filename)
		fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostic(rtErr.Diagnostic(), !common.json))
		return exitRuntime
	default:
		fmt.Fprintf(c.stderr, "ct: %s\n", err)
		return exitUsage
	}
}

type checkResult struct {
	file  string
	diags []diagnostics.Diagnostic
	ioErr bool
}

func (c *cli) cmdCheck(ctx context.Context, args []string) int {
	var common commonFlags
	fs := c.flagSet("check", &common)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprint(c.stderr, "usage: ct check <file>... [--json]\n")
		return exitUsage
	}

	cfg, logger, ok := c.setup(&common)
	if !ok {
		return exitUsage
	}
	rt := runtime.New(runtime.WithConfig(cfg), runtime.WithLogger(logger))

	files := fs.Args()
	results := make([]checkResult, len(files))

	// stdin can only be read once, so it is loaded before the workers start.
	var stdinSrc evaluator.Value
	if slices.Contains(files, "-") {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			stdinSrc = evaluator.NewError("%v", err)
		} else {
			stdinSrc = evaluator.NewString(string(data))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(goruntime.GOMAXPROCS(0))
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			name, v := file, stdinSrc
			if file != "-" {
				v = stdlib.Load(file)
			} else {
				name = stdinName
			}
			results[i].file = name
			src, isStr := v.(evaluator.CtString)
			if !isStr {
				results[i].ioErr = true
				results[i].diags = []diagnostics.Diagnostic{ioDiagnostic(name, v)}
				return nil
			}
			results[i].diags = rt.Check(src.Value, name)
			logger.Debug("checked", "file", file, "diagnostics", len(results[i].diags))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(c.stderr, "ct: %s\n", err)
		return exitUsage
	}

	code := exitOK
	var all []diagnostics.Diagnostic
	for _, r := range results {
		all = append(all, r.diags...)
		switch {
		case r.ioErr:
			code = exitUsage
		case len(r.diags) > 0 && code == exitOK:
			code = exitSyntax
		}
	}

	if common.json {
		if all == nil {
			all = []diagnostics.Diagnostic{}
		}
		fmt.Fprintln(c.stdout, diagnostics.FormatDiagnostics(all, false))
		return code
	}
	for _, r := range results {
		if len(r.diags) == 0 {
			fmt.Fprintf(c.stdout, "%s: ok\n", r.file)
			continue
		}
		fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics(r.diags, true))
	}
	return code
}

func (c *cli) cmdFmt(args []string) int {
	var common commonFlags
	var write bool
	fs := c.flagSet("fmt", &common)
	fs.BoolVarP(&write, "write", "w", false, "rewrite the file in place")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprint(c.stderr, "usage: ct fmt <file> [--write]\n")
		return exitUsage
	}

	_, logger, ok := c.setup(&common)
	if !ok {
		return exitUsage
	}
	source, filename, ok := c.readSource(fs.Arg(0), common.json)
	if !ok {
		return exitUsage
	}

	formatted, err := runtime.New(runtime.WithLogger(logger)).Format(source, filename)
	if err != nil {
		var diagErr *runtime.DiagnosticError
		if errors.As(err, &diagErr) {
			fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, !common.json))
		} else {
			fmt.Fprintf(c.stderr, "ct: %s\n", err)
		}
		return exitSyntax
	}

	if formatter.HasComments(source) {
		logger.Warn("comments are not preserved by the formatter", "file", filename)
	}

	if write && filename != stdinName {
		if err := os.WriteFile(filename, []byte(formatted), 0644); err != nil {
			fmt.Fprintf(c.stderr, "ct: writing %s: %s\n", filename, err)
			return exitUsage
		}
		return exitOK
	}
	fmt.Fprint(c.stdout, formatted)
	return exitOK
}

type tokenJSON struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Line  int    `json:"line"`
	Col   int    `json:"col"`
}

func (c *cli) cmdTokens(args []string) int {
	var common commonFlags
	var render bool
	fs := c.flagSet("tokens", &common)
	fs.BoolVar(&render, "render", false, "print the source reconstructed from the tokens")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprint(c.stderr, "usage: ct tokens <file> [--json] [--render]\n")
		return exitUsage
	}
	source, filename, ok := c.readSource(fs.Arg(0), common.json)
	if !ok {
		return exitUsage
	}

	toks, err := runtime.New().Tokens(source, filename)
	if err != nil {
		c.printError(err, common.json)
		return exitSyntax
	}

	switch {
	case render:
		fmt.Fprintln(c.stdout, lexer.Render(toks))
	case common.json:
		out := make([]tokenJSON, len(toks))
		for i, t := range toks {
			out[i] = tokenJSON{Type: t.Type.String(), Value: t.Value, Line: t.Span.StartLine, Col: t.Span.StartCol}
		}
		b, _ := json.Marshal(out)
		fmt.Fprintln(c.stdout, string(b))
	default:
		for _, t := range toks {
			fmt.Fprintf(c.stdout, "%d:%d\t%-11s\t%s\n", t.Span.StartLine, t.Span.StartCol, t.Type, t)
		}
	}
	return exitOK
}

func (c *cli) cmdHelp(args []string) int {
	var showIndex bool
	fs := pflag.NewFlagSet("help", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.BoolVar(&showIndex, "index", false, "list every native function (stdlib topic only)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	topic := fs.Arg(0)

	if showIndex {
		if topic != "stdlib" {
			fmt.Fprintln(c.stderr, "error: --index is only supported for the stdlib topic (ct help stdlib --index)")
			return exitUsage
		}
		fmt.Fprint(c.stdout, help.StdlibIndex())
		return exitOK
	}

	if topic == "" {
		fmt.Fprint(c.stdout, help.QUICKREF)
		return exitOK
	}

	_, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintf(c.stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
		return exitUsage
	}
	fmt.Fprint(c.stdout, content)
	return exitOK
}

const stdinName = "<stdin>"

// readSource loads a program through the file stream module, or from stdin for "-".
func (c *cli) readSource(file string, asJSON bool) (string, string, bool) {
	if file == "-" {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			fmt.Fprintf(c.stderr, "ct: reading stdin: %s\n", err)
			return "", "", false
		}
		return string(data), stdinName, true
	}

	v := stdlib.Load(file)
	if src, ok := v.(evaluator.CtString); ok {
		return src.Value, file, true
	}
	fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostic(ioDiagnostic(file, v), !asJSON))
	return "", "", false
}

func ioDiagnostic(file string, v evaluator.Value) diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file %s: %s", file, errorMessage(v)), nil, "")
}

func errorMessage(v evaluator.Value) string {
	if e, ok := v.(evaluator.CtError); ok {
		return e.Message
	}
	return evaluator.Format(v)
}

func (c *cli) printError(err error, asJSON bool) {
	var d diagnostics.Diagnosable
	if errors.As(err, &d) {
		fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostic(d.Diagnostic(), !asJSON))
		return
	}
	var diagErr *runtime.DiagnosticError
	if errors.As(err, &diagErr) {
		fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, !asJSON))
		return
	}
	fmt.Fprintf(c.stderr, "ct: %s\n", err)
}
