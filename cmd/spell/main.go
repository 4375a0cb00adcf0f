// Command spell is the spell language CLI entry point.
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
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/spelllang/spell/pkg/config"
	"github.com/spelllang/spell/pkg/diagnostics"
	"github.com/spelllang/spell/pkg/evaluator"
	"github.com/spelllang/spell/pkg/formatter"
	"github.com/spelllang/spell/pkg/help"
	"github.com/spelllang/spell/pkg/lexer"
	"github.com/spelllang/spell/pkg/runtime"
	"github.com/spelllang/spell/pkg/stdlib"
)

const (
	promptMain = "spell> "
	promptCont = "...... "
)

const usageText = `usage: spell <file> [options]
       spell <command> [options]
commands: run, check, fmt, tokens, repl, help, config`

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	// cwd is where the project config file is looked up; empty means the
	// process working directory.
	cwd string
}

func main() {
	c := &cli{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	os.Exit(c.run(os.Args[1:]))
}

func (c *cli) run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(c.stderr, usageText)
		return 1
	}

	switch args[0] {
	case "run":
		return c.cmdRun(args[1:])
	case "check":
		return c.cmdCheck(args[1:])
	case "fmt":
		return c.cmdFmt(args[1:])
	case "tokens":
		return c.cmdTokens(args[1:])
	case "repl":
		return c.cmdRepl(args[1:])
	case "help", "--help", "-h":
		return c.cmdHelp(args[1:])
	case "config":
		return c.cmdConfig(args[1:])
	}
	if strings.HasPrefix(args[0], "-") && args[0] != "-" {
		fmt.Fprintf(c.stderr, "Unknown option: %s\n%s\n", args[0], usageText)
		return 1
	}
	return c.cmdRun(args)
}

// commonFlags are the options shared by the file commands.
type commonFlags struct {
	file          string
	pretty        bool
	trace         bool
	verbose       bool
	maxIterations int64
	write         bool
	index         bool
}

// parseFlags reads args against the allowed option names. Exactly one
// positional file argument is required.
func (c *cli) parseFlags(cmd string, args []string, cfg *config.Config, allowed ...string) (*commonFlags, bool) {
	f := &commonFlags{
		pretty:        cfg.Pretty,
		trace:         cfg.Trace,
		maxIterations: cfg.MaxIterations,
	}
	allow := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		allow[a] = true
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") && arg != "-" {
			if !allow[arg] {
				fmt.Fprintf(c.stderr, "Unknown option for %s: %s\n", cmd, arg)
				return nil, false
			}
			switch arg {
			case "--pretty":
				f.pretty = true
			case "--json":
				f.pretty = false
			case "--trace":
				f.trace = true
			case "--verbose", "-v":
				f.verbose = true
			case "--write":
				f.write = true
			case "--max-iterations":
				if i+1 >= len(args) {
					fmt.Fprintln(c.stderr, "--max-iterations requires a value")
					return nil, false
				}
				i++
				n, err := strconv.ParseInt(args[i], 10, 64)
				if err != nil || n < 0 {
					fmt.Fprintf(c.stderr, "invalid --max-iterations value: %s\n", args[i])
					return nil, false
				}
				f.maxIterations = n
			}
			continue
		}
		if f.file != "" {
			fmt.Fprintf(c.stderr, "unexpected argument: %s\n", arg)
			return nil, false
		}
		f.file = arg
	}

	if f.file == "" {
		fmt.Fprintf(c.stderr, "usage: spell %s <file> [%s]\n", cmd, strings.Join(allowed, "] ["))
		return nil, false
	}
	return f, true
}

func (c *cli) loadConfig() (*config.Config, bool) {
	dir := c.cwd
	if dir == "" {
		dir, _ = os.Getwd()
	}
	cfg, err := config.Load(dir)
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return nil, false
	}
	return cfg, true
}

func (c *cli) newLogger(cfg *config.Config, verbose bool) *slog.Logger {
	level := cfg.Level()
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))
}

func (c *cli) cmdRun(args []string) int {
	cfg, ok := c.loadConfig()
	if !ok {
		return 1
	}
	flags, ok := c.parseFlags("run", args, cfg, "--pretty", "--json", "--trace", "--verbose", "-v", "--max-iterations")
	if !ok {
		return 1
	}

	source, filename, exitCode := c.readSource(flags.file, flags.pretty)
	if exitCode != 0 {
		return exitCode
	}

	logger := c.newLogger(cfg, flags.verbose)
	if cfg.Path != "" {
		logger.Debug("config loaded", "path", cfg.Path)
	}

	opts := []runtime.Option{
		runtime.WithStdout(c.stdout),
		runtime.WithStderr(c.stderr),
		runtime.WithLogger(logger),
		runtime.WithMaxIterations(flags.maxIterations),
	}
	if flags.trace {
		opts = append(opts,
			runtime.WithRunID(strconv.FormatInt(time.Now().UnixNano(), 36)),
			runtime.WithTrace(traceWriter(c.stderr, c.stderr)),
		)
	}
	rt := runtime.New(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rt.Run(ctx, source, filename); err != nil {
		var diagErr *runtime.DiagnosticError
		if errors.As(err, &diagErr) {
			fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, flags.pretty))
			return 2
		}
		fmt.Fprintln(c.stderr, runtime.FormatRuntimeError(err))
		var rtErr *evaluator.RuntimeError
		if errors.As(err, &rtErr) && rtErr.Code == diagnostics.ECanceled {
			return 130
		}
	}
	return 0
}

// traceWriter encodes trace events as JSON lines on out. The first write
// failure is reported once on errOut; later events are dropped.
func traceWriter(out, errOut io.Writer) func(evaluator.TraceEvent) {
	enc := json.NewEncoder(out)
	failed := false
	return func(ev evaluator.TraceEvent) {
		if failed {
			return
		}
		if err := enc.Encode(ev); err != nil {
			failed = true
			fmt.Fprintf(errOut, "trace: %v\n", err)
		}
	}
}

func (c *cli) cmdCheck(args []string) int {
	cfg, ok := c.loadConfig()
	if !ok {
		return 1
	}
	flags, ok := c.parseFlags("check", args, cfg, "--pretty", "--json")
	if !ok {
		return 1
	}

	source, filename, exitCode := c.readSource(flags.file, flags.pretty)
	if exitCode != 0 {
		return exitCode
	}

	rt := runtime.New()
	diags := rt.Check(source, filename)
	if len(diags) > 0 {
		fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics(diags, flags.pretty))
		return 2
	}

	if flags.pretty {
		fmt.Fprintln(c.stdout, "No errors found.")
	} else {
		fmt.Fprintln(c.stdout, "[]")
	}
	return 0
}

func (c *cli) cmdFmt(args []string) int {
	cfg, ok := c.loadConfig()
	if !ok {
		return 1
	}
	flags, ok := c.parseFlags("fmt", args, cfg, "--write", "--pretty", "--json")
	if !ok {
		return 1
	}
	if flags.write && flags.file == "-" {
		fmt.Fprintln(c.stderr, "--write cannot be used with stdin")
		return 1
	}

	source, filename, exitCode := c.readSource(flags.file, flags.pretty)
	if exitCode != 0 {
		return exitCode
	}

	rt := runtime.New()
	formatted, err := rt.Format(source, filename)
	if err != nil {
		var diagErr *runtime.DiagnosticError
		if errors.As(err, &diagErr) {
			fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, flags.pretty))
			return 2
		}
		fmt.Fprintln(c.stderr, err.Error())
		return 2
	}

	if formatter.HasComments(source) {
		fmt.Fprintln(c.stderr, "warning: comments are not preserved by the formatter")
	}

	if flags.write {
		if err := os.WriteFile(flags.file, []byte(formatted), 0o644); err != nil {
			fmt.Fprintf(c.stderr, "error writing file: %s\n", err)
			return 1
		}
		return 0
	}
	fmt.Fprint(c.stdout, formatted)
	return 0
}

type tokenJSON struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
	Line  int    `json:"line"`
	Col   int    `json:"col"`
}

func (c *cli) cmdTokens(args []string) int {
	cfg, ok := c.loadConfig()
	if !ok {
		return 1
	}
	flags, ok := c.parseFlags("tokens", args, cfg, "--pretty", "--json")
	if !ok {
		return 1
	}

	source, filename, exitCode := c.readSource(flags.file, flags.pretty)
	if exitCode != 0 {
		return exitCode
	}

	tokens, err := runtime.New().Tokens(source, filename)
	if err != nil {
		var diagErr *runtime.DiagnosticError
		if errors.As(err, &diagErr) {
			fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, flags.pretty))
			return 2
		}
		fmt.Fprintln(c.stderr, err.Error())
		return 2
	}

	if !flags.pretty {
		out := make([]tokenJSON, len(tokens))
		for i, tok := range tokens {
			out[i] = tokenJSON{
				Kind:  tok.Kind.String(),
				Value: tok.Value,
				Line:  tok.Span.StartLine,
				Col:   tok.Span.StartCol,
			}
		}
		b, _ := json.Marshal(out)
		fmt.Fprintln(c.stdout, string(b))
		return 0
	}

	for _, tok := range tokens {
		value := tok.Value
		if tok.Kind == lexer.TokText {
			value = strconv.Quote(value)
		}
		fmt.Fprintf(c.stdout, "%d:%d\t%s\t%s\n", tok.Span.StartLine, tok.Span.StartCol, tok.Kind, value)
	}
	return 0
}

func (c *cli) cmdRepl(args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(c.stderr, "unexpected argument: %s\n", args[0])
		return 1
	}
	cfg, ok := c.loadConfig()
	if !ok {
		return 1
	}

	fmt.Fprintf(c.stdout, "spell %s. Type :help for commands, :quit to exit.\n", help.Version)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if cfg.HistoryFile != "" {
		if f, err := os.Open(cfg.HistoryFile); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(cfg.HistoryFile); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	rt := runtime.New(
		runtime.WithStdout(c.stdout),
		runtime.WithStderr(c.stderr),
		runtime.WithLogger(c.newLogger(cfg, false)),
		runtime.WithMaxIterations(cfg.MaxIterations),
		runtime.WithRunID("repl"),
	)
	session := rt.NewSession()

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Fprintln(c.stdout)
			break
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit", ":q":
				return 0
			case ":vars":
				for _, line := range session.Vars() {
					fmt.Fprintln(c.stdout, line)
				}
			case ":help":
				fmt.Fprint(c.stdout, help.QUICKREF)
				fmt.Fprintln(c.stdout, "REPL commands: :vars, :help, :quit")
			default:
				fmt.Fprintln(c.stdout, "unknown command. Type :quit to exit.")
			}
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err := session.Eval(ctx, code)
		stop()
		if err == nil {
			continue
		}
		var diagErr *runtime.DiagnosticError
		if errors.As(err, &diagErr) {
			fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, true))
			continue
		}
		fmt.Fprintln(c.stderr, runtime.FormatRuntimeError(err))
	}
	return 0
}

// readByParseProbe collects lines until the input parses or fails for a
// reason other than ending early. It reports false on end of input.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || !runtime.Incomplete(src) {
			return src, true
		}
	}
}

func (c *cli) cmdHelp(args []string) int {
	showIndex := false
	topic := ""
	for _, arg := range args {
		if arg == "--index" {
			showIndex = true
		} else if !strings.HasPrefix(arg, "-") {
			topic = arg
		}
	}

	if showIndex {
		if topic != "builtins" {
			fmt.Fprintln(c.stderr, "error: --index is only supported for the builtins topic (spell help builtins --index)")
			return 1
		}
		fmt.Fprint(c.stdout, help.BuiltinIndex(stdlib.Default()))
		return 0
	}

	if topic == "" {
		fmt.Fprint(c.stdout, help.QUICKREF)
		return 0
	}

	_, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintf(c.stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
		return 1
	}
	fmt.Fprint(c.stdout, content)
	return 0
}

func (c *cli) cmdConfig(args []string) int {
	if len(args) > 0 {
		fmt.Fprintf(c.stderr, "unexpected argument: %s\n", args[0])
		return 1
	}
	cfg, ok := c.loadConfig()
	if !ok {
		return 1
	}
	source := cfg.Path
	if source == "" {
		source = "built-in defaults"
	}
	fmt.Fprintf(c.stdout, "# source: %s\n", source)
	if err := cfg.Encode(c.stdout); err != nil {
		fmt.Fprintln(c.stderr, err)
		return 1
	}
	return 0
}

func (c *cli) readSource(file string, pretty bool) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			fmt.Fprintf(c.stderr, "error reading stdin: %s\n", err)
			return "", "", 1
		}
		return string(data), "<stdin>", 0
	}

	source, err := os.ReadFile(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		fmt.Fprintln(c.stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
		return "", "", 1
	}
	return string(source), file, 0
}
