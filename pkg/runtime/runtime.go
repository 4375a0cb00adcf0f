// Package runtime provides the top-level spell runtime orchestrator.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spelllang/spell/pkg/ast"
	"github.com/spelllang/spell/pkg/diagnostics"
	"github.com/spelllang/spell/pkg/evaluator"
	"github.com/spelllang/spell/pkg/formatter"
	"github.com/spelllang/spell/pkg/lexer"
	"github.com/spelllang/spell/pkg/parser"
	"github.com/spelllang/spell/pkg/stdlib"
	"github.com/spelllang/spell/pkg/validator"
)

// Runtime wires together all spell components for program execution.
type Runtime struct {
	stdlib        *stdlib.Registry
	stdout        io.Writer
	stderr        io.Writer
	runID         string
	trace         func(event evaluator.TraceEvent)
	logger        *slog.Logger
	maxIterations int64
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithStdlib sets the built-in registry.
func WithStdlib(r *stdlib.Registry) Option {
	return func(rt *Runtime) {
		rt.stdlib = r
	}
}

// WithStdout sets where program output is written.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithStderr sets where call diagnostics are written.
func WithStderr(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stderr = w
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithMaxIterations caps the loop iterations of one run. Zero means unlimited.
func WithMaxIterations(n int64) Option {
	return func(rt *Runtime) {
		rt.maxIterations = n
	}
}

// New creates a new Runtime with the given options.
// By default the default built-ins are registered and output goes to the
// process's standard streams.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		stdlib: stdlib.Default(),
		stdout: os.Stdout,
		stderr: os.Stderr,
		runID:  "cli",
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Run parses and executes a spell program. Lex and parse failures come back
// as a *DiagnosticError before anything runs; a failure during execution is
// returned as the evaluator's *evaluator.RuntimeError.
func (rt *Runtime) Run(ctx context.Context, source, filename string) error {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		rt.logger.Debug("parse failed", "file", filename, "diagnostics", len(diags))
		return &DiagnosticError{Diagnostics: diags}
	}
	rt.logger.Debug("parsed", "file", filename, "statements", len(program.Statements))
	return evaluator.Execute(ctx, program, rt.buildExecOptions())
}

// Check parses and validates a spell program without executing it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return diags
	}
	return validator.Validate(program, rt.stdlib.Names()...)
}

// Format parses and formats a spell program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program), nil
}

// Tokens scans a spell program into its token stream.
func (rt *Runtime) Tokens(source, filename string) ([]lexer.Token, error) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		var le *lexer.LexError
		if errors.As(err, &le) {
			return nil, &DiagnosticError{Diagnostics: []diagnostics.Diagnostic{le.Diag}}
		}
		return nil, err
	}
	return tokens, nil
}

// buildExecOptions constructs evaluator options from the runtime's configuration.
func (rt *Runtime) buildExecOptions() evaluator.ExecOptions {
	return evaluator.ExecOptions{
		Builtins:      rt.stdlib.Builtins(),
		Stdout:        rt.stdout,
		Stderr:        rt.stderr,
		Trace:         rt.trace,
		RunID:         rt.runID,
		Logger:        rt.logger,
		MaxIterations: rt.maxIterations,
	}
}

// Session evaluates successive inputs against one persistent global scope.
type Session struct {
	interp *evaluator.Interpreter
	inputs int
}

// NewSession starts an interactive session.
func (rt *Runtime) NewSession() *Session {
	return &Session{interp: evaluator.New(rt.buildExecOptions())}
}

// Eval parses and runs one input. Bindings made by earlier inputs stay
// visible; an input that fails leaves the bindings it made before failing.
func (s *Session) Eval(ctx context.Context, source string) error {
	s.inputs++
	program, diags := parser.Parse(source, fmt.Sprintf("<repl:%d>", s.inputs))
	if len(diags) > 0 {
		return &DiagnosticError{Diagnostics: diags}
	}
	return s.interp.Interpret(ctx, program)
}

// Vars lists the global bindings as "name = rendering" lines, sorted by name.
func (s *Session) Vars() []string {
	globals := s.interp.Globals()
	names := globals.Names()
	lines := make([]string, 0, len(names))
	for _, name := range names {
		val, _ := globals.Lookup(name)
		lines = append(lines, fmt.Sprintf("%s = %s", name, val.Render()))
	}
	return lines
}

// Incomplete reports whether source fails only because it ends too early,
// such as an open block or an unclosed text literal. Interactive readers
// use it to keep collecting lines.
func Incomplete(source string) bool {
	tokens, err := lexer.Tokenize(source, "")
	if err != nil {
		var le *lexer.LexError
		return errors.As(err, &le) && le.Incomplete
	}
	_, diags := parser.ParseTokens(tokens)
	if len(diags) == 0 || diags[0].Span == nil {
		return false
	}
	eof := tokens[len(tokens)-1].Span
	return diags[0].Span.StartLine == eof.StartLine && diags[0].Span.StartCol == eof.StartCol
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s at %s", d.Code, d.Message, diagnostics.Position(d.Span))
	}
	return strings.Join(msgs, "; ")
}

// FormatRuntimeError renders an execution failure the way the command line
// reports it: "Runtime Error: <message>" followed by its location.
func FormatRuntimeError(err error) string {
	var rtErr *evaluator.RuntimeError
	if !errors.As(err, &rtErr) {
		return "Runtime Error: " + err.Error()
	}
	out := "Runtime Error: " + rtErr.Message
	if rtErr.Span != nil {
		out += "\n  --> " + location(*rtErr.Span)
	}
	return out
}

func location(span ast.Span) string {
	file := span.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", file, span.StartLine, span.StartCol)
}
