package evaluator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/spelllang/spell/pkg/ast"
	"github.com/spelllang/spell/pkg/diagnostics"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart  TraceEventType = "run_start"
	TraceRunEnd    TraceEventType = "run_end"
	TraceStmtStart TraceEventType = "stmt_start"
	TraceStmtEnd   TraceEventType = "stmt_end"
	TraceTryStart  TraceEventType = "try_start"
	TraceTryCatch  TraceEventType = "try_catch"
	TraceTryEnd    TraceEventType = "try_end"
	TraceLoopStart TraceEventType = "loop_start"
	TraceLoopEnd   TraceEventType = "loop_end"
	TraceCall      TraceEventType = "call"
)

// TraceEvent represents a single trace event emitted during execution.
type TraceEvent struct {
	Timestamp string            `json:"ts"`
	RunID     string            `json:"runId"`
	Event     TraceEventType    `json:"event"`
	Span      *ast.Span         `json:"span,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// Call carries the arguments of a built-in invocation.
type Call struct {
	Name   string
	Args   []Value
	Stdout io.Writer
	Span   *ast.Span
}

// BuiltinFn defines the behaviour of a built-in function.
type BuiltinFn struct {
	Name    string
	Arity   int // -1 accepts any number of arguments
	Execute func(call *Call) (Value, error)
}

// ExecOptions configures program execution.
type ExecOptions struct {
	Builtins      map[string]*BuiltinFn
	Stdout        io.Writer
	Stderr        io.Writer
	Trace         func(event TraceEvent)
	RunID         string
	Logger        *slog.Logger
	MaxIterations int64
}

// RuntimeError represents a failure raised while evaluating a program.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Catchable reports whether a Protego block may intercept the error.
// Budget exhaustion, cancellation and output failures always reach the top.
func (e *RuntimeError) Catchable() bool {
	switch e.Code {
	case diagnostics.EBudget, diagnostics.ECanceled, diagnostics.EIO:
		return false
	}
	return true
}

// reservedBuiltins are bound as Builtin markers even without a registered
// behaviour.
var reservedBuiltins = []string{"len", "str", "int"}

// Interpreter evaluates programs against a global scope that persists
// across Interpret calls.
type Interpreter struct {
	opts    ExecOptions
	globals *Scope
	logger  *slog.Logger
}

// New creates an interpreter with a freshly populated global scope.
func New(opts ExecOptions) *Interpreter {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	globals := NewScope(nil)
	for _, name := range reservedBuiltins {
		globals.Define(name, Builtin{Name: name})
	}
	for name := range opts.Builtins {
		globals.Define(name, Builtin{Name: name})
	}
	globals.Define("true", NewBool(true))
	globals.Define("false", NewBool(false))

	return &Interpreter{
		opts:    opts,
		globals: globals,
		logger:  logger,
	}
}

// Globals returns the global scope.
func (in *Interpreter) Globals() *Scope {
	return in.globals
}

// Interpret executes the program's statements in order against the global
// scope. The first error that escapes every Protego block stops execution
// and is returned.
func (in *Interpreter) Interpret(ctx context.Context, program *ast.Program) error {
	ev := &evaluator{
		ctx:     ctx,
		opts:    in.opts,
		logger:  in.logger,
		tracker: BudgetTracker{MaxIterations: in.opts.MaxIterations},
	}

	span := program.Span
	start := time.Now()
	ev.emit(TraceRunStart, &span)
	in.logger.Debug("run start", "statements", len(program.Statements), "run_id", in.opts.RunID)

	err := ev.executeBlock(program.Statements, in.globals)

	ev.emit(TraceRunEnd, &span)
	in.logger.Debug("run end",
		"elapsed", time.Since(start),
		"iterations", ev.tracker.Iterations,
		"scopes", ev.scopes,
		"max_depth", ev.maxDepth,
		"failed", err != nil,
	)
	return err
}

// Execute runs a program in a new interpreter.
func Execute(ctx context.Context, program *ast.Program, opts ExecOptions) error {
	return New(opts).Interpret(ctx, program)
}

type evaluator struct {
	ctx     context.Context
	opts    ExecOptions
	logger  *slog.Logger
	tracker BudgetTracker
	scopes  int // child scopes created during the run

	maxDepth int
}

func (ev *evaluator) emit(event TraceEventType, span *ast.Span) {
	ev.emitWithData(event, span, nil)
}

func (ev *evaluator) emitWithData(event TraceEventType, span *ast.Span, data map[string]string) {
	if ev.opts.Trace != nil {
		ev.opts.Trace(TraceEvent{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			RunID:     ev.opts.RunID,
			Event:     event,
			Span:      span,
			Data:      data,
		})
	}
}

func (ev *evaluator) child(scope *Scope) *Scope {
	ev.scopes++
	c := scope.Child()
	if d := c.Depth(); d > ev.maxDepth {
		ev.maxDepth = d
	}
	return c
}

func (ev *evaluator) checkCanceled(span ast.Span) error {
	if err := ev.ctx.Err(); err != nil {
		return &RuntimeError{
			Code:    diagnostics.ECanceled,
			Message: fmt.Sprintf("execution canceled: %v", err),
			Span:    &span,
		}
	}
	return nil
}

// withSpan attaches span to a runtime error that has no location yet.
func withSpan(err error, span ast.Span) error {
	var rtErr *RuntimeError
	if errors.As(err, &rtErr) && rtErr.Span == nil {
		rtErr.Span = &span
	}
	return err
}

func (ev *evaluator) executeBlock(stmts []ast.Stmt, scope *Scope) error {
	for _, stmt := range stmts {
		span := stmt.NodeSpan()
		if err := ev.checkCanceled(span); err != nil {
			return err
		}

		ev.emit(TraceStmtStart, &span)
		if err := ev.executeStmt(stmt, scope); err != nil {
			return err
		}
		ev.emit(TraceStmtEnd, &span)
	}
	return nil
}

func (ev *evaluator) executeStmt(stmt ast.Stmt, scope *Scope) error {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		val, err := ev.evalExpr(s.Value, scope)
		if err != nil {
			return err
		}
		scope.Define(s.Name, val)

	case *ast.AssignStmt:
		val, err := ev.evalExpr(s.Value, scope)
		if err != nil {
			return err
		}
		if err := scope.Assign(s.Name, val); err != nil {
			return withSpan(err, s.Span)
		}

	case *ast.FuncDecl:
		scope.Define(s.Name, Function{Name: s.Name})

	case *ast.ClassDecl:
		scope.Define(s.Name, Class{Name: s.Name})

	case *ast.CallStmt:
		_, err := ev.evalCall(s.Call, scope)
		return err

	case *ast.PrintStmt:
		val, err := ev.evalExpr(s.Value, scope)
		if err != nil {
			return err
		}
		return ev.writeLine(ev.opts.Stdout, val.Render(), s.Span)

	case *ast.IfStmt:
		return ev.executeIf(s, scope)

	case *ast.WhileStmt:
		return ev.executeWhile(s, scope)

	case *ast.ForStmt:
		return ev.executeFor(s, scope)

	case *ast.TryStmt:
		return ev.executeTry(s, scope)

	default:
		span := stmt.NodeSpan()
		return &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("unsupported statement type: %T", stmt),
			Span:    &span,
		}
	}
	return nil
}

func (ev *evaluator) writeLine(w io.Writer, line string, span ast.Span) error {
	if _, err := fmt.Fprintln(w, line); err != nil {
		return &RuntimeError{
			Code:    diagnostics.EIO,
			Message: fmt.Sprintf("write failed: %v", err),
			Span:    &span,
		}
	}
	return nil
}

func (ev *evaluator) executeIf(s *ast.IfStmt, scope *Scope) error {
	cond, err := ev.evalExpr(s.Cond, scope)
	if err != nil {
		return err
	}
	if Truthy(cond) {
		return ev.executeBlock(s.Then, ev.child(scope))
	}
	return ev.executeBlock(s.Else, ev.child(scope))
}

func (ev *evaluator) executeWhile(s *ast.WhileStmt, scope *Scope) error {
	span := s.Span
	ev.emit(TraceLoopStart, &span)

	var iterations int64
	for {
		if err := ev.checkCanceled(span); err != nil {
			return err
		}
		cond, err := ev.evalExpr(s.Cond, scope)
		if err != nil {
			return err
		}
		if !Truthy(cond) {
			break
		}
		if err := ev.tracker.tick(); err != nil {
			return withSpan(err, span)
		}
		iterations++
		if err := ev.executeBlock(s.Body, ev.child(scope)); err != nil {
			return err
		}
	}

	ev.emitWithData(TraceLoopEnd, &span, map[string]string{"iterations": strconv.FormatInt(iterations, 10)})
	ev.logger.Debug("loop finished", "kind", "Persistus", "line", span.StartLine, "iterations", iterations)
	return nil
}

func (ev *evaluator) executeFor(s *ast.ForStmt, scope *Scope) error {
	span := s.Span

	// An assignment initializer introduces the loop variable when nothing
	// in the chain binds it yet.
	if assign, ok := s.Init.(*ast.AssignStmt); ok && !scope.Has(assign.Name) {
		val, err := ev.evalExpr(assign.Value, scope)
		if err != nil {
			return err
		}
		scope.Define(assign.Name, val)
	} else if err := ev.executeStmt(s.Init, scope); err != nil {
		return err
	}

	ev.emit(TraceLoopStart, &span)

	var iterations int64
	for {
		if err := ev.checkCanceled(span); err != nil {
			return err
		}
		cond, err := ev.evalExpr(s.Cond, scope)
		if err != nil {
			return err
		}
		if !Truthy(cond) {
			break
		}
		if err := ev.tracker.tick(); err != nil {
			return withSpan(err, span)
		}
		iterations++
		if err := ev.executeBlock(s.Body, ev.child(scope)); err != nil {
			return err
		}
		if err := ev.executeStmt(s.Post, scope); err != nil {
			return err
		}
	}

	ev.emitWithData(TraceLoopEnd, &span, map[string]string{"iterations": strconv.FormatInt(iterations, 10)})
	ev.logger.Debug("loop finished", "kind", "Loopus", "line", span.StartLine, "iterations", iterations)
	return nil
}

func (ev *evaluator) executeTry(s *ast.TryStmt, scope *Scope) error {
	span := s.Span
	ev.emit(TraceTryStart, &span)

	err := ev.executeBlock(s.Try, ev.child(scope))
	if err != nil {
		var rtErr *RuntimeError
		if !errors.As(err, &rtErr) || !rtErr.Catchable() {
			ev.emit(TraceTryEnd, &span)
			return err
		}

		ev.emitWithData(TraceTryCatch, &span, map[string]string{"code": rtErr.Code, "message": rtErr.Message})
		ev.logger.Debug("error caught", "code", rtErr.Code, "message", rtErr.Message, "line", span.StartLine, "depth", scope.Depth())

		catchScope := ev.child(scope)
		catchScope.Define("error", NewText(rtErr.Message))
		err = ev.executeBlock(s.Catch, catchScope)
	}

	ev.emit(TraceTryEnd, &span)
	return err
}

// --- Expressions ---

func (ev *evaluator) evalExpr(expr ast.Expr, scope *Scope) (Value, error) {
	switch e := expr.(type) {
	case *ast.NumberLit:
		return NewInt(e.Value), nil

	case *ast.TextLit:
		return NewText(e.Value), nil

	case *ast.Ident:
		val, err := scope.Get(e.Name)
		if err != nil {
			return nil, withSpan(err, e.Span)
		}
		return val, nil

	case *ast.CallExpr:
		return ev.evalCall(e, scope)

	case *ast.BinaryExpr:
		return ev.evalBinaryOp(e, scope)

	case *ast.UnaryExpr:
		return ev.evalUnary(e, scope)

	default:
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("unsupported expression type: %T", expr),
		}
	}
}

func (ev *evaluator) evalBinaryOp(e *ast.BinaryExpr, scope *Scope) (Value, error) {
	left, err := ev.evalExpr(e.Left, scope)
	if err != nil {
		return nil, err
	}
	right, err := ev.evalExpr(e.Right, scope)
	if err != nil {
		return nil, err
	}

	span := e.Span

	switch e.Op {
	case ast.OpAdd:
		if l, ok := left.(Int); ok {
			if r, ok := right.(Int); ok {
				return NewInt(l.Value + r.Value), nil
			}
		}
		return NewText(left.Render() + right.Render()), nil

	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		l, err := ev.toInt(left, e.Op, span)
		if err != nil {
			return nil, err
		}
		r, err := ev.toInt(right, e.Op, span)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case ast.OpSub:
			return NewInt(l - r), nil
		case ast.OpMul:
			return NewInt(l * r), nil
		case ast.OpDiv:
			if r == 0 {
				return nil, &RuntimeError{Code: diagnostics.EDivZero, Message: "Division by zero.", Span: &span}
			}
			return NewInt(l / r), nil
		default:
			if r == 0 {
				return nil, &RuntimeError{Code: diagnostics.EDivZero, Message: "Division by zero.", Span: &span}
			}
			return NewInt(l % r), nil
		}

	case ast.OpEqEq:
		return NewBool(Equal(left, right)), nil

	case ast.OpNeq:
		return NewBool(!Equal(left, right)), nil

	case ast.OpGt, ast.OpLt, ast.OpGtEq, ast.OpLtEq:
		cmp := compare(left, right)
		switch e.Op {
		case ast.OpGt:
			return NewBool(cmp > 0), nil
		case ast.OpLt:
			return NewBool(cmp < 0), nil
		case ast.OpGtEq:
			return NewBool(cmp >= 0), nil
		default:
			return NewBool(cmp <= 0), nil
		}

	case ast.OpAnd:
		return NewBool(IsTrue(left) && IsTrue(right)), nil

	case ast.OpOr:
		return NewBool(IsTrue(left) || IsTrue(right)), nil
	}

	return nil, &RuntimeError{
		Code:    diagnostics.EUnknownOp,
		Message: fmt.Sprintf("Unknown binary operator '%s'.", string(e.Op)),
		Span:    &span,
	}
}

// compare orders two values numerically when both are integers and by
// rendering otherwise.
func compare(left, right Value) int {
	if l, ok := left.(Int); ok {
		if r, ok := right.(Int); ok {
			switch {
			case l.Value < r.Value:
				return -1
			case l.Value > r.Value:
				return 1
			}
			return 0
		}
	}
	ls, rs := left.Render(), right.Render()
	switch {
	case ls < rs:
		return -1
	case ls > rs:
		return 1
	}
	return 0
}

func (ev *evaluator) toInt(v Value, op ast.BinaryOp, span ast.Span) (int64, error) {
	n, ok := ToInt(v)
	if !ok {
		return 0, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("'%s' requires integers, cannot use %q (%s)", string(op), v.Render(), v.TypeName()),
			Span:    &span,
		}
	}
	return n, nil
}

func (ev *evaluator) evalUnary(e *ast.UnaryExpr, scope *Scope) (Value, error) {
	operand, err := ev.evalExpr(e.Operand, scope)
	if err != nil {
		return nil, err
	}
	span := e.Span

	switch e.Op {
	case ast.OpNot:
		return NewBool(!IsTrue(operand)), nil
	case ast.OpNeg:
		n, ok := ToInt(operand)
		if !ok {
			return nil, &RuntimeError{
				Code:    diagnostics.EType,
				Message: fmt.Sprintf("unary '-' requires an integer, cannot use %q (%s)", operand.Render(), operand.TypeName()),
				Span:    &span,
			}
		}
		return NewInt(-n), nil
	}

	return nil, &RuntimeError{
		Code:    diagnostics.EUnknownOp,
		Message: fmt.Sprintf("Unknown unary operator '%s'.", string(e.Op)),
		Span:    &span,
	}
}

// evalCall dispatches a call by the value bound to its name. Only built-ins
// with a registered behaviour run; everything else reports the call on the
// diagnostic stream and yields an empty value.
func (ev *evaluator) evalCall(e *ast.CallExpr, scope *Scope) (Value, error) {
	span := e.Span
	ev.emitWithData(TraceCall, &span, map[string]string{"name": e.Name})

	bound, ok := scope.Lookup(e.Name)
	if !ok {
		if err := ev.writeLine(ev.opts.Stderr, fmt.Sprintf("Function '%s' is not defined.", e.Name), span); err != nil {
			return nil, err
		}
		return Empty(), nil
	}

	if marker, ok := bound.(Builtin); ok {
		if fn, ok := ev.opts.Builtins[marker.Name]; ok {
			return ev.callBuiltin(fn, e, scope)
		}
	}

	if err := ev.writeLine(ev.opts.Stderr, "Function call: "+e.Name, span); err != nil {
		return nil, err
	}
	return Empty(), nil
}

func (ev *evaluator) callBuiltin(fn *BuiltinFn, e *ast.CallExpr, scope *Scope) (Value, error) {
	span := e.Span
	if fn.Arity >= 0 && len(e.Args) != fn.Arity {
		return nil, &RuntimeError{
			Code:    diagnostics.EArgs,
			Message: fmt.Sprintf("%s expects %d argument(s), got %d", fn.Name, fn.Arity, len(e.Args)),
			Span:    &span,
		}
	}

	args := make([]Value, len(e.Args))
	for i, arg := range e.Args {
		val, err := ev.evalExpr(arg, scope)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	result, err := fn.Execute(&Call{
		Name:   e.Name,
		Args:   args,
		Stdout: ev.opts.Stdout,
		Span:   &span,
	})
	if err != nil {
		return nil, withSpan(err, span)
	}
	if result == nil {
		return Empty(), nil
	}
	return result, nil
}
