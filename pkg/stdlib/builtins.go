package stdlib

import (
	"fmt"
	"unicode/utf8"

	"github.com/spelllang/spell/pkg/diagnostics"
	"github.com/spelllang/spell/pkg/evaluator"
)

// RegisterDefaults adds all default built-ins.
func RegisterDefaults(r *Registry) {
	r.Register(Fn{Name: "print", Arity: 1, Execute: builtinPrint})
	r.Register(Fn{Name: "len", Arity: 1, Execute: builtinLen})
	r.Register(Fn{Name: "str", Arity: 1, Execute: builtinStr})
	r.Register(Fn{Name: "int", Arity: 1, Execute: builtinInt})
}

// builtinPrint writes the rendering of its argument as one output line.
func builtinPrint(call *evaluator.Call) (evaluator.Value, error) {
	if _, err := fmt.Fprintln(call.Stdout, call.Args[0].Render()); err != nil {
		return nil, &evaluator.RuntimeError{
			Code:    diagnostics.EIO,
			Message: fmt.Sprintf("write failed: %v", err),
			Span:    call.Span,
		}
	}
	return evaluator.Empty(), nil
}

// builtinLen counts the characters of the argument's rendering.
func builtinLen(call *evaluator.Call) (evaluator.Value, error) {
	return evaluator.NewInt(int64(utf8.RuneCountInString(call.Args[0].Render()))), nil
}

func builtinStr(call *evaluator.Call) (evaluator.Value, error) {
	return evaluator.NewText(call.Args[0].Render()), nil
}

func builtinInt(call *evaluator.Call) (evaluator.Value, error) {
	arg := call.Args[0]
	n, ok := evaluator.ToInt(arg)
	if !ok {
		return nil, &evaluator.RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("int: cannot convert %q (%s) to an integer", arg.Render(), arg.TypeName()),
			Span:    call.Span,
		}
	}
	return evaluator.NewInt(n), nil
}
