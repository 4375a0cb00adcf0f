// Package diagnostics defines spell diagnostic types for lex, parse, check and runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spelllang/spell/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex           = "E_LEX"
	EParse         = "E_PARSE"
	EUndefined     = "E_UNDEFINED"
	EDivZero       = "E_DIV_ZERO"
	EUnknownOp     = "E_UNKNOWN_OP"
	EType          = "E_TYPE"
	EArgs          = "E_ARGS"
	EBudget        = "E_BUDGET"
	ECanceled      = "E_CANCELED"
	EUnbound       = "E_UNBOUND"
	EDupParam      = "E_DUP_PARAM"
	EUnknownParent = "E_UNKNOWN_PARENT"
	ESelfParent    = "E_SELF_PARENT"
	EIO            = "E_IO"
)

// Diagnostic represents a lex, parse, validation, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// Position renders the start of a span as "line L, column C".
func Position(span *ast.Span) string {
	if span == nil {
		return "unknown position"
	}
	return fmt.Sprintf("line %d, column %d", span.StartLine, span.StartCol)
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		file := d.Span.File
		if file == "" {
			file = "<input>"
		}
		loc = fmt.Sprintf("%s:%d:%d", file, d.Span.StartLine, d.Span.StartCol)
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
