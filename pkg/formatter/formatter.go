// Package formatter implements the spell source code formatter.
package formatter

import (
	"strconv"
	"strings"

	"github.com/spelllang/spell/pkg/ast"
	"github.com/spelllang/spell/pkg/parser"
)

const indent = "  "

// Precedence table for binary operators (higher = tighter binding)
var precedence = map[ast.BinaryOp]int{
	ast.OpOr:   1,
	ast.OpAnd:  2,
	ast.OpEqEq: 3, ast.OpNeq: 3,
	ast.OpGt: 4, ast.OpLt: 4, ast.OpGtEq: 4, ast.OpLtEq: 4,
	ast.OpAdd: 5, ast.OpSub: 5,
	ast.OpMul: 6, ast.OpDiv: 6, ast.OpMod: 6,
}

func needsParens(child ast.Expr, parentOp ast.BinaryOp, isRight bool) bool {
	bin, ok := child.(*ast.BinaryExpr)
	if !ok {
		return false
	}
	childPrec := precedence[bin.Op]
	parentPrec := precedence[parentOp]
	if childPrec < parentPrec {
		return true
	}
	// All operators are left-associative: a same-precedence right operand
	// keeps its parentheses.
	if childPrec == parentPrec && isRight {
		return true
	}
	return false
}

// Format pretty-prints a spell AST back to source code.
func Format(program *ast.Program) string {
	if len(program.Statements) == 0 {
		return ""
	}
	lines := make([]string, len(program.Statements))
	for i, s := range program.Statements {
		lines[i] = formatStmt(s, 0)
	}
	return strings.Join(lines, "\n") + "\n"
}

// HasComments reports whether source contains '#' or '/*' comments outside
// text literals. Formatting drops comments.
func HasComments(source string) bool {
	var quote byte
	for i := 0; i < len(source); i++ {
		ch := source[i]
		if quote != 0 {
			switch ch {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch {
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '#':
			return true
		case ch == '/' && i+1 < len(source) && source[i+1] == '*':
			return true
		}
	}
	return false
}

// QuoteText renders s as a double-quoted text literal that scans back to s.
func QuoteText(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; ch {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(ch)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func formatStmt(s ast.Stmt, depth int) string {
	prefix := strings.Repeat(indent, depth)
	switch stmt := s.(type) {
	case *ast.VarDecl:
		return prefix + stmt.Type + " " + stmt.Name + " = " + formatExpr(stmt.Value)
	case *ast.AssignStmt:
		return prefix + stmt.Name + " = " + formatExpr(stmt.Value)
	case *ast.CallStmt:
		return prefix + "Cast " + formatCall(stmt.Call)
	case *ast.PrintStmt:
		return prefix + "Illuminate(" + formatExpr(stmt.Value) + ")"
	case *ast.FuncDecl:
		return prefix + "Incantation " + stmt.Name + "(" + strings.Join(stmt.Params, ", ") + ") " +
			formatBlock(stmt.Body, depth)
	case *ast.ClassDecl:
		out := prefix + "Magical Creature " + stmt.Name + "(" + strings.Join(stmt.Params, ", ") + ")"
		if stmt.Parent != "" {
			out += " Bloodline " + stmt.Parent
		}
		return out + " " + formatBlock(stmt.Body, depth)
	case *ast.IfStmt:
		return prefix + formatIf(stmt, depth)
	case *ast.WhileStmt:
		return prefix + "Persistus " + formatExpr(stmt.Cond) + " " + formatBlock(stmt.Body, depth)
	case *ast.ForStmt:
		return prefix + "Loopus " + formatStmt(stmt.Init, 0) + "; " + formatExpr(stmt.Cond) + "; " +
			formatStmt(stmt.Post, 0) + " " + formatBlock(stmt.Body, depth)
	case *ast.TryStmt:
		return prefix + "Protego " + formatBlock(stmt.Try, depth) + " Alohomora " + formatBlock(stmt.Catch, depth)
	}
	return ""
}

// formatIf renders an if statement without its leading indentation so an
// else-if chain can continue on the closing-brace line.
func formatIf(stmt *ast.IfStmt, depth int) string {
	out := "Ifar " + formatExpr(stmt.Cond) + " " + formatBlock(stmt.Then, depth)
	if len(stmt.Else) == 1 {
		if nested, ok := stmt.Else[0].(*ast.IfStmt); ok {
			return out + " Elsear " + formatIf(nested, depth)
		}
	}
	if len(stmt.Else) > 0 {
		out += " Elsear " + formatBlock(stmt.Else, depth)
	}
	return out
}

func formatBlock(stmts []ast.Stmt, depth int) string {
	if len(stmts) == 0 {
		return "{}"
	}
	lines := make([]string, len(stmts))
	for i, s := range stmts {
		lines[i] = formatStmt(s, depth+1)
	}
	return "{\n" + strings.Join(lines, "\n") + "\n" + strings.Repeat(indent, depth) + "}"
}

func formatCall(call *ast.CallExpr) string {
	args := make([]string, len(call.Args))
	for i, a := range call.Args {
		args[i] = formatExpr(a)
	}
	return call.Name + "(" + strings.Join(args, ", ") + ")"
}

func formatExpr(e ast.Expr) string {
	switch expr := e.(type) {
	case *ast.NumberLit:
		return strconv.FormatInt(expr.Value, 10)
	case *ast.TextLit:
		if expr.Composite && compositeRoundTrips(expr.Value) {
			return expr.Value
		}
		return QuoteText(expr.Value)
	case *ast.Ident:
		return expr.Name
	case *ast.CallExpr:
		return formatCall(expr)
	case *ast.BinaryExpr:
		left := formatExpr(expr.Left)
		if needsParens(expr.Left, expr.Op, false) {
			left = "(" + left + ")"
		}
		right := formatExpr(expr.Right)
		if needsParens(expr.Right, expr.Op, true) {
			right = "(" + right + ")"
		}
		return left + " " + string(expr.Op) + " " + right
	case *ast.UnaryExpr:
		operand := formatExpr(expr.Operand)
		if _, ok := expr.Operand.(*ast.BinaryExpr); ok {
			operand = "(" + operand + ")"
		}
		return string(expr.Op) + operand
	}
	return ""
}

// compositeRoundTrips reports whether a list or mapping rendering can be
// emitted verbatim and still parse back to the same rendering. Renderings
// whose elements held quotes or escapes cannot, and fall back to a plain
// text literal with the same value.
func compositeRoundTrips(rendered string) bool {
	prog, diags := parser.Parse("Wand v = "+rendered, "")
	if len(diags) > 0 || len(prog.Statements) != 1 {
		return false
	}
	decl, ok := prog.Statements[0].(*ast.VarDecl)
	if !ok {
		return false
	}
	lit, ok := decl.Value.(*ast.TextLit)
	return ok && lit.Composite && lit.Value == rendered
}
