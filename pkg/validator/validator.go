// Package validator implements static checks of spell programs.
//
// Scoping mirrors the evaluator: declarations bind in the current block,
// if/while/for bodies and both try blocks open child scopes, the catch
// block sees "error", and a for-loop assignment initializer introduces its
// name when nothing visible binds it yet.
package validator

import (
	"fmt"

	"github.com/spelllang/spell/pkg/ast"
	"github.com/spelllang/spell/pkg/diagnostics"
)

// Predeclared names bound in every global scope.
var Predeclared = []string{"len", "str", "int", "print", "true", "false"}

type scope struct {
	bindings map[string]bool
	parent   *scope
}

func newScope(parent *scope) *scope {
	return &scope{bindings: make(map[string]bool), parent: parent}
}

func (s *scope) has(name string) bool {
	if s.bindings[name] {
		return true
	}
	if s.parent != nil {
		return s.parent.has(name)
	}
	return false
}

func (s *scope) add(name string) {
	s.bindings[name] = true
}

type validator struct {
	diags   []diagnostics.Diagnostic
	classes map[string]bool
}

// Validate checks a program and returns its diagnostics. Extra names are
// treated as predeclared globals alongside Predeclared.
func Validate(program *ast.Program, extra ...string) []diagnostics.Diagnostic {
	v := &validator{classes: collectClasses(program)}

	global := newScope(nil)
	for _, name := range Predeclared {
		global.add(name)
	}
	for _, name := range extra {
		global.add(name)
	}

	v.validateStatements(program.Statements, global)
	return v.diags
}

// collectClasses finds every class declared anywhere in the program, so a
// Bloodline may name a class declared later or in another block.
func collectClasses(program *ast.Program) map[string]bool {
	classes := make(map[string]bool)
	ast.Walk(program, func(node ast.Node) bool {
		if cls, ok := node.(*ast.ClassDecl); ok {
			classes[cls.Name] = true
		}
		return true
	})
	return classes
}

func (v *validator) addDiag(code, msg string, span ast.Span, hint string) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &span, hint))
}

func (v *validator) validateStatements(stmts []ast.Stmt, sc *scope) {
	for _, stmt := range stmts {
		v.validateStmt(stmt, sc)
	}
}

func (v *validator) validateStmt(stmt ast.Stmt, sc *scope) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		v.validateExpr(s.Value, sc)
		sc.add(s.Name)

	case *ast.AssignStmt:
		v.validateExpr(s.Value, sc)
		if !sc.has(s.Name) {
			v.addDiag(diagnostics.EUnbound,
				fmt.Sprintf("assignment to undeclared variable '%s'", s.Name), s.Span,
				fmt.Sprintf("declare it first with 'Wand %s = ...'", s.Name))
		}

	case *ast.FuncDecl:
		sc.add(s.Name)
		v.checkParams(s.Name, s.Params, s.Span)
		body := newScope(sc)
		for _, p := range s.Params {
			body.add(p)
		}
		v.validateStatements(s.Body, body)

	case *ast.ClassDecl:
		sc.add(s.Name)
		v.checkParams(s.Name, s.Params, s.Span)
		if s.Parent != "" {
			switch {
			case s.Parent == s.Name:
				v.addDiag(diagnostics.ESelfParent,
					fmt.Sprintf("class '%s' cannot be its own Bloodline", s.Name), s.Span, "")
			case !v.classes[s.Parent]:
				v.addDiag(diagnostics.EUnknownParent,
					fmt.Sprintf("Bloodline '%s' of class '%s' is not a declared class", s.Parent, s.Name), s.Span,
					fmt.Sprintf("declare it with 'Magical Creature %s() { }'", s.Parent))
			}
		}
		body := newScope(sc)
		for _, p := range s.Params {
			body.add(p)
		}
		v.validateStatements(s.Body, body)

	case *ast.CallStmt:
		v.validateCall(s.Call, sc)

	case *ast.PrintStmt:
		v.validateExpr(s.Value, sc)

	case *ast.IfStmt:
		v.validateExpr(s.Cond, sc)
		v.validateStatements(s.Then, newScope(sc))
		v.validateStatements(s.Else, newScope(sc))

	case *ast.WhileStmt:
		v.validateExpr(s.Cond, sc)
		v.validateStatements(s.Body, newScope(sc))

	case *ast.ForStmt:
		if assign, ok := s.Init.(*ast.AssignStmt); ok && !sc.has(assign.Name) {
			v.validateExpr(assign.Value, sc)
			sc.add(assign.Name)
		} else {
			v.validateStmt(s.Init, sc)
		}
		v.validateExpr(s.Cond, sc)
		v.validateStatements(s.Body, newScope(sc))
		v.validateStmt(s.Post, sc)

	case *ast.TryStmt:
		v.validateStatements(s.Try, newScope(sc))
		catch := newScope(sc)
		catch.add("error")
		v.validateStatements(s.Catch, catch)
	}
}

func (v *validator) checkParams(owner string, params []string, span ast.Span) {
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if seen[p] {
			v.addDiag(diagnostics.EDupParam,
				fmt.Sprintf("duplicate parameter '%s' in '%s'", p, owner), span, "")
			continue
		}
		seen[p] = true
	}
}

func (v *validator) validateCall(call *ast.CallExpr, sc *scope) {
	if !sc.has(call.Name) {
		v.addDiag(diagnostics.EUnbound,
			fmt.Sprintf("call to undeclared function '%s'", call.Name), call.Span,
			fmt.Sprintf("declare it with 'Incantation %s(...) { }'", call.Name))
	}
	for _, arg := range call.Args {
		v.validateExpr(arg, sc)
	}
}

func (v *validator) validateExpr(expr ast.Expr, sc *scope) {
	switch e := expr.(type) {
	case *ast.Ident:
		if !sc.has(e.Name) {
			v.addDiag(diagnostics.EUnbound,
				fmt.Sprintf("name '%s' is never declared", e.Name), e.Span, "")
		}
	case *ast.CallExpr:
		v.validateCall(e, sc)
	case *ast.BinaryExpr:
		v.validateExpr(e.Left, sc)
		v.validateExpr(e.Right, sc)
	case *ast.UnaryExpr:
		v.validateExpr(e.Operand, sc)
	}
}
