package ast_test

import (
	"testing"

	"github.com/spelllang/spell/pkg/ast"
)

func TestNodeKinds(t *testing.T) {
	nodes := []ast.Node{
		&ast.NumberLit{Value: 42},
		&ast.TextLit{Value: "hello"},
		&ast.Ident{Name: "x"},
		&ast.CallExpr{Name: "print"},
		&ast.BinaryExpr{Op: ast.OpAdd},
		&ast.UnaryExpr{Op: ast.OpNot},
		&ast.VarDecl{Type: "Wand", Name: "x"},
		&ast.AssignStmt{Name: "x"},
		&ast.FuncDecl{Name: "f"},
		&ast.ClassDecl{Name: "C"},
		&ast.CallStmt{},
		&ast.PrintStmt{},
		&ast.IfStmt{},
		&ast.WhileStmt{},
		&ast.ForStmt{},
		&ast.TryStmt{},
		&ast.Program{},
	}

	expected := []string{
		"NumberLit", "TextLit", "Ident", "CallExpr", "BinaryExpr", "UnaryExpr",
		"VarDecl", "AssignStmt", "FuncDecl", "ClassDecl", "CallStmt", "PrintStmt",
		"IfStmt", "WhileStmt", "ForStmt", "TryStmt", "Program",
	}

	for i, node := range nodes {
		if got := node.Kind(); got != expected[i] {
			t.Errorf("node %d: got Kind() = %q, want %q", i, got, expected[i])
		}
	}
}

func TestWalkVisitsNestedNodes(t *testing.T) {
	prog := &ast.Program{
		Statements: []ast.Stmt{
			&ast.IfStmt{
				Cond: &ast.BinaryExpr{Op: ast.OpEqEq, Left: &ast.Ident{Name: "x"}, Right: &ast.NumberLit{Value: 1}},
				Then: []ast.Stmt{&ast.PrintStmt{Value: &ast.TextLit{Value: "yes"}}},
				Else: []ast.Stmt{
					&ast.ForStmt{
						Init: &ast.AssignStmt{Name: "i", Value: &ast.NumberLit{Value: 0}},
						Cond: &ast.Ident{Name: "i"},
						Post: &ast.CallStmt{Call: &ast.CallExpr{Name: "f", Args: []ast.Expr{&ast.Ident{Name: "y"}}}},
					},
				},
			},
		},
	}

	counts := map[string]int{}
	ast.Walk(prog, func(n ast.Node) bool {
		counts[n.Kind()]++
		return true
	})

	if counts["Ident"] != 3 {
		t.Errorf("got %d Ident visits, want 3", counts["Ident"])
	}
	if counts["CallExpr"] != 1 {
		t.Errorf("got %d CallExpr visits, want 1", counts["CallExpr"])
	}
	if counts["TextLit"] != 1 {
		t.Errorf("got %d TextLit visits, want 1", counts["TextLit"])
	}
}

func TestWalkPrunes(t *testing.T) {
	prog := &ast.Program{
		Statements: []ast.Stmt{
			&ast.FuncDecl{Name: "f", Body: []ast.Stmt{&ast.PrintStmt{Value: &ast.Ident{Name: "x"}}}},
		},
	}
	seen := 0
	ast.Walk(prog, func(n ast.Node) bool {
		seen++
		_, isFn := n.(*ast.FuncDecl)
		return !isFn
	})
	if seen != 2 {
		t.Errorf("got %d visits, want 2 (program and function only)", seen)
	}
}
