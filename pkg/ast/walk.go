package ast

// Visitor is called for each node during Walk.
// If it returns false, the children of the node are not visited.
type Visitor func(node Node) bool

// Walk traverses an AST in depth-first order.
func Walk(node Node, v Visitor) {
	if node == nil || !v(node) {
		return
	}

	switch n := node.(type) {
	case *Program:
		walkStmts(n.Statements, v)

	case *VarDecl:
		Walk(n.Value, v)

	case *AssignStmt:
		Walk(n.Value, v)

	case *FuncDecl:
		walkStmts(n.Body, v)

	case *ClassDecl:
		walkStmts(n.Body, v)

	case *CallStmt:
		Walk(n.Call, v)

	case *PrintStmt:
		Walk(n.Value, v)

	case *IfStmt:
		Walk(n.Cond, v)
		walkStmts(n.Then, v)
		walkStmts(n.Else, v)

	case *WhileStmt:
		Walk(n.Cond, v)
		walkStmts(n.Body, v)

	case *ForStmt:
		if n.Init != nil {
			Walk(n.Init, v)
		}
		Walk(n.Cond, v)
		if n.Post != nil {
			Walk(n.Post, v)
		}
		walkStmts(n.Body, v)

	case *TryStmt:
		walkStmts(n.Try, v)
		walkStmts(n.Catch, v)

	case *BinaryExpr:
		Walk(n.Left, v)
		Walk(n.Right, v)

	case *UnaryExpr:
		Walk(n.Operand, v)

	case *CallExpr:
		for _, a := range n.Args {
			Walk(a, v)
		}
	}
}

func walkStmts(stmts []Stmt, v Visitor) {
	for _, s := range stmts {
		Walk(s, v)
	}
}
