// Package ast defines the spell language AST node types.
package ast

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// BinaryOp represents a binary operator.
type BinaryOp string

const (
	OpAdd  BinaryOp = "+"
	OpSub  BinaryOp = "-"
	OpMul  BinaryOp = "*"
	OpDiv  BinaryOp = "/"
	OpMod  BinaryOp = "%"
	OpGt   BinaryOp = ">"
	OpLt   BinaryOp = "<"
	OpGtEq BinaryOp = ">="
	OpLtEq BinaryOp = "<="
	OpEqEq BinaryOp = "=="
	OpNeq  BinaryOp = "!="
	OpAnd  BinaryOp = "&&"
	OpOr   BinaryOp = "||"
)

// UnaryOp represents a unary operator.
type UnaryOp string

const (
	OpNeg UnaryOp = "-"
	OpNot UnaryOp = "!"
)

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Stmt is the interface for all statement nodes ---

type Stmt interface {
	Node
	stmtNode() // sealed marker
}

// --- Literal Expressions ---

type NumberLit struct {
	Span  Span
	Value int64
}

func (n *NumberLit) Kind() string   { return "NumberLit" }
func (n *NumberLit) NodeSpan() Span { return n.Span }
func (n *NumberLit) exprNode()      {}

// TextLit is a text literal. Composite is set when the parser synthesized
// the node from a list or mapping literal.
type TextLit struct {
	Span      Span
	Value     string
	Composite bool
}

func (n *TextLit) Kind() string   { return "TextLit" }
func (n *TextLit) NodeSpan() Span { return n.Span }
func (n *TextLit) exprNode()      {}

// --- Identifiers & calls ---

type Ident struct {
	Span Span
	Name string
}

func (n *Ident) Kind() string   { return "Ident" }
func (n *Ident) NodeSpan() Span { return n.Span }
func (n *Ident) exprNode()      {}

type CallExpr struct {
	Span Span
	Name string
	Args []Expr
}

func (n *CallExpr) Kind() string   { return "CallExpr" }
func (n *CallExpr) NodeSpan() Span { return n.Span }
func (n *CallExpr) exprNode()      {}

// --- Binary & Unary Expressions ---

type BinaryExpr struct {
	Span  Span
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *BinaryExpr) Kind() string   { return "BinaryExpr" }
func (n *BinaryExpr) NodeSpan() Span { return n.Span }
func (n *BinaryExpr) exprNode()      {}

type UnaryExpr struct {
	Span    Span
	Op      UnaryOp
	Operand Expr
}

func (n *UnaryExpr) Kind() string   { return "UnaryExpr" }
func (n *UnaryExpr) NodeSpan() Span { return n.Span }
func (n *UnaryExpr) exprNode()      {}

// --- Declarations ---

// VarDecl declares a variable. Type holds the declaring keyword
// (Wand, Cauldron or SpellBooks); all three behave the same.
type VarDecl struct {
	Span  Span
	Type  string
	Name  string
	Value Expr
}

func (n *VarDecl) Kind() string   { return "VarDecl" }
func (n *VarDecl) NodeSpan() Span { return n.Span }
func (n *VarDecl) stmtNode()      {}

type FuncDecl struct {
	Span   Span
	Name   string
	Params []string
	Body   []Stmt
}

func (n *FuncDecl) Kind() string   { return "FuncDecl" }
func (n *FuncDecl) NodeSpan() Span { return n.Span }
func (n *FuncDecl) stmtNode()      {}

// ClassDecl declares a class. Parent is empty when no Bloodline clause
// is present.
type ClassDecl struct {
	Span   Span
	Name   string
	Params []string
	Body   []Stmt
	Parent string
}

func (n *ClassDecl) Kind() string   { return "ClassDecl" }
func (n *ClassDecl) NodeSpan() Span { return n.Span }
func (n *ClassDecl) stmtNode()      {}

// --- Statements ---

type AssignStmt struct {
	Span  Span
	Name  string
	Value Expr
}

func (n *AssignStmt) Kind() string   { return "AssignStmt" }
func (n *AssignStmt) NodeSpan() Span { return n.Span }
func (n *AssignStmt) stmtNode()      {}

type CallStmt struct {
	Span Span
	Call *CallExpr
}

func (n *CallStmt) Kind() string   { return "CallStmt" }
func (n *CallStmt) NodeSpan() Span { return n.Span }
func (n *CallStmt) stmtNode()      {}

type PrintStmt struct {
	Span  Span
	Value Expr
}

func (n *PrintStmt) Kind() string   { return "PrintStmt" }
func (n *PrintStmt) NodeSpan() Span { return n.Span }
func (n *PrintStmt) stmtNode()      {}

type IfStmt struct {
	Span Span
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (n *IfStmt) Kind() string   { return "IfStmt" }
func (n *IfStmt) NodeSpan() Span { return n.Span }
func (n *IfStmt) stmtNode()      {}

type WhileStmt struct {
	Span Span
	Cond Expr
	Body []Stmt
}

func (n *WhileStmt) Kind() string   { return "WhileStmt" }
func (n *WhileStmt) NodeSpan() Span { return n.Span }
func (n *WhileStmt) stmtNode()      {}

type ForStmt struct {
	Span Span
	Init Stmt
	Cond Expr
	Post Stmt
	Body []Stmt
}

func (n *ForStmt) Kind() string   { return "ForStmt" }
func (n *ForStmt) NodeSpan() Span { return n.Span }
func (n *ForStmt) stmtNode()      {}

type TryStmt struct {
	Span  Span
	Try   []Stmt
	Catch []Stmt
}

func (n *TryStmt) Kind() string   { return "TryStmt" }
func (n *TryStmt) NodeSpan() Span { return n.Span }
func (n *TryStmt) stmtNode()      {}

// --- Program ---

type Program struct {
	Span       Span
	Statements []Stmt
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }
