// Package parser implements the spell language parser.
package parser

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spelllang/spell/pkg/ast"
	"github.com/spelllang/spell/pkg/diagnostics"
	"github.com/spelllang/spell/pkg/lexer"
)

type parser struct {
	tokens []lexer.Token
	pos    int
	diags  []diagnostics.Diagnostic
}

// Parse tokenizes source and parses it into an AST.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			return nil, []diagnostics.Diagnostic{le.Diag}
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, "")}
	}
	return ParseTokens(tokens)
}

// ParseTokens parses an already scanned token stream. Parsing stops at the
// first error.
func ParseTokens(tokens []lexer.Token) (*ast.Program, []diagnostics.Diagnostic) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != lexer.TokEOF {
		tokens = append(tokens, lexer.Token{Kind: lexer.TokEOF})
	}
	p := &parser{tokens: tokens, pos: 0}
	prog := p.parseProgram()
	if len(p.diags) > 0 {
		return nil, p.diags
	}
	return prog, nil
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) lexer.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *parser) atEnd() bool {
	return p.current().Kind == lexer.TokEOF
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) check(kind lexer.TokenKind, value string) bool {
	return p.current().Is(kind, value)
}

func (p *parser) match(kind lexer.TokenKind, value string) bool {
	if p.check(kind, value) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(kind lexer.TokenKind, value, context string) (lexer.Token, bool) {
	tok := p.current()
	if !tok.Is(kind, value) {
		p.errorAt(tok, fmt.Sprintf("expected '%s' %s, got %s", value, context, describe(tok)))
		return tok, false
	}
	return p.advance(), true
}

func (p *parser) expectIdent(what string) (lexer.Token, bool) {
	tok := p.current()
	if tok.Kind != lexer.TokIdent {
		p.errorAt(tok, fmt.Sprintf("expected %s, got %s", what, describe(tok)))
		return tok, false
	}
	return p.advance(), true
}

func (p *parser) errorAt(tok lexer.Token, msg string) {
	span := tok.Span
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, msg, &span, ""))
}

func (p *parser) spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

// prevSpan is the span of the most recently consumed token.
func (p *parser) prevSpan() ast.Span {
	if p.pos == 0 {
		return p.current().Span
	}
	return p.tokens[p.pos-1].Span
}

func describe(tok lexer.Token) string {
	if tok.Kind == lexer.TokEOF {
		return "end of input"
	}
	if tok.Kind == lexer.TokText {
		return fmt.Sprintf("text %q", tok.Value)
	}
	return fmt.Sprintf("'%s'", tok.Value)
}

// callableKeywords are reserved words that name built-in functions.
var callableKeywords = map[string]bool{
	"len": true,
	"str": true,
	"int": true,
}

func isDeclKeyword(tok lexer.Token) bool {
	if tok.Kind != lexer.TokKeyword {
		return false
	}
	switch tok.Value {
	case "Wand", "Cauldron", "SpellBooks":
		return true
	}
	return false
}

// --- Program ---

func (p *parser) parseProgram() *ast.Program {
	start := p.current().Span
	var stmts []ast.Stmt

	for !p.atEnd() {
		stmt := p.parseStmt()
		if stmt == nil {
			return nil
		}
		stmts = append(stmts, stmt)
	}

	return &ast.Program{
		Span:       p.spanFromTo(start, p.current().Span),
		Statements: stmts,
	}
}

// --- Statements ---

func (p *parser) parseStmt() ast.Stmt {
	tok := p.current()
	if isDeclKeyword(tok) {
		return p.parseVarDecl()
	}
	if tok.Kind == lexer.TokIdent {
		return p.parseAssign()
	}
	if tok.Kind == lexer.TokKeyword {
		switch tok.Value {
		case "Incantation":
			return p.parseFuncDecl()
		case "Cast":
			return p.parseCallStmt()
		case "Illuminate":
			return p.parsePrintStmt()
		case "Ifar":
			return p.parseIf()
		case "Loopus":
			return p.parseFor()
		case "Persistus":
			return p.parseWhile()
		case "Protego":
			return p.parseTry()
		case "Magical":
			return p.parseClassDecl()
		}
	}
	p.errorAt(tok, fmt.Sprintf("unexpected token %s", describe(tok)))
	return nil
}

func (p *parser) parseVarDecl() ast.Stmt {
	typeTok := p.advance()
	nameTok, ok := p.expectIdent("variable name")
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokOperator, "=", "after variable name"); !ok {
		return nil
	}
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	return &ast.VarDecl{
		Span:  p.spanFromTo(typeTok.Span, value.NodeSpan()),
		Type:  typeTok.Value,
		Name:  nameTok.Value,
		Value: value,
	}
}

func (p *parser) parseAssign() ast.Stmt {
	nameTok := p.advance()
	if _, ok := p.expect(lexer.TokOperator, "=", "after variable name"); !ok {
		return nil
	}
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	return &ast.AssignStmt{
		Span:  p.spanFromTo(nameTok.Span, value.NodeSpan()),
		Name:  nameTok.Value,
		Value: value,
	}
}

func (p *parser) parseFuncDecl() ast.Stmt {
	start := p.advance() // consume 'Incantation'
	nameTok, ok := p.expectIdent("function name")
	if !ok {
		return nil
	}
	params, ok := p.parseParams()
	if !ok {
		return nil
	}
	body, ok := p.parseBlock("function body")
	if !ok {
		return nil
	}
	return &ast.FuncDecl{
		Span:   p.spanFromTo(start.Span, p.prevSpan()),
		Name:   nameTok.Value,
		Params: params,
		Body:   body,
	}
}

func (p *parser) parseClassDecl() ast.Stmt {
	start := p.advance() // consume 'Magical'
	if _, ok := p.expect(lexer.TokKeyword, "Creature", "after 'Magical'"); !ok {
		return nil
	}
	nameTok, ok := p.expectIdent("class name")
	if !ok {
		return nil
	}
	params, ok := p.parseParams()
	if !ok {
		return nil
	}
	parent := ""
	if p.match(lexer.TokKeyword, "Bloodline") {
		parentTok, ok := p.expectIdent("parent class name after 'Bloodline'")
		if !ok {
			return nil
		}
		parent = parentTok.Value
	}
	body, ok := p.parseBlock("class body")
	if !ok {
		return nil
	}
	return &ast.ClassDecl{
		Span:   p.spanFromTo(start.Span, p.prevSpan()),
		Name:   nameTok.Value,
		Params: params,
		Body:   body,
		Parent: parent,
	}
}

func (p *parser) parseParams() ([]string, bool) {
	if _, ok := p.expect(lexer.TokDelimiter, "(", "before parameters"); !ok {
		return nil, false
	}
	var params []string
	if !p.check(lexer.TokDelimiter, ")") {
		for {
			paramTok, ok := p.expectIdent("parameter name")
			if !ok {
				return nil, false
			}
			params = append(params, paramTok.Value)
			if !p.match(lexer.TokDelimiter, ",") {
				break
			}
		}
	}
	if _, ok := p.expect(lexer.TokDelimiter, ")", "after parameters"); !ok {
		return nil, false
	}
	return params, true
}

func (p *parser) parseCallStmt() ast.Stmt {
	start := p.advance() // consume 'Cast'
	nameTok := p.current()
	if nameTok.Kind != lexer.TokIdent && !(nameTok.Kind == lexer.TokKeyword && callableKeywords[nameTok.Value]) {
		p.errorAt(nameTok, fmt.Sprintf("expected function name after 'Cast', got %s", describe(nameTok)))
		return nil
	}
	p.advance()
	call := p.parseCallArgs(nameTok)
	if call == nil {
		return nil
	}
	return &ast.CallStmt{
		Span: p.spanFromTo(start.Span, call.Span),
		Call: call,
	}
}

// parseCallArgs parses "(" args ")" after an already consumed callee name.
func (p *parser) parseCallArgs(nameTok lexer.Token) *ast.CallExpr {
	if _, ok := p.expect(lexer.TokDelimiter, "(", "after function name"); !ok {
		return nil
	}
	var args []ast.Expr
	if !p.check(lexer.TokDelimiter, ")") {
		for {
			arg := p.parseExpr()
			if arg == nil {
				return nil
			}
			args = append(args, arg)
			if !p.match(lexer.TokDelimiter, ",") {
				break
			}
		}
	}
	end, ok := p.expect(lexer.TokDelimiter, ")", "after arguments")
	if !ok {
		return nil
	}
	return &ast.CallExpr{
		Span: p.spanFromTo(nameTok.Span, end.Span),
		Name: nameTok.Value,
		Args: args,
	}
}

func (p *parser) parsePrintStmt() ast.Stmt {
	start := p.advance() // consume 'Illuminate'
	if _, ok := p.expect(lexer.TokDelimiter, "(", "after 'Illuminate'"); !ok {
		return nil
	}
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	end, ok := p.expect(lexer.TokDelimiter, ")", "after expression")
	if !ok {
		return nil
	}
	return &ast.PrintStmt{
		Span:  p.spanFromTo(start.Span, end.Span),
		Value: value,
	}
}

func (p *parser) parseIf() ast.Stmt {
	start := p.advance() // consume 'Ifar'
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	thenBody, ok := p.parseBlock("if body")
	if !ok {
		return nil
	}

	var elseBody []ast.Stmt
	if p.match(lexer.TokKeyword, "Elsear") {
		if p.check(lexer.TokKeyword, "Ifar") {
			nested := p.parseIf()
			if nested == nil {
				return nil
			}
			elseBody = []ast.Stmt{nested}
		} else {
			elseBody, ok = p.parseBlock("else body")
			if !ok {
				return nil
			}
		}
	}

	return &ast.IfStmt{
		Span: p.spanFromTo(start.Span, p.prevSpan()),
		Cond: cond,
		Then: thenBody,
		Else: elseBody,
	}
}

func (p *parser) parseWhile() ast.Stmt {
	start := p.advance() // consume 'Persistus'
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	body, ok := p.parseBlock("loop body")
	if !ok {
		return nil
	}
	return &ast.WhileStmt{
		Span: p.spanFromTo(start.Span, p.prevSpan()),
		Cond: cond,
		Body: body,
	}
}

func (p *parser) parseFor() ast.Stmt {
	start := p.advance() // consume 'Loopus'
	init := p.parseLoopClause("loop initializer")
	if init == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokDelimiter, ";", "after loop initializer"); !ok {
		return nil
	}
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokDelimiter, ";", "after loop condition"); !ok {
		return nil
	}
	post := p.parseLoopClause("loop increment")
	if post == nil {
		return nil
	}
	body, ok := p.parseBlock("loop body")
	if !ok {
		return nil
	}
	return &ast.ForStmt{
		Span: p.spanFromTo(start.Span, p.prevSpan()),
		Init: init,
		Cond: cond,
		Post: post,
		Body: body,
	}
}

// parseLoopClause parses the initializer or increment of a for-loop header:
// a declaration, an assignment, or a Cast call.
func (p *parser) parseLoopClause(what string) ast.Stmt {
	tok := p.current()
	switch {
	case isDeclKeyword(tok):
		return p.parseVarDecl()
	case tok.Kind == lexer.TokIdent:
		return p.parseAssign()
	case tok.Is(lexer.TokKeyword, "Cast"):
		return p.parseCallStmt()
	}
	p.errorAt(tok, fmt.Sprintf("expected declaration, assignment or Cast call as %s, got %s", what, describe(tok)))
	return nil
}

func (p *parser) parseTry() ast.Stmt {
	start := p.advance() // consume 'Protego'
	tryBody, ok := p.parseBlock("Protego block")
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokKeyword, "Alohomora", "after Protego block"); !ok {
		return nil
	}
	catchBody, ok := p.parseBlock("Alohomora block")
	if !ok {
		return nil
	}
	return &ast.TryStmt{
		Span:  p.spanFromTo(start.Span, p.prevSpan()),
		Try:   tryBody,
		Catch: catchBody,
	}
}

// --- Block ---

func (p *parser) parseBlock(what string) ([]ast.Stmt, bool) {
	if _, ok := p.expect(lexer.TokDelimiter, "{", "to open "+what); !ok {
		return nil, false
	}
	var stmts []ast.Stmt
	for !p.check(lexer.TokDelimiter, "}") {
		if p.atEnd() {
			p.errorAt(p.current(), fmt.Sprintf("expected '}' to close %s, got end of input", what))
			return nil, false
		}
		stmt := p.parseStmt()
		if stmt == nil {
			return nil, false
		}
		stmts = append(stmts, stmt)
	}
	p.advance() // consume '}'
	return stmts, true
}

// --- Expressions (precedence climbing, low to high) ---

func (p *parser) parseExpr() ast.Expr {
	return p.parseOr()
}

func (p *parser) parseOr() ast.Expr {
	return p.parseBinary(p.parseAnd, ast.OpOr)
}

func (p *parser) parseAnd() ast.Expr {
	return p.parseBinary(p.parseEquality, ast.OpAnd)
}

func (p *parser) parseEquality() ast.Expr {
	return p.parseBinary(p.parseComparison, ast.OpEqEq, ast.OpNeq)
}

func (p *parser) parseComparison() ast.Expr {
	return p.parseBinary(p.parseAdditive, ast.OpLt, ast.OpGt, ast.OpLtEq, ast.OpGtEq)
}

func (p *parser) parseAdditive() ast.Expr {
	return p.parseBinary(p.parseMultiplicative, ast.OpAdd, ast.OpSub)
}

func (p *parser) parseMultiplicative() ast.Expr {
	return p.parseBinary(p.parseUnary, ast.OpMul, ast.OpDiv, ast.OpMod)
}

// parseBinary parses a left-associative chain of the given operators whose
// operands are produced by next.
func (p *parser) parseBinary(next func() ast.Expr, ops ...ast.BinaryOp) ast.Expr {
	left := next()
	if left == nil {
		return nil
	}

	for {
		tok := p.current()
		if tok.Kind != lexer.TokOperator {
			return left
		}
		var op ast.BinaryOp
		for _, candidate := range ops {
			if tok.Value == string(candidate) {
				op = candidate
				break
			}
		}
		if op == "" {
			return left
		}
		p.advance()
		right := next()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parseUnary() ast.Expr {
	tok := p.current()
	if tok.Is(lexer.TokOperator, "!") || tok.Is(lexer.TokOperator, "-") {
		p.advance()
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		op := ast.OpNeg
		if tok.Value == "!" {
			op = ast.OpNot
		}
		return &ast.UnaryExpr{
			Span:    p.spanFromTo(tok.Span, operand.NodeSpan()),
			Op:      op,
			Operand: operand,
		}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() ast.Expr {
	tok := p.current()

	switch tok.Kind {
	case lexer.TokNumber:
		p.advance()
		val, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			p.errorAt(tok, fmt.Sprintf("integer literal %s out of range", tok.Value))
			return nil
		}
		return &ast.NumberLit{Span: tok.Span, Value: val}

	case lexer.TokText:
		p.advance()
		return &ast.TextLit{Span: tok.Span, Value: tok.Value}

	case lexer.TokIdent:
		p.advance()
		if p.check(lexer.TokDelimiter, "(") {
			call := p.parseCallArgs(tok)
			if call == nil {
				return nil
			}
			return call
		}
		return &ast.Ident{Span: tok.Span, Name: tok.Value}

	case lexer.TokKeyword:
		if callableKeywords[tok.Value] && p.peekAt(1).Is(lexer.TokDelimiter, "(") {
			p.advance()
			call := p.parseCallArgs(tok)
			if call == nil {
				return nil
			}
			return call
		}

	case lexer.TokDelimiter:
		switch tok.Value {
		case "(":
			p.advance()
			expr := p.parseExpr()
			if expr == nil {
				return nil
			}
			if _, ok := p.expect(lexer.TokDelimiter, ")", "after expression"); !ok {
				return nil
			}
			return expr
		case "[", "{":
			rendered, ok := p.parseComposite()
			if !ok {
				return nil
			}
			return &ast.TextLit{
				Span:      p.spanFromTo(tok.Span, p.prevSpan()),
				Value:     rendered,
				Composite: true,
			}
		}
	}

	p.errorAt(tok, fmt.Sprintf("unexpected token %s", describe(tok)))
	return nil
}

// --- List and mapping literals ---
//
// Both are reduced to their text rendering here; nothing structured
// survives into evaluation.

func (p *parser) parseComposite() (string, bool) {
	if p.check(lexer.TokDelimiter, "[") {
		return p.parseList()
	}
	return p.parseMapping()
}

func (p *parser) parseList() (string, bool) {
	p.advance() // consume '['
	var items []string
	if !p.check(lexer.TokDelimiter, "]") {
		for {
			item, quoted, ok := p.parseLiteralElement("list elements")
			if !ok {
				return "", false
			}
			if quoted {
				item = `"` + item + `"`
			}
			items = append(items, item)
			if !p.match(lexer.TokDelimiter, ",") {
				break
			}
		}
	}
	if _, ok := p.expect(lexer.TokDelimiter, "]", "after list elements"); !ok {
		return "", false
	}
	return "[" + strings.Join(items, ", ") + "]", true
}

func (p *parser) parseMapping() (string, bool) {
	p.advance() // consume '{'
	entries := make(map[string]string)
	for !p.check(lexer.TokDelimiter, "}") {
		keyTok := p.current()
		if keyTok.Kind != lexer.TokText {
			p.errorAt(keyTok, fmt.Sprintf("mapping keys must be text literals, got %s", describe(keyTok)))
			return "", false
		}
		p.advance()
		if _, ok := p.expect(lexer.TokOperator, ":", "after mapping key"); !ok {
			return "", false
		}
		value, quoted, ok := p.parseLiteralElement("mapping values")
		if !ok {
			return "", false
		}
		if quoted || (!strings.HasPrefix(value, "[") && !strings.HasPrefix(value, "{")) {
			value = `"` + value + `"`
		}
		entries[keyTok.Value] = value
		if !p.match(lexer.TokDelimiter, ",") {
			break
		}
	}
	if _, ok := p.expect(lexer.TokDelimiter, "}", "after mapping"); !ok {
		return "", false
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = `"` + k + `": ` + entries[k]
	}
	return "{" + strings.Join(parts, ", ") + "}", true
}

// parseLiteralElement parses one element of a list or mapping literal and
// returns its rendering. quoted reports whether the element was a text
// literal.
func (p *parser) parseLiteralElement(what string) (rendered string, quoted bool, ok bool) {
	tok := p.current()
	switch {
	case tok.Kind == lexer.TokNumber:
		p.advance()
		n, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			p.errorAt(tok, fmt.Sprintf("integer literal %s out of range", tok.Value))
			return "", false, false
		}
		return strconv.FormatInt(n, 10), false, true

	case tok.Is(lexer.TokOperator, "-") && p.peekAt(1).Kind == lexer.TokNumber:
		p.advance()
		numTok := p.advance()
		n, err := strconv.ParseInt("-"+numTok.Value, 10, 64)
		if err != nil {
			p.errorAt(numTok, fmt.Sprintf("integer literal -%s out of range", numTok.Value))
			return "", false, false
		}
		return strconv.FormatInt(n, 10), false, true

	case tok.Kind == lexer.TokText:
		p.advance()
		return tok.Value, true, true

	case tok.Is(lexer.TokDelimiter, "[") || tok.Is(lexer.TokDelimiter, "{"):
		rendered, ok := p.parseComposite()
		return rendered, false, ok
	}

	p.errorAt(tok, fmt.Sprintf("%s must be literals, got %s", what, describe(tok)))
	return "", false, false
}
