// Package lexer implements the spell language tokenizer.
package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spelllang/spell/pkg/ast"
	"github.com/spelllang/spell/pkg/diagnostics"
)

// TokenKind classifies a lexer token.
type TokenKind int

const (
	TokKeyword TokenKind = iota
	TokIdent
	TokNumber
	TokText
	TokOperator
	TokDelimiter
	TokEOF
)

func (k TokenKind) String() string {
	switch k {
	case TokKeyword:
		return "keyword"
	case TokIdent:
		return "identifier"
	case TokNumber:
		return "number"
	case TokText:
		return "text"
	case TokOperator:
		return "operator"
	case TokDelimiter:
		return "delimiter"
	case TokEOF:
		return "end of input"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

// Token represents a single lexer token. For text literals Value holds the
// processed text with escape sequences already applied.
type Token struct {
	Kind  TokenKind
	Value string
	Span  ast.Span
}

// Is reports whether the token has the given kind and value.
func (t Token) Is(kind TokenKind, value string) bool {
	return t.Kind == kind && t.Value == value
}

var keywords = map[string]bool{
	"Wand":        true,
	"Incantation": true,
	"Cast":        true,
	"Illuminate":  true,
	"Ifar":        true,
	"Elsear":      true,
	"Loopus":      true,
	"Persistus":   true,
	"Cauldron":    true,
	"SpellBooks":  true,
	"Protego":     true,
	"Alohomora":   true,
	"Magical":     true,
	"Creature":    true,
	"Bloodline":   true,
	"Forar":       true,
	"in":          true,
	"len":         true,
	"str":         true,
	"int":         true,
}

// IsKeyword reports whether word is reserved.
func IsKeyword(word string) bool {
	return keywords[word]
}

var twoCharOps = map[string]bool{
	"==": true,
	"!=": true,
	"<=": true,
	">=": true,
	"&&": true,
	"||": true,
}

const (
	operatorChars  = "=!<>+-*/%&|:"
	delimiterChars = "(){},.;[]"
)

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

func (s *scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\v' || ch == '\f'
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

// skipTrivia consumes whitespace, '#' line comments and '/* */' block
// comments. An unterminated block comment runs to end of input.
func (s *scanner) skipTrivia() {
	for !s.atEnd() {
		ch := s.peek()
		switch {
		case isSpace(ch):
			s.advance()
		case ch == '#':
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		case ch == '/' && s.peekAt(1) == '*':
			s.advance()
			s.advance()
			for !s.atEnd() {
				if s.peek() == '*' && s.peekAt(1) == '/' {
					s.advance()
					s.advance()
					break
				}
				s.advance()
			}
		default:
			return
		}
	}
}

func (s *scanner) scanText() (Token, error) {
	startLine, startCol := s.line, s.col
	quote := s.advance()

	var buf strings.Builder
	for !s.atEnd() && s.peek() != quote {
		ch := s.advance()
		if ch != '\\' {
			buf.WriteByte(ch)
			continue
		}
		if s.atEnd() {
			break
		}
		esc := s.advance()
		switch esc {
		case 'n':
			buf.WriteByte('\n')
		case 't':
			buf.WriteByte('\t')
		default:
			// covers \" \' \\ and any other \x as literal x
			buf.WriteByte(esc)
		}
	}
	if s.atEnd() {
		err := s.lexError(startLine, startCol, "unterminated text literal")
		err.Incomplete = true
		return Token{}, err
	}
	s.advance() // closing quote

	return Token{
		Kind:  TokText,
		Value: buf.String(),
		Span:  s.span(startLine, startCol),
	}, nil
}

func (s *scanner) scanNumber() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}
	return Token{
		Kind:  TokNumber,
		Value: s.source[startPos:s.pos],
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) scanIdentOrKeyword() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	for !s.atEnd() && isAlphaNumeric(s.peek()) {
		s.advance()
	}
	text := s.source[startPos:s.pos]

	kind := TokIdent
	if IsKeyword(text) {
		kind = TokKeyword
	}
	return Token{
		Kind:  kind,
		Value: text,
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) scanOperator() Token {
	startLine, startCol := s.line, s.col
	if s.pos+2 <= len(s.source) && twoCharOps[s.source[s.pos:s.pos+2]] {
		op := s.source[s.pos : s.pos+2]
		s.advance()
		s.advance()
		return Token{Kind: TokOperator, Value: op, Span: s.span(startLine, startCol)}
	}
	ch := s.advance()
	return Token{Kind: TokOperator, Value: string(ch), Span: s.span(startLine, startCol)}
}

func (s *scanner) lexError(line, col int, msg string) *LexError {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors. Incomplete is set when more
// input could still complete the source, as with an unclosed text literal.
type LexError struct {
	Diag       diagnostics.Diagnostic
	Incomplete bool
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s at %s", e.Diag.Message, diagnostics.Position(e.Diag.Span))
}

func (s *scanner) nextToken() (Token, error) {
	s.skipTrivia()

	if s.atEnd() {
		return Token{
			Kind:  TokEOF,
			Value: "",
			Span:  s.span(s.line, s.col),
		}, nil
	}

	ch := s.peek()
	startLine, startCol := s.line, s.col

	switch {
	case isAlpha(ch):
		return s.scanIdentOrKeyword(), nil
	case isDigit(ch):
		return s.scanNumber(), nil
	case ch == '"' || ch == '\'':
		return s.scanText()
	case strings.IndexByte(operatorChars, ch) >= 0:
		return s.scanOperator(), nil
	case strings.IndexByte(delimiterChars, ch) >= 0:
		s.advance()
		return Token{Kind: TokDelimiter, Value: string(ch), Span: s.span(startLine, startCol)}, nil
	}

	r, _ := utf8.DecodeRuneInString(s.source[s.pos:])
	return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unknown character %q", r))
}

// Tokenize breaks source code into a slice of tokens. The result always
// ends with exactly one TokEOF token.
func Tokenize(source, filename string) ([]Token, error) {
	s := newScanner(source, filename)
	var tokens []Token

	for {
		tok, err := s.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokEOF {
			break
		}
	}

	return tokens, nil
}
