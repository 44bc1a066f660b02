// Package lexer implements the Scanner: a pull-based, single-token-at-a-time
// tokenizer that the compiler drives one ScanToken call per advance. Unlike
// the teacher's original batch lexer (which tokenized an entire source
// string up front), this scanner stays lazy so the compiler can remain a
// true single pass over the token stream.
package lexer

import (
	"fmt"
	"strconv"

	"github.com/informatter/loxvm/token"
)

const commentChar = '/'

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNumeric(c byte) bool {
	return isAlpha(c) || isDigit(c)
}

// ScannerError reports a lexical failure at a specific source line.
type ScannerError struct {
	Message string
	Line    int
}

func (e ScannerError) Error() string {
	return fmt.Sprintf("[line %d] scanner error: %s", e.Line, e.Message)
}

// Scanner produces one Token per ScanToken call, consuming whitespace and
// comments first. It never looks beyond the current and next byte.
type Scanner struct {
	source string
	start  int
	pos    int
	line   int
}

// New creates a Scanner positioned at the beginning of source.
func New(source string) *Scanner {
	return &Scanner{source: source, start: 0, pos: 0, line: 1}
}

func (s *Scanner) isFinished() bool {
	return s.pos >= len(s.source)
}

func (s *Scanner) advance() byte {
	c := s.source[s.pos]
	s.pos++
	return c
}

func (s *Scanner) peek() byte {
	if s.isFinished() {
		return 0
	}
	return s.source[s.pos]
}

func (s *Scanner) peekNext() byte {
	if s.pos+1 >= len(s.source) {
		return 0
	}
	return s.source[s.pos+1]
}

func (s *Scanner) isMatch(expected byte) bool {
	if s.isFinished() || s.source[s.pos] != expected {
		return false
	}
	s.pos++
	return true
}

// skipWhitespaceAndComments consumes spaces, tabs, carriage returns,
// newlines (bumping the line counter), and `// ...` line comments.
func (s *Scanner) skipWhitespaceAndComments() {
	for !s.isFinished() {
		switch s.peek() {
		case ' ', '\r', '\t':
			s.pos++
		case '\n':
			s.line++
			s.pos++
		case commentChar:
			if s.peekNext() == commentChar {
				for s.peek() != '\n' && !s.isFinished() {
					s.pos++
				}
			} else {
				return
			}
		default:
			return
		}
	}
}

func (s *Scanner) makeToken(kind token.Kind) token.Token {
	return token.Token{
		Kind:   kind,
		Line:   s.line,
		Start:  s.start,
		Lexeme: s.source[s.start:s.pos],
	}
}

func (s *Scanner) makeLiteralToken(kind token.Kind, literal any) token.Token {
	tok := s.makeToken(kind)
	tok.Literal = literal
	return tok
}

// ScanToken returns the next token from the source, or a ScannerError for
// an unterminated string, an unexpected character, or a number literal
// that fails to parse. Called repeatedly at end of input it
// idempotently yields Eof tokens.
func (s *Scanner) ScanToken() (token.Token, error) {
	s.skipWhitespaceAndComments()
	s.start = s.pos

	if s.isFinished() {
		return s.makeToken(token.Eof), nil
	}

	c := s.advance()

	if isAlpha(c) {
		return s.identifier(), nil
	}
	if isDigit(c) {
		return s.number()
	}

	switch c {
	case '(':
		return s.makeToken(token.LeftParen), nil
	case ')':
		return s.makeToken(token.RightParen), nil
	case '{':
		return s.makeToken(token.LeftBrace), nil
	case '}':
		return s.makeToken(token.RightBrace), nil
	case ',':
		return s.makeToken(token.Comma), nil
	case '.':
		return s.makeToken(token.Dot), nil
	case '-':
		return s.makeToken(token.Minus), nil
	case '+':
		return s.makeToken(token.Plus), nil
	case ';':
		return s.makeToken(token.Semicolon), nil
	case '*':
		return s.makeToken(token.Star), nil
	case '/':
		return s.makeToken(token.Slash), nil
	case '!':
		if s.isMatch('=') {
			return s.makeToken(token.BangEqual), nil
		}
		return s.makeToken(token.Bang), nil
	case '=':
		if s.isMatch('=') {
			return s.makeToken(token.EqualEqual), nil
		}
		return s.makeToken(token.Equal), nil
	case '<':
		if s.isMatch('=') {
			return s.makeToken(token.LessEqual), nil
		}
		return s.makeToken(token.Less), nil
	case '>':
		if s.isMatch('=') {
			return s.makeToken(token.GreaterEqual), nil
		}
		return s.makeToken(token.Greater), nil
	case '"':
		return s.string()
	}

	return token.Token{}, ScannerError{
		Message: fmt.Sprintf("unexpected character '%c'", c),
		Line:    s.line,
	}
}

// string scans a `"..."`-delimited literal. Embedded newlines are legal
// and bump the line counter; an unterminated literal is a ScannerError.
func (s *Scanner) string() (token.Token, error) {
	for s.peek() != '"' && !s.isFinished() {
		if s.peek() == '\n' {
			s.line++
		}
		s.pos++
	}

	if s.isFinished() {
		return token.Token{}, ScannerError{Message: "unterminated string literal", Line: s.line}
	}

	s.pos++ // consume closing quote
	value := s.source[s.start+1 : s.pos-1]
	return s.makeLiteralToken(token.String, value), nil
}

// number scans digits, optionally followed by a '.' and more digits.
// There is no exponent form and no leading sign (unary '-' handles that).
func (s *Scanner) number() (token.Token, error) {
	for isDigit(s.peek()) {
		s.pos++
	}

	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.pos++
		for isDigit(s.peek()) {
			s.pos++
		}
	}

	lexeme := s.source[s.start:s.pos]
	value, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return token.Token{}, ScannerError{Message: fmt.Sprintf("invalid number literal '%s'", lexeme), Line: s.line}
	}
	return s.makeLiteralToken(token.Number, value), nil
}

// identifier scans [A-Za-z_][A-Za-z0-9_]* and classifies it as a keyword
// by comparing the scanned lexeme against token.Keywords.
func (s *Scanner) identifier() token.Token {
	for isAlphaNumeric(s.peek()) {
		s.pos++
	}

	lexeme := s.source[s.start:s.pos]
	if kind, ok := token.Keywords[lexeme]; ok {
		return s.makeToken(kind)
	}
	return s.makeToken(token.Identifier)
}
