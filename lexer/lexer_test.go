package lexer

import (
	"testing"

	"github.com/informatter/loxvm/token"
)

func scanAll(t *testing.T, source string) []token.Token {
	t.Helper()
	s := New(source)
	var tokens []token.Token
	for {
		tok, err := s.ScanToken()
		if err != nil {
			t.Fatalf("unexpected scan error: %v", err)
		}
		tokens = append(tokens, tok)
		if tok.IsEOF() {
			return tokens
		}
	}
}

func TestScanPunctuationAndOperators(t *testing.T) {
	tokens := scanAll(t, "(){},.-+;*/ ! != = == < <= > >=")

	expected := []token.Kind{
		token.LeftParen, token.RightParen, token.LeftBrace, token.RightBrace,
		token.Comma, token.Dot, token.Minus, token.Plus, token.Semicolon,
		token.Star, token.Slash, token.Bang, token.BangEqual, token.Equal,
		token.EqualEqual, token.Less, token.LessEqual, token.Greater,
		token.GreaterEqual, token.Eof,
	}

	if len(tokens) != len(expected) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(expected))
	}
	for i, kind := range expected {
		if tokens[i].Kind != kind {
			t.Errorf("token %d: got %v, want %v", i, tokens[i].Kind, kind)
		}
	}
}

func TestScanNumber(t *testing.T) {
	tokens := scanAll(t, "123 45.67")

	if tokens[0].Kind != token.Number || tokens[0].Literal.(float64) != 123 {
		t.Errorf("unexpected first number token: %+v", tokens[0])
	}
	if tokens[1].Kind != token.Number || tokens[1].Literal.(float64) != 45.67 {
		t.Errorf("unexpected second number token: %+v", tokens[1])
	}
}

func TestScanString(t *testing.T) {
	tokens := scanAll(t, `"hello world"`)
	if tokens[0].Kind != token.String || tokens[0].Literal.(string) != "hello world" {
		t.Errorf("unexpected string token: %+v", tokens[0])
	}
}

func TestScanUnterminatedString(t *testing.T) {
	s := New(`"hello`)
	_, err := s.ScanToken()
	if err == nil {
		t.Fatal("expected an unterminated string error")
	}
	scanErr, ok := err.(ScannerError)
	if !ok {
		t.Fatalf("expected ScannerError, got %T", err)
	}
	if scanErr.Message != "unterminated string literal" {
		t.Errorf("unexpected message: %q", scanErr.Message)
	}
}

func TestScanMultilineStringBumpsLineCounter(t *testing.T) {
	s := New("\"a\nb\" nil")
	tok, err := s.ScanToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Literal.(string) != "a\nb" {
		t.Errorf("unexpected string literal: %q", tok.Literal)
	}

	next, err := s.ScanToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Line != 2 {
		t.Errorf("expected next token to be on line 2, got %d", next.Line)
	}
}

func TestScanIdentifiersAndKeywords(t *testing.T) {
	tokens := scanAll(t, "foo bar_baz if while print")

	if tokens[0].Kind != token.Identifier || tokens[0].Lexeme != "foo" {
		t.Errorf("unexpected identifier token: %+v", tokens[0])
	}
	if tokens[1].Kind != token.Identifier || tokens[1].Lexeme != "bar_baz" {
		t.Errorf("unexpected identifier token: %+v", tokens[1])
	}
	if tokens[2].Kind != token.If {
		t.Errorf("expected 'if' keyword, got %v", tokens[2].Kind)
	}
	if tokens[3].Kind != token.While {
		t.Errorf("expected 'while' keyword, got %v", tokens[3].Kind)
	}
	if tokens[4].Kind != token.Print {
		t.Errorf("expected 'print' keyword, got %v", tokens[4].Kind)
	}
}

func TestScanSkipsLineComments(t *testing.T) {
	tokens := scanAll(t, "1 // this is a comment\n2")
	if tokens[0].Literal.(float64) != 1 || tokens[1].Literal.(float64) != 2 {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestScanTokenIdempotentAtEOF(t *testing.T) {
	s := New("")
	first, err := s.ScanToken()
	if err != nil || !first.IsEOF() {
		t.Fatalf("expected Eof, got %+v err=%v", first, err)
	}
	second, err := s.ScanToken()
	if err != nil || !second.IsEOF() {
		t.Fatalf("expected idempotent Eof, got %+v err=%v", second, err)
	}
}

func TestScanUnexpectedCharacter(t *testing.T) {
	s := New("@")
	_, err := s.ScanToken()
	if err == nil {
		t.Fatal("expected an error for an unexpected character")
	}
}
