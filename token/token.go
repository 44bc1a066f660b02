// Package token defines the lexical token vocabulary produced by the
// lexer and consumed by the single-pass compiler.
package token

import "fmt"

// Kind classifies a Token. Values are ordered the way the scanner
// recognizes them: punctuation, one/two-char operators, literals,
// keywords, then Comment and the two sentinel kinds (Eof, Dummy).
type Kind int

const (
	// single-char punctuation
	LeftParen Kind = iota
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star

	// one or two char operators
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// literals
	Identifier
	String
	Number

	// keywords
	And
	Class
	Else
	False
	For
	Fun
	If
	Nil
	Or
	Print
	Return
	Super
	This
	True
	Var
	While

	Comment
	Eof
	Dummy
)

var names = map[Kind]string{
	LeftParen: "(", RightParen: ")", LeftBrace: "{", RightBrace: "}",
	Comma: ",", Dot: ".", Minus: "-", Plus: "+", Semicolon: ";", Slash: "/", Star: "*",
	Bang: "!", BangEqual: "!=", Equal: "=", EqualEqual: "==",
	Greater: ">", GreaterEqual: ">=", Less: "<", LessEqual: "<=",
	Identifier: "IDENTIFIER", String: "STRING", Number: "NUMBER",
	And: "and", Class: "class", Else: "else", False: "false", For: "for", Fun: "fun",
	If: "if", Nil: "nil", Or: "or", Print: "print", Return: "return", Super: "super",
	This: "this", True: "true", Var: "var", While: "while",
	Comment: "COMMENT", Eof: "EOF", Dummy: "DUMMY",
}

func (k Kind) String() string {
	if name, ok := names[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// Keywords maps reserved identifier spellings to their Kind. The scanner
// looks an identifier's lexeme up here after scanning it in full, rather
// than branching character-by-character during the scan itself.
var Keywords = map[string]Kind{
	"and": And, "class": Class, "else": Else, "false": False, "for": For,
	"fun": Fun, "if": If, "nil": Nil, "or": Or, "print": Print, "return": Return,
	"super": Super, "this": This, "true": True, "var": Var, "while": While,
}

// Token is a single lexeme recognized by the scanner. Lexeme is a slice
// into the original source string and must not outlive it.
type Token struct {
	Kind    Kind
	Line    int
	Start   int
	Lexeme  string
	Literal any
}

func (t Token) String() string {
	return fmt.Sprintf("Token{%s %q line:%d}", t.Kind, t.Lexeme, t.Line)
}

// IsEOF reports whether this token is the end-of-input sentinel.
func (t Token) IsEOF() bool {
	return t.Kind == Eof
}
