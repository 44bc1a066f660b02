// Package compiler implements a single-pass Pratt parser that emits
// bytecode directly into a chunk.Chunk while it consumes tokens — there is
// no intermediate AST. This generalizes the teacher's ASTCompiler (which
// walked a tree built by a separate parser) into one pass: parsing and
// code generation are the same recursive-descent/precedence-climbing walk.
package compiler

import (
	"fmt"

	"github.com/informatter/loxvm/chunk"
	"github.com/informatter/loxvm/lexer"
	"github.com/informatter/loxvm/token"
	"github.com/informatter/loxvm/value"
)

// maxLocals bounds how many locals a single scope tree can hold; local
// slots are addressed by a one-byte stack operand, same as constants.
const maxLocals = 256

// Precedence orders binding power from loosest to tightest. Every infix
// parse rule is keyed by one of these levels.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

type parseFn func(*Compiler, bool)

type rule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is the Pratt table: for each token kind, the prefix rule to run
// when it starts an expression, the infix rule to run when it follows one,
// and the precedence that binds its infix position.
var rules map[token.Kind]rule

func init() {
	rules = map[token.Kind]rule{
		token.LeftParen:    {prefix: (*Compiler).grouping},
		token.Minus:        {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PrecTerm},
		token.Plus:         {infix: (*Compiler).binary, precedence: PrecTerm},
		token.Slash:        {infix: (*Compiler).binary, precedence: PrecFactor},
		token.Star:         {infix: (*Compiler).binary, precedence: PrecFactor},
		token.Bang:         {prefix: (*Compiler).unary},
		token.BangEqual:    {infix: (*Compiler).binary, precedence: PrecEquality},
		token.EqualEqual:   {infix: (*Compiler).binary, precedence: PrecEquality},
		token.Greater:      {infix: (*Compiler).binary, precedence: PrecComparison},
		token.GreaterEqual: {infix: (*Compiler).binary, precedence: PrecComparison},
		token.Less:         {infix: (*Compiler).binary, precedence: PrecComparison},
		token.LessEqual:    {infix: (*Compiler).binary, precedence: PrecComparison},
		token.Number:       {prefix: (*Compiler).number},
		token.String:       {prefix: (*Compiler).stringLiteral},
		token.Identifier:   {prefix: (*Compiler).variable},
		token.And:          {infix: (*Compiler).and_, precedence: PrecAnd},
		token.Or:           {infix: (*Compiler).or_, precedence: PrecOr},
		token.False:        {prefix: (*Compiler).literal},
		token.True:         {prefix: (*Compiler).literal},
		token.Nil:          {prefix: (*Compiler).literal},
	}
}

func getRule(k token.Kind) rule {
	return rules[k]
}

// local tracks one declared name within the current scope tree. depth ==
// -1 means "declared but its initializer has not yet run" — reading it in
// that state is the self-reference error.
type local struct {
	name  string
	depth int
}

// Compiler holds all state transient to a single compile call: the
// scanner driving it, the chunk it is writing into, the token lookahead
// pair, and the scope/local bookkeeping needed to resolve names to slots.
type Compiler struct {
	scanner *lexer.Scanner
	chunk   *chunk.Chunk
	heap    *value.Heap

	previous token.Token
	current  token.Token

	locals     []local
	scopeDepth int

	panicMode bool
	hadError  bool
	firstErr  error
}

// Compile parses a complete program and emits it into one chunk.Chunk
// terminated by OpReturn. heap is the VM's string interner; string
// literals are interned into it as they are compiled. The first
// CompilerError encountered, if any, is returned alongside a nil chunk.
func Compile(source string, heap *value.Heap) (*chunk.Chunk, error) {
	c := &Compiler{
		scanner: lexer.New(source),
		chunk:   chunk.New(),
		heap:    heap,
	}

	c.advance()
	for !c.check(token.Eof) {
		c.declaration()
	}
	c.emitOp(chunk.OpReturn)

	if c.hadError {
		return nil, c.firstErr
	}
	return c.chunk, nil
}

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		tok, err := c.scanner.ScanToken()
		if err == nil {
			c.current = tok
			return
		}
		if se, ok := err.(lexer.ScannerError); ok {
			c.errorAt(token.Token{Line: se.Line}, se.Message)
		} else {
			c.errorAt(c.current, err.Error())
		}
	}
}

func (c *Compiler) check(k token.Kind) bool {
	return c.current.Kind == k
}

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, msg string) {
	if c.current.Kind == k {
		c.advance()
		return
	}
	c.errorAt(c.current, msg)
}

// --- error recovery -----------------------------------------------------

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	if c.firstErr == nil {
		c.firstErr = CompilerError{Msg: msg, Line: tok.Line}
	}
}

// synchronize skips tokens after a parse error until it finds a statement
// boundary, so one bad statement doesn't cascade into dozens of bogus
// follow-on errors.
func (c *Compiler) synchronize() {
	c.panicMode = false

	for !c.check(token.Eof) {
		if c.previous.Kind == token.Semicolon {
			return
		}
		switch c.current.Kind {
		case token.Class, token.Fun, token.Var, token.For, token.If, token.While, token.Print, token.Return:
			return
		}
		c.advance()
	}
}

// --- declarations & statements ------------------------------------------

func (c *Compiler) declaration() {
	if c.match(token.Var) {
		c.varDeclaration()
	} else {
		c.statement()
	}

	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	c.consume(token.Identifier, "expect variable name.")
	nameTok := c.previous

	isLocal := c.scopeDepth > 0
	if isLocal {
		c.declareLocal(nameTok)
	}

	if c.match(token.Equal) {
		c.expression()
	} else {
		c.emitOp(chunk.OpNil)
	}
	c.consume(token.Semicolon, "expect ';' after variable declaration.")

	if isLocal {
		c.markInitialized()
		return
	}
	idx := c.identifierConstant(nameTok)
	c.emitOpByte(chunk.OpDefineGlobal, idx)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.Print):
		c.printStatement()
	case c.match(token.If):
		c.ifStatement()
	case c.match(token.While):
		c.whileStatement()
	case c.match(token.LeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.Semicolon, "expect ';' after value.")
	c.emitOp(chunk.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.Semicolon, "expect ';' after expression.")
	c.emitOp(chunk.OpPop)
}

func (c *Compiler) block() {
	for !c.check(token.RightBrace) && !c.check(token.Eof) {
		c.declaration()
	}
	c.consume(token.RightBrace, "expect '}' after block.")
}

func (c *Compiler) ifStatement() {
	c.consume(token.LeftParen, "expect '(' after 'if'.")
	c.expression()
	c.consume(token.RightParen, "expect ')' after condition.")

	thenJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.statement()

	elseJump := c.emitJump(chunk.OpJump)
	c.patchJump(thenJump)
	c.emitOp(chunk.OpPop)

	if c.match(token.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := c.chunk.Len()

	c.consume(token.LeftParen, "expect '(' after 'while'.")
	c.expression()
	c.consume(token.RightParen, "expect ')' after condition.")

	exitJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(chunk.OpPop)
}

// --- expressions ---------------------------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefix := getRule(c.previous.Kind).prefix
	if prefix == nil {
		c.errorAt(c.previous, "expect expression.")
		return
	}

	canAssign := prec <= PrecAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.current.Kind).precedence {
		c.advance()
		infix := getRule(c.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.Equal) {
		c.errorAt(c.previous, "invalid assignment target.")
	}
}

func (c *Compiler) number(canAssign bool) {
	n := c.previous.Literal.(float64)
	c.emitConstant(value.Num(n))
}

func (c *Compiler) stringLiteral(canAssign bool) {
	content := c.previous.Literal.(string)
	c.emitConstant(value.Str(c.heap.Intern(content)))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Kind {
	case token.False:
		c.emitOp(chunk.OpFalse)
	case token.True:
		c.emitOp(chunk.OpTrue)
	case token.Nil:
		c.emitOp(chunk.OpNil)
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RightParen, "expect ')' after expression.")
}

func (c *Compiler) unary(canAssign bool) {
	opKind := c.previous.Kind
	c.parsePrecedence(PrecUnary)

	switch opKind {
	case token.Minus:
		c.emitOp(chunk.OpNegate)
	case token.Bang:
		c.emitOp(chunk.OpNot)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opKind := c.previous.Kind
	r := getRule(opKind)
	c.parsePrecedence(r.precedence + 1)

	switch opKind {
	case token.Plus:
		c.emitOp(chunk.OpAdd)
	case token.Minus:
		c.emitOp(chunk.OpSubtract)
	case token.Star:
		c.emitOp(chunk.OpMultiply)
	case token.Slash:
		c.emitOp(chunk.OpDivide)
	case token.EqualEqual:
		c.emitOp(chunk.OpEqual)
	case token.BangEqual:
		c.emitOp(chunk.OpEqual)
		c.emitOp(chunk.OpNot)
	case token.Less:
		c.emitOp(chunk.OpLess)
	case token.Greater:
		c.emitOp(chunk.OpGreater)
	case token.LessEqual:
		c.emitOp(chunk.OpGreater)
		c.emitOp(chunk.OpNot)
	case token.GreaterEqual:
		c.emitOp(chunk.OpLess)
		c.emitOp(chunk.OpNot)
	}
}

func (c *Compiler) and_(canAssign bool) {
	endJump := c.emitJump(chunk.OpJumpIfFalse)
	c.emitOp(chunk.OpPop)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(canAssign bool) {
	elseJump := c.emitJump(chunk.OpJumpIfFalse)
	endJump := c.emitJump(chunk.OpJump)

	c.patchJump(elseJump)
	c.emitOp(chunk.OpPop)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) namedVariable(nameTok token.Token, canAssign bool) {
	var getOp, setOp chunk.OpCode
	var arg byte

	if slot, ok := c.resolveLocal(nameTok); ok {
		getOp, setOp = chunk.OpGetLocal, chunk.OpSetLocal
		arg = byte(slot)
	} else {
		getOp, setOp = chunk.OpGetGlobal, chunk.OpSetGlobal
		arg = c.identifierConstant(nameTok)
	}

	if canAssign && c.match(token.Equal) {
		c.expression()
		c.emitOpByte(setOp, arg)
		return
	}
	c.emitOpByte(getOp, arg)
}

// --- locals & scopes -----------------------------------------------------

func (c *Compiler) beginScope() {
	c.scopeDepth++
}

func (c *Compiler) endScope() {
	c.scopeDepth--

	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emitOp(chunk.OpPop)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

// declareLocal registers nameTok in the innermost scope with depth -1
// ("declared, not yet initialized"), after checking for a same-scope
// redeclaration.
func (c *Compiler) declareLocal(nameTok token.Token) {
	if len(c.locals) >= maxLocals {
		c.errorAt(nameTok, "too many variables in function.")
		return
	}

	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != -1 && l.depth < c.scopeDepth {
			break
		}
		if l.name == nameTok.Lexeme {
			c.errorAt(nameTok, "already a variable with this name in this scope.")
			return
		}
	}

	c.locals = append(c.locals, local{name: nameTok.Lexeme, depth: -1})
}

// markInitialized flips the most recently declared local to the current
// scope depth, making it readable. The initializer's own pushed value is
// already sitting at that local's slot — no opcode is emitted.
func (c *Compiler) markInitialized() {
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}

// resolveLocal scans backward for a local named nameTok.Lexeme. Finding
// one still uninitialized (reading a variable from inside its own
// initializer) is reported here rather than left to the caller.
func (c *Compiler) resolveLocal(nameTok token.Token) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.name != nameTok.Lexeme {
			continue
		}
		if l.depth == -1 {
			c.errorAt(nameTok, "can't read local variable in its own initializer.")
		}
		return i, true
	}
	return 0, false
}

// --- bytecode emission -----------------------------------------------------

func (c *Compiler) emitByte(b byte) {
	c.chunk.Write(b, c.previous.Line)
}

func (c *Compiler) emitOp(op chunk.OpCode) {
	c.emitByte(byte(op))
}

func (c *Compiler) emitOpByte(op chunk.OpCode, operand byte) {
	c.emitByte(byte(op))
	c.emitByte(operand)
}

func (c *Compiler) emitConstant(v value.Value) {
	idx, err := c.chunk.AddConstant(v)
	if err != nil {
		c.errorAt(c.previous, fmt.Sprintf("too many constants in one chunk: %s", err))
		return
	}
	c.emitOpByte(chunk.OpConstant, byte(idx))
}

// identifierConstant interns nameTok's lexeme as a Value.String and adds
// it to the constant pool, for DefineGlobal/GetGlobal/SetGlobal operands.
func (c *Compiler) identifierConstant(nameTok token.Token) byte {
	idx, err := c.chunk.AddConstant(value.Str(c.heap.Intern(nameTok.Lexeme)))
	if err != nil {
		c.errorAt(nameTok, fmt.Sprintf("too many constants in one chunk: %s", err))
		return 0
	}
	return byte(idx)
}

// emitJump writes a jump opcode followed by a two-byte placeholder
// operand and returns the position of the placeholder's first byte, to be
// passed to patchJump once the jump target is known.
func (c *Compiler) emitJump(op chunk.OpCode) int {
	c.emitOp(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return c.chunk.Len() - 2
}

// patchJump overwrites the placeholder operand at operandPos with the
// distance from just past it to the current end of the chunk.
func (c *Compiler) patchJump(operandPos int) {
	jump := c.chunk.Len() - operandPos - 2
	if jump > 0xFFFF {
		c.errorAt(c.previous, "too much code to jump over.")
		return
	}
	c.chunk.Code[operandPos] = byte(jump >> 8)
	c.chunk.Code[operandPos+1] = byte(jump)
}

// emitLoop emits OpLoop with an operand that sends the VM back to
// loopStart, computed immediately since (unlike a forward jump) the
// target is already known.
func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(chunk.OpLoop)

	offset := c.chunk.Len() - loopStart + 2
	if offset > 0xFFFF {
		c.errorAt(c.previous, "loop body too large.")
		return
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}
