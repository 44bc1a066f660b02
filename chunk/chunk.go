// Package chunk defines the compiled bytecode container the compiler
// writes into and the VM reads from: a byte array of opcodes and
// operands, a constant pool, and a parallel per-byte line table.
package chunk

import (
	"fmt"

	"github.com/informatter/loxvm/value"
)

// OpCode identifies a single VM instruction. Each constant below is the
// single byte written into a Chunk's code stream.
type OpCode byte

const (
	OpReturn OpCode = iota
	OpConstant
	OpNil
	OpTrue
	OpFalse
	OpEqual
	OpGreater
	OpLess
	OpNegate
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpPrint
	OpPop
	OpDefineGlobal
	OpGetGlobal
	OpSetGlobal
	OpGetLocal
	OpSetLocal
	OpJumpIfFalse
	OpJump
	OpLoop
)

// Def describes an opcode's human-readable name and the byte width of
// each of its operands, in emission order.
type Def struct {
	Name          string
	OperandWidths []int
}

var definitions = map[OpCode]Def{
	OpReturn:       {"OP_RETURN", nil},
	OpConstant:     {"OP_CONSTANT", []int{1}},
	OpNil:          {"OP_NIL", nil},
	OpTrue:         {"OP_TRUE", nil},
	OpFalse:        {"OP_FALSE", nil},
	OpEqual:        {"OP_EQUAL", nil},
	OpGreater:      {"OP_GREATER", nil},
	OpLess:         {"OP_LESS", nil},
	OpNegate:       {"OP_NEGATE", nil},
	OpAdd:          {"OP_ADD", nil},
	OpSubtract:     {"OP_SUBTRACT", nil},
	OpMultiply:     {"OP_MULTIPLY", nil},
	OpDivide:       {"OP_DIVIDE", nil},
	OpNot:          {"OP_NOT", nil},
	OpPrint:        {"OP_PRINT", nil},
	OpPop:          {"OP_POP", nil},
	OpDefineGlobal: {"OP_DEFINE_GLOBAL", []int{1}},
	OpGetGlobal:    {"OP_GET_GLOBAL", []int{1}},
	OpSetGlobal:    {"OP_SET_GLOBAL", []int{1}},
	OpGetLocal:     {"OP_GET_LOCAL", []int{1}},
	OpSetLocal:     {"OP_SET_LOCAL", []int{1}},
	OpJumpIfFalse:  {"OP_JUMP_IF_FALSE", []int{2}},
	OpJump:         {"OP_JUMP", []int{2}},
	OpLoop:         {"OP_LOOP", []int{2}},
}

// Get looks up an opcode's definition, returning an error for a byte that
// names no opcode. The disassembler renders such a byte as
// "unknown opcode N" and continues with the next byte.
func Get(op OpCode) (Def, error) {
	def, ok := definitions[op]
	if !ok {
		return Def{}, fmt.Errorf("chunk: opcode %d undefined", op)
	}
	return def, nil
}

// MaxConstants is the number of constant-pool slots a single u8 operand
// can address.
const MaxConstants = 256

// Chunk is a compiled unit: a byte stream of opcodes and operands, a
// constant pool those opcodes index into, and a per-byte line table used
// to attribute runtime errors back to source lines.
//
// Invariant: len(Code) == len(Lines). Every AddConstant index referenced
// by an operand is < len(Constants).
type Chunk struct {
	Code      []byte
	Constants []value.Value
	Lines     []int
}

// New returns an empty Chunk.
func New() *Chunk {
	return &Chunk{}
}

// Write appends a single byte to the code stream, recording line as the
// source line that produced it.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends v to the constant pool and returns its index. It
// fails once the pool would exceed MaxConstants, since constant operands
// are encoded as a single byte.
func (c *Chunk) AddConstant(v value.Value) (int, error) {
	if len(c.Constants) >= MaxConstants {
		return 0, fmt.Errorf("chunk: cannot add more than %d constants to one chunk", MaxConstants)
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1, nil
}

// Len reports how many bytes are currently in the code stream. Useful for
// the compiler to record jump targets and loop start positions.
func (c *Chunk) Len() int {
	return len(c.Code)
}
