package chunk

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// DisassembleChunk renders every instruction in c as human-readable text,
// prefixed with a "== name ==" banner, for debug-time inspection by the
// CLI's disassemble subcommand.
func DisassembleChunk(c *Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)

	offset := 0
	for offset < len(c.Code) {
		var line string
		offset, line = DisassembleInstruction(c, offset)
		b.WriteString(line)
	}
	return b.String()
}

// DisassembleInstruction decodes the single instruction starting at
// offset and returns the offset of the following instruction along with
// its text, formatted as "offset line OP_NAME [operand ['value']]\n".
// Jump instructions are rendered as "OP_NAME offset -> target\n" instead.
func DisassembleInstruction(c *Chunk, offset int) (int, string) {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d ", offset)

	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		b.WriteString("   | ")
	} else {
		fmt.Fprintf(&b, "%4d ", c.Lines[offset])
	}

	op := OpCode(c.Code[offset])
	def, err := Get(op)
	if err != nil {
		fmt.Fprintf(&b, "unknown opcode %d\n", op)
		return offset + 1, b.String()
	}

	switch {
	case op == OpJumpIfFalse || op == OpJump:
		return jumpInstruction(&b, def.Name, c, offset, 1)
	case op == OpLoop:
		return jumpInstruction(&b, def.Name, c, offset, -1)
	case len(def.OperandWidths) == 0:
		return simpleInstruction(&b, def.Name, offset)
	case isGlobalOp(op) || op == OpConstant:
		return constantInstruction(&b, def.Name, c, offset)
	case op == OpGetLocal || op == OpSetLocal:
		return byteInstruction(&b, def.Name, c, offset)
	default:
		fmt.Fprintf(&b, "%s unsupported operand layout\n", def.Name)
		return offset + 1, b.String()
	}
}

func isGlobalOp(op OpCode) bool {
	return op == OpDefineGlobal || op == OpGetGlobal || op == OpSetGlobal
}

func simpleInstruction(b *strings.Builder, name string, offset int) (int, string) {
	fmt.Fprintf(b, "%s\n", name)
	return offset + 1, b.String()
}

func constantInstruction(b *strings.Builder, name string, c *Chunk, offset int) (int, string) {
	idx := c.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d '%s'\n", name, idx, c.Constants[idx].String())
	return offset + 2, b.String()
}

func byteInstruction(b *strings.Builder, name string, c *Chunk, offset int) (int, string) {
	slot := c.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d\n", name, slot)
	return offset + 2, b.String()
}

func jumpInstruction(b *strings.Builder, name string, c *Chunk, offset int, sign int) (int, string) {
	jump := binary.BigEndian.Uint16(c.Code[offset+1 : offset+3])
	target := offset + 3 + sign*int(jump)
	fmt.Fprintf(b, "%-16s %4d -> %d\n", name, offset, target)
	return offset + 3, b.String()
}
