// Package vm implements the stack-based bytecode interpreter: it fetches
// opcodes from a compiled chunk.Chunk, decodes their operands, and
// mutates an operand stack and a globals table. This replaces the
// teacher's tree-walking Run loop (which dispatched on compiler.Opcode
// values read from a flat []any constants pool) with a typed
// value.Value stack and the fuller opcode set the bytecode core needs.
package vm

import (
	"fmt"

	"github.com/informatter/loxvm/chunk"
	"github.com/informatter/loxvm/compiler"
	"github.com/informatter/loxvm/value"
)

// Options toggles the VM's two debug-time behaviors: printing the
// disassembly of every compiled chunk before running it, and tracing
// every instruction's stack state as it executes.
type Options struct {
	TraceExecution bool
	PrintCode      bool
}

// VM holds everything needed to run one or more chunks in sequence: the
// current chunk and instruction pointer, the operand stack, the globals
// table, and the heap that owns every string either side allocates.
// Construct with New and release with Close once no further Interpret
// calls will be made.
type VM struct {
	chunkRef *chunk.Chunk
	ip       int

	stack      Stack
	lastPopped value.Value

	globals map[*value.HeapString]value.Value
	heap    *value.Heap

	opts Options
}

// New constructs a VM with its own heap and an empty globals table.
func New(opts Options) *VM {
	return &VM{
		globals: make(map[*value.HeapString]value.Value),
		heap:    value.NewHeap(),
		opts:    opts,
	}
}

// Close releases every string this VM's heap has interned. The VM must
// not be used again afterward.
func (vm *VM) Close() {
	vm.heap.Close()
}

// Interpret compiles source into a chunk and runs it to completion,
// returning the value of the last popped expression (Nil for an empty
// program) or the first error encountered. A compile error is returned
// as a compiler.CompilerError; a failure during execution is returned as
// a RuntimeError.
func (vm *VM) Interpret(source string) (value.Value, error) {
	c, err := compiler.Compile(source, vm.heap)
	if err != nil {
		return value.Nil, err
	}

	if vm.opts.PrintCode {
		fmt.Print(chunk.DisassembleChunk(c, "script"))
	}

	vm.chunkRef = c
	vm.ip = 0
	vm.lastPopped = value.Nil
	vm.stack.Reset()

	return vm.run()
}

func (vm *VM) run() (value.Value, error) {
	for {
		if vm.opts.TraceExecution {
			vm.traceInstruction()
		}

		op := chunk.OpCode(vm.readByte())
		switch op {
		case chunk.OpReturn:
			return vm.lastPopped, nil

		case chunk.OpConstant:
			vm.push(vm.chunkRef.Constants[vm.readByte()])
		case chunk.OpNil:
			vm.push(value.Nil)
		case chunk.OpTrue:
			vm.push(value.Bool(true))
		case chunk.OpFalse:
			vm.push(value.Bool(false))

		case chunk.OpPop:
			vm.pop()

		case chunk.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(a.Equal(b)))
		case chunk.OpGreater:
			if err := vm.compare(op); err != nil {
				return value.Nil, err
			}
		case chunk.OpLess:
			if err := vm.compare(op); err != nil {
				return value.Nil, err
			}

		case chunk.OpAdd:
			if err := vm.add(); err != nil {
				return value.Nil, err
			}
		case chunk.OpSubtract, chunk.OpMultiply, chunk.OpDivide:
			if err := vm.arithmetic(op); err != nil {
				return value.Nil, err
			}

		case chunk.OpNegate:
			v := vm.pop()
			if !v.IsNumber() {
				return value.Nil, vm.runtimeError("operand must be a number.")
			}
			vm.push(value.Num(-v.Number))

		case chunk.OpNot:
			vm.push(value.Bool(vm.pop().IsFalsey()))

		case chunk.OpPrint:
			fmt.Println(vm.pop().String())

		case chunk.OpDefineGlobal:
			name := vm.chunkRef.Constants[vm.readByte()].Str
			vm.globals[name] = vm.pop()

		case chunk.OpGetGlobal:
			name := vm.chunkRef.Constants[vm.readByte()].Str
			v, ok := vm.globals[name]
			if !ok {
				return value.Nil, vm.runtimeError(fmt.Sprintf("undefined variable '%s'.", name.Content))
			}
			vm.push(v)

		case chunk.OpSetGlobal:
			name := vm.chunkRef.Constants[vm.readByte()].Str
			if _, ok := vm.globals[name]; !ok {
				return value.Nil, vm.runtimeError(fmt.Sprintf("undefined variable '%s'.", name.Content))
			}
			top, _ := vm.stack.Peek()
			vm.globals[name] = top

		case chunk.OpGetLocal:
			vm.push(vm.stack.Get(int(vm.readByte())))
		case chunk.OpSetLocal:
			top, _ := vm.stack.Peek()
			vm.stack.Set(int(vm.readByte()), top)

		case chunk.OpJumpIfFalse:
			offset := vm.readUint16()
			top, _ := vm.stack.Peek()
			if top.IsFalsey() {
				vm.ip += int(offset)
			}
		case chunk.OpJump:
			vm.ip += int(vm.readUint16())
		case chunk.OpLoop:
			vm.ip -= int(vm.readUint16())

		default:
			return value.Nil, vm.runtimeError(fmt.Sprintf("unknown opcode %d.", op))
		}
	}
}

func (vm *VM) push(v value.Value) {
	vm.stack.Push(v)
}

// pop removes the top of the stack and records it as the VM's
// last-popped value, so OpReturn at the top level can surface it.
func (vm *VM) pop() value.Value {
	v, ok := vm.stack.Pop()
	if !ok {
		return value.Nil
	}
	vm.lastPopped = v
	return v
}

func (vm *VM) arithmetic(op chunk.OpCode) error {
	b, a := vm.pop(), vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeError("operand must be a number.")
	}

	var result float64
	switch op {
	case chunk.OpSubtract:
		result = a.Number - b.Number
	case chunk.OpMultiply:
		result = a.Number * b.Number
	case chunk.OpDivide:
		result = a.Number / b.Number
	}
	vm.push(value.Num(result))
	return nil
}

func (vm *VM) compare(op chunk.OpCode) error {
	b, a := vm.pop(), vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeError("operand must be a number.")
	}

	var result bool
	if op == chunk.OpGreater {
		result = a.Number > b.Number
	} else {
		result = a.Number < b.Number
	}
	vm.push(value.Bool(result))
	return nil
}

// add handles the two legal operand combinations: Number+Number yields a
// sum, String+String yields an interned concatenation. Anything else,
// including a Number and a String, is a runtime error.
func (vm *VM) add() error {
	b, a := vm.pop(), vm.pop()
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.push(value.Num(a.Number + b.Number))
	case a.IsString() && b.IsString():
		vm.push(value.Str(vm.heap.Concat(a.Str, b.Str)))
	default:
		return vm.runtimeError("operands must be two numbers of two strings.")
	}
	return nil
}

func (vm *VM) readByte() byte {
	b := vm.chunkRef.Code[vm.ip]
	vm.ip++
	return b
}

func (vm *VM) readUint16() uint16 {
	hi := vm.readByte()
	lo := vm.readByte()
	return uint16(hi)<<8 | uint16(lo)
}

// runtimeError resets the operand stack and builds a RuntimeError
// attributed to the line of the instruction that just finished reading
// its operands.
func (vm *VM) runtimeError(msg string) error {
	line := vm.chunkRef.Lines[vm.ip-1]
	vm.stack.Reset()
	return RuntimeError{Msg: msg, Line: line}
}

// traceInstruction prints the current stack contents followed by the
// disassembly of the instruction about to execute. There is no
// structured logger in this domain (see the module's design notes); this
// mirrors clox's debug trace, which is plain stdout output gated by a
// flag, not a logging concern.
func (vm *VM) traceInstruction() {
	fmt.Print("          ")
	for _, v := range vm.stack {
		fmt.Printf("[ %s ]", v.String())
	}
	fmt.Println()

	_, text := chunk.DisassembleInstruction(vm.chunkRef, vm.ip)
	fmt.Print(text)
}
