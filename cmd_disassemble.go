package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/informatter/loxvm/chunk"
	"github.com/informatter/loxvm/compiler"
	"github.com/informatter/loxvm/value"
)

// disassembleCmd implements the "disassemble" subcommand: compile a file
// and print its bytecode listing without executing it. Adapted from the
// teacher's emit-bytecode command, minus the AST-dump and hex-encoded
// bytecode file outputs that don't apply to a chunk-based compiler.
type disassembleCmd struct{}

func (*disassembleCmd) Name() string { return "disassemble" }
func (*disassembleCmd) Synopsis() string {
	return "compile a lox source file and print its disassembled bytecode"
}
func (*disassembleCmd) Usage() string {
	return `disassemble <file.lox>:
  Compile a lox source file and print its disassembled bytecode.
`
}

func (*disassembleCmd) SetFlags(f *flag.FlagSet) {}

func (d *disassembleCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "disassemble: no source file provided")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "disassemble: failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	heap := value.NewHeap()
	defer heap.Close()

	c, err := compiler.Compile(string(data), heap)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitStatus(65)
	}

	fmt.Print(chunk.DisassembleChunk(c, args[0]))
	return subcommands.ExitSuccess
}
