package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/informatter/loxvm/vm"
)

// runCmd implements the "run" subcommand: compile and execute one file.
type runCmd struct {
	traceExecution bool
	printCode      bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "compile and execute a lox source file" }
func (*runCmd) Usage() string {
	return `run [--trace-execution] [--print-code] <file.lox>:
  Compile and execute a lox source file.
`
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.traceExecution, "trace-execution", false, "trace every instruction and stack state as it executes")
	f.BoolVar(&r.printCode, "print-code", false, "print the disassembled chunk before executing it")
}

func (r *runCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "run: no source file provided")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	m := vm.New(vm.Options{TraceExecution: r.traceExecution, PrintCode: r.printCode})
	defer m.Close()

	if _, err := m.Interpret(string(data)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitStatus(vm.ExitCode(err))
	}
	return subcommands.ExitSuccess
}
