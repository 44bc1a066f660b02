package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"github.com/informatter/loxvm/lexer"
	"github.com/informatter/loxvm/token"
	"github.com/informatter/loxvm/vm"
)

// replCmd implements the "repl" subcommand: an interactive line-at-a-time
// session, one shared VM for the process lifetime so globals persist
// across entries. Line editing and history are provided by readline,
// which the teacher's go.mod declares but never actually wires up — this
// is where it earns its keep.
type replCmd struct {
	traceExecution bool
	printCode      bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "start an interactive lox session" }
func (*replCmd) Usage() string {
	return `repl [--trace-execution] [--print-code]:
  Start an interactive lox REPL.
`
}

func (r *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.traceExecution, "trace-execution", false, "trace every instruction and stack state as it executes")
	f.BoolVar(&r.printCode, "print-code", false, "print the disassembled chunk before executing it")
}

func (r *replCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "repl: failed to start line editor: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	fmt.Println("lox REPL — type 'exit' or press Ctrl-D to quit")

	m := vm.New(vm.Options{TraceExecution: r.traceExecution, PrintCode: r.printCode})
	defer m.Close()

	var buf strings.Builder
	for {
		if buf.Len() == 0 {
			rl.SetPrompt("> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			buf.Reset()
			continue
		}
		if err == io.EOF {
			break
		}

		if buf.Len() == 0 && strings.TrimSpace(line) == "exit" {
			break
		}

		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(line)

		source := buf.String()
		if !isInputReady(source) {
			continue
		}

		if _, err := m.Interpret(source); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		buf.Reset()
	}

	return subcommands.ExitSuccess
}

// isInputReady reports whether source is a complete enough program to
// attempt compiling: braces balance and the last token isn't one that
// obviously expects a continuation (an operator, a dangling keyword, an
// open paren). This lets the REPL accept a multi-line if/while/block
// without compiling (and failing on) each partial line first.
func isInputReady(source string) bool {
	sc := lexer.New(source)

	braceBalance := 0
	hasToken := false
	var last token.Token

	for {
		tok, err := sc.ScanToken()
		if err != nil {
			// An unterminated string, most likely: give the user another line.
			return false
		}
		if tok.Kind == token.Eof {
			break
		}
		hasToken = true
		if tok.Kind == token.LeftBrace {
			braceBalance++
		}
		if tok.Kind == token.RightBrace {
			braceBalance--
		}
		last = tok
	}

	if !hasToken {
		return true
	}
	if braceBalance > 0 {
		return false
	}

	switch last.Kind {
	case token.Equal, token.Plus, token.Minus, token.Star, token.Slash, token.Bang,
		token.EqualEqual, token.BangEqual, token.Less, token.LessEqual, token.Greater, token.GreaterEqual,
		token.Comma, token.LeftParen, token.LeftBrace,
		token.If, token.Else, token.While, token.Var, token.Print, token.And, token.Or:
		return false
	}
	return true
}
