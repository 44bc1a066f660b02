package vm

import (
	"fmt"

	"github.com/informatter/loxvm/compiler"
)

// RuntimeError reports a failure raised while executing a chunk, at the
// source line the offending instruction was compiled from.
type RuntimeError struct {
	Msg  string
	Line int
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("[line %d] error: %s", e.Line, e.Msg)
}

// ExitCode maps an error returned from Interpret to the process exit code
// the CLI should use: 0 on success, 65 on a compile-time failure, 70 on a
// runtime failure.
func ExitCode(err error) int {
	switch err.(type) {
	case nil:
		return 0
	case compiler.CompilerError:
		return 65
	case RuntimeError:
		return 70
	default:
		return 70
	}
}
