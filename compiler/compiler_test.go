package compiler

import (
	"strings"
	"testing"

	"github.com/informatter/loxvm/chunk"
	"github.com/informatter/loxvm/value"
)

func compile(t *testing.T, source string) *chunk.Chunk {
	t.Helper()
	c, err := Compile(source, value.NewHeap())
	if err != nil {
		t.Fatalf("Compile(%q) unexpected error: %v", source, err)
	}
	return c
}

func compileErr(t *testing.T, source string) error {
	t.Helper()
	_, err := Compile(source, value.NewHeap())
	if err == nil {
		t.Fatalf("Compile(%q) expected an error, got none", source)
	}
	return err
}

func TestEmptyProgramIsJustReturn(t *testing.T) {
	c := compile(t, "")
	if len(c.Code) != 1 || chunk.OpCode(c.Code[0]) != chunk.OpReturn {
		t.Errorf("expected a single OP_RETURN, got code %v", c.Code)
	}
}

func TestEmptyBlockEmitsNoPops(t *testing.T) {
	c := compile(t, "{}")
	for _, b := range c.Code {
		if chunk.OpCode(b) == chunk.OpPop {
			t.Errorf("empty block should emit no OP_POP, got code %v", c.Code)
		}
	}
}

func TestArithmeticPrecedence(t *testing.T) {
	c := compile(t, "print 1 + 2 * 3;")
	dis := chunk.DisassembleChunk(c, "test")
	if !strings.Contains(dis, "OP_MULTIPLY") || !strings.Contains(dis, "OP_ADD") || !strings.Contains(dis, "OP_PRINT") {
		t.Errorf("expected multiply, add and print in output:\n%s", dis)
	}
}

func TestStringConcatenationConstantsAreInterned(t *testing.T) {
	c := compile(t, `var a = "hi"; var b = "!"; print a + b;`)
	dis := chunk.DisassembleChunk(c, "test")
	if !strings.Contains(dis, "OP_DEFINE_GLOBAL") || !strings.Contains(dis, "OP_ADD") {
		t.Errorf("expected global definitions and add:\n%s", dis)
	}

	seen := map[string]*value.HeapString{}
	for _, k := range c.Constants {
		if !k.IsString() {
			continue
		}
		if prev, ok := seen[k.Str.Content]; ok && prev != k.Str {
			t.Errorf("string constant %q was not interned to a single handle", k.Str.Content)
		}
		seen[k.Str.Content] = k.Str
	}
}

func TestNestedBlockShadowing(t *testing.T) {
	c := compile(t, "{ var a = 1; { var a = 2; print a; } print a; }")
	dis := chunk.DisassembleChunk(c, "test")
	if strings.Count(dis, "OP_GET_LOCAL") != 2 {
		t.Errorf("expected two local reads:\n%s", dis)
	}
	if strings.Count(dis, "OP_POP") != 2 {
		t.Errorf("expected two pops for the two locals going out of scope:\n%s", dis)
	}
}

func TestIfElseEmitsJumps(t *testing.T) {
	c := compile(t, `var a = 3; if (a > 2) print "big"; else print "small";`)
	dis := chunk.DisassembleChunk(c, "test")
	if !strings.Contains(dis, "OP_JUMP_IF_FALSE") || !strings.Contains(dis, "OP_JUMP ") {
		t.Errorf("expected both a conditional and unconditional jump:\n%s", dis)
	}
}

func TestWhileEmitsLoop(t *testing.T) {
	c := compile(t, `var i = 0; while (i < 3) { print i; i = i + 1; }`)
	dis := chunk.DisassembleChunk(c, "test")
	if !strings.Contains(dis, "OP_LOOP") {
		t.Errorf("expected a loop instruction:\n%s", dis)
	}
}

func TestSelfReferencingInitializerIsAnError(t *testing.T) {
	err := compileErr(t, "{ var a = a; }")
	want := "can't read local variable in its own initializer."
	if ce, ok := err.(CompilerError); !ok || ce.Msg != want {
		t.Errorf("got error %v, want Msg %q", err, want)
	}
}

func TestInvalidAssignmentTarget(t *testing.T) {
	err := compileErr(t, "2 + 2 = 42;")
	want := "invalid assignment target."
	if ce, ok := err.(CompilerError); !ok || ce.Msg != want {
		t.Errorf("got error %v, want Msg %q", err, want)
	}
}

func TestDuplicateLocalDeclaration(t *testing.T) {
	err := compileErr(t, "{ var a = 1; var a = 2; }")
	want := "already a variable with this name in this scope."
	if ce, ok := err.(CompilerError); !ok || ce.Msg != want {
		t.Errorf("got error %v, want Msg %q", err, want)
	}
}

func TestMissingSemicolonAfterExpression(t *testing.T) {
	err := compileErr(t, "1 + 2")
	want := "expect ';' after expression."
	if ce, ok := err.(CompilerError); !ok || ce.Msg != want {
		t.Errorf("got error %v, want Msg %q", err, want)
	}
}

func TestMissingClosingParen(t *testing.T) {
	err := compileErr(t, "print (1 + 2;")
	want := "expect ')' after expression."
	if ce, ok := err.(CompilerError); !ok || ce.Msg != want {
		t.Errorf("got error %v, want Msg %q", err, want)
	}
}

func TestExpectExpression(t *testing.T) {
	err := compileErr(t, "var a = ;")
	want := "expect expression."
	if ce, ok := err.(CompilerError); !ok || ce.Msg != want {
		t.Errorf("got error %v, want Msg %q", err, want)
	}
}

func TestFirstErrorWinsAfterSynchronize(t *testing.T) {
	err := compileErr(t, "1 + ; 2 + ;")
	ce, ok := err.(CompilerError)
	if !ok {
		t.Fatalf("expected a CompilerError, got %v", err)
	}
	if ce.Line != 1 {
		t.Errorf("expected the first error's line, got %d", ce.Line)
	}
}
