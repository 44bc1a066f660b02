package chunk

import (
	"testing"

	"github.com/informatter/loxvm/value"
)

func TestWriteAppendsCodeAndLine(t *testing.T) {
	c := New()
	c.Write(byte(OpReturn), 1)
	c.Write(byte(OpNil), 2)

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if c.Code[0] != byte(OpReturn) || c.Code[1] != byte(OpNil) {
		t.Errorf("unexpected code stream: %v", c.Code)
	}
	if c.Lines[0] != 1 || c.Lines[1] != 2 {
		t.Errorf("unexpected line table: %v", c.Lines)
	}
}

func TestAddConstantReturnsIndex(t *testing.T) {
	c := New()
	i0, err := c.AddConstant(value.Num(1))
	if err != nil {
		t.Fatal(err)
	}
	i1, err := c.AddConstant(value.Num(2))
	if err != nil {
		t.Fatal(err)
	}

	if i0 != 0 || i1 != 1 {
		t.Errorf("indices = %d, %d; want 0, 1", i0, i1)
	}
}

func TestAddConstantRejectsOverflow(t *testing.T) {
	c := New()
	for i := 0; i < MaxConstants; i++ {
		if _, err := c.AddConstant(value.Num(float64(i))); err != nil {
			t.Fatalf("unexpected error at constant %d: %v", i, err)
		}
	}

	if _, err := c.AddConstant(value.Num(999)); err == nil {
		t.Error("expected an error adding the 257th constant")
	}
}

func TestGetUnknownOpcode(t *testing.T) {
	if _, err := Get(OpCode(255)); err == nil {
		t.Error("expected an error looking up an undefined opcode")
	}
}

func TestGetKnownOpcodes(t *testing.T) {
	for op, def := range definitions {
		got, err := Get(op)
		if err != nil {
			t.Fatalf("Get(%v) unexpected error: %v", op, err)
		}
		if got.Name != def.Name {
			t.Errorf("Get(%v).Name = %q, want %q", op, got.Name, def.Name)
		}
	}
}
