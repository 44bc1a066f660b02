package value

import "testing"

func TestInternDeduplicates(t *testing.T) {
	h := NewHeap()
	a := h.Intern("foo")
	b := h.Intern("foo")
	c := h.Intern("bar")

	if a != b {
		t.Error("expected identical content to intern to the same handle")
	}
	if a == c {
		t.Error("expected different content to intern to different handles")
	}
	if h.Len() != 2 {
		t.Errorf("expected 2 distinct interned strings, got %d", h.Len())
	}
}

func TestConcatSharesStorageWithPriorLiteral(t *testing.T) {
	h := NewHeap()
	ab := h.Intern("ab")
	cd := h.Intern("cd")
	abcd := h.Intern("abcd")

	concatenated := h.Concat(ab, cd)
	if concatenated != abcd {
		t.Error("expected \"ab\"+\"cd\" to share storage with the prior \"abcd\" literal")
	}
}

func TestCloseReleasesAllocations(t *testing.T) {
	h := NewHeap()
	h.Intern("a")
	h.Intern("b")
	h.Close()

	if h.Len() != 0 {
		t.Errorf("expected Len() == 0 after Close, got %d", h.Len())
	}
}
