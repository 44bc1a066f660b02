package value

// HeapString is an immutable, heap-owned UTF-8 string. The only way to
// obtain one is through Heap.Intern, which guarantees at most one
// HeapString exists per distinct content — so pointer equality between two
// handles is equivalent to content equality.
type HeapString struct {
	Content string
}

// Heap owns every string object allocated during compilation and
// execution. Its lifetime is tied to the owning VM: created alongside it,
// torn down explicitly via Close so every allocation is released on all
// exit paths, including error. This replaces the teacher's process-wide
// mutable interner singleton with VM-scoped state, which makes multiple
// concurrent VMs trivially safe.
type Heap struct {
	strings   map[string]*HeapString
	allocated []*HeapString
}

// NewHeap constructs an empty Heap.
func NewHeap() *Heap {
	return &Heap{
		strings: make(map[string]*HeapString),
	}
}

// Intern returns the unique HeapString handle for content, allocating one
// on first use and returning the existing handle on every subsequent call
// with byte-equal content.
func (h *Heap) Intern(content string) *HeapString {
	if existing, ok := h.strings[content]; ok {
		return existing
	}
	handle := &HeapString{Content: content}
	h.strings[content] = handle
	h.allocated = append(h.allocated, handle)
	return handle
}

// Concat interns the concatenation of two strings, routing it through the
// same table so "ab"+"cd" shares storage with any prior "abcd".
func (h *Heap) Concat(left, right *HeapString) *HeapString {
	return h.Intern(left.Content + right.Content)
}

// Close releases every allocation this Heap owns. After Close, the Heap
// must not be used again.
func (h *Heap) Close() {
	h.allocated = nil
	h.strings = nil
}

// Len reports how many distinct strings are currently interned. Exposed
// for tests and diagnostics.
func (h *Heap) Len() int {
	return len(h.allocated)
}
