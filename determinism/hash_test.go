package determinism

import "testing"

func TestHasherIsDeterministicForSameInputs(t *testing.T) {
	a := New()
	a.Uint64(42)
	a.Float64(3.14)
	a.Bytes([]byte("soul-1"))

	b := New()
	b.Uint64(42)
	b.Float64(3.14)
	b.Bytes([]byte("soul-1"))

	if a.Sum() != b.Sum() {
		t.Fatalf("expected identical digests for identical input sequences")
	}
}

func TestHasherDiffersForDifferentOrder(t *testing.T) {
	a := New()
	a.Uint64(1)
	a.Uint64(2)

	b := New()
	b.Uint64(2)
	b.Uint64(1)

	if a.Sum() == b.Sum() {
		t.Fatalf("expected different digests for different field order")
	}
}

func TestHasherResetClearsAccumulatedState(t *testing.T) {
	h := New()
	h.Uint64(7)
	withData := h.Sum()
	h.Reset()
	empty := h.Sum()
	if withData == empty {
		t.Fatalf("expected reset to change the digest")
	}

	h2 := New()
	if h2.Sum() != empty {
		t.Fatalf("expected reset hasher to match a fresh hasher")
	}
}
