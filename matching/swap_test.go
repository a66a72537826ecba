package matching

import (
	"testing"

	"clearinghouse/registry"
)

func TestMatchSwapsInverts(t *testing.T) {
	r := registry.New()
	m := New(r)

	aID, _ := r.SubmitSwap("alice", "USDC", 100, "USDT", 100)
	bID, _ := r.SubmitSwap("bob", "USDT", 100, "USDC", 100)

	if n := m.MatchSwaps(); n != 1 {
		t.Fatalf("MatchSwaps() = %d, want 1", n)
	}

	a, _ := r.Swap(aID)
	b, _ := r.Swap(bID)
	if !a.Matched || a.MatchedWith != bID {
		t.Fatalf("a not matched to b: %+v", a)
	}
	if !b.Matched || b.MatchedWith != aID {
		t.Fatalf("b not matched to a: %+v", b)
	}
}

func TestMatchSwapsRejectsSameMaker(t *testing.T) {
	r := registry.New()
	m := New(r)
	r.SubmitSwap("alice", "USDC", 100, "USDT", 100)
	r.SubmitSwap("alice", "USDT", 100, "USDC", 100)

	if n := m.MatchSwaps(); n != 0 {
		t.Fatalf("MatchSwaps() = %d, want 0 for same-maker swaps", n)
	}
}

func TestMatchSwapsRejectsAmountMismatch(t *testing.T) {
	r := registry.New()
	m := New(r)
	r.SubmitSwap("alice", "USDC", 100, "USDT", 100)
	r.SubmitSwap("bob", "USDT", 50, "USDC", 100)

	if n := m.MatchSwaps(); n != 0 {
		t.Fatalf("MatchSwaps() = %d, want 0 for amount mismatch", n)
	}
}
