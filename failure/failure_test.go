package failure

import (
	"testing"

	"clearinghouse/custody"
	"clearinghouse/domain"
)

func newHandler(maxFailedCycles int) *Handler {
	return New(maxFailedCycles, custody.NewCustodian(custody.NewInMemoryLedger()))
}

func TestFailDvPPairIncrementsBothSides(t *testing.T) {
	h := newHandler(3)
	asset := domain.AssetRef{Collection: "c", TokenID: "1"}
	sell := domain.NewSellOrder(1, "alice", asset, "bob")
	buy := domain.NewBuyOrder(2, "bob", asset, "USDC", 100, "alice")
	sell.Matched, sell.MatchedWith = true, buy.ID
	buy.Matched, buy.MatchedWith = true, sell.ID

	if err := h.FailDvPPair(buy, sell); err != nil {
		t.Fatalf("FailDvPPair: %v", err)
	}
	if sell.FailedCycles != 1 || buy.FailedCycles != 1 {
		t.Fatalf("expected both sides incremented once, got sell=%d buy=%d", sell.FailedCycles, buy.FailedCycles)
	}
	if !sell.Active || !buy.Active {
		t.Fatal("neither side should expire before max failed cycles")
	}
}

func TestFailDvPPairSeversOnlyExpiredSide(t *testing.T) {
	h := newHandler(2)
	asset := domain.AssetRef{Collection: "c", TokenID: "1"}
	sell := domain.NewSellOrder(1, "alice", asset, "bob")
	buy := domain.NewBuyOrder(2, "bob", asset, "USDC", 100, "alice")
	sell.Matched, sell.MatchedWith = true, buy.ID
	buy.Matched, buy.MatchedWith = true, sell.ID
	sell.FailedCycles = 2 // already at max entering this call: expires now
	buy.FailedCycles = 0  // fresh

	if err := h.FailDvPPair(buy, sell); err != nil {
		t.Fatalf("FailDvPPair: %v", err)
	}
	if sell.Active {
		t.Fatal("sell should have expired (FailedCycles already at max on entry)")
	}
	if !buy.Active {
		t.Fatal("buy should remain active, only unmatched")
	}
	if buy.Matched || buy.MatchedWith != 0 {
		t.Fatalf("surviving peer should be unmatched, got matched=%v with=%d", buy.Matched, buy.MatchedWith)
	}
	if buy.FailedCycles != 0 {
		t.Fatalf("surviving peer's FailedCycles should reset to 0, got %d", buy.FailedCycles)
	}
}

// TestFailDvPPairExpiresOneCycleAfterReachingMax reproduces spec.md §8
// scenario S2's exact timing for MAX=2: failed_cycles reaches 1 after the
// first failed cycle, 2 after the second, and the order only expires on
// the third failed cycle — the first call where FailedCycles is already
// at max on entry.
func TestFailDvPPairExpiresOneCycleAfterReachingMax(t *testing.T) {
	h := newHandler(2)
	asset := domain.AssetRef{Collection: "c", TokenID: "1"}
	sell := domain.NewSellOrder(1, "alice", asset, "bob")
	buy := domain.NewBuyOrder(2, "bob", asset, "USDC", 100, "alice")
	sell.Matched, sell.MatchedWith = true, buy.ID
	buy.Matched, buy.MatchedWith = true, sell.ID

	if err := h.FailDvPPair(buy, sell); err != nil { // cycle 1
		t.Fatalf("FailDvPPair (cycle 1): %v", err)
	}
	if !sell.Active || sell.FailedCycles != 1 {
		t.Fatalf("after cycle 1: active=%v failedCycles=%d, want active=true failedCycles=1", sell.Active, sell.FailedCycles)
	}

	if err := h.FailDvPPair(buy, sell); err != nil { // cycle 2
		t.Fatalf("FailDvPPair (cycle 2): %v", err)
	}
	if !sell.Active || sell.FailedCycles != 2 {
		t.Fatalf("after cycle 2: active=%v failedCycles=%d, want active=true failedCycles=2", sell.Active, sell.FailedCycles)
	}

	if err := h.FailDvPPair(buy, sell); err != nil { // cycle 3: expires
		t.Fatalf("FailDvPPair (cycle 3): %v", err)
	}
	if sell.Active {
		t.Fatal("sell should have expired on cycle 3, per spec.md S2")
	}
	if sell.FailedCycles != 2 {
		t.Fatalf("expiring call must not increment further, got %d", sell.FailedCycles)
	}
}

func TestFailDvPPairDoesNotDoubleIncrementSurvivor(t *testing.T) {
	// Regression guard: calling FailDvPPair once for a pair must not leave
	// the surviving side's counter corrupted by severance logic running
	// against a state the other half of the call already mutated.
	h := newHandler(5)
	asset := domain.AssetRef{Collection: "c", TokenID: "1"}
	sell := domain.NewSellOrder(1, "alice", asset, "bob")
	buy := domain.NewBuyOrder(2, "bob", asset, "USDC", 100, "alice")
	sell.Matched, sell.MatchedWith = true, buy.ID
	buy.Matched, buy.MatchedWith = true, sell.ID

	if err := h.FailDvPPair(buy, sell); err != nil {
		t.Fatalf("FailDvPPair: %v", err)
	}
	if sell.FailedCycles != 1 || buy.FailedCycles != 1 {
		t.Fatalf("expected exactly one increment per side, got sell=%d buy=%d", sell.FailedCycles, buy.FailedCycles)
	}
}

func TestFailPaymentExpiresOnSecondFailedCycleAtMaxOne(t *testing.T) {
	h := newHandler(1)
	p := domain.NewPaymentRequest(1, "alice", "bob", 100, "USDC")

	h.FailPayment(p) // cycle 1: reaches max, stays active
	if !p.Active || p.FailedCycles != 1 {
		t.Fatalf("after cycle 1: active=%v failedCycles=%d, want active=true failedCycles=1", p.Active, p.FailedCycles)
	}

	h.FailPayment(p) // cycle 2: already at max on entry, expires
	if p.Active {
		t.Fatal("payment should have expired entering a cycle with FailedCycles already at max")
	}
	if p.FailedCycles != 1 {
		t.Fatalf("expiring call must not increment further, got %d", p.FailedCycles)
	}
}

func TestFailSwapPairExpiresOnSecondFailedCycleAtMaxOne(t *testing.T) {
	h := newHandler(1)
	a := domain.NewSwapOrder(1, "alice", "USDC", 100, "USDT", 100)
	b := domain.NewSwapOrder(2, "bob", "USDT", 100, "USDC", 100)
	a.Matched, a.MatchedWith = true, b.ID
	b.Matched, b.MatchedWith = true, a.ID

	h.FailSwapPair(a, b) // cycle 1: reaches max, stays matched
	if !a.Matched || !b.Matched || a.FailedCycles != 1 || b.FailedCycles != 1 {
		t.Fatalf("after cycle 1: a=%+v b=%+v, want both matched with FailedCycles=1", a, b)
	}

	h.FailSwapPair(a, b) // cycle 2: already at max on entry, severs
	if a.Matched || b.Matched || a.MatchedWith != 0 || b.MatchedWith != 0 {
		t.Fatalf("both swap sides should be severed on joint expiry: a=%+v b=%+v", a, b)
	}
	if a.FailedCycles != 0 || b.FailedCycles != 0 {
		t.Fatalf("FailedCycles should reset to 0 on severance, got a=%d b=%d", a.FailedCycles, b.FailedCycles)
	}
}
