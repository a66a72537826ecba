package cycle

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"clearinghouse/config"
	"clearinghouse/custody"
	"clearinghouse/domain"
	"clearinghouse/events"
	"clearinghouse/registry"
)

func newTestController(cfg config.Config) (*Controller, *registry.Registry, *custody.InMemoryLedger) {
	reg := registry.New()
	ledger := custody.NewInMemoryLedger()
	log := events.NewLog(zap.NewNop())
	return New(reg, ledger, cfg, log), reg, ledger
}

func TestPerformSettlementDvPHappyPath(t *testing.T) {
	cfg := config.Default()
	cfg.StakeBPS = 2000 // 20%
	c, reg, ledger := newTestController(cfg)

	asset := domain.AssetRef{Collection: "demo", TokenID: "1"}
	const price = 100
	ledger.SetBalance("bob", "USDC", price)
	ledger.SetAssetOwner(asset, "alice")

	if _, err := reg.SubmitSell("alice", asset, "bob", price); err != nil {
		t.Fatalf("SubmitSell: %v", err)
	}
	if _, err := reg.SubmitBuy("bob", asset, "USDC", price, "alice"); err != nil {
		t.Fatalf("SubmitBuy: %v", err)
	}

	result, err := c.PerformSettlement(time.Now())
	if err != nil {
		t.Fatalf("PerformSettlement: %v", err)
	}
	if !result.Completed {
		t.Fatalf("expected cycle to complete, got reason %q", result.Reason)
	}
	if len(result.Settled) != 1 || result.Settled[0].Kind != domain.RecordDvP {
		t.Fatalf("expected exactly one settled DvP record, got %+v", result.Settled)
	}
	if got := ledger.AssetOwnerOf(asset); got != "bob" {
		t.Fatalf("asset owner after settlement = %q, want bob", got)
	}
	if got := ledger.BalanceOf("alice", "USDC"); got != price {
		t.Fatalf("alice USDC balance after settlement = %d, want %d", got, price)
	}
	if got := ledger.BalanceOf("bob", "USDC"); got != 0 {
		t.Fatalf("bob USDC balance after settlement = %d, want 0", got)
	}
}

func TestPerformSettlementTooEarly(t *testing.T) {
	cfg := config.Default()
	cfg.SettlementInterval = time.Hour
	c, _, _ := newTestController(cfg)

	now := time.Now()
	if _, err := c.PerformSettlement(now); err != nil {
		t.Fatalf("first PerformSettlement: %v", err)
	}
	if _, err := c.PerformSettlement(now.Add(time.Minute)); !errors.Is(err, domain.ErrTooEarly) {
		t.Fatalf("expected ErrTooEarly, got %v", err)
	}
}

func TestPerformSettlementPaymentHappyPath(t *testing.T) {
	cfg := config.Default()
	cfg.StakeBPS = 1000 // 10%
	c, reg, ledger := newTestController(cfg)

	ledger.SetBalance("alice", "USDC", 100)
	id, err := reg.CreatePayment("alice", "bob", 100, "USDC")
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if err := reg.AcceptPayment(id, "bob", "alice", 100); err != nil {
		t.Fatalf("AcceptPayment: %v", err)
	}

	result, err := c.PerformSettlement(time.Now())
	if err != nil {
		t.Fatalf("PerformSettlement: %v", err)
	}
	if !result.Completed {
		t.Fatalf("expected cycle to complete, got reason %q", result.Reason)
	}
	if got := ledger.BalanceOf("bob", "USDC"); got != 100 {
		t.Fatalf("bob balance after settlement = %d, want 100", got)
	}
}

func TestPerformSettlementGlobalAbortRefundsAndUnlocks(t *testing.T) {
	cfg := config.Default()
	cfg.StakeBPS = 0 // isolate the abort to value collection, not stake
	c, reg, ledger := newTestController(cfg)

	asset := domain.AssetRef{Collection: "demo", TokenID: "1"}
	ledger.SetAssetOwner(asset, "alice")
	// bob has no USDC at all: value collection must fail every attempt.
	if _, err := reg.SubmitSell("alice", asset, "bob", 100); err != nil {
		t.Fatalf("SubmitSell: %v", err)
	}
	if _, err := reg.SubmitBuy("bob", asset, "USDC", 100, "alice"); err != nil {
		t.Fatalf("SubmitBuy: %v", err)
	}

	result, err := c.PerformSettlement(time.Now())
	if err != nil {
		t.Fatalf("PerformSettlement: %v", err)
	}
	if result.Completed {
		t.Fatal("expected a global abort when the sole payer cannot cover any obligation")
	}
	if result.Reason != "GlobalPaymentFailure" {
		t.Fatalf("Reason = %q, want GlobalPaymentFailure", result.Reason)
	}
	if got := ledger.AssetOwnerOf(asset); got != "alice" {
		t.Fatalf("asset owner after abort = %q, want alice (unlocked)", got)
	}
}

func TestPerformSettlementReentrancyGuard(t *testing.T) {
	cfg := config.Default()
	reg := registry.New()
	ledger := custody.NewInMemoryLedger()
	log := events.NewLog(zap.NewNop())
	c := New(reg, ledger, cfg, log)
	c.inProgress = true

	if _, err := c.PerformSettlement(time.Now()); !errors.Is(err, domain.ErrReentrant) {
		t.Fatalf("expected ErrReentrant, got %v", err)
	}
}

func TestPerformSettlementExpiresAfterMaxReNetAttempts(t *testing.T) {
	cfg := config.Default()
	cfg.StakeBPS = 0
	cfg.MaxFailedCycles = 1
	c, reg, ledger := newTestController(cfg)

	asset := domain.AssetRef{Collection: "demo", TokenID: "1"}
	ledger.SetAssetOwner(asset, "alice")
	reg.SubmitSell("alice", asset, "bob", 100)
	reg.SubmitBuy("bob", asset, "USDC", 100, "alice")

	now := time.Now()
	result, err := c.PerformSettlement(now)
	if err != nil {
		t.Fatalf("PerformSettlement: %v", err)
	}
	if result.Completed {
		t.Fatal("expected abort")
	}

	sellID := domain.OrderID(1)
	sell, ok := reg.Order(sellID)
	if !ok {
		t.Fatalf("sell order %d not found after cycle", sellID)
	}
	if !sell.Active {
		t.Fatal("sell order should still be active after the cycle that brings it to MaxFailedCycles (spec.md S2 timing)")
	}

	// Second failed cycle: FailedCycles is already at MaxFailedCycles on
	// entry, so this cycle is the one that retires the order.
	result, err = c.PerformSettlement(now.Add(cfg.SettlementInterval))
	if err != nil {
		t.Fatalf("PerformSettlement (second cycle): %v", err)
	}
	if result.Completed {
		t.Fatal("expected abort")
	}

	sell, ok = reg.Order(sellID)
	if !ok {
		t.Fatalf("sell order %d not found after second cycle", sellID)
	}
	if sell.Active {
		t.Fatal("sell order should have expired and been retired on the cycle after reaching MaxFailedCycles")
	}
}
