// Package domain holds the core entities of the clearinghouse: participants,
// their token preferences, and the three transaction classes (DvP orders,
// payment requests, PvP swaps) the settlement cycle reconciles.
package domain

import "time"

// Address identifies a participant. It is opaque to the engine.
type Address string

// Token identifies a fungible value token accepted by the engine. All
// accepted stablecoin tokens are treated as unit-equivalent for netting.
type Token string

// OrderID, PaymentID and SwapID are monotonic, totally ordered ids assigned
// by the Registry. Matching tie-breaks resolve to the lowest id, which is
// why these are plain unsigned integers rather than opaque UUIDs.
type OrderID uint64
type PaymentID uint64
type SwapID uint64

// Side is the side of a DvP order.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideBuy {
		return "buy"
	}
	return "sell"
}

// Scale is the fixed-point base the engine performs all arithmetic in:
// 18-decimal integers. The engine never converts units; callers are
// expected to submit amounts already in this base.
const Scale = 1_000_000_000_000_000_000

// Settlement tuning constants. These are the spec's contractual values;
// config.Config may override them at process start; config.Default()
// returns exactly these.
const (
	DefaultSettlementInterval = 5 * time.Minute
	DefaultMaxFailedCycles    = 2
	DefaultStakeBPS           = 2000 // 20%, out of 10_000
	BPSDenominator            = 10_000
	MaxReNetAttempts          = 3
)
