// Package failure implements spec.md §4.6: the per-record expiry state
// machine applied to every DvP order, payment request, and swap that
// entered a settlement cycle but was not finalized in it.
package failure

import (
	"clearinghouse/custody"
	"clearinghouse/domain"
)

// Handler advances failed_cycles counters and retires expired records. It
// is invoked by CycleController at the end of every cycle (success or
// abort) for every matched/fulfilled record still active.
type Handler struct {
	maxFailedCycles int
	custodian       *custody.Custodian
}

// New returns a Handler that expires a record once its failed_cycles
// counter reaches maxFailedCycles.
func New(maxFailedCycles int, custodian *custody.Custodian) *Handler {
	return &Handler{maxFailedCycles: maxFailedCycles, custodian: custodian}
}

// FailDvPPair increments both sides of a still-matched DvP pair's
// failed_cycles counters. A side is checked for expiry on entry, before
// incrementing: spec.md §8 scenario S2 bumps failed_cycles to MAX at the
// end of the cycle that reaches it (cycle 2 for MAX=2) and only expires
// the order in the *next* cycle that fails to settle it (cycle 3) — so a
// side already at or above maxFailedCycles when this call begins is
// expired now without a further increment, and a side still below the
// threshold is simply incremented and left active. If a side expires, its
// asset lock (if any) is released, it is retired (Active=false), and the
// pairing is severed; the surviving, non-expired side has its own counter
// reset to zero, the same restitution CancelOrder gives a peer whose
// counterparty cancels (spec.md §4.1, §4.6).
func (h *Handler) FailDvPPair(buy, sell *domain.DvPOrder) error {
	sellExpired := sell.Expired(h.maxFailedCycles)
	buyExpired := buy.Expired(h.maxFailedCycles)
	if !sellExpired {
		sell.FailedCycles++
	}
	if !buyExpired {
		buy.FailedCycles++
	}

	if sellExpired {
		if sell.Locked {
			if err := h.custodian.UnlockAsset(sell.Maker, sell.AssetRef); err != nil {
				return err
			}
			sell.Locked = false
		}
		sell.Active = false
		sell.Matched = false
		sell.MatchedWith = 0
		if !buyExpired {
			buy.Matched = false
			buy.MatchedWith = 0
			buy.FailedCycles = 0
		}
	}
	if buyExpired {
		buy.Active = false
		buy.Matched = false
		buy.MatchedWith = 0
		if !sellExpired {
			sell.Matched = false
			sell.MatchedWith = 0
			sell.FailedCycles = 0
		}
	}
	return nil
}

// FailPayment increments a payment's failed_cycles counter and retires it
// on expiry. As with FailDvPPair, expiry is checked on entry: a payment
// already at or above maxFailedCycles is retired now without a further
// increment; otherwise the counter is incremented and the payment stays
// active (spec.md §8 scenario S2's timing).
func (h *Handler) FailPayment(p *domain.PaymentRequest) {
	if p.Expired(h.maxFailedCycles) {
		p.Active = false
		return
	}
	p.FailedCycles++
}

// FailSwapPair increments both sides of a still-matched swap pair's
// failed_cycles counters, checked on entry the same way FailDvPPair is: a
// pair already at or above maxFailedCycles is severed now without a
// further increment; otherwise both counters are incremented and the pair
// stays matched. If either side was already expired, the pairing is
// cleared on both sides and both counters reset to zero; unlike DvP and
// Payment, a swap is never retired — it holds no locked custody and
// remains active, eligible to be matched again (spec.md §4.6).
func (h *Handler) FailSwapPair(a, b *domain.SwapOrder) {
	if a.Expired(h.maxFailedCycles) || b.Expired(h.maxFailedCycles) {
		a.Matched = false
		a.MatchedWith = 0
		a.FailedCycles = 0
		b.Matched = false
		b.MatchedWith = 0
		b.FailedCycles = 0
		return
	}
	a.FailedCycles++
	b.FailedCycles++
}
