package netting

import "clearinghouse/domain"

// RegistryView is the slice of registry.Registry the obligation builder
// needs. It is a narrow interface so netting has no import-cycle on
// registry and can be exercised with fakes in tests.
type RegistryView interface {
	ActiveOrderIDs() []domain.OrderID
	Order(domain.OrderID) (*domain.DvPOrder, bool)
	ActivePaymentIDs() []domain.PaymentID
	Payment(domain.PaymentID) (*domain.PaymentRequest, bool)
	ActiveSwapIDs() []domain.SwapID
	Swap(domain.SwapID) (*domain.SwapOrder, bool)
}

// Assembly is the result of spec.md §4.4 Phase P1: every participant
// touched by a matched DvP pair, fulfilled payment, or matched swap pair,
// and each payer/sender/maker's gross outgoing value (summed
// unit-equivalent across tokens, per spec.md §4.3's netting rationale).
// It is computed once per cycle and does not change across re-net
// attempts — only eligibility, built on top of it, does.
type Assembly struct {
	Participants  []domain.Address
	GrossOutgoing map[domain.Address]int64

	// PayerTokens records, per participant, the distinct tokens they paid
	// out in this cycle, in first-encountered order. It is the fallback
	// token-draw order for an unconfigured participant (spec.md §4.4 P5.2
	// generalizes to P2 stake collection: with no UserConfig to rank by,
	// the only tokens that make sense to draw stake from are the ones the
	// participant is already moving in this cycle).
	PayerTokens map[domain.Address][]domain.Token
}

// AssembleParticipants implements Phase P1 over every currently active
// matched/fulfilled record, independent of eligibility (eligibility is not
// yet known at P1 — spec.md §4.4).
func AssembleParticipants(reg RegistryView) Assembly {
	gross := make(map[domain.Address]int64)
	payerTokens := make(map[domain.Address][]domain.Token)
	seen := NewBalances() // reused only for its deterministic participant set

	notePayerToken := func(p domain.Address, t domain.Token) {
		for _, existing := range payerTokens[p] {
			if existing == t {
				return
			}
		}
		payerTokens[p] = append(payerTokens[p], t)
	}

	for _, id := range reg.ActiveOrderIDs() {
		o, ok := reg.Order(id)
		if !ok || !o.Active || !o.Matched || o.Side != domain.SideBuy {
			continue
		}
		sell, ok := reg.Order(o.MatchedWith)
		if !ok || !sell.Active {
			continue
		}
		gross[o.Maker] += o.Price
		notePayerToken(o.Maker, o.PaymentToken)
		seen.touch(o.Maker)
		seen.touch(sell.Maker)
	}

	for _, id := range reg.ActivePaymentIDs() {
		p, ok := reg.Payment(id)
		if !ok || !p.Active || !p.Fulfilled {
			continue
		}
		gross[p.Sender] += p.Amount
		notePayerToken(p.Sender, p.Token)
		seen.touch(p.Sender)
		seen.touch(p.Recipient)
	}

	for _, id := range reg.ActiveSwapIDs() {
		a, ok := reg.Swap(id)
		if !ok || !a.Active || !a.Matched {
			continue
		}
		b, ok := reg.Swap(a.MatchedWith)
		if !ok || !b.Active || a.ID >= b.ID {
			continue // process once, when visiting the lower-id side
		}
		gross[a.Maker] += a.SendAmount
		gross[b.Maker] += b.SendAmount
		notePayerToken(a.Maker, a.SendToken)
		notePayerToken(b.Maker, b.SendToken)
		seen.touch(a.Maker)
		seen.touch(b.Maker)
	}

	return Assembly{
		Participants:  seen.Participants(),
		GrossOutgoing: gross,
		PayerTokens:   payerTokens,
	}
}

// touch registers a participant in the deterministic participant index
// without changing any balance.
func (b *Balances) touch(p domain.Address) {
	b.participants.Put(p, struct{}{})
	if _, ok := b.byParticipant[p]; !ok {
		b.byParticipant[p] = make(map[domain.Token]int64)
	}
}

// BuildObligations implements Phase P3 (spec.md §4.2): for every active
// matched DvP pair, fulfilled payment, and matched swap pair whose both
// counterparties are eligible, apply the signed per-token deltas. Records
// touching an ineligible participant are skipped and left unchanged (they
// remain active for a future cycle).
func BuildObligations(reg RegistryView, eligible map[domain.Address]bool) *Balances {
	bal := NewBalances()

	for _, id := range reg.ActiveOrderIDs() {
		buy, ok := reg.Order(id)
		if !ok || !buy.Active || !buy.Matched || buy.Side != domain.SideBuy {
			continue
		}
		sell, ok := reg.Order(buy.MatchedWith)
		if !ok || !sell.Active {
			continue
		}
		if !eligible[buy.Maker] || !eligible[sell.Maker] {
			continue
		}
		bal.Add(buy.Maker, buy.PaymentToken, -buy.Price)
		bal.Add(sell.Maker, buy.PaymentToken, buy.Price)
	}

	for _, id := range reg.ActivePaymentIDs() {
		p, ok := reg.Payment(id)
		if !ok || !p.Active || !p.Fulfilled {
			continue
		}
		if !eligible[p.Sender] || !eligible[p.Recipient] {
			continue
		}
		bal.Add(p.Sender, p.Token, -p.Amount)
		bal.Add(p.Recipient, p.Token, p.Amount)
	}

	for _, id := range reg.ActiveSwapIDs() {
		a, ok := reg.Swap(id)
		if !ok || !a.Active || !a.Matched {
			continue
		}
		b, ok := reg.Swap(a.MatchedWith)
		if !ok || !b.Active || a.ID >= b.ID {
			continue // process once, visiting the lower-id side
		}
		if !eligible[a.Maker] || !eligible[b.Maker] {
			continue
		}
		bal.Add(a.Maker, a.SendToken, -a.SendAmount)
		bal.Add(a.Maker, a.ReceiveToken, b.SendAmount)
		bal.Add(b.Maker, b.SendToken, -b.SendAmount)
		bal.Add(b.Maker, b.ReceiveToken, a.SendAmount)
	}

	return bal
}
