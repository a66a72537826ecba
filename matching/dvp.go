package matching

import "clearinghouse/domain"

// MatchDvP scans every active, unmatched sell order and first-fits it
// against active, unmatched buy orders for the same asset (spec.md §4.1):
//
//   - the buy's (payment_token, price) must equal an entry already
//     recorded in the sell's SellTerms (exact equality — spec.md §9's
//     resolution of the divergent-predicate open question),
//   - counterparty agreement must be bilateral: sell.Counterparty ==
//     buy.Maker and buy.Counterparty == sell.Maker.
//
// The first valid buy found wins; active ids are visited in ascending
// (insertion) order, so ties resolve to the lowest id deterministically.
// A matched pair's MatchedWith is set symmetrically on both sides.
func (m *Matcher) MatchDvP() int {
	matched := 0
	sellIDs := m.reg.ActiveOrderIDs()
	for _, sellID := range sellIDs {
		sell, ok := m.reg.Order(sellID)
		if !ok || !sell.Active || sell.Matched || sell.Side != domain.SideSell {
			continue
		}

		buyIDs := m.reg.ActiveOrderIDs()
		for _, buyID := range buyIDs {
			buy, ok := m.reg.Order(buyID)
			if !ok || !buy.Active || buy.Matched || buy.Side != domain.SideBuy {
				continue
			}
			if buy.AssetRef != sell.AssetRef {
				continue
			}
			if price, ok := sell.SellTerms[buy.PaymentToken]; !ok || price != buy.Price {
				continue
			}
			if sell.Counterparty != buy.Maker || buy.Counterparty != sell.Maker {
				continue
			}

			sell.Matched = true
			sell.MatchedWith = buy.ID
			buy.Matched = true
			buy.MatchedWith = sell.ID
			matched++
			break
		}
	}
	return matched
}
