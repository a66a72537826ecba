package registry

import (
	"clearinghouse/domain"
)

// SubmitSell creates a sell-side DvP order. price is the order's own
// reference price (spec.md §3 requires every DvPOrder to carry
// price > 0); the SellTerms a buy is actually matched against are accrued
// separately as compatible buy orders are submitted (spec.md §4.1).
func (r *Registry) SubmitSell(maker domain.Address, asset domain.AssetRef, counterparty domain.Address, price int64) (domain.OrderID, error) {
	if counterparty == "" {
		return 0, validationErrorf("sell order requires a counterparty")
	}
	if counterparty == maker {
		return 0, validationErrorf("counterparty must differ from maker")
	}
	if price <= 0 {
		return 0, validationErrorf("price must be positive")
	}

	id := domain.OrderID(r.orderSeq.next())
	order := domain.NewSellOrder(id, maker, asset, counterparty)
	order.Price = price
	r.orders[id] = order
	r.activeOrders.Add(id)
	return id, nil
}

// SubmitBuy creates a buy-side DvP order. If an active sell exists with the
// matching (asset, maker=counterparty, counterparty=submitter) triple, its
// SellTerms are updated: if a price is already recorded for paymentToken it
// must equal the new price (ErrTermsMismatch otherwise), else the new
// (paymentToken, price) pair is written in (spec.md §4.1).
func (r *Registry) SubmitBuy(maker domain.Address, asset domain.AssetRef, paymentToken domain.Token, price int64, counterparty domain.Address) (domain.OrderID, error) {
	if counterparty == "" {
		return 0, validationErrorf("buy order requires a counterparty")
	}
	if counterparty == maker {
		return 0, validationErrorf("counterparty must differ from maker")
	}
	if price <= 0 {
		return 0, validationErrorf("price must be positive")
	}

	if sell := r.findOpenSellFor(asset, counterparty, maker); sell != nil {
		if existing, ok := sell.SellTerms[paymentToken]; ok && existing != price {
			return 0, domain.ErrTermsMismatch
		}
		sell.SellTerms[paymentToken] = price
	}

	id := domain.OrderID(r.orderSeq.next())
	order := domain.NewBuyOrder(id, maker, asset, paymentToken, price, counterparty)
	r.orders[id] = order
	r.activeOrders.Add(id)
	return id, nil
}

// findOpenSellFor scans active sells for one matching (asset, maker=seller,
// counterparty=buyer) — the buy submission's counterparty is the sell's
// maker, and the sell's counterparty must be the buyer.
func (r *Registry) findOpenSellFor(asset domain.AssetRef, sellerMaker, buyerMaker domain.Address) *domain.DvPOrder {
	for _, id := range r.activeOrders.Values() {
		o := r.orders[id]
		if !o.Active || o.Side != domain.SideSell {
			continue
		}
		if o.AssetRef == asset && o.Maker == sellerMaker && o.Counterparty == buyerMaker {
			return o
		}
	}
	return nil
}

// CancelOrder cancels an active, unlocked DvP order. If the order was
// matched, the pairing is severed on both sides and the peer's
// FailedCycles counter is reset (spec.md §4.1).
func (r *Registry) CancelOrder(id domain.OrderID, requester domain.Address) error {
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	if o.Maker != requester {
		return validationErrorf("order %d is not owned by %s", id, requester)
	}
	if !o.Active {
		return validationErrorf("order %d is not active", id)
	}
	if o.Locked {
		return validationErrorf("order %d is locked and cannot be cancelled", id)
	}

	if o.Matched {
		if peer, ok := r.orders[o.MatchedWith]; ok {
			peer.Matched = false
			peer.MatchedWith = 0
			peer.FailedCycles = 0
		}
		o.Matched = false
		o.MatchedWith = 0
	}
	o.Active = false
	r.activeOrders.Remove(id)
	return nil
}
