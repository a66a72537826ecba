// Package registry holds the clearinghouse's persistent tables — orders,
// payments, swaps, and per-participant preference configuration — plus the
// mutation surface (submit/cancel/configure) spec.md §6 describes as the
// minimum contract the core settlement engine requires. Active-id indices
// are insertion-ordered sets so a settlement cycle can walk records in
// stable id order (spec.md §5) and compact them in O(n) after each cycle.
package registry

import (
	"fmt"

	"github.com/emirpasic/gods/v2/sets/linkedhashset"

	"clearinghouse/domain"
)

// Registry is the engine's persistent state: every order, payment, and
// swap ever submitted, plus per-participant preference configuration. It
// has no notion of a settlement cycle; cycle-scoped state lives in the
// netting and custody packages and is rebuilt fresh per call.
type Registry struct {
	orders   map[domain.OrderID]*domain.DvPOrder
	payments map[domain.PaymentID]*domain.PaymentRequest
	swaps    map[domain.SwapID]*domain.SwapOrder

	activeOrders   *linkedhashset.Set[domain.OrderID]
	activePayments *linkedhashset.Set[domain.PaymentID]
	activeSwaps    *linkedhashset.Set[domain.SwapID]

	configs map[domain.Address]domain.UserConfig

	orderSeq   idGenerator
	paymentSeq idGenerator
	swapSeq    idGenerator
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		orders:         make(map[domain.OrderID]*domain.DvPOrder),
		payments:       make(map[domain.PaymentID]*domain.PaymentRequest),
		swaps:          make(map[domain.SwapID]*domain.SwapOrder),
		activeOrders:   linkedhashset.New[domain.OrderID](),
		activePayments: linkedhashset.New[domain.PaymentID](),
		activeSwaps:    linkedhashset.New[domain.SwapID](),
		configs:        make(map[domain.Address]domain.UserConfig),
	}
}

// Order looks up a DvP order by id.
func (r *Registry) Order(id domain.OrderID) (*domain.DvPOrder, bool) {
	o, ok := r.orders[id]
	return o, ok
}

// Payment looks up a payment request by id.
func (r *Registry) Payment(id domain.PaymentID) (*domain.PaymentRequest, bool) {
	p, ok := r.payments[id]
	return p, ok
}

// Swap looks up a swap order by id.
func (r *Registry) Swap(id domain.SwapID) (*domain.SwapOrder, bool) {
	s, ok := r.swaps[id]
	return s, ok
}

// ActiveOrderIDs returns active DvP order ids in insertion (id) order.
func (r *Registry) ActiveOrderIDs() []domain.OrderID {
	return r.activeOrders.Values()
}

// ActivePaymentIDs returns active payment ids in insertion (id) order.
func (r *Registry) ActivePaymentIDs() []domain.PaymentID {
	return r.activePayments.Values()
}

// ActiveSwapIDs returns active swap ids in insertion (id) order.
func (r *Registry) ActiveSwapIDs() []domain.SwapID {
	return r.activeSwaps.Values()
}

// Config returns the participant's UserConfig, or the zero value
// (unconfigured) if they never called ConfigureAccepted or ConfigureRanked.
func (r *Registry) Config(p domain.Address) domain.UserConfig {
	return r.configs[p]
}

// CompactOrders removes inactive ids from the active-order index. Called by
// CycleController's Phase P8/P9 after a cycle commits or aborts.
func (r *Registry) CompactOrders() {
	for _, id := range r.activeOrders.Values() {
		if o, ok := r.orders[id]; !ok || !o.Active {
			r.activeOrders.Remove(id)
		}
	}
}

// CompactPayments removes inactive ids from the active-payment index.
func (r *Registry) CompactPayments() {
	for _, id := range r.activePayments.Values() {
		if p, ok := r.payments[id]; !ok || !p.Active {
			r.activePayments.Remove(id)
		}
	}
}

// CompactSwaps removes inactive ids from the active-swap index.
func (r *Registry) CompactSwaps() {
	for _, id := range r.activeSwaps.Values() {
		if s, ok := r.swaps[id]; !ok || !s.Active {
			r.activeSwaps.Remove(id)
		}
	}
}

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrValidation}, args...)...)
}
