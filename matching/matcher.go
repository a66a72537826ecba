// Package matching pairs compatible DvP buy/sell orders and PvP swap sides
// against the registry, recording the pairing in the orders/swaps
// themselves (spec.md §4.1). Matching is idempotent and monotone: it never
// unmatches, and repeated calls only add new pairs.
package matching

import "clearinghouse/registry"

// Matcher runs the two first-fit matching passes over a Registry. It holds
// no state of its own; every call re-scans the registry's current active
// sets, so MatchDvP/MatchSwaps may be invoked lazily or eagerly by the
// caller (spec.md §4.1: "Matcher may be invoked externally or lazily").
type Matcher struct {
	reg *registry.Registry
}

// New returns a Matcher bound to reg.
func New(reg *registry.Registry) *Matcher {
	return &Matcher{reg: reg}
}
