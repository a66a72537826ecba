package registry

import "sync/atomic"

// idGenerator hands out a monotonically increasing sequence of ids for one
// entity kind. Adapted from the teacher's matching.IDGenerator: the same
// atomic-counter mechanism, but returning the bare uint64 sequence instead
// of a prefixed string, because spec.md §4.1's matching tie-break
// ("lowest id wins") requires a totally ordered numeric id, not an opaque
// label.
type idGenerator struct {
	counter uint64
}

// next returns the next id in the sequence, starting at 1 so the zero value
// can serve as a "no id" sentinel.
func (g *idGenerator) next() uint64 {
	return atomic.AddUint64(&g.counter, 1)
}
