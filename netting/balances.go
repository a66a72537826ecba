// Package netting builds the cycle-scoped NetBalanceTable (spec.md §3) from
// matched/fulfilled records and collapses it into one signed aggregate per
// participant, treating every involved token as unit-equivalent (spec.md
// §4.3).
package netting

import (
	"strings"

	"github.com/emirpasic/gods/v2/trees/redblacktree"

	"clearinghouse/domain"
)

// Balances is the cycle-scoped NetBalanceTable: per (participant, token)
// signed balances, plus a derived aggregate per participant. Participants
// and tokens are kept in a red-black tree keyed by their string form so
// iteration order is deterministic across implementations (spec.md §8
// property 4) — generalized from the teacher's bucketed red-black tree of
// price levels (orderbook/price_tree_sharded.go) to an ordered index of
// cycle participants.
type Balances struct {
	byParticipant map[domain.Address]map[domain.Token]int64
	aggregate     map[domain.Address]int64
	participants  *redblacktree.Tree[domain.Address, struct{}]
	tokens        *redblacktree.Tree[domain.Token, struct{}]
}

// NewBalances returns an empty Balances table.
func NewBalances() *Balances {
	return &Balances{
		byParticipant: make(map[domain.Address]map[domain.Token]int64),
		aggregate:     make(map[domain.Address]int64),
		participants:  redblacktree.NewWith[domain.Address, struct{}](addressComparator),
		tokens:        redblacktree.NewWith[domain.Token, struct{}](tokenComparator),
	}
}

func addressComparator(a, b domain.Address) int { return strings.Compare(string(a), string(b)) }
func tokenComparator(a, b domain.Token) int      { return strings.Compare(string(a), string(b)) }

// Add applies a signed delta to (participant, token) and to the
// participant's aggregate. Both InvolvedSets (participants, tokens) are
// touched lazily — the first nonzero touch registers the key (spec.md §3).
func (b *Balances) Add(p domain.Address, t domain.Token, delta int64) {
	if delta == 0 {
		return
	}
	if _, ok := b.byParticipant[p]; !ok {
		b.byParticipant[p] = make(map[domain.Token]int64)
	}
	b.byParticipant[p][t] += delta
	b.aggregate[p] += delta
	b.participants.Put(p, struct{}{})
	b.tokens.Put(t, struct{}{})
}

// Balance returns the participant's signed balance in token t.
func (b *Balances) Balance(p domain.Address, t domain.Token) int64 {
	return b.byParticipant[p][t]
}

// TokenBalances returns the participant's full per-token balance map. The
// returned map must not be mutated by callers.
func (b *Balances) TokenBalances(p domain.Address) map[domain.Token]int64 {
	return b.byParticipant[p]
}

// Aggregate returns the participant's net aggregate across all tokens.
func (b *Balances) Aggregate(p domain.Address) int64 {
	return b.aggregate[p]
}

// Participants returns every participant touched this cycle, in
// deterministic (lexicographic) order.
func (b *Balances) Participants() []domain.Address {
	out := make([]domain.Address, 0, b.participants.Size())
	it := b.participants.Iterator()
	for it.Next() {
		out = append(out, it.Key())
	}
	return out
}

// Tokens returns every token touched this cycle (InvolvedTokens), in
// deterministic (lexicographic) order.
func (b *Balances) Tokens() []domain.Token {
	out := make([]domain.Token, 0, b.tokens.Size())
	it := b.tokens.Iterator()
	for it.Next() {
		out = append(out, it.Key())
	}
	return out
}

// SumAggregates returns the sum of every participant's aggregate. A
// correctly-built Balances always sums to zero (spec.md §8 property 6).
func (b *Balances) SumAggregates() int64 {
	var total int64
	for _, v := range b.aggregate {
		total += v
	}
	return total
}
