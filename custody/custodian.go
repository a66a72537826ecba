package custody

import "clearinghouse/domain"

// CustodyLedger is the cycle-scoped CustodyLedger of spec.md §3: what the engine
// has collected from each participant (stake and settlement value) and the
// engine-held pool total per token available for distribution. It is
// rebuilt fresh each settlement cycle.
type CustodyLedger struct {
	stake      map[domain.Address]map[domain.Token]int64
	stakeOrder map[domain.Address][]domain.Token // tokens drawn, in draw order
	collected  map[domain.Address]map[domain.Token]int64
	pool       map[domain.Token]int64
}

// NewCustodyLedger returns an empty cycle-scoped ledger.
func NewCustodyLedger() *CustodyLedger {
	return &CustodyLedger{
		stake:      make(map[domain.Address]map[domain.Token]int64),
		stakeOrder: make(map[domain.Address][]domain.Token),
		collected:  make(map[domain.Address]map[domain.Token]int64),
		pool:       make(map[domain.Token]int64),
	}
}

// Custodian performs every value/asset movement a settlement cycle needs,
// through a Ledger, recording what it did in a CustodyLedger (spec.md
// §4.5). Treasury persists across cycles: it is where a degenerate
// zero-denominator stake redistribution (spec.md §9's Open Question
// resolution) deposits otherwise-stranded value, with a visible accounting
// trail instead of a silent loss.
type Custodian struct {
	ledger   Ledger
	Treasury map[domain.Token]int64
}

// NewCustodian returns a Custodian bound to ledger.
func NewCustodian(ledger Ledger) *Custodian {
	return &Custodian{ledger: ledger, Treasury: make(map[domain.Token]int64)}
}

// StakeOf returns the participant's currently recorded stake in token.
func (l *CustodyLedger) StakeOf(p domain.Address, token domain.Token) int64 {
	return l.stake[p][token]
}

// CollectedOf returns the participant's currently recorded collected
// (P5) amount in token.
func (l *CustodyLedger) CollectedOf(p domain.Address, token domain.Token) int64 {
	return l.collected[p][token]
}

// Pool returns the engine-held pool total for token, available for
// distribution in Phase P7.
func (l *CustodyLedger) Pool(token domain.Token) int64 {
	return l.pool[token]
}

// CloneForAttempt returns a working ledger for one P3-P5 attempt: its stake
// table is a deep copy of l's (so ConsumeStake can be tried without
// mutating the persisted ledger), and its collected/pool tables start
// empty (so a failed attempt's partial collection never needs to be
// unpicked from real state — it is simply never merged in).
func (l *CustodyLedger) CloneForAttempt() *CustodyLedger {
	clone := NewCustodyLedger()
	for p, byToken := range l.stake {
		cp := make(map[domain.Token]int64, len(byToken))
		for t, v := range byToken {
			cp[t] = v
		}
		clone.stake[p] = cp
	}
	for p, order := range l.stakeOrder {
		clone.stakeOrder[p] = append([]domain.Token(nil), order...)
	}
	return clone
}

// MergeAttempt commits a successful attempt's working ledger into l: the
// (now-reduced) stake table replaces l's, and the attempt's collected
// amounts and pool totals are added in.
func (l *CustodyLedger) MergeAttempt(attempt *CustodyLedger) {
	l.stake = attempt.stake
	l.stakeOrder = attempt.stakeOrder
	for p, byToken := range attempt.collected {
		if l.collected[p] == nil {
			l.collected[p] = make(map[domain.Token]int64)
		}
		for t, v := range byToken {
			l.collected[p][t] += v
		}
	}
	for t, v := range attempt.pool {
		l.pool[t] += v
	}
}

// ForfeitAllStake zeroes every participant's stake table and returns the
// forfeited total per token, for redistribution on global abort (spec.md
// §4.4 P9).
func (l *CustodyLedger) ForfeitAllStake() map[domain.Token]int64 {
	totals := make(map[domain.Token]int64)
	for p, byToken := range l.stake {
		for t, v := range byToken {
			totals[t] += v
		}
		delete(l.stake, p)
	}
	l.stakeOrder = make(map[domain.Address][]domain.Token)
	return totals
}

// SeedPool adds amount of token directly into the pool without a transfer
// — used to stage a forfeited-stake indemnity pool for Distribute.
func (l *CustodyLedger) SeedPool(token domain.Token, amount int64) {
	l.pool[token] += amount
}

// DrainPool zeroes the pool and returns what it held per token. Used to
// sweep an indemnity pool's post-distribution residue into Treasury.
func (l *CustodyLedger) DrainPool() map[domain.Token]int64 {
	out := l.pool
	l.pool = make(map[domain.Token]int64)
	return out
}

// StakeHolders returns every participant with an entry in the stake table,
// including one whose stake ConsumeStake has drawn down to zero, in no
// particular order; callers needing determinism must sort the result.
func (l *CustodyLedger) StakeHolders() []domain.Address {
	out := make([]domain.Address, 0, len(l.stake))
	for p := range l.stake {
		out = append(out, p)
	}
	return out
}

// CollectStake implements Phase P2 (spec.md §4.4): drains rankedTokens
// (most preferred first), taking min(balance, allowance, remaining) from
// each, until amount is collected or the ranked tokens are exhausted. On
// full success it records the per-token draw into the ledger's stake
// table and returns true. On partial success it refunds whatever was
// pulled and returns false, leaving the ledger untouched for p.
func (c *Custodian) CollectStake(ledger *CustodyLedger, p domain.Address, amount int64, rankedTokens []domain.Token) (bool, error) {
	if amount <= 0 {
		return true, nil
	}
	drawn := make(map[domain.Token]int64)
	order := make([]domain.Token, 0, len(rankedTokens))
	remaining := amount

	for _, t := range rankedTokens {
		if remaining <= 0 {
			break
		}
		avail := c.ledger.BalanceOf(p, t)
		if allow := c.ledger.AllowanceOf(p, t); allow < avail {
			avail = allow
		}
		take := min64(avail, remaining)
		if take <= 0 {
			continue
		}
		if err := c.ledger.TransferFrom(p, take, t); err != nil {
			return false, err
		}
		drawn[t] += take
		order = append(order, t)
		remaining -= take
	}

	if remaining > 0 {
		for t, v := range drawn {
			_ = c.ledger.TransferTo(p, v, t)
		}
		return false, nil
	}

	if ledger.stake[p] == nil {
		ledger.stake[p] = make(map[domain.Token]int64)
	}
	for _, t := range order {
		ledger.stake[p][t] += drawn[t]
	}
	ledger.stakeOrder[p] = append(ledger.stakeOrder[p], order...)
	return true, nil
}

// RefundStake refunds the participant's entire recorded stake and zeroes
// their entry, satisfying spec.md §8 property 7 (stake idempotence for an
// ineligible participant).
func (c *Custodian) RefundStake(ledger *CustodyLedger, p domain.Address) error {
	for t, v := range ledger.stake[p] {
		if v == 0 {
			continue
		}
		if err := c.ledger.TransferTo(p, v, t); err != nil {
			return err
		}
	}
	delete(ledger.stake, p)
	delete(ledger.stakeOrder, p)
	return nil
}

// ConsumeStake implements Phase P5 step 1: consume up to `owed` from the
// participant's already-collected stake, in its collected (draw) order,
// and return the amount actually consumed. Consumed stake is removed from
// the stake table — it has been spent toward the obligation, not
// forfeited — and moved into the pool per token, since it was already
// pulled into engine custody at P2 and now funds Phase P7 distribution
// exactly like a P5 collection does.
func (c *Custodian) ConsumeStake(ledger *CustodyLedger, p domain.Address, owed int64) int64 {
	var consumed int64
	for _, t := range ledger.stakeOrder[p] {
		if owed <= 0 {
			break
		}
		have := ledger.stake[p][t]
		if have <= 0 {
			continue
		}
		take := min64(have, owed)
		ledger.stake[p][t] -= take
		ledger.pool[t] += take
		owed -= take
		consumed += take
	}
	return consumed
}

// CollectValue implements Phase P5 steps 2-3: after stake consumption,
// collect the remaining owed amount from orderedTokens (the participant's
// accepted tokens in accepted order, or — for an unconfigured participant
// — the tokens they specifically owe). Returns true once the full
// `remaining` has been collected; on false the caller must treat the
// participant as a defaulter: any partial draw has been refunded and
// nothing is recorded (CollectValue only records on full success).
func (c *Custodian) CollectValue(ledger *CustodyLedger, p domain.Address, remaining int64, orderedTokens []domain.Token) (bool, error) {
	if remaining <= 0 {
		return true, nil
	}
	drawn := make(map[domain.Token]int64)
	left := remaining

	for _, t := range orderedTokens {
		if left <= 0 {
			break
		}
		avail := c.ledger.BalanceOf(p, t)
		if allow := c.ledger.AllowanceOf(p, t); allow < avail {
			avail = allow
		}
		take := min64(avail, left)
		if take <= 0 {
			continue
		}
		if err := c.ledger.TransferFrom(p, take, t); err != nil {
			return false, err
		}
		drawn[t] += take
		left -= take
	}

	if left > 0 {
		for t, v := range drawn {
			_ = c.ledger.TransferTo(p, v, t)
		}
		return false, nil
	}

	if ledger.collected[p] == nil {
		ledger.collected[p] = make(map[domain.Token]int64)
	}
	for t, v := range drawn {
		ledger.collected[p][t] += v
		ledger.pool[t] += v
	}
	return true, nil
}

// RefundAllCollected refunds every recorded P5 collection back to its
// contributor and zeroes the collected table and pool totals. Used on
// global abort (spec.md §4.4 P9).
func (c *Custodian) RefundAllCollected(ledger *CustodyLedger) error {
	for p, byToken := range ledger.collected {
		for t, v := range byToken {
			if v == 0 {
				continue
			}
			if err := c.ledger.TransferTo(p, v, t); err != nil {
				return err
			}
		}
		delete(ledger.collected, p)
	}
	for t := range ledger.pool {
		ledger.pool[t] = 0
	}
	return nil
}

// Distribute implements Phase P7: pay `amount` to p from the engine pool,
// walking rank first and falling back to any other involved token with
// nonzero pool if rank is exhausted with residue (spec.md §4.4, §8
// property 10).
func (c *Custodian) Distribute(ledger *CustodyLedger, p domain.Address, amount int64, rank []domain.Token, involvedTokens []domain.Token) error {
	remaining := amount
	tried := make(map[domain.Token]bool, len(rank))

	for _, t := range rank {
		if remaining <= 0 {
			break
		}
		tried[t] = true
		take := min64(ledger.pool[t], remaining)
		if take <= 0 {
			continue
		}
		if err := c.ledger.TransferTo(p, take, t); err != nil {
			return err
		}
		ledger.pool[t] -= take
		remaining -= take
	}

	for _, t := range involvedTokens {
		if remaining <= 0 {
			break
		}
		if tried[t] {
			continue
		}
		take := min64(ledger.pool[t], remaining)
		if take <= 0 {
			continue
		}
		if err := c.ledger.TransferTo(p, take, t); err != nil {
			return err
		}
		ledger.pool[t] -= take
		remaining -= take
	}

	if remaining > 0 {
		return domain.ErrInvariantViolation
	}
	return nil
}

// LockAsset pulls the seller's asset into engine custody for a matched DvP
// pair (spec.md §4.4 P6). The caller is responsible for setting
// order.Locked on success.
func (c *Custodian) LockAsset(seller domain.Address, asset domain.AssetRef) error {
	return c.ledger.AssetTransfer(seller, engineCustodyAddress, asset)
}

// UnlockAsset returns a previously locked asset to the seller (spec.md
// §4.6: abort path / expiry).
func (c *Custodian) UnlockAsset(seller domain.Address, asset domain.AssetRef) error {
	return c.ledger.AssetTransfer(engineCustodyAddress, seller, asset)
}

// DeliverAsset transfers a locked asset from engine custody to the buyer
// on successful finalization (spec.md §4.4 P8).
func (c *Custodian) DeliverAsset(buyer domain.Address, asset domain.AssetRef) error {
	return c.ledger.AssetTransfer(engineCustodyAddress, buyer, asset)
}

// engineCustodyAddress is the pseudo-participant the Ledger sees as the
// holder of locked assets while the engine has custody of them.
const engineCustodyAddress domain.Address = "__engine_custody__"

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
