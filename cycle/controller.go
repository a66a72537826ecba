// Package cycle implements CycleController, the component spec.md §4.4
// describes as the engine's core: one perform_settlement(now) entry point
// that runs phases P0 through P9 in strict order, with bounded defaulter
// re-netting and a global-abort path, over the Registry/Matcher/Custodian/
// FailureHandler/events collaborators.
package cycle

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"clearinghouse/config"
	"clearinghouse/custody"
	"clearinghouse/domain"
	"clearinghouse/events"
	"clearinghouse/failure"
	"clearinghouse/matching"
	"clearinghouse/netting"
	"clearinghouse/registry"
)

// Controller is the engine's single entry point. It is not safe for
// concurrent use — spec.md §5 requires every call to run to completion
// under a logical mutex, and Controller enforces this itself via an
// in-progress flag rather than trusting callers.
type Controller struct {
	reg       *registry.Registry
	matcher   *matching.Matcher
	custodian *custody.Custodian
	failureH  *failure.Handler
	log       *events.Log
	cfg       config.Config

	lastSettlement time.Time
	inProgress     bool
}

// New wires a Controller over reg, backed by ledger for every value/asset
// movement and log for every emitted event.
func New(reg *registry.Registry, ledger custody.Ledger, cfg config.Config, log *events.Log) *Controller {
	custodian := custody.NewCustodian(ledger)
	return &Controller{
		reg:       reg,
		matcher:   matching.New(reg),
		custodian: custodian,
		failureH:  failure.New(cfg.MaxFailedCycles, custodian),
		log:       log,
		cfg:       cfg,
	}
}

// Result summarizes one perform_settlement call.
type Result struct {
	CycleID   string
	Completed bool
	Reason    string
	Settled   []domain.SettledRecord
}

type dvpPair struct{ buy, sell *domain.DvPOrder }
type swapPair struct{ a, b *domain.SwapOrder }

func (c *Controller) matchedDvPPairs() []dvpPair {
	var out []dvpPair
	for _, id := range c.reg.ActiveOrderIDs() {
		buy, ok := c.reg.Order(id)
		if !ok || !buy.Active || !buy.Matched || buy.Side != domain.SideBuy {
			continue
		}
		sell, ok := c.reg.Order(buy.MatchedWith)
		if !ok || !sell.Active {
			continue
		}
		out = append(out, dvpPair{buy: buy, sell: sell})
	}
	return out
}

func (c *Controller) fulfilledPayments() []*domain.PaymentRequest {
	var out []*domain.PaymentRequest
	for _, id := range c.reg.ActivePaymentIDs() {
		p, ok := c.reg.Payment(id)
		if !ok || !p.Active || !p.Fulfilled {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (c *Controller) matchedSwapPairs() []swapPair {
	var out []swapPair
	for _, id := range c.reg.ActiveSwapIDs() {
		a, ok := c.reg.Swap(id)
		if !ok || !a.Active || !a.Matched {
			continue
		}
		b, ok := c.reg.Swap(a.MatchedWith)
		if !ok || !b.Active || a.ID >= b.ID {
			continue
		}
		out = append(out, swapPair{a: a, b: b})
	}
	return out
}

// rankFor returns p's preference-ranked token order, falling back to the
// distinct tokens they paid out in this cycle when they never configured
// one (spec.md §4.4 P5.2, generalized).
func (c *Controller) rankFor(p domain.Address, assembly netting.Assembly) []domain.Token {
	cfgP := c.reg.Config(p)
	if cfgP.Configured() {
		return cfgP.RankOrDefault()
	}
	return assembly.PayerTokens[p]
}

// PerformSettlement runs one settlement cycle. It returns ErrTooEarly
// (with no state change) if called before the configured interval has
// elapsed since the previous call that got past this check (whether that
// cycle completed or aborted), and ErrReentrant if called while
// another call is already in progress.
func (c *Controller) PerformSettlement(now time.Time) (*Result, error) {
	if c.inProgress {
		return nil, domain.ErrReentrant
	}
	c.inProgress = true
	defer func() { c.inProgress = false }()

	if !c.lastSettlement.IsZero() && now.Before(c.lastSettlement.Add(c.cfg.SettlementInterval)) {
		return nil, domain.ErrTooEarly
	}
	c.lastSettlement = now

	c.log.Reset()
	cycleID := uuid.NewString()

	if n := c.matcher.MatchDvP(); n > 0 {
		c.log.Emit(events.New(events.DvPMatched, map[string]any{events.FieldCycleID: cycleID, "count": n}))
	}
	if n := c.matcher.MatchSwaps(); n > 0 {
		c.log.Emit(events.New(events.SwapMatched, map[string]any{events.FieldCycleID: cycleID, "count": n}))
	}

	// Phase P1.
	assembly := netting.AssembleParticipants(c.reg)

	// Phase P2.
	custodyLedger := custody.NewCustodyLedger()
	eligible := make(map[domain.Address]bool, len(assembly.Participants))
	for _, p := range assembly.Participants {
		gross := assembly.GrossOutgoing[p]
		if gross <= 0 {
			eligible[p] = true
			continue
		}
		required := c.cfg.StakeRequirement(gross)
		ok, err := c.custodian.CollectStake(custodyLedger, p, required, c.rankFor(p, assembly))
		if err != nil {
			return nil, fmt.Errorf("%w: stake collection for %s: %v", domain.ErrInvariantViolation, p, err)
		}
		eligible[p] = ok
		kind := events.StakeCollected
		if !ok {
			kind = events.StakeCollectionFailed
		}
		c.log.Emit(events.New(kind, map[string]any{
			events.FieldCycleID: cycleID, events.FieldParticipant: string(p), events.FieldAmount: required,
		}))
	}

	// Phases P3-P5, with bounded defaulter re-netting.
	var bal *netting.Balances
	globalAbort := false
	abortReason := ""
	attempts := 0

	for {
		attempts++
		bal = netting.BuildObligations(c.reg, eligible)
		// A re-net whose defaulter exclusions left no obligations at all has
		// nothing left to settle: that is a global payment failure, not an
		// empty success.
		if attempts > 1 && len(bal.Participants()) == 0 {
			globalAbort, abortReason = true, "GlobalPaymentFailure"
			break
		}
		attempt := custodyLedger.CloneForAttempt()

		var defaulter domain.Address
		defaulted := false

		for _, p := range bal.Participants() {
			owed := -bal.Aggregate(p)
			if owed <= 0 {
				continue
			}
			owed -= c.custodian.ConsumeStake(attempt, p, owed)
			if owed <= 0 {
				continue
			}

			cfgP := c.reg.Config(p)
			var tokenOrder []domain.Token
			if cfgP.Configured() {
				tokenOrder = cfgP.Accepted
			} else {
				for _, t := range bal.Tokens() {
					if bal.Balance(p, t) < 0 {
						tokenOrder = append(tokenOrder, t)
					}
				}
			}
			ok, err := c.custodian.CollectValue(attempt, p, owed, tokenOrder)
			if err != nil {
				return nil, fmt.Errorf("%w: value collection for %s: %v", domain.ErrInvariantViolation, p, err)
			}
			if !ok {
				defaulter, defaulted = p, true
				break
			}
		}

		if !defaulted {
			custodyLedger.MergeAttempt(attempt)
			break
		}

		eligible[defaulter] = false
		c.log.Emit(events.New(events.SettlementFailed, map[string]any{
			events.FieldCycleID: cycleID, events.FieldReason: "defaulter",
			events.FieldParticipant: string(defaulter), events.FieldAttempt: attempts,
		}))

		if attempts >= domain.MaxReNetAttempts {
			globalAbort, abortReason = true, "GlobalPaymentFailure"
			break
		}
	}

	if !globalAbort {
		for _, p := range bal.Participants() {
			for _, t := range bal.Tokens() {
				if v := bal.Balance(p, t); v != 0 {
					c.log.Emit(events.New(events.CrossTokenNetted, map[string]any{
						events.FieldCycleID: cycleID, events.FieldParticipant: string(p),
						events.FieldToken: string(t), events.FieldAmount: v,
					}))
				}
			}
		}
	}

	// Phase P6 — asset lock.
	var lockedThisCycle []*domain.DvPOrder
	if !globalAbort {
		for _, pair := range c.matchedDvPPairs() {
			if !eligible[pair.buy.Maker] || !eligible[pair.sell.Maker] {
				continue
			}
			if err := c.custodian.LockAsset(pair.sell.Maker, pair.sell.AssetRef); err != nil {
				globalAbort, abortReason = true, "AssetLockFailure"
				break
			}
			pair.sell.Locked = true
			lockedThisCycle = append(lockedThisCycle, pair.sell)
			c.log.Emit(events.New(events.AssetLocked, map[string]any{
				events.FieldCycleID: cycleID, events.FieldOrderID: uint64(pair.sell.ID),
			}))
		}
	}

	var settled []domain.SettledRecord

	if globalAbort {
		// Phase P9 (abort path).
		for _, sell := range lockedThisCycle {
			if err := c.custodian.UnlockAsset(sell.Maker, sell.AssetRef); err != nil {
				return nil, fmt.Errorf("%w: asset unlock for order %d: %v", domain.ErrInvariantViolation, sell.ID, err)
			}
			sell.Locked = false
			c.log.Emit(events.New(events.AssetUnlocked, map[string]any{
				events.FieldCycleID: cycleID, events.FieldOrderID: uint64(sell.ID),
			}))
		}
		if err := c.custodian.RefundAllCollected(custodyLedger); err != nil {
			return nil, fmt.Errorf("%w: collected-value refund: %v", domain.ErrInvariantViolation, err)
		}
		c.redistributeStakeOnAbort(custodyLedger, assembly, eligible, cycleID)
	} else {
		// Phase P7 — distribution.
		for _, p := range bal.Participants() {
			agg := bal.Aggregate(p)
			if agg <= 0 {
				continue
			}
			var rank []domain.Token
			cfgP := c.reg.Config(p)
			if cfgP.Configured() {
				rank = cfgP.RankOrDefault()
			} else {
				for _, t := range bal.Tokens() {
					if bal.Balance(p, t) > 0 {
						rank = append(rank, t)
					}
				}
			}
			if err := c.custodian.Distribute(custodyLedger, p, agg, rank, bal.Tokens()); err != nil {
				return nil, fmt.Errorf("%w: distribution for %s: %v", domain.ErrInvariantViolation, p, err)
			}
		}

		// Phase P8 — finalization.
		for _, pair := range c.matchedDvPPairs() {
			if !eligible[pair.buy.Maker] || !eligible[pair.sell.Maker] {
				continue
			}
			if err := c.custodian.DeliverAsset(pair.buy.Maker, pair.sell.AssetRef); err != nil {
				return nil, fmt.Errorf("%w: asset delivery for order %d: %v", domain.ErrInvariantViolation, pair.sell.ID, err)
			}
			pair.sell.Locked = false
			pair.sell.Active, pair.buy.Active = false, false
			pair.sell.Matched, pair.buy.Matched = false, false
			pair.sell.MatchedWith, pair.buy.MatchedWith = 0, 0
			settled = append(settled, domain.SettledRecord{
				Kind: domain.RecordDvP, Timestamp: now, DvPID: pair.sell.ID,
				Payer: pair.buy.Maker, Payee: pair.sell.Maker, Token: pair.buy.PaymentToken, Amount: pair.buy.Price,
			})
		}
		for _, p := range c.fulfilledPayments() {
			if !eligible[p.Sender] || !eligible[p.Recipient] {
				continue
			}
			p.Active = false
			settled = append(settled, domain.SettledRecord{
				Kind: domain.RecordPayment, Timestamp: now, PaymentID: p.ID,
				Payer: p.Sender, Payee: p.Recipient, Token: p.Token, Amount: p.Amount,
			})
			c.log.Emit(events.New(events.PaymentSettled, map[string]any{
				events.FieldCycleID: cycleID, events.FieldPaymentID: uint64(p.ID),
			}))
		}
		for _, pair := range c.matchedSwapPairs() {
			if !eligible[pair.a.Maker] || !eligible[pair.b.Maker] {
				continue
			}
			pair.a.Active, pair.b.Active = false, false
			pair.a.Matched, pair.b.Matched = false, false
			pair.a.MatchedWith, pair.b.MatchedWith = 0, 0
			settled = append(settled, domain.SettledRecord{
				Kind: domain.RecordSwap, Timestamp: now, SwapAID: pair.a.ID, SwapBID: pair.b.ID,
				Payer: pair.a.Maker, Payee: pair.b.Maker, Token: pair.a.SendToken, Amount: pair.a.SendAmount,
			})
			c.log.Emit(events.New(events.SwapSettled, map[string]any{
				events.FieldCycleID: cycleID, events.FieldSwapID: uint64(pair.a.ID),
			}))
		}

		// Any stake left over after ConsumeStake (P7's "unused_stake_to_refund"
		// term) is refunded to its contributor — including a defaulter excluded
		// during re-netting whose stake was collected at P2 but never touched.
		holders := append([]domain.Address(nil), custodyLedger.StakeHolders()...)
		sort.Slice(holders, func(i, j int) bool { return holders[i] < holders[j] })
		for _, p := range holders {
			if err := c.custodian.RefundStake(custodyLedger, p); err != nil {
				return nil, fmt.Errorf("%w: stake refund for %s: %v", domain.ErrInvariantViolation, p, err)
			}
		}
	}

	// Phase P9 (success path too) / FailureHandler: every matched/
	// fulfilled record still active at this point did not settle this
	// cycle, whether excluded by eligibility or by a global abort.
	for _, pair := range c.matchedDvPPairs() {
		if err := c.failureH.FailDvPPair(pair.buy, pair.sell); err != nil {
			return nil, fmt.Errorf("%w: failure handling for order %d: %v", domain.ErrInvariantViolation, pair.sell.ID, err)
		}
	}
	for _, p := range c.fulfilledPayments() {
		c.failureH.FailPayment(p)
	}
	for _, pair := range c.matchedSwapPairs() {
		c.failureH.FailSwapPair(pair.a, pair.b)
	}

	c.reg.CompactOrders()
	c.reg.CompactPayments()
	c.reg.CompactSwaps()

	result := &Result{CycleID: cycleID, Completed: !globalAbort, Reason: abortReason, Settled: settled}
	if globalAbort {
		c.log.Emit(events.New(events.SettlementFailed, map[string]any{events.FieldCycleID: cycleID, events.FieldReason: abortReason}))
	} else {
		c.log.Emit(events.New(events.SettlementCompleted, map[string]any{events.FieldCycleID: cycleID, "settled_count": len(settled)}))
	}
	return result, nil
}

// redistributeStakeOnAbort implements Phase P9's indemnity redistribution:
// every participant's stake collected this cycle is forfeited into one
// pool and paid out pro-rata, by gross_outgoing weight, to participants
// still eligible at the moment of abort. A zero-denominator degenerate (no
// eligible participant with positive gross_outgoing) or any floor-division
// residue is swept into Treasury rather than left silently stranded
// (spec.md §9's open-question resolution).
func (c *Controller) redistributeStakeOnAbort(custodyLedger *custody.CustodyLedger, assembly netting.Assembly, eligible map[domain.Address]bool, cycleID string) {
	forfeited := custodyLedger.ForfeitAllStake()
	if len(forfeited) == 0 {
		return
	}

	var totalValue int64
	involvedTokens := make([]domain.Token, 0, len(forfeited))
	for t, v := range forfeited {
		totalValue += v
		involvedTokens = append(involvedTokens, t)
	}

	pool := custody.NewCustodyLedger()
	for t, v := range forfeited {
		pool.SeedPool(t, v)
	}

	var sumGross int64
	for _, p := range assembly.Participants {
		if eligible[p] {
			sumGross += assembly.GrossOutgoing[p]
		}
	}

	if sumGross > 0 {
		for _, p := range assembly.Participants {
			if !eligible[p] {
				continue
			}
			share := (totalValue * assembly.GrossOutgoing[p]) / sumGross
			if share <= 0 {
				continue
			}
			if err := c.custodian.Distribute(pool, p, share, c.rankFor(p, assembly), involvedTokens); err != nil {
				continue
			}
			c.log.Emit(events.New(events.StakeDistributed, map[string]any{
				events.FieldCycleID: cycleID, events.FieldParticipant: string(p), events.FieldAmount: share,
			}))
		}
	}

	for t, v := range pool.DrainPool() {
		if v != 0 {
			c.custodian.Treasury[t] += v
		}
	}
}
