package registry

import "clearinghouse/domain"

// SubmitSwap creates a PvP swap order: maker offers sendAmount of sendToken
// for receiveAmount of receiveToken, both fixed.
func (r *Registry) SubmitSwap(maker domain.Address, sendToken domain.Token, sendAmount int64, receiveToken domain.Token, receiveAmount int64) (domain.SwapID, error) {
	if sendAmount <= 0 {
		return 0, validationErrorf("send amount must be positive")
	}
	if receiveAmount <= 0 {
		return 0, validationErrorf("receive amount must be positive")
	}
	if sendToken == receiveToken {
		return 0, validationErrorf("send and receive tokens must differ")
	}

	id := domain.SwapID(r.swapSeq.next())
	s := domain.NewSwapOrder(id, maker, sendToken, sendAmount, receiveToken, receiveAmount)
	r.swaps[id] = s
	r.activeSwaps.Add(id)
	return id, nil
}

// CancelSwap cancels an active swap. If matched, the pairing is severed on
// both sides and the peer's FailedCycles counter is reset (spec.md §4.1).
func (r *Registry) CancelSwap(id domain.SwapID, requester domain.Address) error {
	s, ok := r.swaps[id]
	if !ok {
		return domain.ErrNotFound
	}
	if s.Maker != requester {
		return validationErrorf("swap %d is not owned by %s", id, requester)
	}
	if !s.Active {
		return validationErrorf("swap %d is not active", id)
	}

	if s.Matched {
		if peer, ok := r.swaps[s.MatchedWith]; ok {
			peer.Matched = false
			peer.MatchedWith = 0
			peer.FailedCycles = 0
		}
		s.Matched = false
		s.MatchedWith = 0
	}
	s.Active = false
	r.activeSwaps.Remove(id)
	return nil
}
