package registry

import "clearinghouse/domain"

// ConfigureAccepted sets a participant's accepted token set and preferred
// token, clearing any previously configured rank (spec.md §3: rank[0] must
// equal preferred whenever rank is set — the simplest way to keep that
// invariant across repeated calls is to drop a stale rank when Accepted or
// Preferred changes via this path).
func (r *Registry) ConfigureAccepted(p domain.Address, accepted []domain.Token, preferred domain.Token) error {
	cfg := domain.UserConfig{
		Accepted:  append([]domain.Token(nil), accepted...),
		Preferred: preferred,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.configs[p] = cfg
	return nil
}

// ConfigureRanked sets a participant's accepted token set and an explicit
// preference ranking over it (first = most preferred). ranked[0] becomes
// the participant's preferred token.
func (r *Registry) ConfigureRanked(p domain.Address, accepted []domain.Token, ranked []domain.Token) error {
	if len(ranked) == 0 {
		return validationErrorf("ranked sequence must be non-empty")
	}
	cfg := domain.UserConfig{
		Accepted:  append([]domain.Token(nil), accepted...),
		Preferred: ranked[0],
		Rank:      append([]domain.Token(nil), ranked...),
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	r.configs[p] = cfg
	return nil
}
