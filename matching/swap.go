package matching

// MatchSwaps scans every active, unmatched swap and first-fits it against
// any other active, unmatched swap whose maker differs and whose
// amounts/tokens invert exactly (spec.md §3, §4.1). Active ids are visited
// in ascending (insertion) order, so ties resolve to the lowest id.
func (m *Matcher) MatchSwaps() int {
	matched := 0
	ids := m.reg.ActiveSwapIDs()
	for _, aID := range ids {
		a, ok := m.reg.Swap(aID)
		if !ok || !a.Active || a.Matched {
			continue
		}

		for _, bID := range ids {
			if bID == aID {
				continue
			}
			b, ok := m.reg.Swap(bID)
			if !ok || !b.Active || b.Matched {
				continue
			}
			if !a.InvertsWith(b) {
				continue
			}

			a.Matched = true
			a.MatchedWith = b.ID
			b.Matched = true
			b.MatchedWith = a.ID
			matched++
			break
		}
	}
	return matched
}
