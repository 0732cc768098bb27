package itemset

// IsValidSubset reports whether every size-1 element sub-combination of
// candidate is present in frontier. A subset can only be frequent when all of
// its immediate subsets are, so a candidate failing this check is never
// counted.
func IsValidSubset(candidate []Item, size int, frontier Frontier) bool {
	sub := Combinations(candidate, size-1)
	for sub.Next() {
		if !frontier.Has(sub.Key()) {
			return false
		}
	}
	return true
}

// CandidateIter yields the combinations of a transaction that pass
// IsValidSubset against a frontier.
type CandidateIter struct {
	combos   *CombinationIter
	size     int
	frontier Frontier
}

// ValidCandidates returns a lazy iterator over the size element combinations
// of items whose immediate sub-combinations all lie in frontier. Order
// follows Combinations.
func ValidCandidates(items []Item, size int, frontier Frontier) *CandidateIter {
	return &CandidateIter{
		combos:   Combinations(items, size),
		size:     size,
		frontier: frontier,
	}
}

func (c *CandidateIter) Next() bool {
	for c.combos.Next() {
		if IsValidSubset(c.combos.Items(), c.size, c.frontier) {
			return true
		}
	}
	return false
}

// Items returns the current candidate. The slice is reused by Next.
func (c *CandidateIter) Items() []Item {
	return c.combos.Items()
}

func (c *CandidateIter) Key() Key {
	return c.combos.Key()
}
