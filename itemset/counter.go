package itemset

import (
	"errors"
)

var (
	ErrInvalidSupport    = errors.New("support count sigma must be at least 1")
	ErrInvalidSubsetSize = errors.New("subset size must be at least 1")
	ErrInvalidMinSetSize = errors.New("minimum subset size must be at least 2")
)

// CountLevel counts every subset of exactly size items over txs and returns
// those occurring in at least sigma transactions.
//
// frontier holds the frequent keys of size-1 items from the previous level.
// When it is empty every combination of every transaction is counted.
// Otherwise transactions are first restricted to items appearing in the
// frontier and only candidates whose immediate subsets are all in the
// frontier are generated.
//
// Transactions are canonicalised before use, so item order and duplicates in
// the input do not matter. txs is never modified.
func CountLevel(txs []Transaction, sigma, size int, frontier Frontier) (Frequencies, error) {
	if sigma < 1 {
		return nil, ErrInvalidSupport
	}
	if size < 1 {
		return nil, ErrInvalidSubsetSize
	}

	pruning := len(frontier) > 0
	var validElements map[Item]struct{}
	if pruning {
		validElements = frontier.Elements()
	}

	counts := make(map[Key]int)
	for _, tx := range txs {
		items := Canonical(tx)
		if pruning {
			items = restrict(items, validElements)
		}
		if len(items) < size {
			continue
		}

		if !pruning {
			combos := Combinations(items, size)
			for combos.Next() {
				counts[combos.Key()]++
			}
			continue
		}

		// Only the sub-combinations this transaction actually holds can
		// validate one of its candidates.
		reduced := make(Frontier)
		subs := Combinations(items, size-1)
		for subs.Next() {
			if k := subs.Key(); frontier.Has(k) {
				reduced[k] = struct{}{}
			}
		}
		if len(reduced) == 0 {
			continue
		}
		candidates := ValidCandidates(items, size, reduced)
		for candidates.Next() {
			counts[candidates.Key()]++
		}
	}

	return filterSupport(counts, sigma), nil
}

// restrict keeps the items present in valid. items is owned by the caller
// and filtered in place.
func restrict(items []Item, valid map[Item]struct{}) []Item {
	n := 0
	for _, item := range items {
		if _, ok := valid[item]; ok {
			items[n] = item
			n++
		}
	}
	return items[:n]
}

func filterSupport(counts map[Key]int, sigma int) Frequencies {
	freq := make(Frequencies)
	for k, c := range counts {
		if c >= sigma {
			freq[k] = c
		}
	}
	return freq
}
