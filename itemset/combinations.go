package itemset

// CombinationIter lazily walks the k-combinations of a slice in
// lexicographic order over the slice's positions.
//
//	it := Combinations([]Item{1, 2, 3}, 2)
//	for it.Next() {
//		// (1, 2), (1, 3), (2, 3)
//	}
type CombinationIter struct {
	items   []Item
	k       int
	idx     []int
	cur     []Item
	started bool
	done    bool
}

// Combinations returns an iterator over the k element combinations of items.
// No combination is produced when k is negative or larger than len(items).
func Combinations(items []Item, k int) *CombinationIter {
	it := &CombinationIter{items: items, k: k}
	if k < 0 || k > len(items) {
		it.done = true
		return it
	}
	it.idx = make([]int, k)
	for i := range it.idx {
		it.idx[i] = i
	}
	it.cur = make([]Item, k)
	return it
}

// Next advances to the next combination and reports whether there is one.
func (it *CombinationIter) Next() bool {
	if it.done {
		return false
	}
	if !it.started {
		it.started = true
		it.fill()
		return true
	}
	n, k := len(it.items), it.k
	// Find the rightmost position that can still move right.
	j := k - 1
	for j >= 0 && it.idx[j] == n-k+j {
		j--
	}
	if j < 0 {
		it.done = true
		return false
	}
	it.idx[j]++
	for i := j + 1; i < k; i++ {
		it.idx[i] = it.idx[i-1] + 1
	}
	it.fill()
	return true
}

func (it *CombinationIter) fill() {
	for i, p := range it.idx {
		it.cur[i] = it.items[p]
	}
}

// Items returns the current combination. The slice is reused by Next.
func (it *CombinationIter) Items() []Item {
	return it.cur
}

// Key returns the canonical key of the current combination.
func (it *CombinationIter) Key() Key {
	return NewKey(it.cur...)
}
