package itemset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKeyIsCanonical(t *testing.T) {
	assert.Equal(t, NewKey(1, 2, 3), NewKey(3, 1, 2))
	assert.Equal(t, NewKey(1, 2, 3), NewKey(2, 3, 1, 2, 3))
	assert.NotEqual(t, NewKey(1, 2), NewKey(1, 2, 3))
	assert.Equal(t, 3, NewKey(7, 5, 6).Len())
	assert.Equal(t, 0, NewKey().Len())
}

func TestKeyItems(t *testing.T) {
	assert.Equal(t, []Item{-4, 0, 9}, NewKey(9, -4, 0).Items())
	assert.Equal(t, "(1, 2, 30)", NewKey(30, 2, 1).String())
	assert.Equal(t, "()", NewKey().String())
}

func TestKeyOrderFollowsItemOrder(t *testing.T) {
	freq := Frequencies{
		NewKey(2, 3, 4): 1,
		NewKey(10, 11):  1,
		NewKey(-1, 5):   1,
		NewKey(2, 3):    1,
	}
	assert.Equal(t, []Key{NewKey(-1, 5), NewKey(2, 3), NewKey(10, 11), NewKey(2, 3, 4)}, freq.Keys())
}

func TestCanonical(t *testing.T) {
	in := []Item{4, 2, 2, 9, 0}
	assert.Equal(t, []Item{0, 2, 4, 9}, Canonical(in))
	// input untouched
	assert.Equal(t, []Item{4, 2, 2, 9, 0}, in)
	assert.Equal(t, []Item{}, Canonical(nil))
}

func TestFrontierElements(t *testing.T) {
	f := FrontierOf(Frequencies{NewKey(1, 2): 4, NewKey(2, 5): 3})
	assert.True(t, f.Has(NewKey(2, 1)))
	assert.False(t, f.Has(NewKey(1, 5)))
	assert.Equal(t, map[Item]struct{}{1: {}, 2: {}, 5: {}}, f.Elements())
}

func collect(it *CombinationIter) [][]Item {
	out := make([][]Item, 0)
	for it.Next() {
		c := make([]Item, len(it.Items()))
		copy(c, it.Items())
		out = append(out, c)
	}
	return out
}

func TestCombinations(t *testing.T) {
	assert.Equal(t, [][]Item{
		{1, 2}, {1, 3}, {1, 4}, {2, 3}, {2, 4}, {3, 4},
	}, collect(Combinations([]Item{1, 2, 3, 4}, 2)))

	// Input order is kept, nothing is sorted.
	assert.Equal(t, [][]Item{
		{3, 1}, {3, 2}, {1, 2},
	}, collect(Combinations([]Item{3, 1, 2}, 2)))

	assert.Equal(t, [][]Item{{1, 2, 3}}, collect(Combinations([]Item{1, 2, 3}, 3)))
	assert.Equal(t, [][]Item{{}}, collect(Combinations([]Item{1, 2, 3}, 0)))
	assert.Empty(t, collect(Combinations([]Item{1, 2, 3}, 4)))
	assert.Empty(t, collect(Combinations([]Item{1, 2, 3}, -1)))
	assert.Len(t, collect(Combinations([]Item{1, 2, 3, 4, 5, 6, 7}, 3)), 35)
}

func TestCombinationKeysAreCanonical(t *testing.T) {
	it := Combinations([]Item{3, 1, 2}, 2)
	assert.True(t, it.Next())
	assert.Equal(t, NewKey(1, 3), it.Key())
}

func TestIsValidSubset(t *testing.T) {
	valid := FrontierOf(Frequencies{NewKey(1, 2): 1, NewKey(1, 3): 1, NewKey(2, 3): 1})
	assert.True(t, IsValidSubset([]Item{1, 2, 3}, 3, valid))
	assert.True(t, IsValidSubset([]Item{3, 2, 1}, 3, valid))

	missing := FrontierOf(Frequencies{NewKey(1, 2): 1, NewKey(1, 3): 1})
	assert.False(t, IsValidSubset([]Item{1, 2, 3}, 3, missing))
	assert.False(t, IsValidSubset([]Item{1, 2, 4}, 3, valid))

	// Single items only have the empty subset.
	assert.False(t, IsValidSubset([]Item{7}, 1, valid))
	assert.True(t, IsValidSubset([]Item{7}, 1, Frontier{NewKey(): {}}))
}

func TestValidCandidates(t *testing.T) {
	valid := FrontierOf(Frequencies{NewKey(1, 2): 1, NewKey(1, 3): 1, NewKey(2, 3): 1})
	it := ValidCandidates([]Item{1, 2, 3, 4}, 3, valid)
	keys := make([]Key, 0)
	for it.Next() {
		keys = append(keys, it.Key())
	}
	assert.Equal(t, []Key{NewKey(1, 2, 3)}, keys)

	valid[NewKey(1, 4)] = struct{}{}
	valid[NewKey(2, 4)] = struct{}{}
	it = ValidCandidates([]Item{1, 2, 3, 4}, 3, valid)
	keys = keys[:0]
	for it.Next() {
		keys = append(keys, it.Key())
		assert.Len(t, it.Items(), 3)
	}
	assert.Equal(t, []Key{NewKey(1, 2, 3), NewKey(1, 2, 4)}, keys)

	empty := ValidCandidates([]Item{1, 2}, 3, valid)
	assert.False(t, empty.Next())
}
