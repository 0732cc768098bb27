package itemset

import (
	"encoding/binary"
	"sort"
	"strconv"
	"strings"
)

// Item is an item identifier inside a transaction.
type Item int64

// Transaction is one record's collection of items.
type Transaction []Item

const itemWidth = 8

// Key identifies a subset of items. Keys are canonical: the encoded items are
// ascending and duplicate free, so two keys built from the same logical set
// are equal no matter the order the items were supplied in.
type Key string

// Frequencies maps a subset to the number of transactions containing it.
type Frequencies map[Key]int

// Frontier is the set of frequent keys of the previous level.
type Frontier map[Key]struct{}

// NewKey builds the canonical key for items.
func NewKey(items ...Item) Key {
	if isCanonical(items) {
		return encodeKey(items)
	}
	return encodeKey(Canonical(items))
}

func encodeKey(sorted []Item) Key {
	buf := make([]byte, itemWidth*len(sorted))
	for i, item := range sorted {
		// Flip the sign bit so byte order matches numeric order.
		binary.BigEndian.PutUint64(buf[i*itemWidth:], uint64(item)^(1<<63))
	}
	return Key(buf)
}

// Len returns the number of items in the key.
func (k Key) Len() int {
	return len(k) / itemWidth
}

// Items decodes the key into its ascending items.
func (k Key) Items() []Item {
	items := make([]Item, k.Len())
	for i := range items {
		items[i] = Item(binary.BigEndian.Uint64([]byte(k[i*itemWidth:(i+1)*itemWidth])) ^ (1 << 63))
	}
	return items
}

func (k Key) String() string {
	items := k.Items()
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = strconv.FormatInt(int64(item), 10)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Canonical returns a sorted, duplicate free copy of items.
func Canonical(items []Item) []Item {
	c := make([]Item, len(items))
	copy(c, items)
	sort.Slice(c, func(i, j int) bool { return c[i] < c[j] })
	n := 0
	for i, item := range c {
		if i > 0 && item == c[n-1] {
			continue
		}
		c[n] = item
		n++
	}
	return c[:n]
}

func isCanonical(items []Item) bool {
	for i := 1; i < len(items); i++ {
		if items[i-1] >= items[i] {
			return false
		}
	}
	return true
}

// FrontierOf returns the keys of freq as a frontier.
func FrontierOf(freq Frequencies) Frontier {
	f := make(Frontier, len(freq))
	for k := range freq {
		f[k] = struct{}{}
	}
	return f
}

func (f Frontier) Has(k Key) bool {
	_, ok := f[k]
	return ok
}

// Elements returns every item appearing in at least one key of the frontier.
func (f Frontier) Elements() map[Item]struct{} {
	elements := make(map[Item]struct{})
	for k := range f {
		for _, item := range k.Items() {
			elements[item] = struct{}{}
		}
	}
	return elements
}

// Keys returns the keys of freq ordered by length, then item order.
func (freq Frequencies) Keys() []Key {
	keys := make([]Key, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Len() != keys[j].Len() {
			return keys[i].Len() < keys[j].Len()
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Merge copies every entry of other into freq.
func (freq Frequencies) Merge(other Frequencies) {
	for k, v := range other {
		freq[k] = v
	}
}
