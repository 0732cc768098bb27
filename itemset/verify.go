package itemset

import (
	"fmt"
	"math/rand"
)

// Support counts the transactions containing every item of key, by plain set
// containment.
func Support(txs []Transaction, key Key) int {
	want := key.Items()
	count := 0
	for _, tx := range txs {
		have := make(map[Item]struct{}, len(tx))
		for _, item := range tx {
			have[item] = struct{}{}
		}
		contained := true
		for _, item := range want {
			if _, ok := have[item]; !ok {
				contained = false
				break
			}
		}
		if contained {
			count++
		}
	}
	return count
}

// MismatchError reports a mined count that disagrees with Support.
type MismatchError struct {
	Key      Key
	Expected int
	Got      int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("subset %s: mined count %d, support %d", e.Key, e.Got, e.Expected)
}

// Verify recomputes the support of samples randomly chosen keys of result
// and returns a *MismatchError for the first disagreement. Every key is
// checked when samples <= 0 or exceeds the number of keys.
func Verify(txs []Transaction, result Frequencies, samples int, rng *rand.Rand) error {
	keys := result.Keys()
	if samples > 0 && samples < len(keys) {
		rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
		keys = keys[:samples]
	}
	for _, k := range keys {
		if support := Support(txs, k); support != result[k] {
			return &MismatchError{Key: k, Expected: support, Got: result[k]}
		}
	}
	return nil
}
