// Package sampling generates bootstrap sampling sets (inner bags) over a
// training set's rows.
package sampling

import "github.com/ebmcore/boosting/internal/randstream"

// Set is one bootstrap sample: Counts[i] is the number of times training
// row i appears in this bag. Counts always sums to len(Counts).
type Set struct {
	Counts []uint64
}

// Generate builds count bootstrap bags over n training rows, each drawn by
// sampling n indices uniformly with replacement. When count == 0 it returns
// a single pseudo-bag of all ones (plain boosting over the full set, no
// bagging).
func Generate(rng *randstream.Stream, n int, count int) []Set {
	if count == 0 {
		ones := make([]uint64, n)
		for i := range ones {
			ones[i] = 1
		}
		return []Set{{Counts: ones}}
	}

	sets := make([]Set, count)
	for b := 0; b < count; b++ {
		counts := make([]uint64, n)
		for i := 0; i < n; i++ {
			if n == 0 {
				break
			}
			draw := rng.NextInRange(uint64(n))
			counts[draw]++
		}
		sets[b] = Set{Counts: counts}
	}
	return sets
}
