package bot

import (
	"math/rand"
	"time"
)

// newRng returns the random source of one search. Searches never share a
// source, so concurrent searches need no locking. A zero seed draws one
// from the clock.
func newRng(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// pick returns a uniformly chosen element of xs. xs must be non-empty.
func pick[T any](rng *rand.Rand, xs []T) T {
	return xs[rng.Intn(len(xs))]
}
