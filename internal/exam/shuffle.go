package exam

import "math/rand/v2"

// Rand is the source of randomness used for shuffling.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand draws from the process-wide generator.
var DefaultRand Rand = globalRand{}

// Shuffle returns a new slice holding the elements of in in uniformly random
// order (Fisher–Yates). The input slice is never modified.
func Shuffle[T any](in []T, rng Rand) []T {
	if rng == nil {
		rng = DefaultRand
	}

	out := make([]T, len(in))
	copy(out, in)

	for i := len(out) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
