package contentgen

import (
	"math/rand/v2"

	"estatecast/pkg/domain"
)

// Rand is the random primitive set the generator draws from. *rand.Rand from
// math/rand/v2 satisfies it, which is what tests inject with a fixed seed.
type Rand interface {
	IntN(n int) int
	Float64() float64
	Perm(n int) []int
}

// sharedRand delegates to the package-level math/rand/v2 source, which is
// safe for concurrent use.
type sharedRand struct{}

func (sharedRand) IntN(n int) int   { return rand.IntN(n) }
func (sharedRand) Float64() float64 { return rand.Float64() }
func (sharedRand) Perm(n int) []int { return rand.Perm(n) }

func choice(r Rand, items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[r.IntN(len(items))]
}

// sample picks k distinct items; a short pool is returned whole.
func sample(r Rand, pool []string, k int) []string {
	if k <= 0 || len(pool) == 0 {
		return nil
	}
	if k > len(pool) {
		k = len(pool)
	}
	idx := r.Perm(len(pool))
	out := make([]string, 0, k)
	for _, i := range idx[:k] {
		out = append(out, pool[i])
	}
	return out
}

// intBetween returns a uniform integer in [lo, hi] inclusive.
func intBetween(r Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.IntN(hi-lo+1)
}

func weightedCategory(r Rand, weights []categoryWeight) domain.Category {
	total := 0.0
	for _, w := range weights {
		total += w.weight
	}
	x := r.Float64() * total
	for _, w := range weights {
		if x < w.weight {
			return w.category
		}
		x -= w.weight
	}
	return weights[len(weights)-1].category
}
