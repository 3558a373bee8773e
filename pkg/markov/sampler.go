package markov

import (
	"math/rand/v2"
	"sort"
)

// sampler draws a token from a fixed weighted candidate set using a
// cumulative-weight table.
type sampler struct {
	tokens []string
	cum    []float64
	total  float64
}

func (s *sampler) add(token string, weight float64) {
	s.total += weight
	s.tokens = append(s.tokens, token)
	s.cum = append(s.cum, s.total)
}

// draw picks a token with probability proportional to its weight. It draws
// r from [0, total) and returns the first candidate whose cumulative weight
// exceeds r. When no candidate qualifies, which only happens when every
// weight is zero or at the floating-point boundary, it falls back to a
// uniform pick and reports fallback = true.
//
// The comparison is strict: with >= a zero-weight candidate whose
// cumulative weight equals r could be chosen. The two rules differ only
// when r lands exactly on a cumulative boundary.
func (s *sampler) draw(rng *rand.Rand) (token string, fallback bool) {
	if s.total > 0 {
		r := rng.Float64() * s.total
		i := sort.Search(len(s.cum), func(i int) bool { return s.cum[i] > r })
		if i < len(s.cum) {
			return s.tokens[i], false
		}
	}
	// Last resort, should be rare.
	return s.tokens[rng.IntN(len(s.tokens))], true
}
