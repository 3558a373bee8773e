package ngram

import (
	"math"
	"sort"
)

// Entropy returns the Shannon entropy, in bits, of the distribution
// obtained by normalizing weights. Zero weights contribute nothing.
func Entropy(weights []float64) float64 {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 0
	}
	var h float64
	for _, w := range weights {
		if w <= 0 {
			continue
		}
		p := w / total
		h -= p * math.Log2(p)
	}
	return h
}

// Perplexity converts an entropy in bits to perplexity.
func Perplexity(entropy float64) float64 {
	return math.Pow(2, entropy)
}

// Entropy returns the entropy of the table's distribution in bits.
func (t *Table) Entropy() float64 {
	weights := make([]float64, len(t.entries))
	for i, e := range t.entries {
		weights[i] = e.Weight
	}
	return Entropy(weights)
}

// Top returns up to k entries with the largest weights, heaviest first.
// Ties keep key order.
func (t *Table) Top(k int) []Entry {
	entries := t.Entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Weight > entries[j].Weight
	})
	if k >= 0 && k < len(entries) {
		entries = entries[:k]
	}
	return entries
}
