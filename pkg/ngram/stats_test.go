package ngram

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntropy(t *testing.T) {
	expected := -0.5*math.Log2(0.5) - 0.3*math.Log2(0.3) - 0.2*math.Log2(0.2)
	assert.InDelta(t, expected, Entropy([]float64{0.5, 0.3, 0.2}), 1e-9)

	// Counts normalize to the same distribution.
	assert.InDelta(t, expected, Entropy([]float64{5, 3, 2}), 1e-9)

	assert.Equal(t, 0.0, Entropy(nil))
	assert.Equal(t, 0.0, Entropy([]float64{1}))
	assert.InDelta(t, 2.0, Entropy([]float64{1, 1, 1, 1, 0}), 1e-12)
}

func TestPerplexity(t *testing.T) {
	h := Entropy([]float64{0.5, 0.3, 0.2})
	assert.InDelta(t, math.Pow(2, h), Perplexity(h), 1e-12)
	assert.InDelta(t, 4.0, Perplexity(2), 1e-12)
}

func TestTable_Top(t *testing.T) {
	table, err := Compute(strings.Fields("a b a c a b d"), 1)
	require.NoError(t, err)

	top := table.Top(2)
	require.Len(t, top, 2)
	assert.Equal(t, Key{"a"}, top[0].Key)
	assert.Equal(t, Key{"b"}, top[1].Key)

	all := table.Top(10)
	assert.Len(t, all, 4)
	assert.Equal(t, Key{"c"}, all[2].Key, "ties keep key order")

	assert.InDelta(t, table.Entropy(), Entropy([]float64{3, 2, 1, 1}), 1e-12)
}
