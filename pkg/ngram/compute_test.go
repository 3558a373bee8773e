package ngram

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chars(s string) []string {
	return strings.Split(s, "")
}

func TestCount_Windows(t *testing.T) {
	tests := []struct {
		name     string
		tokens   []string
		n        int
		wantKeys int
		wantObs  float64
	}{
		{name: "unigrams", tokens: chars("abracadabra"), n: 1, wantKeys: 5, wantObs: 11},
		{name: "bigrams", tokens: chars("abracadabra"), n: 2, wantKeys: 7, wantObs: 10},
		{name: "trigrams", tokens: chars("abracadabra"), n: 3, wantKeys: 7, wantObs: 9},
		{name: "window equals input", tokens: []string{"a", "b"}, n: 2, wantKeys: 1, wantObs: 1},
		{name: "input shorter than window", tokens: []string{"a", "b"}, n: 3, wantKeys: 0, wantObs: 0},
		{name: "empty input", tokens: nil, n: 1, wantKeys: 0, wantObs: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Count(tt.tokens, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.n, table.Order())
			assert.Equal(t, tt.wantKeys, table.Len())
			assert.Equal(t, tt.wantObs, table.Total())
			for key := range table.All() {
				assert.Len(t, key, tt.n)
			}
		})
	}
}

func TestCount_InvalidOrder(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := Count([]string{"a"}, n)
		assert.ErrorIs(t, err, ErrInvalidOrder)
		_, err = Compute([]string{"a"}, n)
		assert.ErrorIs(t, err, ErrInvalidOrder)
	}
}

func TestCompute_Normalized(t *testing.T) {
	words := strings.Fields("the quick brown fox jumps over the lazy dog and the quick cat")
	for n := 1; n <= 4; n++ {
		table, err := Compute(words, n)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, table.Total(), 1e-6, "order %d", n)
	}

	table, err := Compute(words, 2)
	require.NoError(t, err)
	w, ok := table.Weight(NewKey("the", "quick"))
	require.True(t, ok)
	assert.Equal(t, 2.0/12.0, w)
}

func TestCompute_TiesAreExact(t *testing.T) {
	table, err := Compute(chars("abcabcabc"), 1)
	require.NoError(t, err)

	a, _ := table.Weight(NewKey("a"))
	b, _ := table.Weight(NewKey("b"))
	c, _ := table.Weight(NewKey("c"))
	assert.True(t, a == b && b == c, "tied counts must give identical probabilities: %v %v %v", a, b, c)
}

func TestCompute_KeyOrderFollowsCorpus(t *testing.T) {
	table, err := Compute(chars("banana"), 2)
	require.NoError(t, err)

	var got []string
	for key := range table.All() {
		got = append(got, key.String())
	}
	assert.Equal(t, []string{"b||a", "a||n", "n||a"}, got)
}

func TestCompute_EmptyWhenShort(t *testing.T) {
	table, err := Compute([]string{"only"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, 2, table.Order())
}

func TestNewTable_Validation(t *testing.T) {
	_, err := NewTable(2, []Entry{{Key: NewKey("a"), Weight: 1}})
	assert.ErrorIs(t, err, ErrFormat)

	_, err = NewTable(1, []Entry{{Key: NewKey("a"), Weight: -1}})
	assert.ErrorIs(t, err, ErrFormat)

	_, err = NewTable(1, []Entry{{Key: NewKey("a"), Weight: 1}, {Key: NewKey("a"), Weight: 2}})
	assert.ErrorIs(t, err, ErrFormat)

	_, err = NewTable(0, []Entry{{Key: NewKey("a"), Weight: 1}})
	assert.ErrorIs(t, err, ErrInvalidOrder)

	table, err := NewTable(1, []Entry{{Key: NewKey("a"), Weight: 3}, {Key: NewKey("b"), Weight: 1}})
	require.NoError(t, err)
	norm := table.Normalize()
	w, _ := norm.Weight(NewKey("a"))
	assert.Equal(t, 0.75, w)
	w, _ = table.Weight(NewKey("a"))
	assert.Equal(t, 3.0, w, "Normalize must not touch the source table")
}

func TestTable_EntriesAreCopies(t *testing.T) {
	table, err := NewTable(1, []Entry{{Key: NewKey("a"), Weight: 1}})
	require.NoError(t, err)

	entries := table.Entries()
	entries[0].Key[0] = "z"
	_, ok := table.Weight(NewKey("a"))
	assert.True(t, ok)
}

func TestKey(t *testing.T) {
	k := NewKey("the", "quick", "fox")
	assert.Equal(t, 3, k.Order())
	assert.Equal(t, Key{"the", "quick"}, k.Prefix())
	assert.Equal(t, "fox", k.Last())
	assert.Equal(t, "the||quick||fox", k.String())
	assert.True(t, ParseKey(k.String()).Equal(k))
	assert.Empty(t, NewKey("a").Prefix())
	assert.NotEqual(t, NewKey("a|", "b").ID(), NewKey("a", "|b").ID())
}

func BenchmarkCompute(b *testing.B) {
	text := strings.Repeat("it is a truth universally acknowledged that a single man in possession of a good fortune must be in want of a wife ", 200)
	tokens := chars(text)
	for _, n := range []int{1, 2, 3} {
		b.Run(fmt.Sprintf("Order%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := Compute(tokens, n); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
