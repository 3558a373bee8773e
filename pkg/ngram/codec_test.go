package ngram

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, table *Table) *Table {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Save(table, &buf))
	loaded, err := Load(&buf)
	require.NoError(t, err)
	return loaded
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	text := "It was the best of times, it was the worst of times; \"quoted\" <tags> & unicode: naïve café"
	for n := 1; n <= 3; n++ {
		charTable, err := Compute(chars(text), n)
		require.NoError(t, err)
		loaded := roundTrip(t, charTable)
		assert.True(t, charTable.Equal(loaded), "char order %d", n)
		assert.Equal(t, charTable.Entries(), loaded.Entries(), "key order must survive the round trip")

		wordTable, err := Compute(strings.Fields(text), n)
		require.NoError(t, err)
		assert.True(t, wordTable.Equal(roundTrip(t, wordTable)), "word order %d", n)
	}
}

func TestSaveLoad_CountsAndAwkwardWeights(t *testing.T) {
	table, err := NewTable(2, []Entry{
		{Key: NewKey("a", "b"), Weight: 3},
		{Key: NewKey("", "b"), Weight: 0},
		{Key: NewKey("a", ""), Weight: 1e-300},
		{Key: NewKey("x", "y"), Weight: 1.0 / 3.0},
		{Key: NewKey("a|b", "c"), Weight: 0.1 + 0.2},
	})
	require.NoError(t, err)
	assert.True(t, table.Equal(roundTrip(t, table)))
}

func TestSaveLoad_Empty(t *testing.T) {
	empty, err := Compute(nil, 2)
	require.NoError(t, err)

	loaded := roundTrip(t, empty)
	assert.Equal(t, 0, loaded.Len())
	assert.Equal(t, 0, loaded.Order(), "an empty object carries no order")
	assert.True(t, empty.Equal(loaded))

	short, err := Compute([]string{"a"}, 2)
	require.NoError(t, err)
	assert.True(t, short.Equal(roundTrip(t, short)))
}

func TestTableEqual_Empty(t *testing.T) {
	two, err := NewTable(2, nil)
	require.NoError(t, err)
	three, err := NewTable(3, nil)
	require.NoError(t, err)
	full, err := Compute([]string{"a", "b"}, 2)
	require.NoError(t, err)

	assert.True(t, two.Equal(three))
	assert.False(t, two.Equal(full))
	assert.False(t, full.Equal(two))
}

func TestSave_NilTable(t *testing.T) {
	var buf bytes.Buffer
	err := Save(nil, &buf)
	require.ErrorIs(t, err, ErrNilTable)
	assert.Zero(t, buf.Len())
}

func TestSave_RejectsDelimiterInToken(t *testing.T) {
	tests := []struct {
		name string
		key  Key
	}{
		{name: "delimiter inside word", key: NewKey("a||b", "c")},
		{name: "delimiter as unigram", key: NewKey("||")},
		{name: "trailing pipe before delimiter", key: NewKey("a|", "b")},
		{name: "pipe token next to delimiter", key: NewKey("|", "b")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewTable(len(tt.key), []Entry{{Key: tt.key, Weight: 1}})
			require.NoError(t, err)

			var buf bytes.Buffer
			err = Save(table, &buf)
			require.ErrorIs(t, err, ErrSerialization)
			assert.Zero(t, buf.Len(), "nothing may be written when a key is rejected")

			var keyErr *KeyError
			require.ErrorAs(t, err, &keyErr)
			assert.Equal(t, tt.key, keyErr.Key)
		})
	}
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: "hello"},
		{name: "array", input: `[1, 2]`},
		{name: "string weight", input: `{"a": "0.5"}`},
		{name: "null weight", input: `{"a": null}`},
		{name: "object weight", input: `{"a": {"b": 1}}`},
		{name: "negative weight", input: `{"a": -0.5}`},
		{name: "inconsistent arity", input: `{"a||b": 0.5, "c": 0.5}`},
		{name: "duplicate key", input: `{"a": 0.5, "a": 0.5}`},
		{name: "truncated", input: `{"a": 0.5`},
		{name: "trailing data", input: `{"a": 1} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestLoad_InfersOrder(t *testing.T) {
	table, err := Load(strings.NewReader(`{"the||quick": 0.5, "quick||brown": 0.5}`))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Order())
	w, ok := table.Weight(NewKey("quick", "brown"))
	assert.True(t, ok)
	assert.Equal(t, 0.5, w)
}

func TestFile_RoundTripAndNotFound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "austen_word_2-gram.json")

	_, err := LoadFile(path)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), path)

	table, err := Compute(strings.Fields("to be or not to be"), 2)
	require.NoError(t, err)
	require.NoError(t, SaveFile(table, path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, table.Equal(loaded))

	require.NoError(t, os.WriteFile(path, []byte(`{"to||be": "x"}`), 0o644))
	_, err = LoadFile(path)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestSaveFile_KeepsOldFileOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json")
	good, err := Compute([]string{"a", "b"}, 1)
	require.NoError(t, err)
	require.NoError(t, SaveFile(good, path))

	bad, err := NewTable(1, []Entry{{Key: NewKey("a||b"), Weight: 1}})
	require.NoError(t, err)
	require.ErrorIs(t, SaveFile(bad, path), ErrSerialization)

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, good.Equal(loaded))
}
