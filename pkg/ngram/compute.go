package ngram

import "fmt"

// Count slides a window of width n over tokens with stride 1 and counts how
// often each distinct window occurs. The result holds len(tokens)-n+1
// observations in total, or none when tokens is shorter than n.
func Count(tokens []string, n int) (*Table, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOrder, n)
	}
	windows := len(tokens) - n + 1
	if windows < 0 {
		windows = 0
	}
	// Vocabulary is usually far smaller than the corpus.
	t := newTable(n, min(windows, 1<<12))
	for i := 0; i < windows; i++ {
		window := Key(tokens[i : i+n])
		id := window.ID()
		if pos, ok := t.index[id]; ok {
			t.entries[pos].Weight++
			continue
		}
		t.index[id] = len(t.entries)
		t.entries = append(t.entries, Entry{Key: NewKey(window...), Weight: 1})
	}
	return t, nil
}

// Compute returns the n-gram probability table of tokens. Counts are
// accumulated in one pass and normalized in a second, so the returned
// table is always a complete distribution.
func Compute(tokens []string, n int) (*Table, error) {
	counts, err := Count(tokens, n)
	if err != nil {
		return nil, err
	}
	return counts.Normalize(), nil
}
