package ngram

import (
	"fmt"
	"iter"
	"math"
	"slices"
)

// Entry is a single key and its weight.
type Entry struct {
	Key    Key
	Weight float64
}

// Table maps n-gram keys of a single order to non-negative weights.
// Keys keep the order in which they were first observed, and that order
// survives a Save/Load round trip. A Table is never modified once built,
// so it may be shared between goroutines without locking.
type Table struct {
	order   int
	entries []Entry
	index   map[string]int
}

func newTable(order, capacity int) *Table {
	return &Table{
		order:   order,
		entries: make([]Entry, 0, capacity),
		index:   make(map[string]int, capacity),
	}
}

// NewTable builds a table of the given order from entries. Every key must
// have exactly order tokens, keys must be distinct, and weights must be
// finite and non-negative. The entries are copied.
func NewTable(order int, entries []Entry) (*Table, error) {
	if order < 1 && len(entries) > 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidOrder, order)
	}
	t := newTable(order, len(entries))
	for _, e := range entries {
		if err := t.add(e.Key, e.Weight); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// add appends a new entry. It is only used while a table is being built.
func (t *Table) add(key Key, weight float64) error {
	if len(key) != t.order {
		return fmt.Errorf("%w: key %q has %d tokens, table order is %d", ErrFormat, key.String(), len(key), t.order)
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return fmt.Errorf("%w: key %q has invalid weight %v", ErrFormat, key.String(), weight)
	}
	id := key.ID()
	if _, ok := t.index[id]; ok {
		return fmt.Errorf("%w: duplicate key %q", ErrFormat, key.String())
	}
	t.index[id] = len(t.entries)
	t.entries = append(t.entries, Entry{Key: slices.Clone(key), Weight: weight})
	return nil
}

// Order returns the number of tokens in every key of the table.
func (t *Table) Order() int {
	return t.order
}

// Len returns the number of distinct keys.
func (t *Table) Len() int {
	return len(t.entries)
}

// Weight returns the weight stored for key.
func (t *Table) Weight(key Key) (float64, bool) {
	pos, ok := t.index[key.ID()]
	if !ok {
		return 0, false
	}
	return t.entries[pos].Weight, true
}

// Entry returns the i-th entry in key order. The returned key is a copy.
func (t *Table) Entry(i int) Entry {
	e := t.entries[i]
	return Entry{Key: slices.Clone(e.Key), Weight: e.Weight}
}

// Entries returns a copy of every entry in key order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i := range t.entries {
		out[i] = t.Entry(i)
	}
	return out
}

// All iterates over the table in key order. Keys are copies.
func (t *Table) All() iter.Seq2[Key, float64] {
	return func(yield func(Key, float64) bool) {
		for _, e := range t.entries {
			if !yield(slices.Clone(e.Key), e.Weight) {
				return
			}
		}
	}
}

// Total returns the sum of all weights.
func (t *Table) Total() float64 {
	var total float64
	for _, e := range t.entries {
		total += e.Weight
	}
	return total
}

// Normalize returns a new table whose weights are this table's weights
// divided by their sum. Equal weights stay exactly equal.
func (t *Table) Normalize() *Table {
	out := newTable(t.order, len(t.entries))
	total := t.Total()
	for _, e := range t.entries {
		w := 0.0
		if total > 0 {
			w = e.Weight / total
		}
		out.index[e.Key.ID()] = len(out.entries)
		out.entries = append(out.entries, Entry{Key: e.Key, Weight: w})
	}
	return out
}

// Equal reports whether both tables have the same order and the same
// key/weight pairs. Key order is not compared. Two empty tables are equal
// regardless of order, since the persisted form of an empty table has no
// key to carry it.
func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.entries) == 0 && len(other.entries) == 0 {
		return true
	}
	if t.order != other.order || len(t.entries) != len(other.entries) {
		return false
	}
	for _, e := range t.entries {
		w, ok := other.Weight(e.Key)
		if !ok || w != e.Weight {
			return false
		}
	}
	return true
}
