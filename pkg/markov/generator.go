package markov

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/CTAG07/Shannon/pkg/ngram"
)

// Generator produces text from a single frequency table for a fixed
// (modality, order) pair. It holds no per-call state: the table and the
// derived prefix index are read-only, so one Generator may serve any number
// of concurrent Generate calls.
type Generator struct {
	table    *ngram.Table
	modality Modality
	order    int
	starts   []ngram.Key
	samplers map[string]*sampler // context prefix ID -> candidates
	logger   *slog.Logger
}

// NewGenerator validates its arguments and indexes table by context prefix.
//
// For order >= 1 the table must have exactly that order. Order 0 takes an
// order-1 table and samples every token from its unconditional
// distribution. A nil or empty table fails with ErrEmptyTable.
func NewGenerator(table *ngram.Table, modality Modality, order int) (*Generator, error) {
	if err := modality.Validate(); err != nil {
		return nil, err
	}
	if order < 0 {
		return nil, fmt.Errorf("%w: order must be non-negative, got %d", ErrConfiguration, order)
	}
	if table == nil || table.Len() == 0 {
		return nil, ErrEmptyTable
	}
	if want := max(order, 1); table.Order() != want {
		return nil, fmt.Errorf("%w: order %d generation needs an order %d table, got order %d", ErrConfiguration, order, want, table.Order())
	}

	g := &Generator{
		table:    table,
		modality: modality,
		order:    order,
		starts:   make([]ngram.Key, 0, table.Len()),
		samplers: make(map[string]*sampler),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	// Order 0 and order 1 both key every candidate under the empty prefix;
	// they differ only in how generation starts.
	for key, weight := range table.All() {
		g.starts = append(g.starts, key)
		id := key.Prefix().ID()
		s, ok := g.samplers[id]
		if !ok {
			s = &sampler{}
			g.samplers[id] = s
		}
		s.add(key.Last(), weight)
	}

	return g, nil
}

// SetLogger sets the logger for the Generator. By default, all logs are discarded.
func (g *Generator) SetLogger(logger *slog.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// Modality returns the generator's modality.
func (g *Generator) Modality() Modality {
	return g.modality
}

// Order returns the generator's Markov order.
func (g *Generator) Order() int {
	return g.order
}

// Table returns the table the generator samples from.
func (g *Generator) Table() *ngram.Table {
	return g.table
}

// candidates returns the sampler for a context, if any key continues it.
func (g *Generator) candidates(prefix ngram.Key) (*sampler, bool) {
	s, ok := g.samplers[prefix.ID()]
	return s, ok
}
