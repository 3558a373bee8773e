package markov

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/CTAG07/Shannon/pkg/ngram"
	"github.com/CTAG07/Shannon/pkg/textproc"
)

// DefaultOrders are the orders analyzed when none are given.
var DefaultOrders = []int{1, 2, 3}

// AnalysisSummary describes one completed analysis run.
type AnalysisSummary struct {
	Corpus    string
	Sentences int
	Words     int
	Chars     int
	Tables    []TableID
	// Processed is the tokenized corpus, kept for reporting.
	Processed textproc.Corpus
}

// Analyzer turns raw corpus text into frequency tables and saves them to a
// store.
type Analyzer struct {
	store  TableStore
	pre    *textproc.Preprocessor
	logger *slog.Logger
}

// NewAnalyzer returns an Analyzer that saves to store. A nil preprocessor
// is replaced by textproc.NewPreprocessor().
func NewAnalyzer(store TableStore, pre *textproc.Preprocessor) *Analyzer {
	if pre == nil {
		pre = textproc.NewPreprocessor()
	}
	return &Analyzer{
		store:  store,
		pre:    pre,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SetLogger sets the logger for the analyzer. By default, all logs are discarded.
func (a *Analyzer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		a.logger = logger
	}
}

// Analyze reads the whole corpus from data, then computes and saves a char
// and a word probability table for each order. Tables for a corpus too short
// to fill one window are saved empty. The first failure stops the run; tables
// already saved are kept.
func (a *Analyzer) Analyze(ctx context.Context, corpus string, data io.Reader, orders ...int) (*AnalysisSummary, error) {
	if len(orders) == 0 {
		orders = DefaultOrders
	}
	for _, n := range orders {
		if n < 1 {
			return nil, fmt.Errorf("%w: analysis order must be at least 1, got %d", ErrConfiguration, n)
		}
	}
	if err := (TableID{Corpus: corpus, Modality: Word, Order: 1}).Validate(); err != nil {
		return nil, err
	}

	processed, err := a.pre.ProcessReader(data)
	if err != nil {
		return nil, err
	}

	summary := &AnalysisSummary{
		Corpus:    corpus,
		Sentences: len(processed.Sentences),
		Words:     len(processed.Words),
		Chars:     len(processed.Chars),
		Processed: processed,
	}

	a.logger.InfoContext(ctx, "Corpus preprocessed",
		slog.String("corpus", corpus),
		slog.Int("sentences", summary.Sentences),
		slog.Int("words", summary.Words),
		slog.Int("chars", summary.Chars),
	)

	streams := []struct {
		modality Modality
		tokens   []string
	}{
		{Char, processed.Chars},
		{Word, processed.Words},
	}

	for _, n := range slices.Compact(slices.Sorted(slices.Values(orders))) {
		for _, s := range streams {
			if err = ctx.Err(); err != nil {
				return nil, err
			}
			id := TableID{Corpus: corpus, Modality: s.modality, Order: n}
			t, err := ngram.Compute(s.tokens, n)
			if err != nil {
				return nil, fmt.Errorf("could not compute %s: %w", id, err)
			}
			if err = a.store.Save(ctx, id, t); err != nil {
				return nil, fmt.Errorf("could not save %s: %w", id, err)
			}
			summary.Tables = append(summary.Tables, id)
			a.logger.DebugContext(ctx, "Table computed",
				slog.String("table", id.String()),
				slog.Int("keys", t.Len()),
			)
		}
	}

	a.logger.InfoContext(ctx, "Analysis complete",
		slog.String("corpus", corpus),
		slog.Int("tables", len(summary.Tables)),
	)
	return summary, nil
}
