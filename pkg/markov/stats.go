package markov

import (
	"context"

	"github.com/CTAG07/Shannon/pkg/ngram"
)

// TableStats holds information measures for a single stored table.
type TableStats struct {
	ID         TableID `json:"id"`
	Keys       int     `json:"keys"`       // The number of distinct n-grams.
	Total      float64 `json:"total"`      // The sum of all weights; 1 for probability tables.
	Entropy    float64 `json:"entropy"`    // Shannon entropy in bits.
	Perplexity float64 `json:"perplexity"` // 2^Entropy.
}

// GetStats returns a snapshot of statistics for every table in store.
func GetStats(ctx context.Context, store TableStore) ([]TableStats, error) {
	ids, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := make([]TableStats, 0, len(ids))
	for _, id := range ids {
		t, err := store.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		stats = append(stats, tableStats(id, t))
	}
	return stats, nil
}

func tableStats(id TableID, t *ngram.Table) TableStats {
	h := t.Entropy()
	return TableStats{
		ID:         id,
		Keys:       t.Len(),
		Total:      t.Total(),
		Entropy:    h,
		Perplexity: ngram.Perplexity(h),
	}
}
