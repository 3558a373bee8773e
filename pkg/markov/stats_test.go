package markov

import (
	"context"
	"math"
	"testing"
)

func TestGetStats(t *testing.T) {
	store := setupSQLStore(t)
	ctx := context.Background()

	uniform := TableID{Corpus: "dice", Modality: Char, Order: 1}
	if err := store.Save(ctx, uniform, mustTable(t, 1,
		entry(0.25, "a"), entry(0.25, "b"), entry(0.25, "c"), entry(0.25, "d"),
	)); err != nil {
		t.Fatal(err)
	}
	certain := TableID{Corpus: "dice", Modality: Word, Order: 2}
	if err := store.Save(ctx, certain, mustTable(t, 2, entry(1, "always", "this"))); err != nil {
		t.Fatal(err)
	}

	stats, err := GetStats(ctx, store)
	if err != nil {
		t.Fatalf("GetStats() failed: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("GetStats() returned %d tables, want 2", len(stats))
	}

	if stats[0].ID != uniform || stats[0].Keys != 4 {
		t.Errorf("stats[0] = %+v", stats[0])
	}
	if math.Abs(stats[0].Entropy-2) > 1e-12 || math.Abs(stats[0].Perplexity-4) > 1e-9 {
		t.Errorf("uniform entropy = %v, perplexity = %v; want 2, 4", stats[0].Entropy, stats[0].Perplexity)
	}
	if stats[1].ID != certain || stats[1].Entropy != 0 || stats[1].Perplexity != 1 {
		t.Errorf("stats[1] = %+v", stats[1])
	}
}
