package markov

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/CTAG07/Shannon/pkg/ngram"
)

// ExportedTable is the serializable representation of a stored table,
// used for JSON-based import and export. Entries holds the table in its
// persisted flat form, so key order survives the transfer.
type ExportedTable struct {
	Corpus   string          `json:"corpus"`
	Modality Modality        `json:"modality"`
	Order    int             `json:"order"`
	Entries  json.RawMessage `json:"entries"`
}

// ExportTable serializes the table named by id and writes it to w. This is
// useful for backups or for moving tables between stores.
func ExportTable(ctx context.Context, store TableStore, id TableID, w io.Writer) error {
	t, err := store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("could not load table %s for export: %w", id, err)
	}

	var entries bytes.Buffer
	if err = ngram.Save(t, &entries); err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportedTable{
		Corpus:   id.Corpus,
		Modality: id.Modality,
		Order:    id.Order,
		Entries:  entries.Bytes(),
	})
}

// ImportTable reads an exported table from r and saves it to store,
// replacing any table with the same identity. It returns the identity of
// the imported table.
func ImportTable(ctx context.Context, store TableStore, r io.Reader) (TableID, error) {
	var imported ExportedTable
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return TableID{}, fmt.Errorf("%w: failed to decode exported table: %v", ngram.ErrFormat, err)
	}

	id := TableID{Corpus: imported.Corpus, Modality: imported.Modality, Order: imported.Order}
	if err := id.Validate(); err != nil {
		return TableID{}, err
	}
	if len(imported.Entries) == 0 {
		return TableID{}, fmt.Errorf("%w: exported table %s has no entries object", ngram.ErrFormat, id)
	}

	t, err := ngram.Load(bytes.NewReader(imported.Entries))
	if err != nil {
		return TableID{}, fmt.Errorf("exported table %s: %w", id, err)
	}
	if t.Len() == 0 {
		// An empty object carries no order; give it the envelope's.
		if t, err = ngram.NewTable(id.Order, nil); err != nil {
			return TableID{}, err
		}
	}
	if t.Order() != id.Order {
		return TableID{}, fmt.Errorf("%w: exported table %s holds order %d keys", ngram.ErrFormat, id, t.Order())
	}

	if err = store.Save(ctx, id, t); err != nil {
		return TableID{}, err
	}
	return id, nil
}
