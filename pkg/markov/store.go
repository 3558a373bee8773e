package markov

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/CTAG07/Shannon/pkg/ngram"
)

// TableID names one persisted frequency table: a corpus analyzed for one
// modality at one order.
type TableID struct {
	Corpus   string   `json:"corpus"`
	Modality Modality `json:"modality"`
	Order    int      `json:"order"`
}

// String returns the table's base name, e.g. "austen_word_2-gram".
func (id TableID) String() string {
	return fmt.Sprintf("%s_%s_%d-gram", id.Corpus, id.Modality, id.Order)
}

// Validate checks that id can name a persisted table.
func (id TableID) Validate() error {
	if id.Corpus == "" || strings.ContainsAny(id.Corpus, `/\`) || id.Corpus == "." || id.Corpus == ".." {
		return fmt.Errorf("%w: invalid corpus name %q", ErrConfiguration, id.Corpus)
	}
	if err := id.Modality.Validate(); err != nil {
		return err
	}
	if id.Order < 1 {
		return fmt.Errorf("%w: table order must be at least 1, got %d", ErrConfiguration, id.Order)
	}
	return nil
}

// ParseTableID parses a base name produced by TableID.String. The corpus
// name may itself contain underscores.
func ParseTableID(name string) (TableID, error) {
	rest, ok := strings.CutSuffix(name, "-gram")
	if !ok {
		return TableID{}, fmt.Errorf("%w: %q is not a table name", ErrConfiguration, name)
	}
	i := strings.LastIndexByte(rest, '_')
	if i < 0 {
		return TableID{}, fmt.Errorf("%w: %q is not a table name", ErrConfiguration, name)
	}
	order, err := strconv.Atoi(rest[i+1:])
	if err != nil {
		return TableID{}, fmt.Errorf("%w: %q has an invalid order", ErrConfiguration, name)
	}
	rest = rest[:i]
	i = strings.LastIndexByte(rest, '_')
	if i < 0 {
		return TableID{}, fmt.Errorf("%w: %q is not a table name", ErrConfiguration, name)
	}
	id := TableID{Corpus: rest[:i], Modality: Modality(rest[i+1:]), Order: order}
	if err = id.Validate(); err != nil {
		return TableID{}, err
	}
	return id, nil
}

// checkTable verifies a table can be stored under id.
func checkTable(id TableID, t *ngram.Table) error {
	if err := id.Validate(); err != nil {
		return err
	}
	if t == nil {
		return fmt.Errorf("%w: nil table for %s", ErrConfiguration, id)
	}
	if t.Len() > 0 && t.Order() != id.Order {
		return fmt.Errorf("%w: table of order %d cannot be stored as %s", ErrConfiguration, t.Order(), id)
	}
	return nil
}

// TableStore persists frequency tables. Load fails with ngram.ErrNotFound
// when the table does not exist.
type TableStore interface {
	Save(ctx context.Context, id TableID, t *ngram.Table) error
	Load(ctx context.Context, id TableID) (*ngram.Table, error)
	List(ctx context.Context) ([]TableID, error)
	Remove(ctx context.Context, id TableID) error
}

// FileStore keeps one JSON file per table in a directory.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStore returns a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create table directory: %w", err)
	}
	return &FileStore{
		dir:    dir,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// SetLogger sets the logger for the store. By default, all logs are discarded.
func (s *FileStore) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Path returns the file that holds the table named by id.
func (s *FileStore) Path(id TableID) string {
	return filepath.Join(s.dir, id.String()+".json")
}

// Save atomically replaces the table file for id.
func (s *FileStore) Save(ctx context.Context, id TableID, t *ngram.Table) error {
	if err := checkTable(id, t); err != nil {
		return err
	}
	path := s.Path(id)
	if err := ngram.SaveFile(t, path); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Table saved",
		slog.String("table", id.String()),
		slog.String("path", path),
		slog.Int("keys", t.Len()),
	)
	return nil
}

// Load reads the table file for id.
func (s *FileStore) Load(ctx context.Context, id TableID) (*ngram.Table, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	t, err := ngram.LoadFile(s.Path(id))
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		// An empty file carries no order; take it from the table id.
		if t, err = ngram.NewTable(id.Order, nil); err != nil {
			return nil, err
		}
	} else if t.Order() != id.Order {
		return nil, fmt.Errorf("%w: %s holds order %d keys", ngram.ErrFormat, s.Path(id), t.Order())
	}
	s.logger.DebugContext(ctx, "Table loaded",
		slog.String("table", id.String()),
		slog.Int("keys", t.Len()),
	)
	return t, nil
}

// List returns every table in the directory, sorted by name. Files that
// do not look like tables are skipped.
func (s *FileStore) List(_ context.Context) ([]TableID, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("could not list tables: %w", err)
	}
	var ids []TableID
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ".json")
		if e.IsDir() || !ok {
			continue
		}
		id, err := ParseTableID(name)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sortTableIDs(ids)
	return ids, nil
}

// Remove deletes the table file for id.
func (s *FileStore) Remove(ctx context.Context, id TableID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	if err := os.Remove(s.Path(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ngram.ErrNotFound, id)
		}
		return fmt.Errorf("could not remove table %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Table removed", slog.String("table", id.String()))
	return nil
}

func sortTableIDs(ids []TableID) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if a.Corpus != b.Corpus {
			return a.Corpus < b.Corpus
		}
		if a.Modality != b.Modality {
			return a.Modality < b.Modality
		}
		return a.Order < b.Order
	})
}

// Open loads the table a (modality, order) generator needs from store and
// builds the generator. Order 0 uses the order-1 table. A missing table
// fails with ngram.ErrNotFound before any generation is attempted.
func Open(ctx context.Context, store TableStore, corpus string, modality Modality, order int) (*Generator, error) {
	if order < 0 {
		return nil, fmt.Errorf("%w: order must be non-negative, got %d", ErrConfiguration, order)
	}
	id := TableID{Corpus: corpus, Modality: modality, Order: max(order, 1)}
	if err := id.Validate(); err != nil {
		return nil, err
	}
	t, err := store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("could not load table %s: %w", id, err)
	}
	return NewGenerator(t, modality, order)
}
