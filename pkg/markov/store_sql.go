package markov

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/CTAG07/Shannon/pkg/ngram"
)

// SetupSchema initializes the tables SQLStore needs in the provided
// database. It is idempotent and safe to call on an already-initialized
// database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaTables = `
CREATE TABLE IF NOT EXISTS freq_tables (
    table_id INTEGER PRIMARY KEY,
    corpus TEXT NOT NULL,
    modality TEXT NOT NULL,
    table_order INTEGER NOT NULL,
    UNIQUE (corpus, modality, table_order)
);
`
		schemaEntries = `
CREATE TABLE IF NOT EXISTS freq_entries (
    table_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    key_text TEXT NOT NULL,
    weight REAL NOT NULL,
    PRIMARY KEY (table_id, position)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	// If the transaction succeeds, tx.Commit() will be called first, and the rollback will do nothing. If it fails, this will clean up.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaTables); err != nil {
		return fmt.Errorf("could not create tables schema: %w", err)
	}

	if _, err = tx.Exec(schemaEntries); err != nil {
		return fmt.Errorf("could not create entries schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// SQLStore keeps frequency tables in a SQL database. Keys are stored in
// their persisted form together with their position, so tables load back
// in their original key order. SetupSchema must have been run on the
// database first.
type SQLStore struct {
	db               *sql.DB
	stmtGetTableID   *sql.Stmt
	stmtGetEntries   *sql.Stmt
	stmtListTables   *sql.Stmt
	stmtUpsertTable  *sql.Stmt
	stmtInsertEntry  *sql.Stmt
	stmtDeleteTable  *sql.Stmt
	stmtClearEntries *sql.Stmt
	logger           *slog.Logger
}

// NewSQLStore creates a store over db and pre-compiles its SQL statements,
// returning an error if any preparation fails.
func NewSQLStore(db *sql.DB) (*SQLStore, error) {
	stmtGetTableID, err := db.Prepare(`SELECT table_id FROM freq_tables WHERE corpus = ? AND modality = ? AND table_order = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetEntries, err := db.Prepare(`SELECT key_text, weight FROM freq_entries WHERE table_id = ? ORDER BY position;`)
	if err != nil {
		return nil, err
	}

	stmtListTables, err := db.Prepare(`SELECT corpus, modality, table_order FROM freq_tables ORDER BY corpus, modality, table_order;`)
	if err != nil {
		return nil, err
	}

	stmtUpsertTable, err := db.Prepare(`INSERT INTO freq_tables (corpus, modality, table_order) VALUES (?, ?, ?) ON CONFLICT(corpus, modality, table_order) DO UPDATE SET corpus=excluded.corpus RETURNING table_id;`)
	if err != nil {
		return nil, err
	}

	stmtInsertEntry, err := db.Prepare(`INSERT INTO freq_entries (table_id, position, key_text, weight) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return nil, err
	}

	stmtDeleteTable, err := db.Prepare(`DELETE FROM freq_tables WHERE table_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtClearEntries, err := db.Prepare(`DELETE FROM freq_entries WHERE table_id = ?;`)
	if err != nil {
		return nil, err
	}

	return &SQLStore{
		db:               db,
		stmtGetTableID:   stmtGetTableID,
		stmtGetEntries:   stmtGetEntries,
		stmtListTables:   stmtListTables,
		stmtUpsertTable:  stmtUpsertTable,
		stmtInsertEntry:  stmtInsertEntry,
		stmtDeleteTable:  stmtDeleteTable,
		stmtClearEntries: stmtClearEntries,
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared SQL statements held by the store. The
// database itself is left open.
func (s *SQLStore) Close() {
	_ = s.stmtGetTableID.Close()
	_ = s.stmtGetEntries.Close()
	_ = s.stmtListTables.Close()
	_ = s.stmtUpsertTable.Close()
	_ = s.stmtInsertEntry.Close()
	_ = s.stmtDeleteTable.Close()
	_ = s.stmtClearEntries.Close()
}

// SetLogger sets the logger for the store. By default, all logs are discarded.
func (s *SQLStore) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Save replaces the stored table for id within a single transaction.
// Keys are validated before anything is written.
func (s *SQLStore) Save(ctx context.Context, id TableID, t *ngram.Table) error {
	if err := checkTable(id, t); err != nil {
		return err
	}
	keys := make([]string, t.Len())
	for i := range keys {
		key, err := t.Entry(i).Key.Encode()
		if err != nil {
			return err
		}
		keys[i] = key
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var tableID int64
	if err = tx.StmtContext(ctx, s.stmtUpsertTable).QueryRowContext(ctx, id.Corpus, string(id.Modality), id.Order).Scan(&tableID); err != nil {
		return fmt.Errorf("failed to get or insert table %s: %w", id, err)
	}

	// Tables are rebuilt, never patched.
	if _, err = tx.StmtContext(ctx, s.stmtClearEntries).ExecContext(ctx, tableID); err != nil {
		return fmt.Errorf("failed to clear entries of %s: %w", id, err)
	}

	stmtInsertEntry := tx.StmtContext(ctx, s.stmtInsertEntry)
	for i, key := range keys {
		if _, err = stmtInsertEntry.ExecContext(ctx, tableID, i, key, t.Entry(i).Weight); err != nil {
			return fmt.Errorf("failed to insert entry %q of %s: %w", key, id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit table %s: %w", id, err)
	}

	s.logger.InfoContext(ctx, "Table saved",
		slog.String("table", id.String()),
		slog.Int64("table_id", tableID),
		slog.Int("keys", len(keys)),
	)
	return nil
}

// Load reads the table for id in its stored key order.
func (s *SQLStore) Load(ctx context.Context, id TableID) (*ngram.Table, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var tableID int64
	err := s.stmtGetTableID.QueryRowContext(ctx, id.Corpus, string(id.Modality), id.Order).Scan(&tableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ngram.ErrNotFound, id)
		}
		return nil, fmt.Errorf("could not look up table %s: %w", id, err)
	}

	rows, err := s.stmtGetEntries.QueryContext(ctx, tableID)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var entries []ngram.Entry
	for rows.Next() {
		var keyText string
		var weight float64
		if err = rows.Scan(&keyText, &weight); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ngram.ErrFormat, id, err)
		}
		entries = append(entries, ngram.Entry{Key: ngram.ParseKey(keyText), Weight: weight})
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	t, err := ngram.NewTable(id.Order, entries)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return t, nil
}

// List returns every stored table, sorted by name.
func (s *SQLStore) List(ctx context.Context) ([]TableID, error) {
	rows, err := s.stmtListTables.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var ids []TableID
	for rows.Next() {
		var id TableID
		var modality string
		if err = rows.Scan(&id.Corpus, &modality, &id.Order); err != nil {
			return nil, err
		}
		id.Modality = Modality(modality)
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Remove deletes a table and all of its entries. The operation is
// performed within a transaction.
func (s *SQLStore) Remove(ctx context.Context, id TableID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var tableID int64
	err = tx.StmtContext(ctx, s.stmtGetTableID).QueryRowContext(ctx, id.Corpus, string(id.Modality), id.Order).Scan(&tableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ngram.ErrNotFound, id)
		}
		return fmt.Errorf("could not look up table %s: %w", id, err)
	}

	if _, err = tx.StmtContext(ctx, s.stmtClearEntries).ExecContext(ctx, tableID); err != nil {
		return fmt.Errorf("failed to remove entries of %s: %w", id, err)
	}
	if _, err = tx.StmtContext(ctx, s.stmtDeleteTable).ExecContext(ctx, tableID); err != nil {
		return fmt.Errorf("failed to remove table %s: %w", id, err)
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Table removed",
		slog.String("table", id.String()),
		slog.Int64("table_id", tableID),
	)
	return nil
}
