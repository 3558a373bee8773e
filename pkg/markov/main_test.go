package markov

import (
	"context"
	"database/sql"
	"go/build"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/CTAG07/Shannon/pkg/ngram"
	_ "modernc.org/sqlite"
)

// setupFileStore creates a FileStore in a temporary directory.
func setupFileStore(t testing.TB) *FileStore {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "tables"))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return store
}

// setupSQLStore creates a new on-disk SQLite database and an SQLStore for
// testing. It uses t.Cleanup to ensure resources are released.
func setupSQLStore(t testing.TB) *SQLStore {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbFile+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	store, err := NewSQLStore(db)
	if err != nil {
		t.Fatalf("NewSQLStore() error = %v", err)
	}
	t.Cleanup(store.Close)

	return store
}

// forEachStore runs fn as a subtest against every TableStore implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, store TableStore)) {
	t.Run("FileStore", func(t *testing.T) { fn(t, setupFileStore(t)) })
	t.Run("SQLStore", func(t *testing.T) { fn(t, setupSQLStore(t)) })
}

// mustTable builds a table or fails the test.
func mustTable(t testing.TB, order int, entries ...ngram.Entry) *ngram.Table {
	t.Helper()
	table, err := ngram.NewTable(order, entries)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	return table
}

func entry(weight float64, tokens ...string) ngram.Entry {
	return ngram.Entry{Key: ngram.NewKey(tokens...), Weight: weight}
}

// setupAnalyzedStore analyzes a small corpus into a FileStore.
func setupAnalyzedStore(t testing.TB) (context.Context, *FileStore) {
	store := setupFileStore(t)
	ctx := context.Background()
	trainingData := "One fish two fish. Red fish blue fish."
	if _, err := NewAnalyzer(store, nil).Analyze(ctx, "fish", strings.NewReader(trainingData)); err != nil {
		t.Fatalf("setup: Analyze() failed: %v", err)
	}
	return ctx, store
}

var (
	benchmarkCorpus string
	corpusOnce      sync.Once
)

// createBenchmarkCorpus reads Go source files to create a corpus for benchmarking.
func createBenchmarkCorpus() string {
	corpusOnce.Do(func() {
		var sb strings.Builder
		goRoot := build.Default.GOROOT
		filesToRead := []string{
			filepath.Join(goRoot, "src/net/http/server.go"),
			filepath.Join(goRoot, "src/go/parser/parser.go"),
			filepath.Join(goRoot, "src/encoding/json/encode.go"),
		}

		for _, file := range filesToRead {
			content, err := os.ReadFile(file)
			if err != nil {
				benchmarkCorpus = "this is a fallback corpus for benchmarking. it is not very long but will prevent a crash. "
				return
			}
			sb.Write(content)
			sb.WriteString("\n")
		}
		benchmarkCorpus = sb.String()
	})
	return benchmarkCorpus
}
