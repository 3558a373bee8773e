package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/CTAG07/Shannon/pkg/markov"
)

// app bundles what every subcommand needs: configuration, logger and the
// table store.
type app struct {
	config *Config
	logger *slog.Logger
	store  markov.TableStore
	db     *sql.DB
	closer func()
}

// newApp loads the configuration at path and opens the configured store.
func newApp(path string) (*app, error) {
	config, err := LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(config.Server.LogLevel)}))
	a := &app{config: config, logger: logger, closer: func() {}}

	switch config.Storage.Backend {
	case backendSQLite:
		if err = os.MkdirAll(filepath.Dir(config.Storage.DatabasePath), 0o755); err != nil {
			return nil, fmt.Errorf("could not create database directory: %w", err)
		}
		a.db, err = initDB(config.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err = markov.SetupSchema(a.db); err != nil {
			_ = a.db.Close()
			return nil, fmt.Errorf("failed to setup table schema: %w", err)
		}
		store, err := markov.NewSQLStore(a.db)
		if err != nil {
			_ = a.db.Close()
			return nil, fmt.Errorf("failed to prepare table store: %w", err)
		}
		store.SetLogger(logger)
		a.store = store
		a.closer = func() {
			store.Close()
			if err := a.db.Close(); err != nil {
				logger.Error("Failed to close database", "error", err)
			}
		}
	default:
		store, err := markov.NewFileStore(config.Storage.TableDir)
		if err != nil {
			return nil, err
		}
		store.SetLogger(logger)
		a.store = store
	}

	logger.Debug("Table store opened", "backend", config.Storage.Backend)
	return a, nil
}

// Close releases the store.
func (a *app) Close() {
	a.closer()
}
