package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/CTAG07/Shannon/pkg/markov"
	"github.com/CTAG07/Shannon/pkg/ngram"
)

// MaxGenerateLength is the largest length /api/generate accepts.
const MaxGenerateLength = 100_000

// TableAPI holds the dependencies for the table and generation API handlers.
type TableAPI struct {
	store         markov.TableStore
	defaultLength int
	logger        *slog.Logger

	mu         sync.Mutex
	generators map[string]*markov.Generator // level key -> generator
}

// GenerateResponse is the body returned by /api/generate.
type GenerateResponse struct {
	Corpus    string          `json:"corpus"`
	Modality  markov.Modality `json:"modality"`
	Order     int             `json:"order"`
	Text      string          `json:"text"`
	Tokens    int             `json:"tokens"`
	Starved   bool            `json:"starved"`
	Fallbacks int             `json:"fallbacks"`
}

// NewTableAPI creates a new instance of the TableAPI.
func NewTableAPI(store markov.TableStore, defaultLength int, logger *slog.Logger) *TableAPI {
	return &TableAPI{
		store:         store,
		defaultLength: defaultLength,
		logger:        logger,
		generators:    make(map[string]*markov.Generator),
	}
}

// RegisterRoutes sets up the routing for all table endpoints.
func (t *TableAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/health", t.handleHealthCheck)
	mux.HandleFunc("/api/generate", t.handleGenerate)
	mux.HandleFunc("/api/tables", t.handleListTables)
	mux.HandleFunc("/api/tables/stats", t.handleStats)
	mux.HandleFunc("/api/tables/", t.handleTableByName)
	mux.HandleFunc("/api/import", t.handleImport)
}

func (t *TableAPI) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": Version})
}

// handleGenerate runs one generation from query parameters corpus, level,
// length and seed.
func (t *TableAPI) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	query := r.URL.Query()
	corpus := query.Get("corpus")
	if corpus == "" {
		respondWithError(w, http.StatusBadRequest, "corpus is required")
		return
	}
	level := query.Get("level")
	if level == "" {
		level = "word-2"
	}
	modality, order, err := markov.ParseLevel(level)
	if err != nil {
		t.respondWithStoreError(w, err)
		return
	}

	length := t.defaultLength
	if s := query.Get("length"); s != "" {
		if length, err = strconv.Atoi(s); err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid length %q", s))
			return
		}
		if length > MaxGenerateLength {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("length %d exceeds the maximum of %d", length, MaxGenerateLength))
			return
		}
	}
	opts := []markov.GenerateOption{markov.WithLength(length)}
	if s := query.Get("seed"); s != "" {
		seed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid seed %q", s))
			return
		}
		opts = append(opts, markov.WithSeed(seed))
	}

	g, err := t.generator(r, corpus, modality, order)
	if err != nil {
		t.respondWithStoreError(w, err)
		return
	}
	gen, err := g.Generate(r.Context(), opts...)
	if err != nil {
		t.respondWithStoreError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, GenerateResponse{
		Corpus:    corpus,
		Modality:  modality,
		Order:     order,
		Text:      gen.Text,
		Tokens:    len(gen.Tokens),
		Starved:   gen.Starved,
		Fallbacks: gen.Fallbacks,
	})
}

// generator returns a cached generator, opening it from the store on first use.
func (t *TableAPI) generator(r *http.Request, corpus string, modality markov.Modality, order int) (*markov.Generator, error) {
	key := fmt.Sprintf("%s/%s-%d", corpus, modality, order)
	t.mu.Lock()
	defer t.mu.Unlock()
	if g, ok := t.generators[key]; ok {
		return g, nil
	}
	g, err := markov.Open(r.Context(), t.store, corpus, modality, order)
	if err != nil {
		return nil, err
	}
	g.SetLogger(t.logger)
	t.generators[key] = g
	return g, nil
}

// invalidate drops cached generators after the store changes.
func (t *TableAPI) invalidate() {
	t.mu.Lock()
	clear(t.generators)
	t.mu.Unlock()
}

func (t *TableAPI) handleListTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	ids, err := t.store.List(r.Context())
	if err != nil {
		t.respondWithStoreError(w, err)
		return
	}
	if ids == nil {
		ids = []markov.TableID{}
	}
	respondWithJSON(w, http.StatusOK, ids)
}

func (t *TableAPI) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	stats, err := markov.GetStats(r.Context(), t.store)
	if err != nil {
		t.respondWithStoreError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}

// handleTableByName routes actions for a specific table, e.g. export or delete.
// Tables are named as in their file names, e.g. austen_word_2-gram.
func (t *TableAPI) handleTableByName(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/tables/")
	parts := strings.Split(path, "/")

	id, err := markov.ParseTableID(parts[0])
	if err != nil {
		t.respondWithStoreError(w, err)
		return
	}

	if len(parts) == 1 { // Path is just /api/tables/{name}
		if r.Method != http.MethodDelete {
			w.Header().Set("Allow", "DELETE")
			respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		if err = t.store.Remove(r.Context(), id); err != nil {
			t.respondWithStoreError(w, err)
			return
		}
		t.invalidate()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	switch parts[1] {
	case "export":
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		// Buffer so a failed export can still send an error status.
		var buf bytes.Buffer
		if err = markov.ExportTable(r.Context(), t.store, id, &buf); err != nil {
			t.respondWithStoreError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.json\"", id))
		_, _ = buf.WriteTo(w)
	default:
		respondWithError(w, http.StatusNotFound, "Action not found")
	}
}

// handleImport imports a table from an uploaded export.
func (t *TableAPI) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	id, err := markov.ImportTable(r.Context(), t.store, r.Body)
	if err != nil {
		t.respondWithStoreError(w, err)
		return
	}
	t.invalidate()
	t.logger.Info("Table imported via API", "table", id.String())
	respondWithJSON(w, http.StatusCreated, id)
}

// respondWithStoreError maps library errors onto HTTP status codes.
func (t *TableAPI) respondWithStoreError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ngram.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, markov.ErrConfiguration),
		errors.Is(err, markov.ErrEmptyTable),
		errors.Is(err, ngram.ErrFormat),
		errors.Is(err, ngram.ErrSerialization),
		errors.Is(err, ngram.ErrInvalidOrder):
		code = http.StatusBadRequest
	}
	if code == http.StatusInternalServerError {
		t.logger.Error("Table API request failed", "error", err)
	}
	respondWithError(w, code, err.Error())
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		err := json.NewEncoder(w).Encode(payload)
		if err != nil {
			slog.Error("Failed to encode JSON response", "error", err)
		}
	}
}
