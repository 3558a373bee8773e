package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/CTAG07/Shannon/pkg/markov"
	"github.com/CTAG07/Shannon/pkg/ngram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestAPI serves a TableAPI over a FileStore holding one word-2 table.
func setupTestAPI(t *testing.T) (*httptest.Server, markov.TableStore) {
	t.Helper()
	store, err := markov.NewFileStore(t.TempDir())
	require.NoError(t, err)

	table, err := ngram.NewTable(2, []ngram.Entry{
		{Key: ngram.NewKey("the", "quick"), Weight: 0.5},
		{Key: ngram.NewKey("quick", "brown"), Weight: 0.5},
	})
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), markov.TableID{Corpus: "fox", Modality: markov.Word, Order: 2}, table))

	mux := http.NewServeMux()
	NewTableAPI(store, 10, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, store
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestAPIGenerate(t *testing.T) {
	server, _ := setupTestAPI(t)

	var got GenerateResponse
	code := getJSON(t, server.URL+"/api/generate?corpus=fox&level=word-2&length=5&seed=3", &got)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "fox", got.Corpus)
	assert.Equal(t, markov.Word, got.Modality)
	assert.Equal(t, 2, got.Order)
	assert.True(t, strings.HasSuffix(got.Text, "quick brown"), "every chain ends in \"quick brown\", got %q", got.Text)
	assert.True(t, got.Starved)

	var again GenerateResponse
	getJSON(t, server.URL+"/api/generate?corpus=fox&level=word-2&length=5&seed=3", &again)
	assert.Equal(t, got, again, "same seed must give the same text")

	var unigram GenerateResponse
	code = getJSON(t, server.URL+"/api/generate?corpus=fox&level=word-0&length=4", &unigram)
	assert.Equal(t, http.StatusNotFound, code, "word-0 needs the word-1 table")
}

func TestAPIGenerateErrors(t *testing.T) {
	server, _ := setupTestAPI(t)

	testCases := []struct {
		name  string
		query string
		code  int
	}{
		{name: "missing corpus", query: "level=word-2", code: http.StatusBadRequest},
		{name: "unknown corpus", query: "corpus=austen&level=word-2", code: http.StatusNotFound},
		{name: "bad level", query: "corpus=fox&level=emoji-2", code: http.StatusBadRequest},
		{name: "negative length", query: "corpus=fox&level=word-2&length=-1", code: http.StatusBadRequest},
		{name: "bad length", query: "corpus=fox&length=ten", code: http.StatusBadRequest},
		{name: "length over maximum", query: "corpus=fox&level=word-2&length=10000000000", code: http.StatusBadRequest},
		{name: "bad seed", query: "corpus=fox&seed=-4", code: http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var body map[string]string
			code := getJSON(t, server.URL+"/api/generate?"+tc.query, &body)
			assert.Equal(t, tc.code, code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAPITables(t *testing.T) {
	server, _ := setupTestAPI(t)

	var ids []markov.TableID
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/tables", &ids))
	assert.Equal(t, []markov.TableID{{Corpus: "fox", Modality: markov.Word, Order: 2}}, ids)

	var stats []markov.TableStats
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/tables/stats", &stats))
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].Keys)
	assert.InDelta(t, 1.0, stats[0].Entropy, 1e-12)

	// Export, delete, then import the table back.
	resp, err := http.Get(server.URL + "/api/tables/fox_word_2-gram/export")
	require.NoError(t, err)
	exported, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/tables/fox_word_2-gram", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Equal(t, http.StatusNotFound, getJSON(t, server.URL+"/api/tables/fox_word_2-gram/export", nil))

	resp, err = http.Post(server.URL+"/api/import", "application/json", bytes.NewReader(exported))
	require.NoError(t, err)
	var imported markov.TableID
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&imported))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, markov.TableID{Corpus: "fox", Modality: markov.Word, Order: 2}, imported)

	var got GenerateResponse
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/generate?corpus=fox&level=word-2&seed=1", &got))
}

func TestAPIRouting(t *testing.T) {
	server, _ := setupTestAPI(t)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, server.URL+"/api/tables/not-a-table", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, server.URL+"/api/tables/fox_word_2-gram/bogus", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, getJSON(t, server.URL+"/api/import", nil))

	resp, err := http.Post(server.URL+"/api/import", "application/json", strings.NewReader(`{"corpus": "x"`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var health map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/health", &health))
	assert.Equal(t, "ok", health["status"])
}
