// Package report renders plain-text statistics reports for analyzed
// corpora: sentence-length summary and distribution, and the most frequent
// word and character n-grams.
//
// Reports are produced from a text/template with a small function map, so
// the layout can be replaced without touching the statistics code.
package report
