package ngram

import "errors"

var (
	// ErrInvalidOrder is returned when an n-gram order below 1 is requested.
	ErrInvalidOrder = errors.New("ngram: order must be at least 1")
	// ErrSerialization is returned by Save when a key cannot be encoded
	// unambiguously with Delimiter.
	ErrSerialization = errors.New("ngram: key cannot be serialized")
	// ErrFormat is returned by Load when the persisted table is malformed.
	ErrFormat = errors.New("ngram: malformed table")
	// ErrNotFound is returned when a persisted table does not exist.
	ErrNotFound = errors.New("ngram: table not found")
	// ErrNilTable is returned by Save when given a nil table.
	ErrNilTable = errors.New("ngram: nil table")
)
