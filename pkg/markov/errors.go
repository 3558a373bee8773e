package markov

import "errors"

var (
	// ErrConfiguration is returned for an invalid modality, order, length or
	// start key. It is always reported before any sampling happens.
	ErrConfiguration = errors.New("markov: invalid configuration")
	// ErrEmptyTable is returned when a generator is built over a table
	// without any keys.
	ErrEmptyTable = errors.New("markov: frequency table is empty")
)
