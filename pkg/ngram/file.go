package ngram

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/natefinch/atomic"
)

// SaveFile writes t to path in a single atomic replace. The directory must
// already exist.
func SaveFile(t *Table, path string) error {
	var buf bytes.Buffer
	if err := Save(t, &buf); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("could not write table %s: %w", path, err)
	}
	return nil
}

// LoadFile reads the whole file at path and decodes it. A missing file
// fails with ErrNotFound.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("could not read table %s: %w", path, err)
	}
	t, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
