package ngram

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Save writes t to w as a flat JSON object mapping each persisted key to its
// weight, in the table's key order. Every key is validated before anything
// is written; a token containing Delimiter fails with ErrSerialization.
func Save(t *Table, w io.Writer) error {
	if t == nil {
		return ErrNilTable
	}
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, e := range t.entries {
		key, err := e.Key.Encode()
		if err != nil {
			return err
		}
		quoted, err := json.Marshal(key)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSerialization, err)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("\n  ")
		buf.Write(quoted)
		buf.WriteString(": ")
		buf.WriteString(strconv.FormatFloat(e.Weight, 'g', -1, 64))
	}
	if len(t.entries) > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")

	_, err := buf.WriteTo(w)
	return err
}

// Load reads a table written by Save. The order is taken from the first
// key and every other key must have the same number of tokens. Invalid
// JSON, non-numeric or negative weights, duplicate keys and inconsistent
// arity all fail with ErrFormat. An empty object carries no key to take
// the order from, so it yields an empty table of order 0; callers that know
// the order rebuild it with NewTable(order, nil). Empty tables compare equal
// whatever their order, so Load(Save(t)) still equals t.
func Load(r io.Reader) (*Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var t *Table
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		keyText, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected key, got %v", ErrFormat, tok)
		}

		tok, err = dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: reading weight of %q: %v", ErrFormat, keyText, err)
		}
		num, ok := tok.(json.Number)
		if !ok {
			return nil, fmt.Errorf("%w: weight of %q is not a number", ErrFormat, keyText)
		}
		weight, err := strconv.ParseFloat(num.String(), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: weight of %q: %v", ErrFormat, keyText, err)
		}

		key := ParseKey(keyText)
		if t == nil {
			t = newTable(len(key), 0)
		} else if len(key) != t.order {
			return nil, fmt.Errorf("%w: key %q has %d tokens, expected %d", ErrFormat, keyText, len(key), t.order)
		}
		if err = t.add(key, weight); err != nil {
			return nil, err
		}
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after table", ErrFormat)
	}

	if t == nil {
		t = newTable(0, 0)
	}
	return t, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q, got %v", ErrFormat, want, tok)
	}
	return nil
}
