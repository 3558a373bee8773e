package ngram

import (
	"slices"
	"strconv"
	"strings"
)

// Delimiter joins the tokens of a multi-token key in the persisted form.
// Tokens must never contain it.
const Delimiter = "||"

// Key is an ordered tuple of tokens. An order-n table only holds keys of
// length n, including n = 1.
type Key []string

// NewKey returns a Key holding a copy of tokens.
func NewKey(tokens ...string) Key {
	return slices.Clone(Key(tokens))
}

// Order returns the number of tokens in the key.
func (k Key) Order() int {
	return len(k)
}

// Prefix returns every token but the last. This is the context a generator
// matches against. The prefix of an order-1 key is empty.
func (k Key) Prefix() Key {
	if len(k) == 0 {
		return nil
	}
	return slices.Clip(k[:len(k)-1])
}

// Last returns the final token of the key, or "" for an empty key.
func (k Key) Last() string {
	if len(k) == 0 {
		return ""
	}
	return k[len(k)-1]
}

// Equal reports whether both keys hold the same tokens in the same order.
func (k Key) Equal(other Key) bool {
	return slices.Equal(k, other)
}

// String returns the persisted form of the key.
func (k Key) String() string {
	return strings.Join(k, Delimiter)
}

// ID returns a string that uniquely identifies the key's tokens, whatever
// they contain. It is meant for in-memory map keys, not for persistence.
func (k Key) ID() string {
	var b []byte
	for _, tok := range k {
		b = strconv.AppendInt(b, int64(len(tok)), 10)
		b = append(b, ':')
		b = append(b, tok...)
	}
	return string(b)
}

// ParseKey splits a persisted key back into its tokens.
func ParseKey(s string) Key {
	return strings.Split(s, Delimiter)
}

// Encode returns the persisted form of k. It fails with ErrSerialization
// when a token contains Delimiter or the form would not parse back into
// the same tokens.
func (k Key) Encode() (string, error) {
	for _, tok := range k {
		if strings.Contains(tok, Delimiter) {
			return "", &KeyError{Key: k, Reason: "token " + strconv.Quote(tok) + " contains the delimiter"}
		}
	}
	s := k.String()
	if !ParseKey(s).Equal(k) {
		return "", &KeyError{Key: k, Reason: "tokens are ambiguous next to the delimiter"}
	}
	return s, nil
}

// KeyError describes a key rejected by Save. It matches ErrSerialization
// with errors.Is.
type KeyError struct {
	Key    Key
	Reason string
}

func (e *KeyError) Error() string {
	return "ngram: cannot serialize key " + strconv.Quote(e.Key.String()) + ": " + e.Reason
}

func (e *KeyError) Is(target error) bool {
	return target == ErrSerialization
}
