package markov

import (
	"fmt"
	"strconv"
	"strings"
)

// Modality says whether tokens are characters or words.
type Modality string

const (
	// Char tokens are single characters, rendered without a separator.
	Char Modality = "char"
	// Word tokens are single words, rendered separated by spaces.
	Word Modality = "word"
)

// ParseModality parses "char" or "word".
func ParseModality(s string) (Modality, error) {
	m := Modality(strings.ToLower(strings.TrimSpace(s)))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

// Validate reports whether m is a known modality.
func (m Modality) Validate() error {
	switch m {
	case Char, Word:
		return nil
	}
	return fmt.Errorf("%w: unknown modality %q, want %q or %q", ErrConfiguration, string(m), Char, Word)
}

// Separator returns the string placed between rendered tokens.
func (m Modality) Separator() string {
	if m == Word {
		return " "
	}
	return ""
}

// Join renders tokens as text.
func (m Modality) Join(tokens []string) string {
	return strings.Join(tokens, m.Separator())
}

// ParseLevel parses a generation level such as "char-2" or "word-3" into
// its modality and order.
func ParseLevel(level string) (Modality, int, error) {
	kind, orderText, ok := strings.Cut(level, "-")
	if !ok {
		return "", 0, fmt.Errorf("%w: level %q is not of the form <modality>-<order>", ErrConfiguration, level)
	}
	m, err := ParseModality(kind)
	if err != nil {
		return "", 0, err
	}
	order, err := strconv.Atoi(orderText)
	if err != nil || order < 0 {
		return "", 0, fmt.Errorf("%w: level %q has invalid order %q", ErrConfiguration, level, orderText)
	}
	return m, order, nil
}
