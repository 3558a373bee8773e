package textproc

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strings"
)

// Corpus holds the token sequences derived from one text.
type Corpus struct {
	Sentences []string
	Words     []string
	Chars     []string
}

// Preprocessor cleans and tokenizes text. Its behavior can be customized
// with functional options. The zero value is not usable; use NewPreprocessor.
type Preprocessor struct {
	startRegex      *regexp.Regexp
	endRegex        *regexp.Regexp
	disallowedRegex *regexp.Regexp
	spaceRegex      *regexp.Regexp
	wordRegex       *regexp.Regexp
	sentenceRegex   *regexp.Regexp
	foldCase        bool
}

// Option is a function that configures a Preprocessor.
type Option func(*Preprocessor)

// WithWordRegex sets the regex used to find words in normalized text.
// Default: `[a-z0-9]+(?:'[a-z0-9]+)*`
func WithWordRegex(wordRegex string) Option {
	return func(p *Preprocessor) {
		p.wordRegex = regexp.MustCompile(wordRegex)
	}
}

// WithSentenceRegex sets the regex used to find sentences in normalized text.
// Default: `[^.!?]+(?:[.!?]+|$)`
func WithSentenceRegex(sentenceRegex string) Option {
	return func(p *Preprocessor) {
		p.sentenceRegex = regexp.MustCompile(sentenceRegex)
	}
}

// WithDisallowedRegex sets the regex matching characters that Normalize
// replaces with a space. It must match the n-gram key delimiter character.
// Default: `[^a-z0-9\s.,!?;:'"\-]`
func WithDisallowedRegex(disallowedRegex string) Option {
	return func(p *Preprocessor) {
		p.disallowedRegex = regexp.MustCompile(disallowedRegex)
	}
}

// WithCaseFolding sets whether Normalize lowercases text. Default: true
func WithCaseFolding(fold bool) Option {
	return func(p *Preprocessor) {
		p.foldCase = fold
	}
}

// NewPreprocessor creates a preprocessor with default settings, which can be
// overridden by providing one or more Option functions.
func NewPreprocessor(opts ...Option) *Preprocessor {
	p := &Preprocessor{
		// Project Gutenberg wraps every book in license boilerplate.
		startRegex: regexp.MustCompile(`(?im)^\*\*\*\s*START OF (?:THE|THIS) PROJECT GUTENBERG.*$`),
		endRegex:   regexp.MustCompile(`(?im)^\*\*\*\s*END OF (?:THE|THIS) PROJECT GUTENBERG.*$`),
		// Anything outside letters, digits, whitespace and basic punctuation.
		disallowedRegex: regexp.MustCompile(`[^a-z0-9\s.,!?;:'"\-]`),
		spaceRegex:      regexp.MustCompile(`\s+`),
		wordRegex:       regexp.MustCompile(`[a-z0-9]+(?:'[a-z0-9]+)*`),
		sentenceRegex:   regexp.MustCompile(`[^.!?]+(?:[.!?]+|$)`),
		foldCase:        true,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// CleanGutenberg strips the Project Gutenberg header and footer from raw,
// keeping only the text between the START and END markers. Text without
// markers is returned unchanged.
func (p *Preprocessor) CleanGutenberg(raw string) string {
	text := raw
	if loc := p.startRegex.FindStringIndex(text); loc != nil {
		text = text[loc[1]:]
	}
	if loc := p.endRegex.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	return strings.TrimSpace(text)
}

// Normalize lowercases text, replaces disallowed characters with spaces,
// and collapses runs of whitespace into a single space.
func (p *Preprocessor) Normalize(text string) string {
	if p.foldCase {
		text = strings.ToLower(text)
	}
	text = strings.NewReplacer("‘", "'", "’", "'", "“", `"`, "”", `"`, "—", " - ").Replace(text)
	text = p.disallowedRegex.ReplaceAllString(text, " ")
	text = p.spaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Sentences splits normalized text into trimmed sentences. Fragments
// without any word are dropped.
func (p *Preprocessor) Sentences(text string) []string {
	var sentences []string
	for _, s := range p.sentenceRegex.FindAllString(text, -1) {
		s = strings.TrimSpace(s)
		if p.wordRegex.MatchString(s) {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// Words returns the word tokens of normalized text.
func (p *Preprocessor) Words(text string) []string {
	return p.wordRegex.FindAllString(text, -1)
}

// Chars returns every character of text, spaces included, as a token.
func (p *Preprocessor) Chars(text string) []string {
	chars := make([]string, 0, len(text))
	for _, r := range text {
		chars = append(chars, string(r))
	}
	return chars
}

// SentenceLengths returns the number of words in each sentence.
func (p *Preprocessor) SentenceLengths(sentences []string) []int {
	lengths := make([]int, len(sentences))
	for i, s := range sentences {
		lengths[i] = len(p.Words(s))
	}
	return lengths
}

// Process cleans, normalizes and tokenizes raw text.
func (p *Preprocessor) Process(raw string) Corpus {
	normalized := p.Normalize(p.CleanGutenberg(raw))
	return Corpus{
		Sentences: p.Sentences(normalized),
		Words:     p.Words(normalized),
		Chars:     p.Chars(normalized),
	}
}

// ProcessReader reads all of r and processes it.
func (p *Preprocessor) ProcessReader(r io.Reader) (Corpus, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Corpus{}, fmt.Errorf("could not read corpus: %w", err)
	}
	return p.Process(string(raw)), nil
}

// MeanStd returns the mean and population standard deviation of values.
func MeanStd(values []int) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += float64(v)
	}
	mean /= float64(len(values))
	for _, v := range values {
		d := float64(v) - mean
		std += d * d
	}
	std = math.Sqrt(std / float64(len(values)))
	return mean, std
}
