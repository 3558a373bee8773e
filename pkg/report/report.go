package report

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"text/template"

	"github.com/CTAG07/Shannon/pkg/ngram"
	"github.com/CTAG07/Shannon/pkg/textproc"
	"github.com/natefinch/atomic"
)

const defaultTemplate = `Corpus report: {{.Corpus}}
{{rule 60}}
Sentences:            {{.Sentences}}
Mean sentence length: {{fixed .MeanLength}} +- {{fixed .StdLength}} words

Sentence length distribution (words)
{{range .Histogram}}{{printf "%7.1f - %-7.1f" .Lo .Hi}} {{printf "%6d" .Count}} {{bar .Count $.MaxBinCount $.BarWidth}}
{{end}}
{{- template "grams" dict "Title" "word" "Entries" .TopWords "Max" .TopWordWeight "Width" .BarWidth}}
{{- template "grams" dict "Title" "character" "Entries" .TopChars "Max" .TopCharWeight "Width" .BarWidth}}
{{- define "grams"}}
Top {{len .Entries}} {{.Title}} 3-grams
{{range $i, $e := .Entries}}{{printf "%3d" (inc $i)}}. {{printf "%-32q" (gram $e.Key)}} {{pct $e.Weight}} {{bar $e.Weight $.Max $.Width}}
{{end}}
{{- end}}`

// Bin is one sentence-length histogram bin. Bins are half-open [Lo, Hi)
// except the last, which also holds Hi.
type Bin struct {
	Lo    float64
	Hi    float64
	Count int
}

// Report is the data a report template is executed with.
type Report struct {
	Corpus        string
	Sentences     int
	MeanLength    float64
	StdLength     float64
	Histogram     []Bin
	MaxBinCount   int
	TopWords      []ngram.Entry
	TopWordWeight float64
	TopChars      []ngram.Entry
	TopCharWeight float64
	BarWidth      int
}

// Reporter builds and renders corpus reports. All methods are
// concurrent-safe.
type Reporter struct {
	logger *slog.Logger
	config Config
	tmpl   *template.Template
	mu     sync.RWMutex
}

// NewReporter returns a Reporter using config. If config.TemplatePath is
// set, that file replaces the built-in layout.
func NewReporter(config Config) (*Reporter, error) {
	r := &Reporter{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		config: config.sanitize(),
	}
	text := defaultTemplate
	if r.config.TemplatePath != "" {
		content, err := os.ReadFile(r.config.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("could not read report template: %w", err)
		}
		text = string(content)
	}
	if err := r.SetTemplate(text); err != nil {
		return nil, err
	}
	return r, nil
}

// SetLogger sets the logger for the Reporter. By default, all logs are discarded.
func (r *Reporter) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.mu.Lock()
		r.logger = logger
		r.mu.Unlock()
	}
}

// SetTemplate parses text as the report layout, replacing the current one.
// On error the current layout is kept.
func (r *Reporter) SetTemplate(text string) error {
	t, err := template.New("report").Funcs(makeFuncMap()).Parse(text)
	if err != nil {
		return fmt.Errorf("failed to parse report template: %w", err)
	}
	r.mu.Lock()
	r.tmpl = t
	r.mu.Unlock()
	return nil
}

// Build computes the report for one corpus from its sentence lengths and
// its word and character 3-gram tables. Either table may be nil.
func (r *Reporter) Build(corpus string, sentenceLengths []int, words, chars *ngram.Table) *Report {
	r.mu.RLock()
	config := r.config
	r.mu.RUnlock()

	mean, std := textproc.MeanStd(sentenceLengths)
	rep := &Report{
		Corpus:     corpus,
		Sentences:  len(sentenceLengths),
		MeanLength: mean,
		StdLength:  std,
		Histogram:  histogram(sentenceLengths, config.HistogramBins),
		BarWidth:   config.BarWidth,
	}
	for _, b := range rep.Histogram {
		rep.MaxBinCount = max(rep.MaxBinCount, b.Count)
	}
	if words != nil {
		rep.TopWords = words.Top(config.TopN)
	}
	if chars != nil {
		rep.TopChars = chars.Top(config.TopN)
	}
	if len(rep.TopWords) > 0 {
		rep.TopWordWeight = rep.TopWords[0].Weight
	}
	if len(rep.TopChars) > 0 {
		rep.TopCharWeight = rep.TopChars[0].Weight
	}
	return rep
}

// Execute renders rep to w.
func (r *Reporter) Execute(w io.Writer, rep *Report) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tmpl.Execute(w, rep)
}

// WriteFile renders rep and atomically writes it to
// <dir>/<corpus>_report.txt, returning the path.
func (r *Reporter) WriteFile(dir string, rep *Report) (string, error) {
	var buf bytes.Buffer
	if err := r.Execute(&buf, rep); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create report directory: %w", err)
	}
	path := filepath.Join(dir, rep.Corpus+"_report.txt")
	if err := atomic.WriteFile(path, &buf); err != nil {
		return "", fmt.Errorf("could not write report: %w", err)
	}

	r.mu.RLock()
	logger := r.logger
	r.mu.RUnlock()
	logger.Info("Report written",
		slog.String("corpus", rep.Corpus),
		slog.String("path", path),
	)
	return path, nil
}

// histogram splits values into bins equal-width bins over [min, max]. A
// single distinct value gets the range [v-0.5, v+0.5].
func histogram(values []int, bins int) []Bin {
	if len(values) == 0 || bins <= 0 {
		return nil
	}
	lo, hi := float64(slices.Min(values)), float64(slices.Max(values))
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)

	out := make([]Bin, bins)
	for i := range out {
		out[i].Lo = lo + float64(i)*width
		out[i].Hi = lo + float64(i+1)*width
	}
	out[bins-1].Hi = hi

	for _, v := range values {
		i := int(math.Floor((float64(v) - lo) / width))
		out[min(max(i, 0), bins-1)].Count++
	}
	return out
}

// dict builds a map from alternating key/value arguments so a template can
// pass several values to another template.
func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict needs an even number of arguments, got %d", len(pairs))
	}
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
		}
		m[key] = pairs[i+1]
	}
	return m, nil
}
