package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/CTAG07/Shannon/pkg/markov"
	"github.com/CTAG07/Shannon/pkg/ngram"
	"github.com/CTAG07/Shannon/pkg/report"
	"github.com/CTAG07/Shannon/pkg/textproc"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

var analyzeFlags = struct {
	orders []int
}{}

var generateFlags = struct {
	corpus string
	level  string
	length int
	seed   uint64
}{}

var exportFlags = struct {
	corpus string
	level  string
	out    string
}{}

func init() {
	analyzeCMD.Flags().IntSliceVarP(&analyzeFlags.orders, "orders", "n", nil,
		"n-gram orders to compute (default from config)")

	generateCMD.Flags().StringVarP(&generateFlags.corpus, "corpus", "c", "", "corpus to generate from")
	generateCMD.Flags().StringVarP(&generateFlags.level, "level", "l", "word-2", "modality and order, e.g. char-3 or word-0")
	generateCMD.Flags().IntVarP(&generateFlags.length, "length", "n", -1, "number of tokens to generate (default from config)")
	generateCMD.Flags().Uint64VarP(&generateFlags.seed, "seed", "s", 0, "random seed for reproducible output")
	_ = generateCMD.MarkFlagRequired("corpus")

	exportCMD.Flags().StringVarP(&exportFlags.corpus, "corpus", "c", "", "corpus of the table")
	exportCMD.Flags().StringVarP(&exportFlags.level, "level", "l", "", "modality and order of the table, e.g. word-2")
	exportCMD.Flags().StringVarP(&exportFlags.out, "out", "o", "", "output file (default stdout)")
	_ = exportCMD.MarkFlagRequired("corpus")
	_ = exportCMD.MarkFlagRequired("level")
}

// analyzeCMD runs the shannon analyze subcommand.
var analyzeCMD = &cobra.Command{
	Use:   "analyze [corpus...]",
	Short: "Compute and store n-gram frequency tables",
	Long: `
Preprocess each named corpus (all configured corpora if none are named)
and store a character and a word probability table for every order.`,
	RunE: withApp(runAnalyze),
}

func runAnalyze(a *app, cmd *cobra.Command, args []string) error {
	corpora := args
	if len(corpora) == 0 {
		for name := range a.config.Corpora {
			corpora = append(corpora, name)
		}
		slices.Sort(corpora)
	}
	if len(corpora) == 0 {
		return errors.New("no corpora configured")
	}
	orders := analyzeFlags.orders
	if len(orders) == 0 {
		orders = a.config.Analysis.Orders
	}

	analyzer := markov.NewAnalyzer(a.store, nil)
	analyzer.SetLogger(a.logger)
	for _, corpus := range corpora {
		summary, err := analyzeCorpus(cmd, a, analyzer, corpus, orders)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d sentences, %d words, %d chars, %d tables\n",
			corpus, summary.Sentences, summary.Words, summary.Chars, len(summary.Tables))
	}
	return nil
}

func analyzeCorpus(cmd *cobra.Command, a *app, analyzer *markov.Analyzer, corpus string, orders []int) (*markov.AnalysisSummary, error) {
	path, err := a.config.CorpusPath(corpus)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open corpus %s: %w", corpus, err)
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)
	return analyzer.Analyze(cmd.Context(), corpus, file, orders...)
}

// generateCMD runs the shannon generate subcommand.
var generateCMD = &cobra.Command{
	Use:   "generate",
	Short: "Generate text from a stored table",
	Long: `
Generate text with an order-n Markov chain over the stored table for
the given corpus and level. Level word-0 or char-0 samples every token
independently from the unigram distribution.`,
	Args: cobra.NoArgs,
	RunE: withApp(runGenerate),
}

func runGenerate(a *app, cmd *cobra.Command, _ []string) error {
	modality, order, err := markov.ParseLevel(generateFlags.level)
	if err != nil {
		return err
	}
	g, err := markov.Open(cmd.Context(), a.store, generateFlags.corpus, modality, order)
	if err != nil {
		return err
	}
	g.SetLogger(a.logger)

	length := generateFlags.length
	if !cmd.Flags().Changed("length") {
		length = a.config.Generation.DefaultLength
	}
	opts := []markov.GenerateOption{markov.WithLength(length)}
	if cmd.Flags().Changed("seed") {
		opts = append(opts, markov.WithSeed(generateFlags.seed))
	}

	text, err := g.GenerateText(cmd.Context(), opts...)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}

// visualizeCMD runs the shannon visualize subcommand.
var visualizeCMD = &cobra.Command{
	Use:   "visualize corpus...",
	Short: "Write a statistics report for analyzed corpora",
	Long: `
Compute sentence-length statistics for each corpus and write a report
with a length histogram and the most frequent word and character
3-grams to <output_dir>/<corpus>_report.txt. The 3-gram tables come
from the store, or are computed on the fly when analysis skipped order 3.`,
	Args: cobra.MinimumNArgs(1),
	RunE: withApp(runVisualize),
}

func runVisualize(a *app, cmd *cobra.Command, args []string) error {
	reporter, err := report.NewReporter(a.config.Report.Config)
	if err != nil {
		return err
	}
	reporter.SetLogger(a.logger)
	pre := textproc.NewPreprocessor()

	for _, corpus := range args {
		path, err := a.config.CorpusPath(corpus)
		if err != nil {
			return err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("could not read corpus %s: %w", corpus, err)
		}
		processed := pre.Process(string(raw))

		words, err := reportTable(cmd.Context(), a.store, corpus, markov.Word, processed.Words)
		if err != nil {
			return err
		}
		chars, err := reportTable(cmd.Context(), a.store, corpus, markov.Char, processed.Chars)
		if err != nil {
			return err
		}

		rep := reporter.Build(corpus, pre.SentenceLengths(processed.Sentences), words, chars)
		out, err := reporter.WriteFile(a.config.Report.OutputDir, rep)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: mean sentence length %.2f +- %.2f, report saved to %s\n",
			corpus, rep.MeanLength, rep.StdLength, out)
	}
	return nil
}

// reportOrder is the n-gram order of the report's top lists.
const reportOrder = 3

// reportTable loads the stored order-3 table for the report. When the
// configured analysis orders left it out, it is computed from tokens
// instead and not saved.
func reportTable(ctx context.Context, store markov.TableStore, corpus string, modality markov.Modality, tokens []string) (*ngram.Table, error) {
	id := markov.TableID{Corpus: corpus, Modality: modality, Order: reportOrder}
	t, err := store.Load(ctx, id)
	if errors.Is(err, ngram.ErrNotFound) {
		return ngram.Compute(tokens, reportOrder)
	}
	if err != nil {
		return nil, fmt.Errorf("could not load %s: %w", id, err)
	}
	return t, nil
}

// statsCMD runs the shannon stats subcommand.
var statsCMD = &cobra.Command{
	Use:   "stats",
	Short: "List stored tables with entropy and perplexity",
	Args:  cobra.NoArgs,
	RunE:  withApp(runStats),
}

func runStats(a *app, cmd *cobra.Command, _ []string) error {
	stats, err := markov.GetStats(cmd.Context(), a.store)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TABLE\tKEYS\tENTROPY (bits)\tPERPLEXITY")
	for _, s := range stats {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%.4f\t%.2f\n", s.ID, s.Keys, s.Entropy, s.Perplexity)
	}
	return tw.Flush()
}

// exportCMD runs the shannon export subcommand.
var exportCMD = &cobra.Command{
	Use:   "export",
	Short: "Export a stored table as JSON",
	Args:  cobra.NoArgs,
	RunE:  withApp(runExport),
}

func runExport(a *app, cmd *cobra.Command, _ []string) error {
	modality, order, err := markov.ParseLevel(exportFlags.level)
	if err != nil {
		return err
	}
	id := markov.TableID{Corpus: exportFlags.corpus, Modality: modality, Order: order}

	if exportFlags.out == "" {
		return markov.ExportTable(cmd.Context(), a.store, id, cmd.OutOrStdout())
	}
	var buf bytes.Buffer
	if err = markov.ExportTable(cmd.Context(), a.store, id, &buf); err != nil {
		return err
	}
	return atomic.WriteFile(exportFlags.out, &buf)
}

// importCMD runs the shannon import subcommand.
var importCMD = &cobra.Command{
	Use:   "import file...",
	Short: "Import exported tables into the store",
	Args:  cobra.MinimumNArgs(1),
	RunE:  withApp(runImport),
}

func runImport(a *app, cmd *cobra.Command, args []string) error {
	for _, path := range args {
		id, err := importFile(cmd, a.store, path)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", id)
	}
	return nil
}

func importFile(cmd *cobra.Command, store markov.TableStore, path string) (markov.TableID, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		file, err := os.Open(path)
		if err != nil {
			return markov.TableID{}, err
		}
		defer func(file *os.File) {
			_ = file.Close()
		}(file)
		r = file
	}
	return markov.ImportTable(cmd.Context(), store, r)
}
