package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var flags = struct {
	config string
}{}

// rootCMD is the shannon command; all work happens in subcommands.
var rootCMD = &cobra.Command{
	Use:   "shannon",
	Short: "N-gram analysis and Markov text generation",
	Long: `
Shannon builds character and word n-gram frequency tables from text
corpora, reports corpus statistics, and generates text from the tables
with an order-n Markov chain.`,
	Version:       Version + " (" + Commit + ", " + BuildDate + ")",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		// The environment, including .env, applies unless --config was given.
		if path := os.Getenv("SHANNON_CONFIG"); path != "" && !cmd.Flags().Changed("config") {
			flags.config = path
		}
	},
}

func init() {
	rootCMD.PersistentFlags().StringVar(&flags.config, "config", "./config.json",
		"path to the JSON config file (env SHANNON_CONFIG)")

	rootCMD.AddCommand(analyzeCMD, generateCMD, visualizeCMD, statsCMD, exportCMD, importCMD, serveCMD)
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("Failed to load environment", slog.Any("err", err))
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCMD.ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("Command failed", slog.Any("err", err))
		os.Exit(1)
	}
}

// withApp opens the application for a subcommand and closes it afterwards.
func withApp(fn func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(flags.config)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(a, cmd, args)
	}
}
