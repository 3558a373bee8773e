package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/CTAG07/Shannon/pkg/report"
	"github.com/natefinch/atomic"
)

const (
	backendFile   = "file"
	backendSQLite = "sqlite"
)

// ServerConfig holds the configuration for the HTTP API.
type ServerConfig struct {
	Addr     string `json:"addr"`
	LogLevel string `json:"log_level"`
}

// StorageConfig selects where frequency tables are kept.
type StorageConfig struct {
	Backend      string `json:"backend"` // "file" or "sqlite"
	TableDir     string `json:"table_dir"`
	DatabasePath string `json:"database_path"`
}

// AnalysisConfig holds settings for table computation.
type AnalysisConfig struct {
	Orders []int `json:"orders"`
}

// GenerationConfig holds generation defaults.
type GenerationConfig struct {
	DefaultLength int `json:"default_length"`
}

// ReportConfig holds settings for the statistics report.
type ReportConfig struct {
	OutputDir string `json:"output_dir"`
	report.Config
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	Server     *ServerConfig     `json:"server_config"`
	Storage    *StorageConfig    `json:"storage_config"`
	Corpora    map[string]string `json:"corpora"` // corpus name -> text file
	Analysis   *AnalysisConfig   `json:"analysis_config"`
	Generation *GenerationConfig `json:"generation_config"`
	Report     *ReportConfig     `json:"report_config"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerConfig{
			Addr:     ":7280",
			LogLevel: "info",
		},
		Storage: &StorageConfig{
			Backend:      backendFile,
			TableDir:     "./data/freq_tables",
			DatabasePath: "./data/shannon.db",
		},
		Corpora: map[string]string{
			"austen": "./data/austen_pride_prejudice.txt",
			"twain":  "./data/twain_tom_sawyer.txt",
			"doyle":  "./data/doyle_sherlock_holmes.txt",
		},
		Analysis: &AnalysisConfig{
			Orders: []int{1, 2, 3},
		},
		Generation: &GenerationConfig{
			DefaultLength: 100,
		},
		Report: &ReportConfig{
			OutputDir: "./outputs",
			Config:    report.DefaultConfig(),
		},
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	// Initialize with default configurations
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		// If the file doesn't exist, create it with the default config.
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// The tool still works with defaults.
				slog.Warn("Failed to write default config file", "path", path, "error", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// A configured corpus list replaces the defaults instead of merging with them.
	config.Corpora = nil
	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err = config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return config, nil
}

// Validate fills sections missing from a partial file with defaults and
// checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	d := DefaultConfig()
	if c.Server == nil {
		c.Server = d.Server
	}
	if c.Storage == nil {
		c.Storage = d.Storage
	}
	if c.Corpora == nil {
		c.Corpora = map[string]string{}
	}
	if c.Analysis == nil || len(c.Analysis.Orders) == 0 {
		c.Analysis = d.Analysis
	}
	if c.Generation == nil {
		c.Generation = d.Generation
	}
	if c.Report == nil {
		c.Report = d.Report
	}

	if !slices.Contains([]string{backendFile, backendSQLite}, c.Storage.Backend) {
		return fmt.Errorf("unknown storage backend %q, want %q or %q", c.Storage.Backend, backendFile, backendSQLite)
	}
	for _, n := range c.Analysis.Orders {
		if n < 1 {
			return fmt.Errorf("analysis order must be at least 1, got %d", n)
		}
	}
	if c.Generation.DefaultLength < 0 {
		return fmt.Errorf("default generation length must be non-negative, got %d", c.Generation.DefaultLength)
	}
	return nil
}

// CorpusPath returns the text file configured for corpus.
func (c *Config) CorpusPath(corpus string) (string, error) {
	path, ok := c.Corpora[corpus]
	if !ok {
		names := make([]string, 0, len(c.Corpora))
		for name := range c.Corpora {
			names = append(names, name)
		}
		slices.Sort(names)
		return "", fmt.Errorf("unknown corpus %q, configured corpora: %s", corpus, strings.Join(names, ", "))
	}
	return path, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
