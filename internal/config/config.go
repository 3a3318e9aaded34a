// Package config loads process-wide configuration: where the books and
// index directories live, logging destination/level, and pipeline tuning
// knobs. This is distinct from the per-index porcula_index_settings.json
// file (see settings.go), which travels with an index directory and
// is never merged with this file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBooksDir    = "books"
	DefaultIndexDir     = "index"
	DefaultListenAddr  = "127.0.0.1:8083"
	DefaultBaseURL     = "/porcula"
	DefaultReadThreads = 4
	DefaultReadQueue   = 16
	// DefaultBatchBytes is the uncommitted_size threshold (sum of each
	// pending book's parsed_size) that triggers an automatic commit.
	DefaultBatchBytes = 4 << 20
)

// Config is the process-level configuration, normally loaded from a small
// YAML file next to the binary.
type Config struct {
	BooksDir   string `yaml:"books_dir"`
	IndexDir   string `yaml:"index_dir"`
	ListenAddr string `yaml:"listen_addr"`
	BaseURL    string `yaml:"base_url"`

	Logging Logging `yaml:"logging"`

	Pipeline Pipeline `yaml:"pipeline"`
}

// Logging controls the zap logger construction.
type Logging struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	File       string `yaml:"file"`        // optional log file path, "" disables
	Color      bool   `yaml:"color"`       // colorize console output
}

// Pipeline controls the indexing run's concurrency and batching.
type Pipeline struct {
	ReadThreads int `yaml:"read_threads"`
	ReadQueue   int `yaml:"read_queue"`
	BatchBytes  int `yaml:"batch_bytes"`
}

// Default returns a Config populated with every default value, the same
// set an empty/missing config file would imply.
func Default() *Config {
	return &Config{
		BooksDir:   DefaultBooksDir,
		IndexDir:   DefaultIndexDir,
		ListenAddr: DefaultListenAddr,
		BaseURL:    DefaultBaseURL,
		Logging: Logging{
			Level: "info",
			Color: true,
		},
		Pipeline: Pipeline{
			ReadThreads: DefaultReadThreads,
			ReadQueue:   DefaultReadQueue,
			BatchBytes:  DefaultBatchBytes,
		},
	}
}

// Load reads and decodes path, starting from Default() so any field the
// file omits keeps its default value. A missing file is not an error: it
// yields Default() unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.BooksDir == "" {
		return fmt.Errorf("config: books_dir must not be empty")
	}
	if c.IndexDir == "" {
		return fmt.Errorf("config: index_dir must not be empty")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown logging.level %q", c.Logging.Level)
	}
	return nil
}
