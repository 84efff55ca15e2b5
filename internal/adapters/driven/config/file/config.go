// Package file provides TOML-backed configuration for the raildoc CLI.
// Configuration lives in ~/.raildoc/config.toml; a missing file yields
// the defaults.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Defaults.
const (
	DefaultChunkSize          = 500
	DefaultOverlap            = 200
	DefaultTopK               = 5
	DefaultThreshold          = 0.1
	DefaultCallTimeoutSeconds = 120
)

// Config is the full CLI configuration.
type Config struct {
	LLM       LLMConfig       `toml:"llm"`
	Store     StoreConfig     `toml:"store"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Retrieval RetrievalConfig `toml:"retrieval"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Storage   StorageConfig   `toml:"storage"`
}

// LLMConfig configures the Gemini adapter.
type LLMConfig struct {
	// APIKey is the Gemini API key. The RAILDOC_API_KEY environment
	// variable overrides it.
	APIKey string `toml:"api_key"`

	// Model is the model name; empty uses the adapter default.
	Model string `toml:"model"`

	// RequestsPerMinute caps the outbound request rate; zero uses the
	// adapter default.
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// StoreConfig configures the vector store.
type StoreConfig struct {
	// BaseURL is the Chroma API base URL; empty uses the adapter
	// default. The special value "memory" selects a process-local
	// in-memory store.
	BaseURL string `toml:"base_url"`

	// Collection is the regulation collection name.
	Collection string `toml:"collection"`

	// ReportCollection is the generated-report collection name.
	ReportCollection string `toml:"report_collection"`
}

// ChunkingConfig configures regulation chunking.
type ChunkingConfig struct {
	ChunkSize int `toml:"chunk_size"`
	Overlap   int `toml:"overlap"`
}

// RetrievalConfig configures retrieval.
type RetrievalConfig struct {
	TopK int `toml:"top_k"`

	// SimilarityThreshold is carried in reporting but not applied as a
	// result cutoff.
	SimilarityThreshold float64 `toml:"similarity_threshold"`
}

// PipelineConfig configures batch processing.
type PipelineConfig struct {
	// CallTimeoutSeconds bounds each outbound retrieval or LLM call.
	CallTimeoutSeconds int `toml:"call_timeout_seconds"`

	// OutputDir receives per-category artifact JSON exports.
	OutputDir string `toml:"output_dir"`
}

// StorageConfig configures local persistence.
type StorageConfig struct {
	// DataDir holds the artifact database; empty uses ~/.raildoc/data.
	DataDir string `toml:"data_dir"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Collection:       "regulations",
			ReportCollection: "reports",
		},
		Chunking: ChunkingConfig{
			ChunkSize: DefaultChunkSize,
			Overlap:   DefaultOverlap,
		},
		Retrieval: RetrievalConfig{
			TopK:                DefaultTopK,
			SimilarityThreshold: DefaultThreshold,
		},
		Pipeline: PipelineConfig{
			CallTimeoutSeconds: DefaultCallTimeoutSeconds,
		},
	}
}

// DefaultPath returns ~/.raildoc/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".raildoc", "config.toml"), nil
}

// Load reads the configuration at path, falling back to defaults when
// the file does not exist. The RAILDOC_API_KEY environment variable
// overrides the configured API key.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	case err != nil:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if key := os.Getenv("RAILDOC_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}

	return cfg, nil
}

// Save writes the configuration to path with restricted permissions:
// the file carries the API key.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// CallTimeout returns the pipeline call timeout as a duration.
func (c Config) CallTimeout() time.Duration {
	if c.Pipeline.CallTimeoutSeconds <= 0 {
		return DefaultCallTimeoutSeconds * time.Second
	}
	return time.Duration(c.Pipeline.CallTimeoutSeconds) * time.Second
}
