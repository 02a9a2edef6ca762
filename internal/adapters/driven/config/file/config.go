// Package file loads and persists application configuration as TOML in
// the studyrag config directory (~/.studyrag/config.toml by default).
// Missing fields fall back to defaults, so a partial file is valid.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration.
type Config struct {
	Ollama     OllamaConfig     `toml:"ollama"`
	Chunking   ChunkingConfig   `toml:"chunking"`
	Index      IndexConfig      `toml:"index"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
	Generation GenerationConfig `toml:"generation"`
	Uploads    UploadsConfig    `toml:"uploads"`
}

// OllamaConfig holds the model backend settings.
type OllamaConfig struct {
	BaseURL           string  `toml:"base_url"`
	EmbeddingModel    string  `toml:"embedding_model"`
	GenerationModel   string  `toml:"generation_model"`
	Dimensions        int     `toml:"dimensions"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ChunkingConfig controls document splitting.
type ChunkingConfig struct {
	ChunkSize int `toml:"chunk_size"`
	Overlap   int `toml:"overlap"`
}

// IndexConfig controls the vector store.
type IndexConfig struct {
	DataDir    string `toml:"data_dir"`
	Collection string `toml:"collection"`
}

// RetrievalConfig controls query behaviour.
type RetrievalConfig struct {
	MaxResults      int `toml:"max_results"`
	DefaultK        int `toml:"default_k"`
	MaxContextChars int `toml:"max_context_chars"`
}

// GenerationConfig controls answer generation.
type GenerationConfig struct {
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	DefaultLanguage string `toml:"default_language"`
	Instructions    string `toml:"instructions"`
}

// UploadsConfig controls the document file store.
type UploadsConfig struct {
	Dir               string   `toml:"dir"`
	MaxFileSizeBytes  int64    `toml:"max_file_size_bytes"`
	AllowedExtensions []string `toml:"allowed_extensions"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Ollama: OllamaConfig{
			BaseURL:           "http://localhost:11434",
			EmbeddingModel:    "nomic-embed-text",
			GenerationModel:   "llama3.2",
			Dimensions:        768,
			RequestsPerSecond: 20,
		},
		Chunking: ChunkingConfig{
			ChunkSize: 1000,
			Overlap:   200,
		},
		Index: IndexConfig{
			Collection: "study_documents",
		},
		Retrieval: RetrievalConfig{
			MaxResults:      20,
			DefaultK:        5,
			MaxContextChars: 8000,
		},
		Generation: GenerationConfig{
			TimeoutSeconds:  90,
			DefaultLanguage: "auto",
		},
		Uploads: UploadsConfig{
			MaxFileSizeBytes:  10 << 20,
			AllowedExtensions: []string{".txt", ".text", ".log", ".csv", ".md", ".markdown"},
		},
	}
}

// GenerationTimeout returns the configured generation deadline.
func (c Config) GenerationTimeout() time.Duration {
	return time.Duration(c.Generation.TimeoutSeconds) * time.Second
}

// DefaultPath returns ~/.studyrag/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".studyrag", "config.toml"), nil
}

// Load reads the config file at path, overlaying it on Defaults. A
// missing file yields pure defaults. Empty path uses DefaultPath.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes the config as TOML with restricted permissions, creating
// the parent directory if needed.
func Save(path string, cfg Config) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
