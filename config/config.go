package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the semsearch tool.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Search    SearchConfig    `yaml:"search"`
	Embedding EmbeddingConfig `yaml:"embedding"`
}

// StoreConfig selects and locates the document store.
type StoreConfig struct {
	// Backend is "sqlite" or "bolt".
	Backend string `yaml:"backend"`
	// Path is the database file path. Empty means the per-directory default.
	Path string `yaml:"path"`
}

// IngestConfig controls which files the index command picks up.
type IngestConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	TopK int `yaml:"top_k"`
	// MinSimilarity filters results scoring below it. Nil disables the floor.
	MinSimilarity *float32 `yaml:"min_similarity"`
	// Output is "text" or "json".
	Output string `yaml:"output"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	// Provider is "openai", "ollama", "compatible", or "static".
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	Dimension int    `yaml:"dimension"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: "sqlite",
		},
		Ingest: IngestConfig{
			Includes: []string{"**/*.md", "**/*.txt"},
			Excludes: []string{"**/node_modules/**", "**/vendor/**", "**/.git/**"},
		},
		Search: SearchConfig{
			TopK:   10,
			Output: "text",
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
		},
	}
}

// Load reads configuration from a YAML file, layered over the defaults. A
// missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir locates configuration in a directory: semsearch.yaml first,
// then .semsearch/config.yaml, else defaults.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "semsearch.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}
	path = filepath.Join(dir, ".semsearch", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}
	return Default(), nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "sqlite", "bolt":
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	switch c.Embedding.Provider {
	case "openai", "ollama", "compatible", "static":
	default:
		return fmt.Errorf("config: unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("config: search top_k must be positive, got %d", c.Search.TopK)
	}
	switch c.Search.Output {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown output format %q", c.Search.Output)
	}
	return nil
}

// DBPath returns the store file path: the configured path if set, otherwise
// the per-directory default for the chosen backend.
func (c *Config) DBPath(dir string) string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	name := "index.sqlite"
	if c.Store.Backend == "bolt" {
		name = "index.bolt"
	}
	return filepath.Join(dir, ".semsearch", name)
}

// EnsureDir ensures the per-directory .semsearch directory exists.
func EnsureDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".semsearch"), 0755)
}
