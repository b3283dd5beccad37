package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendFiles = "files"
	BackendBolt  = "bolt"
)

// Config holds all configuration for the retrieval engine.
type Config struct {
	Sources   SourcesConfig   `yaml:"sources"`
	Chunk     ChunkConfig     `yaml:"chunk"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Storage   StorageConfig   `yaml:"storage"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SourcesConfig selects the document files fed to the builder.
type SourcesConfig struct {
	Path     string   `yaml:"path"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// ChunkConfig holds chunking configuration, measured in characters.
type ChunkConfig struct {
	MaxSize int `yaml:"max_size"`
	Overlap int `yaml:"overlap"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "hash", "openai", "ollama"
	Model     string `yaml:"model"`       // e.g., "text-embedding-3-small"
	BaseURL   string `yaml:"base_url"`    // OpenAI-compatible endpoint override
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	Dimension int    `yaml:"dimension"`   // hash provider only
	BatchSize int    `yaml:"batch_size"`
}

// StorageConfig selects where the index and metadata are persisted.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "files" or "bolt"
	Dir     string `yaml:"dir"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK      int           `yaml:"top_k"`
	CacheSize int           `yaml:"cache_size"` // 0 disables the query cache
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Sources: SourcesConfig{
			Path:     "data",
			Includes: []string{"**/*.txt", "**/*.json"},
		},
		Chunk: ChunkConfig{
			MaxSize: 500,
			Overlap: 50,
		},
		Embedding: EmbeddingConfig{
			Provider:  "hash",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 384,
			BatchSize: 100,
		},
		Storage: StorageConfig{
			Backend: BackendFiles,
			Dir:     ".loanrag",
		},
		Retrieve: RetrieveConfig{
			TopK:      3,
			CacheSize: 256,
			CacheTTL:  5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// LoadFromDir loads configuration from a directory (looks for loanrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "loanrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".loanrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Chunk.MaxSize <= 0 {
		return fmt.Errorf("chunk.max_size must be positive, got %d", c.Chunk.MaxSize)
	}
	if c.Chunk.Overlap < 0 || c.Chunk.Overlap >= c.Chunk.MaxSize {
		return fmt.Errorf("chunk.overlap must be in [0, %d), got %d", c.Chunk.MaxSize, c.Chunk.Overlap)
	}
	switch c.Embedding.Provider {
	case "hash", "openai", "ollama":
	default:
		return fmt.Errorf("unsupported embedding provider: %s", c.Embedding.Provider)
	}
	if c.Embedding.Dimension < 0 || c.Embedding.BatchSize < 0 {
		return fmt.Errorf("embedding.dimension and embedding.batch_size must not be negative")
	}
	switch c.Storage.Backend {
	case BackendFiles, BackendBolt:
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}
	if c.Retrieve.TopK < 1 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	if c.Retrieve.CacheSize < 0 {
		return fmt.Errorf("retrieve.cache_size must not be negative")
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ArtifactDir returns the directory holding the persisted index for root.
func (c *Config) ArtifactDir(root string) string {
	if filepath.IsAbs(c.Storage.Dir) {
		return c.Storage.Dir
	}
	return filepath.Join(root, c.Storage.Dir)
}

// SourcePath resolves the configured source path against root.
func (c *Config) SourcePath(root string) string {
	if filepath.IsAbs(c.Sources.Path) {
		return c.Sources.Path
	}
	return filepath.Join(root, c.Sources.Path)
}

// EnsureDir ensures dir exists.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
