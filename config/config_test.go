package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunk.MaxSize != 500 {
		t.Errorf("expected MaxSize=500, got %d", cfg.Chunk.MaxSize)
	}
	if cfg.Chunk.Overlap != 50 {
		t.Errorf("expected Overlap=50, got %d", cfg.Chunk.Overlap)
	}
	if cfg.Retrieve.TopK != 3 {
		t.Errorf("expected TopK=3, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Storage.Backend != BackendFiles {
		t.Errorf("expected files backend, got %s", cfg.Storage.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg == nil {
		t.Error("expected default config, got nil")
	}
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "loanrag.yaml")

	content := `
chunk:
  max_size: 256
  overlap: 32
storage:
  backend: bolt
retrieve:
  top_k: 10
  cache_ttl: 30s
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Chunk.MaxSize != 256 {
		t.Errorf("expected MaxSize=256, got %d", cfg.Chunk.MaxSize)
	}
	if cfg.Chunk.Overlap != 32 {
		t.Errorf("expected Overlap=32, got %d", cfg.Chunk.Overlap)
	}
	if cfg.Storage.Backend != BackendBolt {
		t.Errorf("expected bolt backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Retrieve.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Retrieve.TopK)
	}
	if cfg.Retrieve.CacheTTL != 30*time.Second {
		t.Errorf("expected CacheTTL=30s, got %s", cfg.Retrieve.CacheTTL)
	}
	if cfg.Embedding.Provider != "hash" {
		t.Errorf("expected default provider to survive partial config, got %s", cfg.Embedding.Provider)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"overlap too large": "chunk:\n  max_size: 100\n  overlap: 100\n",
		"bad backend":       "storage:\n  backend: s3\n",
		"bad provider":      "embedding:\n  provider: magic\n",
		"zero top k":        "retrieve:\n  top_k: 0\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "loanrag.yaml")
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, ".loanrag"), 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(tmpDir, ".loanrag", "config.yaml")

	content := `
embedding:
  provider: ollama
  model: all-minilm
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromDir(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Embedding.Provider != "ollama" {
		t.Errorf("expected provider=ollama, got %s", cfg.Embedding.Provider)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loanrag.yaml")
	cfg := DefaultConfig()
	cfg.Chunk.MaxSize = 800

	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Chunk.MaxSize != 800 {
		t.Errorf("expected MaxSize=800, got %d", got.Chunk.MaxSize)
	}
}

func TestArtifactDir(t *testing.T) {
	cfg := DefaultConfig()
	path := cfg.ArtifactDir("/home/user/project")
	expected := filepath.Join("/home/user/project", ".loanrag")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}

	cfg.Storage.Dir = "/var/lib/loanrag"
	if got := cfg.ArtifactDir("/home/user/project"); got != "/var/lib/loanrag" {
		t.Errorf("expected absolute dir to be kept, got %s", got)
	}
}
