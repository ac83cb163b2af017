package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Encoder.Provider != "ollama" {
		t.Errorf("Provider = %q, want ollama", cfg.Encoder.Provider)
	}
	if cfg.Topic.Topics != 10 {
		t.Errorf("Topics = %d, want 10", cfg.Topic.Topics)
	}
	if cfg.Decision.Threshold != 0.5 {
		t.Errorf("Threshold = %g, want 0.5", cfg.Decision.Threshold)
	}
	if cfg.Weights.Topic+cfg.Weights.Embedding == 0 {
		t.Error("default weights must not both be zero")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := DefaultConfig()
	cfg.Encoder.Provider = "jina"
	cfg.Encoder.Model = "jina-embeddings-v3"
	cfg.Topic.Topics = 20
	cfg.Watch.Feeds = []string{"http://example.com/feed.xml"}

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Encoder.Provider != "jina" {
		t.Errorf("Provider = %q, want jina", loaded.Encoder.Provider)
	}
	if loaded.Topic.Topics != 20 {
		t.Errorf("Topics = %d, want 20", loaded.Topic.Topics)
	}
	if len(loaded.Watch.Feeds) != 1 {
		t.Errorf("Feeds = %v, want one feed", loaded.Watch.Feeds)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Topic.Topics != 10 {
		t.Errorf("Topics = %d, want default 10", cfg.Topic.Topics)
	}
}

func TestLoadMalformedFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Encoder.Provider != "ollama" {
		t.Errorf("Provider = %q, want default", cfg.Encoder.Provider)
	}
}

func TestAutoPopulateFromEnv(t *testing.T) {
	t.Setenv("JINA_API_KEY", "test-key")

	cfg := DefaultConfig()
	cfg.AutoPopulateFromEnv()
	if cfg.Encoder.APIKey != "test-key" {
		t.Errorf("APIKey = %q, want env value", cfg.Encoder.APIKey)
	}

	// Explicit key wins over environment
	cfg.Encoder.APIKey = "explicit"
	cfg.AutoPopulateFromEnv()
	if cfg.Encoder.APIKey != "explicit" {
		t.Errorf("APIKey = %q, explicit value should win", cfg.Encoder.APIKey)
	}
}
