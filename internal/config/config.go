// Package config holds the persistent application configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/abelbrown/baitline/internal/diverge"
)

// Config is the persistent application configuration
type Config struct {
	// Encoder settings
	Encoder EncoderConfig `json:"encoder"`

	// Topic model training settings
	Topic TopicConfig `json:"topic"`

	// Divergence weighting
	Weights diverge.Weights `json:"weights"`

	// Decision layer
	Decision DecisionConfig `json:"decision"`

	// Batch processing
	Batch BatchConfig `json:"batch"`

	// Watch mode
	Watch WatchConfig `json:"watch"`
}

// EncoderConfig selects and configures the embedding provider.
type EncoderConfig struct {
	// Provider is "ollama" or "jina"
	Provider string `json:"provider"`
	Endpoint string `json:"endpoint,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	// Dimensions pins the expected vector size. Zero learns it from the
	// first response.
	Dimensions int `json:"dimensions,omitempty"`
	// TokenLimit caps encoder input. Zero uses the built-in default.
	TokenLimit int `json:"token_limit,omitempty"`
}

// TopicConfig holds topic model training parameters.
type TopicConfig struct {
	Topics        int     `json:"topics"`
	Alpha         float64 `json:"alpha"`
	Beta          float64 `json:"beta"`
	MaxIterations int     `json:"max_iterations"`
	Seed          int64   `json:"seed"`
}

// DecisionConfig holds the decision threshold. Coefficients themselves live
// in the store alongside the model they were fit with.
type DecisionConfig struct {
	Threshold float64 `json:"threshold"`
}

// BatchConfig controls concurrent batch scoring.
type BatchConfig struct {
	Workers          int `json:"workers"`
	PerDocTimeoutSec int `json:"per_doc_timeout_sec"`
}

// WatchConfig controls feed watching.
type WatchConfig struct {
	Feeds           []string `json:"feeds"`
	IntervalMinutes int      `json:"interval_minutes"`
	// DedupThreshold is the cosine similarity above which a new article is
	// skipped as a repeat of one already scored.
	DedupThreshold float64 `json:"dedup_threshold"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Encoder: EncoderConfig{
			Provider: "ollama",
			Endpoint: "http://localhost:11434",
			Model:    "nomic-embed-text",
		},
		Topic: TopicConfig{
			Topics:        10,
			Alpha:         0.1,
			Beta:          0.01,
			MaxIterations: 500,
			Seed:          42,
		},
		Weights: diverge.DefaultWeights(),
		Decision: DecisionConfig{
			Threshold: 0.5,
		},
		Batch: BatchConfig{
			Workers:          4,
			PerDocTimeoutSec: 60,
		},
		Watch: WatchConfig{
			IntervalMinutes: 15,
			DedupThreshold:  0.92,
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".baitline", "config.json")
}

// Load reads config from disk, or returns defaults
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from an explicit path, or returns defaults when the
// file is missing or malformed.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults and try to auto-populate from environment
			cfg := DefaultConfig()
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), nil
	}
	cfg.AutoPopulateFromEnv()

	return cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes config to an explicit path.
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600) // Restrictive permissions for API keys
}

// AutoPopulateFromEnv fills in encoder settings from environment variables.
// Explicit config values win over the environment.
func (c *Config) AutoPopulateFromEnv() {
	if c.Encoder.APIKey == "" {
		if key := os.Getenv("JINA_API_KEY"); key != "" {
			c.Encoder.APIKey = key
		}
	}
	if c.Encoder.Provider == "ollama" {
		if host := os.Getenv("OLLAMA_HOST"); host != "" && c.Encoder.Endpoint == "http://localhost:11434" {
			c.Encoder.Endpoint = host
		}
	}
}
