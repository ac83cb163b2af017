package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"

	"github.com/abelbrown/baitline/internal/config"
	"github.com/abelbrown/baitline/internal/decide"
	"github.com/abelbrown/baitline/internal/diverge"
	"github.com/abelbrown/baitline/internal/embed"
	"github.com/abelbrown/baitline/internal/logging"
	"github.com/abelbrown/baitline/internal/pipeline"
	"github.com/abelbrown/baitline/internal/store"
)

// initLogging routes logs to stderr for one-shot commands.
func initLogging(verbose bool) {
	level := charmlog.WarnLevel
	if verbose {
		level = charmlog.DebugLevel
	}
	logging.InitStderr(level)
}

// dataDir returns ~/.baitline/, creating it if needed.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("failed to get home directory: %v", err)
	}
	dir := filepath.Join(home, ".baitline")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}
	return dir
}

// dbPath returns the path to baitline.db.
func dbPath() string {
	return filepath.Join(dataDir(), "baitline.db")
}

// openDB opens the store or fatals.
func openDB() *store.Store {
	st, err := store.Open(dbPath())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	return st
}

// loadConfig reads the config or fatals.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// newEncoder builds the configured embedding client.
func newEncoder(cfg *config.Config) embed.Embedder {
	switch cfg.Encoder.Provider {
	case "jina":
		if cfg.Encoder.APIKey == "" {
			fmt.Fprintln(os.Stderr, "error: JINA_API_KEY is required for the jina encoder")
			os.Exit(1)
		}
		return embed.NewJinaEmbedder(cfg.Encoder.APIKey, cfg.Encoder.Model)
	case "ollama", "":
		return embed.NewOllamaEmbedder(cfg.Encoder.Endpoint, cfg.Encoder.Model)
	default:
		log.Fatalf("unknown encoder provider %q", cfg.Encoder.Provider)
		return nil
	}
}

// loadPipeline assembles a scoring pipeline from the stored model and
// parameters. Fatals with guidance when no model has been trained, or when
// the stored model disagrees with the configured encoder.
func loadPipeline(st *store.Store, cfg *config.Config) *pipeline.Pipeline {
	model, info, err := st.LoadModel()
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintln(os.Stderr, "error: no trained model found")
		fmt.Fprintln(os.Stderr, "  run 'baitline fit' first")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("failed to load model: %v", err)
	}

	if cfg.Encoder.Dimensions > 0 {
		if err := info.Check(cfg.Encoder.Dimensions, cfg.Encoder.Model); err != nil {
			log.Fatalf("%v\n  refit with 'baitline fit' or restore the original encoder config", err)
		}
	} else if info.EmbedModel != cfg.Encoder.Model {
		log.Fatalf("model was trained with encoder %q but %q is configured\n  refit with 'baitline fit' or restore the original encoder config",
			info.EmbedModel, cfg.Encoder.Model)
	}

	weights, coef, err := st.LoadParams()
	if errors.Is(err, store.ErrNotFound) {
		weights = cfg.Weights
		coef = decide.DefaultCoefficients()
		coef.Threshold = cfg.Decision.Threshold
	} else if err != nil {
		log.Fatalf("failed to load parameters: %v", err)
	}

	scorer, err := diverge.NewScorer(weights)
	if err != nil {
		log.Fatalf("invalid divergence weights: %v", err)
	}
	decider, err := decide.NewDecider(coef)
	if err != nil {
		log.Fatalf("invalid decision coefficients: %v", err)
	}

	p, err := pipeline.New(model, newEncoder(cfg), scorer, decider, pipeline.Options{
		TokenLimit: cfg.Encoder.TokenLimit,
		EmbedDim:   info.EmbedDim,
	})
	if err != nil {
		log.Fatalf("failed to assemble pipeline: %v", err)
	}
	return p
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
