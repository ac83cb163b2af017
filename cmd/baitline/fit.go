package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abelbrown/baitline/internal/decide"
	"github.com/abelbrown/baitline/internal/embed"
	"github.com/abelbrown/baitline/internal/logging"
	"github.com/abelbrown/baitline/internal/neighbors"
	"github.com/abelbrown/baitline/internal/normalize"
	"github.com/abelbrown/baitline/internal/pipeline"
	"github.com/abelbrown/baitline/internal/topic"
)

func runFit() {
	fs := flag.NewFlagSet("fit", flag.ExitOnError)
	feeds := fs.String("feeds", "", "Comma-separated feed URLs (default: configured watch feeds)")
	limit := fs.Int("limit", 200, "Maximum articles in the training corpus")
	topics := fs.Int("topics", 0, "Topic count (default from config)")
	iterations := fs.Int("iterations", 0, "Max Gibbs iterations (default from config)")
	seed := fs.Int64("seed", 0, "Sampler seed (default from config)")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Parse(os.Args[1:])

	initLogging(*verbose)

	cfg := loadConfig()

	feedURLs := cfg.Watch.Feeds
	if *feeds != "" {
		feedURLs = strings.Split(*feeds, ",")
	}
	if len(feedURLs) == 0 {
		fmt.Fprintln(os.Stderr, "error: no feeds given")
		fmt.Fprintln(os.Stderr, "  pass -feeds or configure watch.feeds")
		os.Exit(1)
	}

	ctx := context.Background()

	var urls []string
	for _, feed := range feedURLs {
		entries, err := collectURLs(ctx, strings.TrimSpace(feed), "", *limit)
		if err != nil {
			logging.Warn("Failed to read feed", "feed", feed, "error", err)
			continue
		}
		urls = append(urls, entries...)
	}
	if len(urls) > *limit {
		urls = urls[:*limit]
	}

	fmt.Printf("fetching %d articles...\n", len(urls))
	docs := fetchDocs(ctx, urls, cfg.Batch.Workers)
	if len(docs) == 0 {
		logging.Fatal("No articles fetched, cannot fit")
	}

	encoder := newEncoder(cfg)
	kept, embedDim := dedupCorpus(ctx, encoder, docs, cfg.Watch.DedupThreshold)
	fmt.Printf("corpus: %d articles (%d duplicates dropped)\n", len(kept), len(docs)-len(kept))

	corpus := make([][]string, 0, len(kept))
	for _, doc := range kept {
		tokens := normalize.Tokenize(doc.Headline + " " + doc.Body)
		if len(tokens) > 0 {
			corpus = append(corpus, tokens)
		}
	}

	opts := topic.FitOptions{
		Topics:        cfg.Topic.Topics,
		Alpha:         cfg.Topic.Alpha,
		Beta:          cfg.Topic.Beta,
		MaxIterations: cfg.Topic.MaxIterations,
		MinIterations: topic.DefaultFitOptions().MinIterations,
		Tolerance:     topic.DefaultFitOptions().Tolerance,
		Seed:          cfg.Topic.Seed,
	}
	if *topics > 0 {
		opts.Topics = *topics
	}
	if *iterations > 0 {
		opts.MaxIterations = *iterations
	}
	if *seed != 0 {
		opts.Seed = *seed
	}

	fmt.Printf("fitting %d topics over %d documents...\n", opts.Topics, len(corpus))
	start := time.Now()
	model, err := topic.Fit(corpus, opts)
	if err != nil {
		logging.Fatal("Failed to fit topic model", "error", err)
	}
	fmt.Printf("fitted in %s (vocabulary: %d words)\n",
		time.Since(start).Round(time.Second), model.VocabSize())

	st := openDB()
	defer st.Close()

	if err := st.SaveModel(model, embedDim, cfg.Encoder.Model); err != nil {
		logging.Fatal("Failed to save model", "error", err)
	}

	coef := decide.DefaultCoefficients()
	coef.Threshold = cfg.Decision.Threshold
	if err := st.SaveParams(cfg.Weights, coef); err != nil {
		logging.Fatal("Failed to save parameters", "error", err)
	}

	fmt.Println("model saved")
}

// dedupCorpus embeds each article body and drops near-duplicates so repeated
// syndicated stories don't dominate the topic model. Returns the surviving
// documents and the embedding dimension observed.
func dedupCorpus(ctx context.Context, encoder embed.Embedder, docs []pipeline.Doc, threshold float64) ([]pipeline.Doc, int) {
	idx := neighbors.NewIndex(threshold)
	embedDim := 0

	var kept []pipeline.Doc
	for _, doc := range docs {
		text := doc.Body
		if text == "" {
			text = doc.Headline
		}
		tokens := normalize.Tokenize(text)

		vec, err := encoder.Embed(ctx, embed.TruncateHead(tokens, embed.DefaultTokenLimit))
		if err != nil {
			logging.Warn("Failed to embed for dedup, keeping article", "url", doc.URL, "error", err)
			kept = append(kept, doc)
			continue
		}
		if embedDim == 0 {
			embedDim = len(vec)
		}

		if id, sim, found := idx.NearDuplicate(vec); found {
			logging.Debug("Dropping near-duplicate", "url", doc.URL, "of", id, "similarity", fmt.Sprintf("%.3f", sim))
			continue
		}
		idx.Add(doc.ID, vec)
		kept = append(kept, doc)
	}
	return kept, embedDim
}
