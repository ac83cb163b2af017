package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abelbrown/baitline/internal/decide"
	"github.com/abelbrown/baitline/internal/fetch"
	"github.com/abelbrown/baitline/internal/logging"
	"github.com/abelbrown/baitline/internal/neighbors"
	"github.com/abelbrown/baitline/internal/normalize"
	"github.com/abelbrown/baitline/internal/pipeline"
	"github.com/abelbrown/baitline/internal/store"
)

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	feeds := fs.String("feeds", "", "Comma-separated feed URLs (default: configured watch feeds)")
	interval := fs.Duration("interval", 0, "Poll interval (default from config)")
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

	pollEvery := *interval
	if pollEvery == 0 {
		pollEvery = time.Duration(cfg.Watch.IntervalMinutes) * time.Minute
	}

	st := openDB()
	defer st.Close()
	p := loadPipeline(st, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f := fetch.NewFetcher(30 * time.Second)
	seen := make(map[string]bool)

	// Articles already in the verdict history don't get rescored.
	if history, err := st.RecentVerdicts(10000); err == nil {
		for _, v := range history {
			seen[v.ArticleID] = true
		}
	}

	// The same story resurfaces across feeds under fresh URLs; an embedding
	// index catches those where the URL-hash ID cannot.
	dedup := neighbors.NewDeduper(newEncoder(cfg), cfg.Watch.DedupThreshold, cfg.Encoder.TokenLimit)

	fmt.Printf("watching %d feeds every %s\n", len(feedURLs), pollEvery)

	ticker := time.NewTicker(pollEvery)
	defer ticker.Stop()

	pollFeeds(ctx, f, st, p, dedup, feedURLs, seen)
	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nstopping")
			return
		case <-ticker.C:
			pollFeeds(ctx, f, st, p, dedup, feedURLs, seen)
		}
	}
}

// pollFeeds fetches and scores every unseen article across the feeds.
func pollFeeds(ctx context.Context, f *fetch.Fetcher, st *store.Store, p *pipeline.Pipeline, dedup *neighbors.Deduper, feeds []string, seen map[string]bool) {
	for _, feed := range feeds {
		feed = strings.TrimSpace(feed)

		urls, err := f.FetchFeed(ctx, feed)
		if err != nil {
			logging.Warn("Failed to read feed", "feed", feed, "error", err)
			continue
		}

		for _, url := range urls {
			if ctx.Err() != nil {
				return
			}

			art, err := f.Fetch(ctx, url)
			if err != nil {
				logging.Warn("Failed to fetch article", "url", url, "error", err)
				continue
			}
			if seen[art.ID] {
				continue
			}
			seen[art.ID] = true

			text := art.BodyText
			if text == "" {
				text = art.Headline
			}
			if dup, isDup := dedup.Seen(ctx, art.ID, normalize.Tokenize(text)); isDup {
				logging.Debug("Skipping near-duplicate story", "url", url, "of", dup)
				continue
			}

			verdict, err := p.Evaluate(ctx, art.Headline, art.BodyText)
			if err != nil {
				logging.Error("Failed to score article", "url", url, "error", err)
				continue
			}

			mark := "·"
			if verdict.Label == decide.LabelClickbait {
				mark = "!"
			}
			fmt.Printf("%s %s  %s p=%.2f\n", mark, truncate(art.Headline, 64), verdict.Label, verdict.Probability)

			if err := st.SaveVerdict(store.VerdictRecord{
				ArticleID:         art.ID,
				URL:               art.URL,
				Headline:          art.Headline,
				Label:             verdict.Label,
				Probability:       verdict.Probability,
				TopicDivergence:   verdict.Divergence.TopicDivergence,
				EmbeddingDistance: verdict.Divergence.EmbeddingDistance,
				Combined:          verdict.Divergence.Combined,
			}); err != nil {
				logging.Warn("Failed to record verdict", "url", url, "error", err)
			}
		}
	}
}
