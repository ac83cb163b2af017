package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/baitline/internal/fetch"
	"github.com/abelbrown/baitline/internal/logging"
	"github.com/abelbrown/baitline/internal/pipeline"
	"github.com/abelbrown/baitline/internal/store"
	"github.com/abelbrown/baitline/internal/ui/batchview"
	"github.com/abelbrown/baitline/internal/work"
)

func runBatch() {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	feed := fs.String("feed", "", "RSS/Atom feed to score")
	urlsFile := fs.String("urls", "", "File with one article URL per line")
	limit := fs.Int("limit", 50, "Maximum articles to score")
	plain := fs.Bool("plain", false, "Line output instead of the progress UI")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Parse(os.Args[1:])

	initLogging(*verbose)

	if *feed == "" && *urlsFile == "" {
		fmt.Fprintln(os.Stderr, "usage: baitline batch -feed <url> | -urls <file>")
		fs.PrintDefaults()
		os.Exit(1)
	}

	ctx := context.Background()
	cfg := loadConfig()

	urls, err := collectURLs(ctx, *feed, *urlsFile, *limit)
	if err != nil {
		logging.Fatal("Failed to collect URLs", "error", err)
	}
	if len(urls) == 0 {
		fmt.Println("no articles to score")
		return
	}

	docs := fetchDocs(ctx, urls, cfg.Batch.Workers)
	if len(docs) == 0 {
		fmt.Println("no articles fetched")
		return
	}

	st := openDB()
	defer st.Close()
	p := loadPipeline(st, cfg)

	pool := work.NewPool(cfg.Batch.Workers)
	pool.Start(ctx)
	defer pool.Stop()

	perDoc := time.Duration(cfg.Batch.PerDocTimeoutSec) * time.Second

	var results []pipeline.BatchResult
	if *plain {
		results = p.EvaluateBatch(ctx, pool, docs, perDoc)
	} else {
		// Each item emits created/started/completed events; size the buffer
		// so a repainting UI never drops the terminal event it quits on.
		events := pool.SubscribeBuffered(4*len(docs) + 16)
		view := batchview.New(events, len(docs))
		prog := tea.NewProgram(view)

		scored := make(chan []pipeline.BatchResult, 1)
		go func() {
			scored <- p.EvaluateBatch(ctx, pool, docs, perDoc)
			// EvaluateBatch returning means the final event has been
			// published; the view quits itself when it sees it.
		}()

		if _, err := prog.Run(); err != nil {
			logging.Fatal("Progress UI failed", "error", err)
		}
		pool.Unsubscribe(events)
		results = <-scored
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			if *plain {
				fmt.Printf("✗ %-60s %v\n", truncate(r.Doc.URL, 60), r.Err)
			}
			continue
		}
		if *plain {
			fmt.Printf("%s %-60s %s p=%.2f\n",
				labelMark(string(r.Verdict.Label)),
				truncate(r.Doc.Headline, 60),
				r.Verdict.Label, r.Verdict.Probability)
		}
		if err := st.SaveVerdict(store.VerdictRecord{
			ArticleID:         r.Doc.ID,
			URL:               r.Doc.URL,
			Headline:          r.Doc.Headline,
			Label:             r.Verdict.Label,
			Probability:       r.Verdict.Probability,
			TopicDivergence:   r.Verdict.Divergence.TopicDivergence,
			EmbeddingDistance: r.Verdict.Divergence.EmbeddingDistance,
			Combined:          r.Verdict.Divergence.Combined,
		}); err != nil {
			logging.Warn("Failed to record verdict", "url", r.Doc.URL, "error", err)
		}
	}

	fmt.Printf("\nscored %d articles, %d failed\n", len(results)-failed, failed)
}

// collectURLs resolves the batch inputs into a capped URL list.
func collectURLs(ctx context.Context, feed, urlsFile string, limit int) ([]string, error) {
	var urls []string

	if feed != "" {
		f := fetch.NewFetcher(30 * time.Second)
		feedURLs, err := f.FetchFeed(ctx, feed)
		if err != nil {
			return nil, err
		}
		urls = append(urls, feedURLs...)
	}

	if urlsFile != "" {
		file, err := os.Open(urlsFile)
		if err != nil {
			return nil, err
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				urls = append(urls, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(urls) > limit {
		urls = urls[:limit]
	}
	return urls, nil
}

// fetchDocs retrieves articles concurrently. Fetch failures are logged and
// skipped; the batch proceeds with what arrived.
func fetchDocs(ctx context.Context, urls []string, workers int) []pipeline.Doc {
	f := fetch.NewFetcher(30 * time.Second)

	docs := make([]pipeline.Doc, len(urls))
	ok := make([]bool, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			art, err := f.Fetch(gctx, url)
			if err != nil {
				logging.Warn("Failed to fetch article", "url", url, "error", err)
				return nil
			}
			docs[i] = pipeline.Doc{
				ID:       art.ID,
				URL:      art.URL,
				Headline: art.Headline,
				Body:     art.BodyText,
			}
			ok[i] = true
			return nil
		})
	}
	g.Wait()

	out := docs[:0]
	for i := range docs {
		if ok[i] {
			out = append(out, docs[i])
		}
	}
	return out
}

func labelMark(label string) string {
	if label == "clickbait" {
		return "!"
	}
	return "·"
}
