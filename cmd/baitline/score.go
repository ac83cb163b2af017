package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/abelbrown/baitline/internal/fetch"
	"github.com/abelbrown/baitline/internal/logging"
	"github.com/abelbrown/baitline/internal/store"
)

func runScore() {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	file := fs.String("file", "", "Score a local HTML file instead of a URL")
	asJSON := fs.Bool("json", false, "Emit the verdict as JSON")
	timeout := fs.Duration("timeout", 30*time.Second, "Fetch and scoring timeout")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Parse(os.Args[1:])

	initLogging(*verbose)

	if *file == "" && fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: baitline score [flags] <url>")
		fs.PrintDefaults()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var art fetch.Article
	var err error
	if *file != "" {
		art, err = fetch.ReadFile(*file)
	} else {
		art, err = fetch.NewFetcher(*timeout).Fetch(ctx, fs.Arg(0))
	}
	if err != nil {
		logging.Fatal("Failed to fetch article", "error", err)
	}

	st := openDB()
	defer st.Close()
	cfg := loadConfig()

	p := loadPipeline(st, cfg)

	verdict, err := p.Evaluate(ctx, art.Headline, art.BodyText)
	if err != nil {
		logging.Fatal("Failed to score article", "url", art.URL, "error", err)
	}

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
		logging.Warn("Failed to record verdict", "error", err)
	}

	if *asJSON {
		out := struct {
			URL      string `json:"url"`
			Headline string `json:"headline"`
			Verdict  any    `json:"verdict"`
		}{art.URL, art.Headline, verdict}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(out)
		return
	}

	fmt.Printf("%s\n", truncate(art.Headline, 78))
	fmt.Printf("  label:               %s\n", verdict.Label)
	fmt.Printf("  probability:         %.3f\n", verdict.Probability)
	fmt.Printf("  topic divergence:    %.3f\n", verdict.Divergence.TopicDivergence)
	fmt.Printf("  embedding distance:  %.3f\n", verdict.Divergence.EmbeddingDistance)
	fmt.Printf("  combined:            %.3f\n", verdict.Divergence.Combined)
}
