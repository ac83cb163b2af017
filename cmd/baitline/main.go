// Command baitline scores articles for headline/body divergence.
//
// Usage:
//
//	baitline                  Show help
//	baitline score <url>      Score a single article
//	baitline batch            Score a feed or URL list concurrently
//	baitline fit              Train the topic model from feeds
//	baitline watch            Poll feeds and score new articles
//	baitline stats            Verdict history statistics
package main

import (
	"fmt"
	"os"
)

const usage = `baitline - clickbait divergence scorer

Usage:
  baitline <command> [flags]

Commands:
  score       Score one article by URL or local HTML file
  batch       Score every article in a feed or URL list
  fit         Train the topic model from feed corpora
  watch       Poll feeds and score new articles as they appear
  stats       Verdict history statistics

Environment:
  JINA_API_KEY   Jina AI API key (when encoder provider is jina)
  OLLAMA_HOST    Ollama endpoint (default http://localhost:11434)

Run 'baitline <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "score":
		runScore()
	case "batch":
		runBatch()
	case "fit":
		runFit()
	case "watch":
		runWatch()
	case "stats":
		runStats()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "baitline: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
