package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/abelbrown/baitline/internal/decide"
	"github.com/abelbrown/baitline/internal/logging"
)

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	recent := fs.Int("recent", 10, "Recent verdicts to list")
	verbose := fs.Bool("v", false, "Verbose logging")
	fs.Parse(os.Args[1:])

	initLogging(*verbose)

	st := openDB()
	defer st.Close()

	stats, err := st.Stats()
	if err != nil {
		logging.Fatal("Failed to read stats", "error", err)
	}

	fmt.Printf("Verdicts:          %d\n", stats.Total)
	fmt.Printf("Clickbait:         %d\n", stats.Clickbait)
	if stats.Total > 0 {
		fmt.Printf("Clickbait rate:    %.1f%%\n", float64(stats.Clickbait)/float64(stats.Total)*100)
		fmt.Printf("Mean probability:  %.3f\n", stats.MeanProbability)
	}

	if model, info, err := st.LoadModel(); err == nil {
		fmt.Printf("\nModel:             %d topics, %d words\n", model.TopicCount(), model.VocabSize())
		fmt.Printf("Encoder:           %s (%d dims)\n", info.EmbedModel, info.EmbedDim)
		fmt.Printf("Trained:           %s\n", info.SavedAt.Format("2006-01-02 15:04"))
	} else {
		fmt.Println("\nNo trained model")
	}

	if *recent <= 0 {
		return
	}
	verdicts, err := st.RecentVerdicts(*recent)
	if err != nil || len(verdicts) == 0 {
		return
	}

	fmt.Printf("\nRecent (%d):\n", len(verdicts))
	for _, v := range verdicts {
		mark := "·"
		if v.Label == decide.LabelClickbait {
			mark = "!"
		}
		fmt.Printf("  %s %.2f  %s\n", mark, v.Probability, truncate(v.Headline, 64))
	}
}
