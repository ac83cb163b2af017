package neighbors

import (
	"context"
	"fmt"

	"github.com/abelbrown/baitline/internal/embed"
	"github.com/abelbrown/baitline/internal/logging"
)

// Deduper pairs an Index with an encoder so callers can answer "seen this
// story already" from article tokens alone, without managing embeddings
// themselves.
type Deduper struct {
	idx     *Index
	encoder embed.Embedder
	limit   int
}

// NewDeduper creates a deduper with the given similarity threshold and
// encoder token limit. Non-positive values use the package defaults.
func NewDeduper(encoder embed.Embedder, threshold float64, tokenLimit int) *Deduper {
	if tokenLimit <= 0 {
		tokenLimit = embed.DefaultTokenLimit
	}
	return &Deduper{
		idx:     NewIndex(threshold),
		encoder: encoder,
		limit:   tokenLimit,
	}
}

// Seen embeds the article's tokens and reports the indexed article it
// duplicates, if any. Unseen articles are indexed before returning.
// Empty token lists and encoding failures report unseen, so the article
// still gets scored rather than silently dropped.
func (d *Deduper) Seen(ctx context.Context, id string, tokens []string) (string, bool) {
	if len(tokens) == 0 {
		return "", false
	}
	if d.idx.Contains(id) {
		return id, true
	}

	vec, err := d.encoder.Embed(ctx, embed.TruncateHead(tokens, d.limit))
	if err != nil {
		logging.Warn("Failed to embed for dedup", "article", id, "error", err)
		return "", false
	}

	if dup, sim, found := d.idx.NearDuplicate(vec); found {
		logging.Debug("Near-duplicate article",
			"article", id, "of", dup, "similarity", fmt.Sprintf("%.3f", sim))
		return dup, true
	}

	d.idx.Add(id, vec)
	return "", false
}

// Len returns the number of indexed articles.
func (d *Deduper) Len() int { return d.idx.Len() }
