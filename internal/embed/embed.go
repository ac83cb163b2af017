// Package embed provides contextual text embeddings for the scoring pipeline.
//
// Encoders are pretrained black boxes reached over HTTP (Ollama locally, Jina
// remotely). Inference is deterministic: the same input text yields the same
// vector, so pipeline verdicts are repeatable. An encoder that cannot execute
// fails fast and never substitutes a zero vector, which would silently
// corrupt the divergence math downstream.
package embed

import (
	"context"
	"errors"
	"strings"
)

// ErrModelUnavailable reports that the underlying embedding model cannot
// execute. Fatal for the current document; callers check with errors.Is.
var ErrModelUnavailable = errors.New("embedding model unavailable")

// DefaultTokenLimit is the fixed input-length limit applied before encoding.
// Inputs are head-truncated: the first DefaultTokenLimit tokens are kept and
// the tail is dropped. Matches the 256-token window the decision layer was
// trained against; changing it invalidates trained coefficients.
const DefaultTokenLimit = 256

// Embedder generates vector embeddings from text.
type Embedder interface {
	// Available returns true if the embedding service is accessible.
	Available() bool
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder extends Embedder with batch embedding support.
// Implementations can embed multiple texts in a single API call for efficiency.
// When EmbedBatch returns nil error, the result slice must have the same length
// as the input texts slice, with result[i] corresponding to texts[i].
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// TruncateHead keeps the first limit tokens and joins them into the text
// handed to the encoder. limit <= 0 means no truncation.
func TruncateHead(tokens []string, limit int) string {
	if limit > 0 && len(tokens) > limit {
		tokens = tokens[:limit]
	}
	return strings.Join(tokens, " ")
}
