// Package represent fuses a topic distribution and a contextual embedding
// into one unified per-span document representation.
//
// Fusion packages, it does not project: the topic and embedding components
// stay separately recoverable so the divergence scorer can report
// per-component mismatch. Any joint-projection experiment must preserve that.
package represent

import (
	"errors"
	"fmt"
	"math"

	"github.com/abelbrown/baitline/internal/normalize"
	"github.com/abelbrown/baitline/internal/topic"
)

// ErrNumericAnomaly reports a non-finite value in an input representation.
// Detected here, at the fusion boundary, so NaN/Inf never reaches the
// divergence math unnoticed.
var ErrNumericAnomaly = errors.New("non-finite value in representation")

// Unified is the fused per-span representation. Immutable after Fuse.
type Unified struct {
	Topics    topic.Distribution
	Embedding []float32
	Span      normalize.SpanKind
}

// Options controls fusion policy.
type Options struct {
	// UnitNormalize rescales the embedding to unit length. Deterministic,
	// and a no-op for zero vectors (the scorer treats those specially).
	UnitNormalize bool
}

// Fuse validates both components and packages them under the span identity.
//
// The topic distribution must be a valid probability vector; the embedding
// must be non-empty and finite. A zero embedding vector is allowed; it is
// the representation of a zero-evidence span and the scorer maps it to
// maximum distance.
func Fuse(topics topic.Distribution, embedding []float32, span normalize.SpanKind, opts Options) (Unified, error) {
	if err := topics.Validate(); err != nil {
		return Unified{}, fmt.Errorf("fuse %s: %w", span, err)
	}
	if len(embedding) == 0 {
		return Unified{}, fmt.Errorf("fuse %s: empty embedding vector", span)
	}
	for i, v := range embedding {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return Unified{}, fmt.Errorf("fuse %s: %w: embedding entry %d", span, ErrNumericAnomaly, i)
		}
	}

	t := make(topic.Distribution, len(topics))
	copy(t, topics)
	e := make([]float32, len(embedding))
	copy(e, embedding)

	if opts.UnitNormalize {
		unitNormalize(e)
	}

	return Unified{Topics: t, Embedding: e, Span: span}, nil
}

// unitNormalize rescales v to unit length in place. Zero vectors pass
// through untouched.
func unitNormalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
