// Package topic implements a latent Dirichlet allocation topic model fitted
// over a reference corpus by collapsed Gibbs sampling.
//
// A fitted Model is read-only: Infer folds a new token sequence into the
// fixed topic space without mutating shared state, so one Model can serve
// concurrent pipelines without locking.
package topic

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
)

// SumTolerance is the allowed drift of a Distribution away from 1.0.
const SumTolerance = 1e-6

// ErrNumericAnomaly reports a non-finite value inside a distribution.
var ErrNumericAnomaly = errors.New("non-finite value in topic distribution")

// Distribution is a probability vector over the model's K topics.
// Entries are non-negative and sum to 1 within SumTolerance.
type Distribution []float64

// Validate checks the distribution invariants: fixed length is the caller's
// concern, entries must be finite and non-negative, and the sum must be 1.
func (d Distribution) Validate() error {
	if len(d) == 0 {
		return errors.New("empty topic distribution")
	}
	sum := 0.0
	for i, p := range d {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: entry %d", ErrNumericAnomaly, i)
		}
		if p < 0 {
			return fmt.Errorf("negative probability %g at entry %d", p, i)
		}
		sum += p
	}
	if math.Abs(sum-1.0) > SumTolerance {
		return fmt.Errorf("topic distribution sums to %g, want 1.0", sum)
	}
	return nil
}

// Equal reports whether two distributions are identical within tolerance.
func (d Distribution) Equal(other Distribution) bool {
	if len(d) != len(other) {
		return false
	}
	for i := range d {
		if math.Abs(d[i]-other[i]) > SumTolerance {
			return false
		}
	}
	return true
}

// Model is a fitted LDA topic model. Immutable after Fit or Restore.
type Model struct {
	k     int
	alpha float64 // symmetric document-topic prior
	beta  float64 // symmetric topic-word prior
	seed  int64

	vocab map[string]int // word -> id
	words []string       // id -> word

	phi   [][]float64 // K x V topic-word probabilities, rows sum to 1
	prior Distribution
}

// TopicCount returns K, the fixed number of topics.
func (m *Model) TopicCount() int { return m.k }

// VocabSize returns the number of words in the fitted vocabulary.
func (m *Model) VocabSize() int { return len(m.words) }

// Vocabulary returns the fitted words in id order. The returned slice is a copy.
func (m *Model) Vocabulary() []string {
	out := make([]string, len(m.words))
	copy(out, m.words)
	return out
}

// Alpha returns the document-topic prior.
func (m *Model) Alpha() float64 { return m.alpha }

// Beta returns the topic-word prior.
func (m *Model) Beta() float64 { return m.beta }

// Seed returns the seed the model was fitted with.
func (m *Model) Seed() int64 { return m.seed }

// WordTopicMatrix returns a copy of phi, the K x V topic-word probabilities.
func (m *Model) WordTopicMatrix() [][]float64 {
	out := make([][]float64, m.k)
	for k := range m.phi {
		row := make([]float64, len(m.phi[k]))
		copy(row, m.phi[k])
		out[k] = row
	}
	return out
}

// Prior returns the model's background topic prior: the normalized symmetric
// alpha vector. Zero-evidence documents fall back to this.
func (m *Model) Prior() Distribution {
	out := make(Distribution, len(m.prior))
	copy(out, m.prior)
	return out
}

// inferSweeps is how many Gibbs passes Infer runs when folding a document in.
// Enough for a short document's topic mixture to stabilize; fixed so repeated
// calls cost the same.
const inferSweeps = 25

// Infer folds a token sequence into the fitted topic space, holding the
// topic-word matrix fixed and re-estimating only the document-topic mixture.
//
// Out-of-vocabulary tokens carry no evidence and are skipped; a sequence with
// no in-vocabulary tokens returns the model prior rather than an error.
// The sampler is seeded from the model seed and the token sequence, so the
// same tokens always produce the same distribution.
func (m *Model) Infer(tokens []string) Distribution {
	ids := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		if id, ok := m.vocab[tok]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return m.Prior()
	}

	rng := rand.New(rand.NewSource(m.inferSeed(tokens)))

	// Initialize assignments uniformly at random.
	z := make([]int, len(ids))
	ndk := make([]float64, m.k)
	for i := range ids {
		t := rng.Intn(m.k)
		z[i] = t
		ndk[t]++
	}

	// Gibbs sweeps with phi held fixed:
	// p(z_i = k) ∝ phi[k][w_i] * (ndk[k] + alpha)
	probs := make([]float64, m.k)
	for sweep := 0; sweep < inferSweeps; sweep++ {
		for i, w := range ids {
			ndk[z[i]]--
			total := 0.0
			for k := 0; k < m.k; k++ {
				p := m.phi[k][w] * (ndk[k] + m.alpha)
				probs[k] = p
				total += p
			}
			t := sampleDiscrete(rng, probs, total)
			z[i] = t
			ndk[t]++
		}
	}

	// theta[k] = (ndk[k] + alpha) / (n + K*alpha)
	theta := make(Distribution, m.k)
	denom := float64(len(ids)) + float64(m.k)*m.alpha
	for k := 0; k < m.k; k++ {
		theta[k] = (ndk[k] + m.alpha) / denom
	}
	return theta
}

// inferSeed derives a deterministic per-document seed from the model seed and
// the token sequence, so Infer is reproducible without global sampler state.
func (m *Model) inferSeed(tokens []string) int64 {
	h := fnv.New64a()
	for _, tok := range tokens {
		h.Write([]byte(tok))
		h.Write([]byte{0})
	}
	return m.seed ^ int64(h.Sum64())
}

// sampleDiscrete draws an index from an unnormalized discrete distribution.
func sampleDiscrete(rng *rand.Rand, probs []float64, total float64) int {
	u := rng.Float64() * total
	acc := 0.0
	for k, p := range probs {
		acc += p
		if u < acc {
			return k
		}
	}
	return len(probs) - 1 // floating point slack lands on the last topic
}
