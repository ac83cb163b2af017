package topic

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/abelbrown/baitline/internal/logging"
)

// FitOptions configures LDA fitting. All randomness flows from Seed so a fit
// is reproducible across runs and platforms.
type FitOptions struct {
	Topics        int     // K, number of latent topics
	Alpha         float64 // symmetric document-topic prior
	Beta          float64 // symmetric topic-word prior
	MaxIterations int     // safety bound on Gibbs sweeps
	MinIterations int     // sweeps before convergence is checked
	Tolerance     float64 // relative log-likelihood change treated as converged
	Seed          int64
}

// DefaultFitOptions returns the fitting configuration used by the CLI.
func DefaultFitOptions() FitOptions {
	return FitOptions{
		Topics:        10,
		Alpha:         0.1,
		Beta:          0.01,
		MaxIterations: 500,
		MinIterations: 50,
		Tolerance:     1e-4,
		Seed:          42,
	}
}

func (o FitOptions) validate() error {
	if o.Topics < 2 {
		return fmt.Errorf("topic count must be at least 2, got %d", o.Topics)
	}
	if o.Alpha <= 0 || o.Beta <= 0 {
		return fmt.Errorf("dirichlet priors must be positive (alpha=%g beta=%g)", o.Alpha, o.Beta)
	}
	if o.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be positive, got %d", o.MaxIterations)
	}
	return nil
}

// Fit runs collapsed Gibbs sampling over the tokenized corpus until the
// corpus log-likelihood stabilizes or MaxIterations is reached.
//
// Documents with no tokens are skipped. The corpus must yield a non-empty
// vocabulary or fitting fails.
func Fit(docs [][]string, opts FitOptions) (*Model, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	// Build the vocabulary in first-seen order so the mapping is
	// deterministic for a given corpus.
	vocab := make(map[string]int)
	var words []string
	var corpus [][]int
	for _, doc := range docs {
		if len(doc) == 0 {
			continue
		}
		ids := make([]int, 0, len(doc))
		for _, tok := range doc {
			id, ok := vocab[tok]
			if !ok {
				id = len(words)
				vocab[tok] = id
				words = append(words, tok)
			}
			ids = append(ids, id)
		}
		corpus = append(corpus, ids)
	}
	if len(corpus) == 0 || len(words) == 0 {
		return nil, errors.New("fit: corpus has no usable documents")
	}

	k := opts.Topics
	v := len(words)
	rng := rand.New(rand.NewSource(opts.Seed))

	// Count matrices for the collapsed sampler.
	nkw := make([][]float64, k) // topic x word
	nk := make([]float64, k)    // tokens per topic
	ndk := make([][]float64, len(corpus))
	nd := make([]float64, len(corpus))
	for t := range nkw {
		nkw[t] = make([]float64, v)
	}

	// Random initial assignments.
	z := make([][]int, len(corpus))
	for d, ids := range corpus {
		z[d] = make([]int, len(ids))
		ndk[d] = make([]float64, k)
		for i, w := range ids {
			t := rng.Intn(k)
			z[d][i] = t
			nkw[t][w]++
			nk[t]++
			ndk[d][t]++
			nd[d]++
		}
	}

	logging.Info("Fitting topic model",
		"docs", len(corpus),
		"vocab", v,
		"topics", k,
		"seed", opts.Seed)

	probs := make([]float64, k)
	alphaK := float64(k) * opts.Alpha
	betaV := float64(v) * opts.Beta

	prevLL := math.Inf(-1)
	iterations := 0
	for iter := 0; iter < opts.MaxIterations; iter++ {
		iterations = iter + 1
		for d, ids := range corpus {
			for i, w := range ids {
				t := z[d][i]
				nkw[t][w]--
				nk[t]--
				ndk[d][t]--

				total := 0.0
				for kk := 0; kk < k; kk++ {
					p := (nkw[kk][w] + opts.Beta) / (nk[kk] + betaV) *
						(ndk[d][kk] + opts.Alpha)
					probs[kk] = p
					total += p
				}
				t = sampleDiscrete(rng, probs, total)

				z[d][i] = t
				nkw[t][w]++
				nk[t]++
				ndk[d][t]++
			}
		}

		// Convergence check on corpus log-likelihood every 10 sweeps.
		if (iter+1)%10 != 0 {
			continue
		}
		ll := logLikelihood(corpus, nkw, nk, ndk, nd, opts.Alpha, opts.Beta, alphaK, betaV)
		logging.Debug("Gibbs sweep", "iter", iter+1, "loglik", ll)
		if iter+1 >= opts.MinIterations && !math.IsInf(prevLL, -1) {
			rel := math.Abs((ll - prevLL) / prevLL)
			if rel < opts.Tolerance {
				logging.Info("Topic model converged", "iter", iter+1, "loglik", ll)
				break
			}
		}
		prevLL = ll
	}

	// Point estimate of the topic-word matrix:
	// phi[k][w] = (nkw[k][w] + beta) / (nk[k] + V*beta)
	phi := make([][]float64, k)
	for t := 0; t < k; t++ {
		phi[t] = make([]float64, v)
		for w := 0; w < v; w++ {
			phi[t][w] = (nkw[t][w] + opts.Beta) / (nk[t] + betaV)
		}
	}

	prior := make(Distribution, k)
	for t := range prior {
		prior[t] = 1.0 / float64(k)
	}

	logging.Info("Topic model fitted", "iterations", iterations)

	return &Model{
		k:     k,
		alpha: opts.Alpha,
		beta:  opts.Beta,
		seed:  opts.Seed,
		vocab: vocab,
		words: words,
		phi:   phi,
		prior: prior,
	}, nil
}

// logLikelihood computes the corpus token log-likelihood under the current
// count state. Used only as a convergence signal, so a point estimate is fine.
func logLikelihood(corpus [][]int, nkw [][]float64, nk []float64,
	ndk [][]float64, nd []float64, alpha, beta, alphaK, betaV float64) float64 {

	ll := 0.0
	for d, ids := range corpus {
		for _, w := range ids {
			p := 0.0
			for t := range nk {
				phi := (nkw[t][w] + beta) / (nk[t] + betaV)
				theta := (ndk[d][t] + alpha) / (nd[d] + alphaK)
				p += phi * theta
			}
			ll += math.Log(p)
		}
	}
	return ll
}

// Restore rebuilds a fitted model from persisted artifacts. The word-topic
// matrix must have exactly k rows of len(words) columns; anything else is a
// configuration error.
func Restore(k int, alpha, beta float64, seed int64, words []string, phi [][]float64) (*Model, error) {
	if k < 2 {
		return nil, fmt.Errorf("restore: invalid topic count %d", k)
	}
	if alpha <= 0 || beta <= 0 {
		return nil, fmt.Errorf("restore: dirichlet priors must be positive (alpha=%g beta=%g)", alpha, beta)
	}
	if len(words) == 0 {
		return nil, errors.New("restore: empty vocabulary")
	}
	if len(phi) != k {
		return nil, fmt.Errorf("restore: word-topic matrix has %d rows, want %d", len(phi), k)
	}
	vocab := make(map[string]int, len(words))
	for i, w := range words {
		if _, dup := vocab[w]; dup {
			return nil, fmt.Errorf("restore: duplicate vocabulary word %q", w)
		}
		vocab[w] = i
	}
	for t, row := range phi {
		if len(row) != len(words) {
			return nil, fmt.Errorf("restore: topic %d has %d word probabilities, want %d", t, len(row), len(words))
		}
		for _, p := range row {
			if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
				return nil, fmt.Errorf("restore: topic %d contains invalid probability %g", t, p)
			}
		}
	}

	prior := make(Distribution, k)
	for t := range prior {
		prior[t] = 1.0 / float64(k)
	}

	cp := make([][]float64, k)
	for t := range phi {
		row := make([]float64, len(phi[t]))
		copy(row, phi[t])
		cp[t] = row
	}
	w := make([]string, len(words))
	copy(w, words)

	return &Model{
		k:     k,
		alpha: alpha,
		beta:  beta,
		seed:  seed,
		vocab: vocab,
		words: w,
		phi:   cp,
		prior: prior,
	}, nil
}
