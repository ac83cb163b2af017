// Package pipeline orchestrates the full evaluation of one article: span
// normalization, topic inference, contextual embedding, divergence scoring,
// and the final verdict. Both spans run through identical representation
// machinery so their divergence is meaningful.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abelbrown/baitline/internal/decide"
	"github.com/abelbrown/baitline/internal/diverge"
	"github.com/abelbrown/baitline/internal/embed"
	"github.com/abelbrown/baitline/internal/lexical"
	"github.com/abelbrown/baitline/internal/logging"
	"github.com/abelbrown/baitline/internal/normalize"
	"github.com/abelbrown/baitline/internal/represent"
	"github.com/abelbrown/baitline/internal/topic"
	"github.com/abelbrown/baitline/internal/work"
)

// ErrEmptyHeadline reports a document with no usable headline. A headline is
// the minimum input; an empty body is valid and scores as maximum embedding
// distance.
var ErrEmptyHeadline = errors.New("pipeline: empty headline")

// Doc is one article queued for evaluation.
type Doc struct {
	ID       string
	URL      string
	Headline string
	Body     string
}

// BatchResult pairs a document with its verdict or failure.
type BatchResult struct {
	Doc     Doc
	Verdict decide.Verdict
	Err     error
}

// Pipeline evaluates articles against a trained model pair.
// Safe for concurrent use.
type Pipeline struct {
	model   *topic.Model
	encoder embed.Embedder
	scorer  *diverge.Scorer
	decider *decide.Decider

	fuseOpts   represent.Options
	tokenLimit int

	// embedDim is learned from the first headline vector when not configured.
	dimMu    sync.Mutex
	embedDim int
}

// Options configures optional pipeline behavior.
type Options struct {
	// TokenLimit caps encoder input length. Zero uses embed.DefaultTokenLimit.
	TokenLimit int
	// EmbedDim pins the expected embedding dimension. Zero learns it from
	// the first encoded vector.
	EmbedDim int
	// UnitNormalize rescales embeddings to unit length before scoring.
	UnitNormalize bool
}

// New assembles a pipeline. All four stages are required.
func New(model *topic.Model, encoder embed.Embedder, scorer *diverge.Scorer, decider *decide.Decider, opts Options) (*Pipeline, error) {
	if model == nil {
		return nil, errors.New("pipeline: nil topic model")
	}
	if encoder == nil {
		return nil, errors.New("pipeline: nil encoder")
	}
	if scorer == nil {
		return nil, errors.New("pipeline: nil scorer")
	}
	if decider == nil {
		return nil, errors.New("pipeline: nil decider")
	}

	tokenLimit := opts.TokenLimit
	if tokenLimit == 0 {
		tokenLimit = embed.DefaultTokenLimit
	}

	return &Pipeline{
		model:      model,
		encoder:    encoder,
		scorer:     scorer,
		decider:    decider,
		fuseOpts:   represent.Options{UnitNormalize: opts.UnitNormalize},
		tokenLimit: tokenLimit,
		embedDim:   opts.EmbedDim,
	}, nil
}

// Evaluate scores one article. Deterministic given the same model, encoder,
// and inputs. Encoder failures surface as embed.ErrModelUnavailable; no
// partial verdict is produced.
func (p *Pipeline) Evaluate(ctx context.Context, headline, body string) (decide.Verdict, error) {
	hd := normalize.NewDocument(headline, normalize.SpanHeadline)
	if hd.Empty() {
		return decide.Verdict{}, ErrEmptyHeadline
	}
	bd := normalize.NewDocument(body, normalize.SpanBody)

	headTopics := p.model.Infer(hd.Tokens)
	bodyTopics := p.model.Infer(bd.Tokens)

	headVec, err := p.encode(ctx, hd.Tokens)
	if err != nil {
		return decide.Verdict{}, fmt.Errorf("headline embedding: %w", err)
	}

	var bodyVec []float32
	if bd.Empty() {
		// No body evidence. A zero vector scores the defined maximum
		// cosine distance rather than failing the document.
		bodyVec = make([]float32, len(headVec))
	} else {
		bodyVec, err = p.encode(ctx, bd.Tokens)
		if err != nil {
			return decide.Verdict{}, fmt.Errorf("body embedding: %w", err)
		}
	}

	if len(bodyVec) != len(headVec) {
		return decide.Verdict{}, fmt.Errorf("encoder returned inconsistent dimensions: headline %d, body %d",
			len(headVec), len(bodyVec))
	}

	headRep, err := represent.Fuse(headTopics, headVec, normalize.SpanHeadline, p.fuseOpts)
	if err != nil {
		return decide.Verdict{}, fmt.Errorf("headline representation: %w", err)
	}
	bodyRep, err := represent.Fuse(bodyTopics, bodyVec, normalize.SpanBody, p.fuseOpts)
	if err != nil {
		return decide.Verdict{}, fmt.Errorf("body representation: %w", err)
	}

	res, err := p.scorer.Score(headRep, bodyRep)
	if err != nil {
		return decide.Verdict{}, fmt.Errorf("divergence: %w", err)
	}

	feats := lexical.Extract(headline, hd.Tokens)
	verdict := p.decider.Decide(res, feats)

	logging.Debug("Article evaluated",
		"label", verdict.Label,
		"probability", fmt.Sprintf("%.3f", verdict.Probability),
		"topic_divergence", fmt.Sprintf("%.3f", res.TopicDivergence),
		"embedding_distance", fmt.Sprintf("%.3f", res.EmbeddingDistance))

	return verdict, nil
}

// encode truncates, embeds, and validates one span's tokens.
func (p *Pipeline) encode(ctx context.Context, tokens []string) ([]float32, error) {
	text := embed.TruncateHead(tokens, p.tokenLimit)

	vec, err := p.encoder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, embed.ErrModelUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", embed.ErrModelUnavailable, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: encoder returned empty vector", embed.ErrModelUnavailable)
	}

	p.dimMu.Lock()
	defer p.dimMu.Unlock()
	if p.embedDim == 0 {
		p.embedDim = len(vec)
	} else if len(vec) != p.embedDim {
		return nil, fmt.Errorf("encoder returned %d dimensions, expected %d", len(vec), p.embedDim)
	}
	return vec, nil
}

// EvaluateBatch scores documents through the work pool, one item per
// document. Failures are isolated: a failed document carries its error while
// the rest of the batch completes. The pool must already be started.
func (p *Pipeline) EvaluateBatch(ctx context.Context, pool *work.Pool, docs []Doc, perDocTimeout time.Duration) []BatchResult {
	results := make([]BatchResult, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		i, doc := i, doc

		desc := doc.URL
		if desc == "" {
			desc = doc.Headline
		}

		pool.SubmitWithData(work.TypeScore, "Scoring "+desc, doc.URL, func() (string, any, error) {
			defer wg.Done()

			docCtx := ctx
			if perDocTimeout > 0 {
				var cancel context.CancelFunc
				docCtx, cancel = context.WithTimeout(ctx, perDocTimeout)
				defer cancel()
			}

			verdict, err := p.Evaluate(docCtx, doc.Headline, doc.Body)
			results[i] = BatchResult{Doc: doc, Verdict: verdict, Err: err}
			if err != nil {
				return "", nil, err
			}
			return fmt.Sprintf("%s p=%.2f", verdict.Label, verdict.Probability), verdict, nil
		})
	}

	wg.Wait()
	return results
}
