package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abelbrown/baitline/internal/decide"
	"github.com/abelbrown/baitline/internal/diverge"
	"github.com/abelbrown/baitline/internal/embed"
	"github.com/abelbrown/baitline/internal/topic"
	"github.com/abelbrown/baitline/internal/work"
)

// stubEmbedder returns fixed vectors keyed by content, so divergence
// outcomes are fully controlled by the test.
type stubEmbedder struct {
	failOn string
}

func (s *stubEmbedder) Available() bool { return true }

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.failOn != "" && strings.Contains(text, s.failOn) {
		return nil, errors.New("connection refused")
	}
	switch {
	case strings.Contains(text, "vaccine"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(text, "council"):
		return []float32{0, 1, 0}, nil
	default:
		return []float32{0.5, 0.5, 0}, nil
	}
}

func testModel(t *testing.T) *topic.Model {
	t.Helper()
	words := []string{"vaccine", "trial", "cure", "council", "budget", "tax"}
	phi := [][]float64{
		{0.333, 0.333, 0.332, 0.001, 0.0005, 0.0005},
		{0.001, 0.0005, 0.0005, 0.333, 0.333, 0.332},
	}
	m, err := topic.Restore(2, 0.1, 0.01, 42, words, phi)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	return m
}

func newTestPipeline(t *testing.T, encoder embed.Embedder, opts Options) *Pipeline {
	t.Helper()
	scorer, err := diverge.NewScorer(diverge.DefaultWeights())
	if err != nil {
		t.Fatalf("NewScorer failed: %v", err)
	}
	decider, err := decide.NewDecider(decide.DefaultCoefficients())
	if err != nil {
		t.Fatalf("NewDecider failed: %v", err)
	}
	p, err := New(testModel(t), encoder, scorer, decider, opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

const (
	medicalText = "Vaccine trial cure vaccine trial cure vaccine trial cure"
	civicText   = "Council budget tax council budget tax council budget tax"
)

func TestEvaluateAlignedArticle(t *testing.T) {
	p := newTestPipeline(t, &stubEmbedder{}, Options{})

	// Body repeats the headline's content: zero divergence on both signals.
	v, err := p.Evaluate(context.Background(), medicalText, medicalText)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if v.Label != decide.LabelNotClickbait {
		t.Errorf("Label = %q, want %q", v.Label, decide.LabelNotClickbait)
	}
	if v.Divergence.TopicDivergence != 0 {
		t.Errorf("TopicDivergence = %g, want 0 for identical spans", v.Divergence.TopicDivergence)
	}
	if v.Divergence.EmbeddingDistance != 0 {
		t.Errorf("EmbeddingDistance = %g, want 0 for identical spans", v.Divergence.EmbeddingDistance)
	}
}

func TestEvaluateDivergentArticle(t *testing.T) {
	p := newTestPipeline(t, &stubEmbedder{}, Options{})

	// Medical headline over a civic body: both signals fire.
	v, err := p.Evaluate(context.Background(), medicalText, civicText)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if v.Label != decide.LabelClickbait {
		t.Errorf("Label = %q, want %q (p=%.3f, combined=%.3f)",
			v.Label, decide.LabelClickbait, v.Probability, v.Divergence.Combined)
	}
	if v.Divergence.Combined <= 0.5 {
		t.Errorf("Combined = %g, want > 0.5 for divergent article", v.Divergence.Combined)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	p := newTestPipeline(t, &stubEmbedder{}, Options{})

	a, err := p.Evaluate(context.Background(), medicalText, civicText)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	b, err := p.Evaluate(context.Background(), medicalText, civicText)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if a != b {
		t.Errorf("Evaluate not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestEvaluateEmptyHeadline(t *testing.T) {
	p := newTestPipeline(t, &stubEmbedder{}, Options{})

	if _, err := p.Evaluate(context.Background(), "", civicText); !errors.Is(err, ErrEmptyHeadline) {
		t.Errorf("error = %v, want ErrEmptyHeadline", err)
	}
	// Stopword-only headlines normalize to nothing
	if _, err := p.Evaluate(context.Background(), "the of and", civicText); !errors.Is(err, ErrEmptyHeadline) {
		t.Errorf("error = %v, want ErrEmptyHeadline for stopword headline", err)
	}
}

func TestEvaluateEmptyBody(t *testing.T) {
	p := newTestPipeline(t, &stubEmbedder{}, Options{})

	v, err := p.Evaluate(context.Background(), medicalText, "")
	if err != nil {
		t.Fatalf("Evaluate failed for empty body: %v", err)
	}
	if v.Divergence.EmbeddingDistance != 2.0 {
		t.Errorf("EmbeddingDistance = %g, want 2.0 for empty body", v.Divergence.EmbeddingDistance)
	}
}

func TestEvaluateEncoderUnavailable(t *testing.T) {
	p := newTestPipeline(t, &stubEmbedder{failOn: "vaccine"}, Options{})

	_, err := p.Evaluate(context.Background(), medicalText, civicText)
	if !errors.Is(err, embed.ErrModelUnavailable) {
		t.Errorf("error = %v, want ErrModelUnavailable", err)
	}
}

func TestEvaluatePinnedDimensionMismatch(t *testing.T) {
	p := newTestPipeline(t, &stubEmbedder{}, Options{EmbedDim: 5})

	if _, err := p.Evaluate(context.Background(), medicalText, civicText); err == nil {
		t.Error("expected error when encoder dimension disagrees with pinned dimension")
	}
}

func TestNewRejectsNilStages(t *testing.T) {
	scorer, _ := diverge.NewScorer(diverge.DefaultWeights())
	decider, _ := decide.NewDecider(decide.DefaultCoefficients())
	m := testModel(t)

	if _, err := New(nil, &stubEmbedder{}, scorer, decider, Options{}); err == nil {
		t.Error("expected error for nil model")
	}
	if _, err := New(m, nil, scorer, decider, Options{}); err == nil {
		t.Error("expected error for nil encoder")
	}
	if _, err := New(m, &stubEmbedder{}, nil, decider, Options{}); err == nil {
		t.Error("expected error for nil scorer")
	}
	if _, err := New(m, &stubEmbedder{}, scorer, nil, Options{}); err == nil {
		t.Error("expected error for nil decider")
	}
}

func TestEvaluateBatchIsolatesFailures(t *testing.T) {
	p := newTestPipeline(t, &stubEmbedder{failOn: "tax"}, Options{})

	pool := work.NewPool(2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	docs := []Doc{
		{ID: "good1", Headline: medicalText, Body: medicalText},
		{ID: "bad", Headline: civicText, Body: civicText},
		{ID: "good2", Headline: medicalText, Body: medicalText},
	}

	results := p.EvaluateBatch(ctx, pool, docs, 5*time.Second)
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	if results[0].Err != nil {
		t.Errorf("good1 failed: %v", results[0].Err)
	}
	if results[1].Err == nil {
		t.Error("bad should have failed")
	}
	if results[2].Err != nil {
		t.Errorf("good2 failed: %v", results[2].Err)
	}
	if results[0].Doc.ID != "good1" || results[2].Doc.ID != "good2" {
		t.Error("results not aligned with input documents")
	}
}

func TestEvaluateBatchEmpty(t *testing.T) {
	p := newTestPipeline(t, &stubEmbedder{}, Options{})

	pool := work.NewPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)
	defer pool.Stop()

	if results := p.EvaluateBatch(ctx, pool, nil, 0); len(results) != 0 {
		t.Errorf("got %d results for empty batch, want 0", len(results))
	}
}
