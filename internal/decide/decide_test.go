package decide

import (
	"math"
	"testing"

	"github.com/abelbrown/baitline/internal/diverge"
	"github.com/abelbrown/baitline/internal/lexical"
)

func TestNewDeciderValidates(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Coefficients)
		wantErr bool
	}{
		{"defaults", func(c *Coefficients) {}, false},
		{"threshold zero", func(c *Coefficients) { c.Threshold = 0 }, true},
		{"threshold one", func(c *Coefficients) { c.Threshold = 1 }, true},
		{"nan intercept", func(c *Coefficients) { c.Intercept = math.NaN() }, true},
		{"inf combined", func(c *Coefficients) { c.Combined = math.Inf(1) }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultCoefficients()
			tt.mutate(&c)
			_, err := NewDecider(c)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewDecider error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecideAlignedPair(t *testing.T) {
	d, err := NewDecider(DefaultCoefficients())
	if err != nil {
		t.Fatalf("NewDecider failed: %v", err)
	}

	v := d.Decide(diverge.Result{Combined: 0.02}, lexical.Features{})
	if v.Label != LabelNotClickbait {
		t.Errorf("Label = %q, want %q", v.Label, LabelNotClickbait)
	}
	if v.Probability >= 0.5 {
		t.Errorf("Probability = %g, want < 0.5 for aligned pair", v.Probability)
	}
}

func TestDecideDivergentPair(t *testing.T) {
	d, _ := NewDecider(DefaultCoefficients())

	v := d.Decide(diverge.Result{
		TopicDivergence:   0.56,
		EmbeddingDistance: 0.99,
		Combined:          0.68,
	}, lexical.Features{})
	if v.Label != LabelClickbait {
		t.Errorf("Label = %q, want %q", v.Label, LabelClickbait)
	}
	if v.Probability < 0.5 {
		t.Errorf("Probability = %g, want >= 0.5 for divergent pair", v.Probability)
	}
}

func TestDecideMonotonicInCombined(t *testing.T) {
	d, _ := NewDecider(DefaultCoefficients())

	prev := -1.0
	for _, combined := range []float64{0, 0.2, 0.4, 0.6, 0.8, 1.0} {
		v := d.Decide(diverge.Result{Combined: combined}, lexical.Features{})
		if v.Probability <= prev {
			t.Errorf("probability not increasing at combined=%g: %g <= %g",
				combined, v.Probability, prev)
		}
		prev = v.Probability
	}
}

func TestDecideLexicalCuesRaiseProbability(t *testing.T) {
	d, _ := NewDecider(DefaultCoefficients())
	res := diverge.Result{Combined: 0.4}

	plain := d.Decide(res, lexical.Features{})
	loud := d.Decide(res, lexical.Features{
		SensationalHits:  2,
		ExclamationMarks: 1,
		AllCapsWords:     1,
	})
	if loud.Probability <= plain.Probability {
		t.Errorf("lexical cues did not raise probability: %g <= %g",
			loud.Probability, plain.Probability)
	}
}

func TestDecideHeadlineLengthContributes(t *testing.T) {
	d, _ := NewDecider(DefaultCoefficients())
	res := diverge.Result{Combined: 0.4}

	short := d.Decide(res, lexical.Features{HeadlineTokens: 4})
	long := d.Decide(res, lexical.Features{HeadlineTokens: 16})

	if long.Probability <= short.Probability {
		t.Errorf("headline length did not raise probability: %g <= %g",
			long.Probability, short.Probability)
	}
	want := DefaultCoefficients().HeadlineTokens * 16
	if math.Abs(long.Contributions.HeadlineTokens-want) > 1e-12 {
		t.Errorf("HeadlineTokens contribution = %g, want %g",
			long.Contributions.HeadlineTokens, want)
	}
}

func TestDecideDeterministic(t *testing.T) {
	d, _ := NewDecider(DefaultCoefficients())
	res := diverge.Result{TopicDivergence: 0.3, EmbeddingDistance: 0.7, Combined: 0.45}
	feats := lexical.Features{SensationalHits: 1, QuestionMarks: 1}

	a := d.Decide(res, feats)
	b := d.Decide(res, feats)
	if a != b {
		t.Errorf("Decide not deterministic: %+v vs %+v", a, b)
	}
}

func TestDecideContributionsSumToLogit(t *testing.T) {
	d, _ := NewDecider(DefaultCoefficients())
	v := d.Decide(diverge.Result{Combined: 0.55}, lexical.Features{
		HeadlineTokens:    8,
		SensationalHits:   1,
		ForwardReferences: 2,
		QuestionMarks:     1,
	})

	c := v.Contributions
	logit := c.Intercept + c.Combined + c.HeadlineTokens + c.SensationalHits +
		c.ForwardReferences + c.QuestionMarks + c.ExclamationMarks + c.AllCapsWords
	if math.Abs(sigmoid(logit)-v.Probability) > 1e-12 {
		t.Errorf("contributions do not reconstruct probability: sigmoid(%g) != %g",
			logit, v.Probability)
	}
}

func TestDecideProbabilityBounds(t *testing.T) {
	d, _ := NewDecider(DefaultCoefficients())

	for _, combined := range []float64{0, 0.5, 1} {
		v := d.Decide(diverge.Result{Combined: combined}, lexical.Features{
			SensationalHits: 10,
			AllCapsWords:    10,
		})
		if v.Probability < 0 || v.Probability > 1 {
			t.Errorf("Probability = %g, outside [0, 1]", v.Probability)
		}
	}
}
