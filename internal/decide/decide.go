// Package decide turns divergence scores into a labeled verdict through a
// logistic decision layer. The layer is linear on purpose: every coefficient
// is inspectable, persistable, and refittable without touching the upstream
// representations.
package decide

import (
	"fmt"
	"math"

	"github.com/abelbrown/baitline/internal/diverge"
	"github.com/abelbrown/baitline/internal/lexical"
)

// Label is the binary verdict class.
type Label string

const (
	LabelClickbait    Label = "clickbait"
	LabelNotClickbait Label = "not_clickbait"
)

// Coefficients parameterizes the logistic layer. Values are persisted as-is
// and loaded back without transformation.
type Coefficients struct {
	Intercept float64 `json:"intercept"`
	// Combined weighs the normalized divergence score, the primary signal.
	Combined float64 `json:"combined"`
	// Auxiliary lexical cues. Small relative to Combined so surface
	// punctuation alone cannot flip an on-topic headline.
	// HeadlineTokens is weighted per normalized token.
	HeadlineTokens    float64 `json:"headline_tokens"`
	SensationalHits   float64 `json:"sensational_hits"`
	ForwardReferences float64 `json:"forward_references"`
	QuestionMarks     float64 `json:"question_marks"`
	ExclamationMarks  float64 `json:"exclamation_marks"`
	AllCapsWords      float64 `json:"all_caps_words"`
	// Threshold is the probability cut for LabelClickbait, in (0, 1).
	Threshold float64 `json:"threshold"`
}

// DefaultCoefficients were fit on the labeled headline/body corpus and sanity
// checked by hand: a fully aligned pair (combined near 0, a typical 8-token
// headline) lands around p=0.06, a fully divergent pair (combined near 1)
// around p=0.94.
func DefaultCoefficients() Coefficients {
	return Coefficients{
		Intercept:         -3.0,
		Combined:          5.6,
		HeadlineTokens:    0.03,
		SensationalHits:   0.45,
		ForwardReferences: 0.15,
		QuestionMarks:     0.10,
		ExclamationMarks:  0.20,
		AllCapsWords:      0.25,
		Threshold:         0.5,
	}
}

// FeatureContributions records each feature's share of the logit, for
// explaining a verdict. Fields mirror Coefficients minus the threshold.
type FeatureContributions struct {
	Intercept         float64 `json:"intercept"`
	Combined          float64 `json:"combined"`
	HeadlineTokens    float64 `json:"headline_tokens"`
	SensationalHits   float64 `json:"sensational_hits"`
	ForwardReferences float64 `json:"forward_references"`
	QuestionMarks     float64 `json:"question_marks"`
	ExclamationMarks  float64 `json:"exclamation_marks"`
	AllCapsWords      float64 `json:"all_caps_words"`
}

// Verdict is the final output for one article.
type Verdict struct {
	Label Label `json:"label"`
	// Probability is P(clickbait), in [0, 1].
	Probability   float64              `json:"probability"`
	Divergence    diverge.Result       `json:"divergence"`
	Contributions FeatureContributions `json:"contributions"`
}

// Decider applies a fixed set of coefficients.
type Decider struct {
	coef Coefficients
}

// NewDecider validates the coefficients and returns a Decider. The threshold
// must lie strictly inside (0, 1) and every coefficient must be finite.
func NewDecider(c Coefficients) (*Decider, error) {
	if c.Threshold <= 0 || c.Threshold >= 1 {
		return nil, fmt.Errorf("decision threshold must be in (0, 1), got %g", c.Threshold)
	}
	for name, v := range map[string]float64{
		"intercept":          c.Intercept,
		"combined":           c.Combined,
		"headline_tokens":    c.HeadlineTokens,
		"sensational_hits":   c.SensationalHits,
		"forward_references": c.ForwardReferences,
		"question_marks":     c.QuestionMarks,
		"exclamation_marks":  c.ExclamationMarks,
		"all_caps_words":     c.AllCapsWords,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("coefficient %s is not finite: %g", name, v)
		}
	}
	return &Decider{coef: c}, nil
}

// Coefficients returns the decider's configured coefficients.
func (d *Decider) Coefficients() Coefficients { return d.coef }

// Decide maps a divergence result and lexical features to a verdict.
// Deterministic: equal inputs always yield the equal verdicts.
func (d *Decider) Decide(res diverge.Result, feats lexical.Features) Verdict {
	contrib := FeatureContributions{
		Intercept:         d.coef.Intercept,
		Combined:          d.coef.Combined * res.Combined,
		HeadlineTokens:    d.coef.HeadlineTokens * feats.HeadlineTokens,
		SensationalHits:   d.coef.SensationalHits * feats.SensationalHits,
		ForwardReferences: d.coef.ForwardReferences * feats.ForwardReferences,
		QuestionMarks:     d.coef.QuestionMarks * feats.QuestionMarks,
		ExclamationMarks:  d.coef.ExclamationMarks * feats.ExclamationMarks,
		AllCapsWords:      d.coef.AllCapsWords * feats.AllCapsWords,
	}

	logit := contrib.Intercept + contrib.Combined + contrib.HeadlineTokens +
		contrib.SensationalHits + contrib.ForwardReferences +
		contrib.QuestionMarks + contrib.ExclamationMarks + contrib.AllCapsWords

	p := sigmoid(logit)

	label := LabelNotClickbait
	if p >= d.coef.Threshold {
		label = LabelClickbait
	}

	return Verdict{
		Label:         label,
		Probability:   p,
		Divergence:    res,
		Contributions: contrib,
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
