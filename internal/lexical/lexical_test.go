package lexical

import (
	"testing"

	"github.com/abelbrown/baitline/internal/normalize"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		headline string
		check    func(t *testing.T, f Features)
	}{
		{
			name:     "plain news headline",
			headline: "City Council Approves Annual Budget",
			check: func(t *testing.T, f Features) {
				if f.SensationalHits != 0 {
					t.Errorf("SensationalHits = %g, want 0", f.SensationalHits)
				}
				if f.QuestionMarks != 0 || f.ExclamationMarks != 0 {
					t.Error("plain headline should have no punctuation hits")
				}
			},
		},
		{
			name:     "sensational multi-word phrase",
			headline: "You Won't Believe What Happens Next!",
			check: func(t *testing.T, f Features) {
				if f.SensationalHits < 2 {
					t.Errorf("SensationalHits = %g, want >= 2", f.SensationalHits)
				}
				if f.ExclamationMarks != 1 {
					t.Errorf("ExclamationMarks = %g, want 1", f.ExclamationMarks)
				}
			},
		},
		{
			name:     "forward references",
			headline: "This Is Why These Things Keep Happening",
			check: func(t *testing.T, f Features) {
				if f.ForwardReferences < 3 {
					t.Errorf("ForwardReferences = %g, want >= 3", f.ForwardReferences)
				}
			},
		},
		{
			name:     "all caps words",
			headline: "BREAKING News: URGENT Update",
			check: func(t *testing.T, f Features) {
				if f.AllCapsWords != 2 {
					t.Errorf("AllCapsWords = %g, want 2", f.AllCapsWords)
				}
			},
		},
		{
			name:     "question marks",
			headline: "Is This the End? Really?",
			check: func(t *testing.T, f Features) {
				if f.QuestionMarks != 2 {
					t.Errorf("QuestionMarks = %g, want 2", f.QuestionMarks)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := normalize.Tokenize(tt.headline)
			tt.check(t, Extract(tt.headline, tokens))
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	headline := "The SHOCKING Secret Doctors Hate!"
	tokens := normalize.Tokenize(headline)

	a := Extract(headline, tokens)
	b := Extract(headline, tokens)
	if a != b {
		t.Errorf("Extract not deterministic: %+v vs %+v", a, b)
	}
}

func TestExtractEmptyHeadline(t *testing.T) {
	f := Extract("", nil)
	if f != (Features{}) {
		t.Errorf("empty headline should yield zero features, got %+v", f)
	}
}
