package normalize

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "lowercases and strips punctuation",
			in:   "Scientists Discover Cure, For ALL Diseases!",
			want: []string{"scientists", "discover", "cure", "all", "diseases"},
		},
		{
			name: "drops stopwords",
			in:   "the quick brown fox is in the garden",
			want: []string{"quick", "brown", "fox", "garden"},
		},
		{
			name: "drops digits and single letters",
			in:   "a 2024 b budget",
			want: []string{"budget"},
		},
		{
			name: "keeps contractions without quotes",
			in:   "won't believe don't",
			want: []string{"won't", "believe", "don't"},
		},
		{
			name: "empty input",
			in:   "",
			want: []string{},
		},
		{
			name: "all stopwords",
			in:   "the and of to",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument("City Council Approves Budget", SpanHeadline)

	if doc.Span != SpanHeadline {
		t.Errorf("Span = %v, want %v", doc.Span, SpanHeadline)
	}
	if doc.Raw != "City Council Approves Budget" {
		t.Errorf("Raw not preserved: %q", doc.Raw)
	}
	if doc.Empty() {
		t.Error("document with real tokens reported Empty")
	}
}

func TestEmptyDocumentIsValid(t *testing.T) {
	doc := NewDocument("", SpanBody)
	if !doc.Empty() {
		t.Error("empty input should yield an empty document")
	}
	if doc.Tokens == nil {
		t.Error("Tokens should be an empty slice, not nil")
	}
}
