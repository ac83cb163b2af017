package embed

import (
	"strings"
	"testing"
)

func TestTruncateHead(t *testing.T) {
	tokens := []string{"one", "two", "three", "four", "five"}

	tests := []struct {
		name  string
		limit int
		want  string
	}{
		{"under limit", 10, "one two three four five"},
		{"exact limit", 5, "one two three four five"},
		{"over limit keeps head", 3, "one two three"},
		{"limit one", 1, "one"},
		{"zero means no truncation", 0, "one two three four five"},
		{"negative means no truncation", -1, "one two three four five"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateHead(tokens, tt.limit)
			if got != tt.want {
				t.Errorf("TruncateHead(limit=%d) = %q, want %q", tt.limit, got, tt.want)
			}
		})
	}
}

func TestTruncateHeadEmpty(t *testing.T) {
	if got := TruncateHead(nil, 5); got != "" {
		t.Errorf("TruncateHead(nil) = %q, want empty", got)
	}
}

func TestTruncateHeadDoesNotMutate(t *testing.T) {
	tokens := []string{"a1", "b2", "c3"}
	TruncateHead(tokens, 2)
	if strings.Join(tokens, " ") != "a1 b2 c3" {
		t.Error("TruncateHead mutated its input")
	}
}
