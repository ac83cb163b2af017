package neighbors

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type stubEncoder struct {
	vecs map[string][]float32
	fail bool
}

func (s *stubEncoder) Available() bool { return !s.fail }

func (s *stubEncoder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.fail {
		return nil, errors.New("encoder down")
	}
	for key, vec := range s.vecs {
		if strings.Contains(text, key) {
			return vec, nil
		}
	}
	return []float32{0.5, 0.5, 0}, nil
}

func TestDeduperFlagsSameStoryUnderFreshID(t *testing.T) {
	enc := &stubEncoder{vecs: map[string][]float32{
		"vaccine": {1, 0.01, 0},
		"budget":  {0, 1, 0},
	}}
	d := NewDeduper(enc, 0.9, 0)
	ctx := context.Background()

	if dup, seen := d.Seen(ctx, "a1", []string{"vaccine", "trial"}); seen {
		t.Fatalf("first article flagged as duplicate of %q", dup)
	}
	if d.Len() != 1 {
		t.Fatalf("Len = %d, want 1 after first article", d.Len())
	}

	// Re-polling the same article ID is seen without re-embedding.
	if dup, seen := d.Seen(ctx, "a1", []string{"vaccine", "trial"}); !seen || dup != "a1" {
		t.Errorf("re-polled article = (%q, %v), want (a1, true)", dup, seen)
	}

	// Same story syndicated under a different URL, hence a different ID.
	dup, seen := d.Seen(ctx, "a2", []string{"vaccine", "trial", "results"})
	if !seen {
		t.Fatal("syndicated copy not flagged as duplicate")
	}
	if dup != "a1" {
		t.Errorf("duplicate of %q, want a1", dup)
	}
	if d.Len() != 1 {
		t.Errorf("Len = %d, duplicate should not be indexed", d.Len())
	}

	// An unrelated story passes and gets indexed.
	if dup, seen := d.Seen(ctx, "a3", []string{"budget", "vote"}); seen {
		t.Errorf("unrelated article flagged as duplicate of %q", dup)
	}
	if d.Len() != 2 {
		t.Errorf("Len = %d, want 2", d.Len())
	}
}

func TestDeduperEncoderFailureReportsUnseen(t *testing.T) {
	d := NewDeduper(&stubEncoder{fail: true}, 0.9, 0)

	if dup, seen := d.Seen(context.Background(), "a1", []string{"vaccine"}); seen {
		t.Errorf("encoder failure should report unseen, got duplicate of %q", dup)
	}
	if d.Len() != 0 {
		t.Errorf("Len = %d, nothing should be indexed on failure", d.Len())
	}
}

func TestDeduperEmptyTokensReportUnseen(t *testing.T) {
	d := NewDeduper(&stubEncoder{}, 0.9, 0)

	if _, seen := d.Seen(context.Background(), "a1", nil); seen {
		t.Error("empty token list should report unseen")
	}
	if d.Len() != 0 {
		t.Errorf("Len = %d, want 0", d.Len())
	}
}
