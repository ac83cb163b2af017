package neighbors

import "testing"

func TestAddAndNearDuplicate(t *testing.T) {
	idx := NewIndex(0.9)

	idx.Add("a1", []float32{1, 0, 0})
	idx.Add("a2", []float32{0, 1, 0})

	if idx.Len() != 2 {
		t.Fatalf("Len = %d, want 2", idx.Len())
	}

	// Nearly parallel to a1
	id, sim, found := idx.NearDuplicate([]float32{1, 0.01, 0})
	if !found {
		t.Fatal("expected near duplicate for near-parallel vector")
	}
	if id != "a1" {
		t.Errorf("match = %q, want a1", id)
	}
	if sim < 0.9 {
		t.Errorf("similarity = %g, want >= threshold", sim)
	}
}

func TestNearDuplicateBelowThreshold(t *testing.T) {
	idx := NewIndex(0.9)
	idx.Add("a1", []float32{1, 0, 0})

	// Orthogonal vector: similarity 0.5 after rescaling, below threshold
	if _, _, found := idx.NearDuplicate([]float32{0, 1, 0}); found {
		t.Error("orthogonal vector should not match")
	}
}

func TestNearDuplicateEmptyIndex(t *testing.T) {
	idx := NewIndex(0)
	if _, _, found := idx.NearDuplicate([]float32{1, 0}); found {
		t.Error("empty index should never match")
	}
}

func TestAddIgnoresEmptyVector(t *testing.T) {
	idx := NewIndex(0)
	idx.Add("a1", nil)
	if idx.Len() != 0 {
		t.Errorf("Len = %d, want 0 after empty vector", idx.Len())
	}
}

func TestAddIgnoresDuplicateID(t *testing.T) {
	idx := NewIndex(0)
	idx.Add("a1", []float32{1, 0})
	idx.Add("a1", []float32{0, 1})
	if idx.Len() != 1 {
		t.Errorf("Len = %d, want 1 after duplicate ID", idx.Len())
	}
	if !idx.Contains("a1") {
		t.Error("Contains(a1) = false, want true")
	}
}
