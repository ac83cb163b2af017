// Package neighbors maintains an HNSW index over body embeddings so corpus
// builds and watch runs can skip near-duplicate articles instead of scoring
// the same story again under a fresh URL.
package neighbors

import (
	"sync"

	"github.com/abelbrown/baitline/internal/logging"
	"github.com/coder/hnsw"
)

// DefaultThreshold is the cosine similarity above which two articles are
// treated as the same story.
const DefaultThreshold = 0.92

// Index is a thread-safe near-duplicate index keyed by article ID.
type Index struct {
	mu        sync.RWMutex
	graph     *hnsw.Graph[string]
	threshold float32
}

// NewIndex creates an index with the given similarity threshold.
// A threshold <= 0 uses DefaultThreshold.
func NewIndex(threshold float64) *Index {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	g := hnsw.NewGraph[string]()
	g.Distance = hnsw.CosineDistance
	g.M = 16        // Max neighbors per node
	g.EfSearch = 32 // Search quality parameter

	return &Index{
		graph:     g,
		threshold: float32(threshold),
	}
}

// Add indexes an article's embedding. Empty vectors and already-indexed IDs
// are ignored.
func (x *Index) Add(id string, vec []float32) {
	if len(vec) == 0 {
		logging.Warn("Skipping empty embedding", "article", id)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Error("HNSW panic recovered in Add", "error", r, "article", id)
		}
	}()

	x.mu.Lock()
	defer x.mu.Unlock()

	if _, exists := x.graph.Lookup(id); exists {
		return
	}
	x.graph.Add(hnsw.MakeNode(id, vec))
}

// NearDuplicate searches for an indexed article whose embedding is at least
// the threshold similar to vec. Returns the best match and its similarity.
func (x *Index) NearDuplicate(vec []float32) (id string, sim float64, found bool) {
	if len(vec) == 0 {
		return "", 0, false
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Error("HNSW panic recovered in NearDuplicate", "error", r)
			id, sim, found = "", 0, false
		}
	}()

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph.Len() == 0 {
		return "", 0, false
	}

	var bestMatch string
	var bestSim float32

	// CosineDistance returns distance (0 = identical, 2 = opposite)
	// Convert to similarity: sim = 1 - (distance / 2)
	neighbors := x.graph.Search(vec, 5)
	for _, n := range neighbors {
		if len(n.Value) != len(vec) {
			continue
		}
		distance := hnsw.CosineDistance(vec, n.Value)
		s := 1.0 - (distance / 2.0)
		if s >= x.threshold && s > bestSim {
			bestSim = s
			bestMatch = n.Key
		}
	}

	if bestMatch == "" {
		return "", 0, false
	}
	return bestMatch, float64(bestSim), true
}

// Contains reports whether an article ID is already indexed.
func (x *Index) Contains(id string) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.graph.Lookup(id)
	return ok
}

// Len returns the number of indexed articles.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.graph.Len()
}
