// Package vectorindex provides an in-memory exact nearest-neighbor index
// over code chunks, searched by cosine distance.
package vectorindex

import (
	"math"
	"sort"

	"github.com/codeiq-dev/codeiq/internal/domain/index"
)

// Memory is an append-then-seal index. Add during build, Seal once, then
// Search concurrently. A sealed index rejects further inserts.
type Memory struct {
	chunks []index.Chunk
	sealed bool
}

func NewMemory() *Memory {
	return &Memory{}
}

// Add inserts a chunk. Insertion order is retained for stable tie-breaks.
func (m *Memory) Add(c index.Chunk) {
	if m.sealed {
		panic("vectorindex: add after seal")
	}
	m.chunks = append(m.chunks, c)
}

// Seal marks the index read-only. Queries must not be served before Seal.
func (m *Memory) Seal() index.Index {
	m.sealed = true
	return m
}

func (m *Memory) Len() int { return len(m.chunks) }

// Search returns the k nearest chunks by cosine distance, ascending.
// Ties keep insertion order. Chunks with no vector are skipped.
func (m *Memory) Search(vector []float32, k int) []index.Match {
	if k <= 0 || len(m.chunks) == 0 {
		return nil
	}

	matches := make([]index.Match, 0, len(m.chunks))
	for _, c := range m.chunks {
		if len(c.Vector) == 0 || len(c.Vector) != len(vector) {
			continue
		}
		matches = append(matches, index.Match{
			Chunk:    c,
			Distance: cosineDistance(vector, c.Vector),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k]
}

// cosineDistance = 1 - cosine similarity; 0 is identical direction.
func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
