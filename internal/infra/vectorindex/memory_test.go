package vectorindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeiq-dev/codeiq/internal/domain/index"
)

func chunk(id string, vec ...float32) index.Chunk {
	return index.Chunk{ID: id, FilePath: id + ".py", Vector: vec}
}

func TestSearchOrdersByDistance(t *testing.T) {
	m := NewMemory()
	m.Add(chunk("far", 0, 1))
	m.Add(chunk("near", 1, 0.1))
	m.Add(chunk("exact", 1, 0))
	idx := m.Seal()

	got := idx.Search([]float32{1, 0}, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "exact", got[0].Chunk.ID)
	assert.Equal(t, "near", got[1].Chunk.ID)
	assert.Equal(t, "far", got[2].Chunk.ID)
	assert.InDelta(t, 0, got[0].Distance, 1e-9)
}

func TestSearchKLargerThanIndex(t *testing.T) {
	m := NewMemory()
	m.Add(chunk("a", 1, 0))
	m.Add(chunk("b", 0, 1))
	idx := m.Seal()

	got := idx.Search([]float32{1, 0}, 10)
	assert.Len(t, got, 2)
}

func TestSearchTiesKeepInsertionOrder(t *testing.T) {
	m := NewMemory()
	// identical vectors, identical distance
	m.Add(chunk("first", 1, 1))
	m.Add(chunk("second", 1, 1))
	m.Add(chunk("third", 1, 1))
	idx := m.Seal()

	got := idx.Search([]float32{1, 1}, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Chunk.ID)
	assert.Equal(t, "second", got[1].Chunk.ID)
	assert.Equal(t, "third", got[2].Chunk.ID)
}

func TestSearchSkipsMismatchedDimensions(t *testing.T) {
	m := NewMemory()
	m.Add(chunk("good", 1, 0))
	m.Add(chunk("short", 1))
	m.Add(index.Chunk{ID: "empty"})
	idx := m.Seal()

	got := idx.Search([]float32{1, 0}, 10)
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].Chunk.ID)
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := NewMemory().Seal()
	assert.Nil(t, idx.Search([]float32{1}, 5))
	assert.Equal(t, 0, idx.Len())
}

func TestAddAfterSealPanics(t *testing.T) {
	m := NewMemory()
	m.Seal()
	assert.Panics(t, func() { m.Add(chunk("late", 1)) })
}

func TestSearchZeroK(t *testing.T) {
	m := NewMemory()
	m.Add(chunk("a", 1, 0))
	idx := m.Seal()
	assert.Nil(t, idx.Search([]float32{1, 0}, 0))
}
