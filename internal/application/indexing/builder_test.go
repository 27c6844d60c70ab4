package indexing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeiq-dev/codeiq/internal/domain/analysis"
)

type mockEmbedder struct {
	embedFn func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return m.embedFn(ctx, texts)
}

func (m *mockEmbedder) Dim() int { return 2 }

func unitVectors(n int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out
}

func TestBuildIndexesAllChunks(t *testing.T) {
	embedder := &mockEmbedder{embedFn: func(_ context.Context, texts []string) ([][]float32, error) {
		return unitVectors(len(texts)), nil
	}}

	files := []analysis.SourceFile{
		{Path: "a.py", Content: strings.Repeat("x", 2500), Language: analysis.LangPython},
		{Path: "b.py", Content: "tiny", Language: analysis.LangPython},
	}

	idx, gaps := NewBuilder(embedder).Build(context.Background(), "run-1", files)
	assert.Empty(t, gaps)
	// 2500 runes at size 1000 / overlap 200 gives 3 chunks, plus one for b.py
	assert.Equal(t, 4, idx.Len())
}

func TestBuildFailedBatchBecomesGap(t *testing.T) {
	call := 0
	embedder := &mockEmbedder{embedFn: func(_ context.Context, texts []string) ([][]float32, error) {
		call++
		if call <= 2 { // first batch fails twice (initial + retry)
			return nil, errors.New("embed down")
		}
		return unitVectors(len(texts)), nil
	}}

	b := NewBuilder(embedder)
	b.BatchSize = 2
	files := []analysis.SourceFile{
		{Path: "a.py", Content: "one", Language: analysis.LangPython},
		{Path: "b.py", Content: "two", Language: analysis.LangPython},
		{Path: "c.py", Content: "three", Language: analysis.LangPython},
	}

	idx, gaps := b.Build(context.Background(), "run-1", files)

	require.Len(t, gaps, 1)
	assert.Equal(t, "embedding", gaps[0].Stage)
	assert.Equal(t, "a.py", gaps[0].FilePath)
	// the surviving batch still got indexed
	assert.Equal(t, 1, idx.Len())
}

func TestBuildRetriesFailedBatchOnce(t *testing.T) {
	call := 0
	embedder := &mockEmbedder{embedFn: func(_ context.Context, texts []string) ([][]float32, error) {
		call++
		if call == 1 {
			return nil, errors.New("transient")
		}
		return unitVectors(len(texts)), nil
	}}

	idx, gaps := NewBuilder(embedder).Build(context.Background(), "run-1", []analysis.SourceFile{
		{Path: "a.py", Content: "hello", Language: analysis.LangPython},
	})

	assert.Equal(t, 2, call)
	assert.Empty(t, gaps)
	assert.Equal(t, 1, idx.Len())
}

func TestBuildVectorCountMismatchDropsBatch(t *testing.T) {
	embedder := &mockEmbedder{embedFn: func(_ context.Context, texts []string) ([][]float32, error) {
		return unitVectors(len(texts) - 1), nil
	}}

	idx, gaps := NewBuilder(embedder).Build(context.Background(), "run-1", []analysis.SourceFile{
		{Path: "a.py", Content: "hello", Language: analysis.LangPython},
	})

	require.Len(t, gaps, 1)
	assert.Equal(t, 0, idx.Len())
}

func TestBuildNoFilesYieldsEmptySealedIndex(t *testing.T) {
	embedder := &mockEmbedder{embedFn: func(_ context.Context, texts []string) ([][]float32, error) {
		t.Fatal("embedder must not be called")
		return nil, nil
	}}

	idx, gaps := NewBuilder(embedder).Build(context.Background(), "run-1", nil)
	assert.Empty(t, gaps)
	assert.Equal(t, 0, idx.Len())
}

func TestChunkIDsAreStableAndDistinct(t *testing.T) {
	a := chunkID("run-1", "a.py", 0)
	assert.Equal(t, a, chunkID("run-1", "a.py", 0))
	assert.NotEqual(t, a, chunkID("run-1", "a.py", 1))
	assert.NotEqual(t, a, chunkID("run-2", "a.py", 0))
	assert.Len(t, a, 40)
}
