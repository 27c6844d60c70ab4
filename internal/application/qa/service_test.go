package qa

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeiq-dev/codeiq/internal/application/indexing"
	"github.com/codeiq-dev/codeiq/internal/domain/ai"
	domain "github.com/codeiq-dev/codeiq/internal/domain/analysis"
	domidx "github.com/codeiq-dev/codeiq/internal/domain/index"
	"github.com/codeiq-dev/codeiq/internal/infra/vectorindex"
)

type mockEmbedder struct {
	embedFn func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return m.embedFn(ctx, texts)
}

func (m *mockEmbedder) Dim() int { return 2 }

type mockClient struct {
	answerFn func(ctx context.Context, question string, chunks []ai.ContextChunk) (string, error)
}

func (m *mockClient) Review(context.Context, domain.Role, domain.SourceFile) ([]domain.Finding, error) {
	panic("not used")
}
func (m *mockClient) ExtractThemes(context.Context, string) ([]string, error) { panic("not used") }
func (m *mockClient) Narrate(context.Context, []string, map[string]float64) (string, error) {
	panic("not used")
}
func (m *mockClient) Answer(ctx context.Context, question string, chunks []ai.ContextChunk) (string, error) {
	return m.answerFn(ctx, question, chunks)
}

func registryWith(t *testing.T, id domain.RunID, chunks ...domidx.Chunk) *indexing.Registry {
	t.Helper()
	mem := vectorindex.NewMemory()
	for _, c := range chunks {
		mem.Add(c)
	}
	reg := indexing.NewRegistry()
	reg.Put(id, mem.Seal())
	return reg
}

func TestAskRetrievesAndAnswers(t *testing.T) {
	reg := registryWith(t, "run-1",
		domidx.Chunk{ID: "1", FilePath: "auth.py", Text: "def login(): ...", Vector: []float32{1, 0}},
		domidx.Chunk{ID: "2", FilePath: "db.py", Text: "def query(): ...", Vector: []float32{0, 1}},
	)
	embedder := &mockEmbedder{embedFn: func(_ context.Context, texts []string) ([][]float32, error) {
		require.Equal(t, []string{"how does login work?"}, texts)
		return [][]float32{{1, 0}}, nil
	}}
	client := &mockClient{answerFn: func(_ context.Context, question string, chunks []ai.ContextChunk) (string, error) {
		assert.Equal(t, "how does login work?", question)
		require.NotEmpty(t, chunks)
		assert.Equal(t, "auth.py", chunks[0].FilePath)
		return "Login is handled in auth.py.", nil
	}}

	got, err := New(reg, embedder, client).Ask(context.Background(), "run-1", "how does login work?", 1)
	require.NoError(t, err)
	assert.Equal(t, "Login is handled in auth.py.", got.Text)
	require.Len(t, got.Sources, 1)
	assert.Equal(t, "auth.py", got.Sources[0].FilePath)
}

func TestAskIndexNotReady(t *testing.T) {
	svc := New(indexing.NewRegistry(), &mockEmbedder{}, &mockClient{})

	_, err := svc.Ask(context.Background(), "missing", "q", 5)
	require.Error(t, err)

	var rerr *domidx.RetrievalError
	require.ErrorAs(t, err, &rerr)
	assert.ErrorIs(t, err, domidx.ErrIndexNotReady)
}

func TestAskEmptyIndex(t *testing.T) {
	reg := registryWith(t, "run-1")
	svc := New(reg, &mockEmbedder{}, &mockClient{})

	_, err := svc.Ask(context.Background(), "run-1", "q", 5)
	assert.ErrorIs(t, err, domidx.ErrEmptyIndex)
}

func TestAskEmbeddingFailure(t *testing.T) {
	reg := registryWith(t, "run-1", domidx.Chunk{ID: "1", FilePath: "a.py", Vector: []float32{1, 0}})
	embedder := &mockEmbedder{embedFn: func(context.Context, []string) ([][]float32, error) {
		return nil, errors.New("embed down")
	}}

	_, err := New(reg, embedder, &mockClient{}).Ask(context.Background(), "run-1", "q", 5)
	var rerr *domidx.RetrievalError
	require.ErrorAs(t, err, &rerr)
}

func TestAskClampsK(t *testing.T) {
	var chunks []domidx.Chunk
	for i := 0; i < 20; i++ {
		chunks = append(chunks, domidx.Chunk{
			ID: string(rune('a' + i)), FilePath: "f.py", Vector: []float32{1, 0},
		})
	}
	reg := registryWith(t, "run-1", chunks...)
	embedder := &mockEmbedder{embedFn: func(context.Context, []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}}

	for _, k := range []int{0, -3, 100} {
		client := &mockClient{answerFn: func(_ context.Context, _ string, got []ai.ContextChunk) (string, error) {
			switch {
			case k <= 0:
				assert.Len(t, got, DefaultTopK)
			default:
				assert.Len(t, got, MaxTopK)
			}
			return "ok", nil
		}}
		_, err := New(reg, embedder, client).Ask(context.Background(), "run-1", "q", k)
		require.NoError(t, err)
	}
}

func TestAskFewerChunksThanK(t *testing.T) {
	reg := registryWith(t, "run-1",
		domidx.Chunk{ID: "1", FilePath: "only.py", Text: "x", Vector: []float32{1, 0}},
	)
	embedder := &mockEmbedder{embedFn: func(context.Context, []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}}
	client := &mockClient{answerFn: func(_ context.Context, _ string, chunks []ai.ContextChunk) (string, error) {
		assert.Len(t, chunks, 1)
		return "ok", nil
	}}

	got, err := New(reg, embedder, client).Ask(context.Background(), "run-1", "q", 5)
	require.NoError(t, err)
	assert.Len(t, got.Sources, 1)
}
