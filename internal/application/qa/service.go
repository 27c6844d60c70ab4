package qa

import (
	"context"

	"github.com/codeiq-dev/codeiq/internal/application/indexing"
	"github.com/codeiq-dev/codeiq/internal/domain/ai"
	domidx "github.com/codeiq-dev/codeiq/internal/domain/index"
	domain "github.com/codeiq-dev/codeiq/internal/domain/analysis"
)

const (
	// DefaultTopK matches the retrieval depth the review agents were tuned
	// against.
	DefaultTopK = 5
	// MaxTopK caps caller-supplied depth so prompts stay within budget.
	MaxTopK = 8
)

// Service answers free-form questions about an analyzed codebase using the
// run's sealed vector index as the only source of context.
type Service struct {
	Indexes  *indexing.Registry
	Embedder domidx.Embedder
	Client   ai.Client
}

func New(indexes *indexing.Registry, embedder domidx.Embedder, client ai.Client) *Service {
	return &Service{Indexes: indexes, Embedder: embedder, Client: client}
}

// Answer holds the model response plus the snippets it was grounded on.
type Answer struct {
	Text    string            `json:"answer"`
	Sources []ai.ContextChunk `json:"sources"`
}

// Ask retrieves the k nearest chunks for the question and asks the model to
// answer from them alone. k <= 0 uses DefaultTopK.
func (s *Service) Ask(ctx context.Context, runID domain.RunID, question string, k int) (*Answer, error) {
	idx, err := s.Indexes.Get(runID)
	if err != nil {
		return nil, &domidx.RetrievalError{Err: err}
	}
	if idx.Len() == 0 {
		return nil, &domidx.RetrievalError{Err: domidx.ErrEmptyIndex}
	}

	if k <= 0 {
		k = DefaultTopK
	}
	if k > MaxTopK {
		k = MaxTopK
	}

	vecs, err := s.Embedder.Embed(ctx, []string{question})
	if err != nil || len(vecs) == 0 {
		return nil, &domidx.RetrievalError{Err: err}
	}

	matches := idx.Search(vecs[0], k)
	chunks := make([]ai.ContextChunk, 0, len(matches))
	for _, m := range matches {
		chunks = append(chunks, ai.ContextChunk{FilePath: m.Chunk.FilePath, Text: m.Chunk.Text})
	}

	text, err := s.Client.Answer(ctx, question, chunks)
	if err != nil {
		return nil, err
	}
	return &Answer{Text: text, Sources: chunks}, nil
}
