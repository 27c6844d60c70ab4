package ai

import (
	"context"

	"github.com/codeiq-dev/codeiq/internal/domain/analysis"
)

// ContextChunk is one retrieved snippet handed to the answer call,
// attributed to its source file.
type ContextChunk struct {
	FilePath string
	Text     string
}

// Client is the remote LLM port. All four call types are opaque,
// rate-limited, and independently failable.
type Client interface {
	// Review runs one role-scoped structured review of a file.
	Review(ctx context.Context, role analysis.Role, file analysis.SourceFile) ([]analysis.Finding, error)
	// ExtractThemes distills cross-cutting themes from the raw finding set.
	ExtractThemes(ctx context.Context, findingsJSON string) ([]string, error)
	// Narrate turns themes plus scores into a non-technical summary.
	Narrate(ctx context.Context, themes []string, scores map[string]float64) (string, error)
	// Answer produces a grounded answer from a question and retrieved chunks.
	Answer(ctx context.Context, question string, chunks []ContextChunk) (string, error)
}
