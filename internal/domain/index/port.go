package index

import "context"

// Embedder port (interface untuk remote embedding calls)
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dim() int
}

// Index is a sealed, read-only nearest-neighbor collection for one run.
// It is only handed out after every chunk has been inserted.
type Index interface {
	// Search returns up to k matches ranked by ascending distance,
	// ties broken by insertion order.
	Search(vector []float32, k int) []Match
	Len() int
}
