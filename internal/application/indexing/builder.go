// Package indexing builds per-run vector indexes over collected source files.
package indexing

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/codeiq-dev/codeiq/internal/domain/analysis"
	domidx "github.com/codeiq-dev/codeiq/internal/domain/index"
	"github.com/codeiq-dev/codeiq/internal/infra/vectorindex"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultBatchSize    = 64
)

// Builder splits files into overlapping chunks, embeds them in batches and
// assembles a sealed in-memory index. A batch that fails to embed (after one
// immediate re-attempt) is dropped and reported as a gap; the build goes on.
type Builder struct {
	Embedder  domidx.Embedder
	ChunkSize int
	Overlap   int
	BatchSize int
}

func NewBuilder(e domidx.Embedder) *Builder {
	return &Builder{
		Embedder:  e,
		ChunkSize: DefaultChunkSize,
		Overlap:   DefaultChunkOverlap,
		BatchSize: DefaultBatchSize,
	}
}

// Build chunks and embeds all files, returning the sealed index plus a gap
// entry per dropped batch. The returned index is complete: no caller can
// observe a partially built index.
func (b *Builder) Build(ctx context.Context, runID analysis.RunID, files []analysis.SourceFile) (domidx.Index, []analysis.Gap) {
	batchSize := b.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var pending []domidx.Chunk
	for _, f := range files {
		for _, p := range Split(f.Content, b.ChunkSize, b.Overlap) {
			pending = append(pending, domidx.Chunk{
				ID:       chunkID(string(runID), f.Path, p.Ordinal),
				FilePath: f.Path,
				Ordinal:  p.Ordinal,
				Text:     p.Text,
			})
		}
	}
	log.Info().Str("run", string(runID)).Int("files", len(files)).
		Int("chunks", len(pending)).Msg("building vector index")

	mem := vectorindex.NewMemory()
	var gaps []analysis.Gap
	for start := 0; start < len(pending); start += batchSize {
		end := start + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := b.embedWithRetry(ctx, texts)
		if err != nil || len(vectors) != len(batch) {
			if err == nil {
				err = fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(batch))
			}
			berr := &domidx.BuildError{FilePath: batch[0].FilePath, Chunks: len(batch), Err: err}
			log.Warn().Err(berr).Str("run", string(runID)).Msg("dropping chunk batch")
			gaps = append(gaps, analysis.Gap{
				FilePath: batch[0].FilePath,
				Stage:    "embedding",
				Reason:   berr.Error(),
			})
			continue
		}

		for i, c := range batch {
			c.Vector = vectors[i]
			mem.Add(c)
		}
	}

	return mem.Seal(), gaps
}

func (b *Builder) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := b.Embedder.Embed(ctx, texts)
	if err == nil || ctx.Err() != nil {
		return vectors, err
	}
	// one immediate re-attempt, no backoff
	return b.Embedder.Embed(ctx, texts)
}

func chunkID(runID, path string, ordinal int) string {
	h := sha1.Sum([]byte(fmt.Sprintf("%s/%s#%d", runID, path, ordinal)))
	return hex.EncodeToString(h[:])
}
