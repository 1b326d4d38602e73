package vectorstore

import (
	"context"
	"fmt"

	"github.com/pratszszszzz/Courtify/internal/domain"
)

// Build embeds every chunk (batched) and constructs a searchable index.
// Chunk ids are assigned here, monotonically in input order, so they are
// unique within one build and stable tie-breakers at search time.
func Build(ctx context.Context, chunks []domain.Chunk, emb domain.Embedder) (*Index, error) {
	if len(chunks) == 0 {
		return nil, domain.ErrEmptyCorpus
	}
	texts := make([]string, len(chunks))
	for i := range chunks {
		chunks[i].ID = i
		texts[i] = chunks[i].Text
	}
	if err := emb.Prepare(texts); err != nil {
		return nil, err
	}
	vectors, err := emb.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	ix := newIndex(emb.Model(), len(vectors[0]))
	for i := range chunks {
		if err := ix.add(chunks[i], vectors[i]); err != nil {
			return nil, err
		}
	}
	return ix, nil
}
