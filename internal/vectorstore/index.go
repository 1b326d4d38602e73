package vectorstore

import (
	"fmt"
	"math"
	"sort"

	"github.com/pratszszszzz/Courtify/internal/domain"
)

// Index is the in-process similarity index: normalized chunk vectors plus
// the chunk metadata they point at. It is immutable after construction
// and safe for concurrent searches.
type Index struct {
	model   string
	dim     int
	ids     []int
	vectors [][]float32
	pos     map[int]int
	chunks  map[int]domain.Chunk
}

func newIndex(model string, dim int) *Index {
	return &Index{
		model:  model,
		dim:    dim,
		pos:    make(map[int]int),
		chunks: make(map[int]domain.Chunk),
	}
}

func (ix *Index) add(chunk domain.Chunk, vec []float32) error {
	if len(vec) != ix.dim {
		return fmt.Errorf("%w: vector dimension %d, index dimension %d", domain.ErrIndexCorrupt, len(vec), ix.dim)
	}
	normalize(vec)
	ix.pos[chunk.ID] = len(ix.ids)
	ix.ids = append(ix.ids, chunk.ID)
	ix.vectors = append(ix.vectors, vec)
	ix.chunks[chunk.ID] = chunk
	return nil
}

// Model returns the embedding model identifier the index was built with.
func (ix *Index) Model() string { return ix.model }

func (ix *Index) Dimension() int { return ix.dim }

func (ix *Index) Count() int { return len(ix.ids) }

// Chunk looks up chunk metadata by id.
func (ix *Index) Chunk(id int) (domain.Chunk, bool) {
	c, ok := ix.chunks[id]
	return c, ok
}

// Vector returns the stored (normalized) vector for a chunk id, or nil.
func (ix *Index) Vector(id int) []float32 {
	if i, ok := ix.pos[id]; ok {
		return ix.vectors[i]
	}
	return nil
}

// Search returns up to k nearest chunks by cosine similarity, best first,
// ties broken by ascending chunk id. Chunks with no similarity to the
// query (score <= 0) are excluded, so a query sharing nothing with the
// corpus returns an empty result. k greater than the number of matches is
// clamped; k below one is invalid.
func (ix *Index) Search(vec []float32, k int) ([]domain.SearchResult, error) {
	if k < 1 {
		return nil, fmt.Errorf("search k must be >= 1, got %d", k)
	}
	if len(vec) != ix.dim {
		return nil, fmt.Errorf("query dimension %d, index dimension %d", len(vec), ix.dim)
	}
	q := make([]float32, len(vec))
	copy(q, vec)
	normalize(q)

	type scored struct {
		id    int
		score float64
	}
	scores := make([]scored, 0, len(ix.ids))
	for i := range ix.ids {
		if s := dot(ix.vectors[i], q); s > 0 {
			scores = append(scores, scored{ix.ids[i], s})
		}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].id < scores[j].id
	})
	if k > len(scores) {
		k = len(scores)
	}
	out := make([]domain.SearchResult, 0, k)
	for _, s := range scores[:k] {
		out = append(out, domain.SearchResult{Chunk: ix.chunks[s.id], Score: s.score})
	}
	return out, nil
}

func dot(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func normalize(v []float32) {
	sum := 0.0
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	n := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / n)
	}
}
