package retriever

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pratszszszzz/Courtify/internal/domain"
	"github.com/pratszszszzz/Courtify/internal/vectorstore"
)

// IndexProvider hands out the current index, building or loading it on demand.
type IndexProvider interface {
	Get(ctx context.Context) (*vectorstore.Index, error)
}

// Options tune the query-time fan-out.
type Options struct {
	// FetchK is the candidate pool size for diversity reranking.
	// Zero means max(20, 3*k).
	FetchK int
	// Diversity enables MMR reranking of the candidate pool.
	Diversity bool
	// Lambda balances relevance against novelty in MMR; 1 is pure relevance.
	Lambda float64
}

// Retriever answers similarity queries over the chunk index, with query
// expansion and optional diversity reranking.
type Retriever struct {
	index    IndexProvider
	embedder domain.Embedder
	expander *Expander
	opts     Options
	log      *zap.Logger
}

func New(index IndexProvider, emb domain.Embedder, exp *Expander, opts Options, log *zap.Logger) *Retriever {
	return &Retriever{index: index, embedder: emb, expander: exp, opts: opts, log: log}
}

// Retrieve returns the top k chunks for the query, best first. The query
// is expanded before embedding; with diversity enabled a larger candidate
// pool is fetched and reranked by maximal marginal relevance.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if k < 1 {
		return nil, fmt.Errorf("retrieve k must be >= 1, got %d", k)
	}
	ix, err := r.index.Get(ctx)
	if err != nil {
		return nil, err
	}
	expanded := r.expander.Expand(query)
	if expanded != query {
		r.log.Debug("query expanded", zap.String("query", query), zap.String("expanded", expanded))
	}
	vec, err := r.embedder.Embed(ctx, expanded)
	if err != nil {
		return nil, err
	}
	if !r.opts.Diversity {
		return ix.Search(vec, k)
	}

	fetchK := r.opts.FetchK
	if fetchK == 0 {
		fetchK = 3 * k
		if fetchK < 20 {
			fetchK = 20
		}
	}
	candidates, err := ix.Search(vec, fetchK)
	if err != nil {
		return nil, err
	}
	return mmr(ix, candidates, k, r.opts.Lambda), nil
}

// mmr greedily reranks candidates by maximal marginal relevance: each
// step picks the candidate maximizing lambda*relevance minus
// (1-lambda)*similarity to the already selected set. Stored vectors are
// normalized, so the dot product is cosine similarity. Ties keep the
// earlier (more relevant) candidate.
func mmr(ix *vectorstore.Index, candidates []domain.SearchResult, k int, lambda float64) []domain.SearchResult {
	if k >= len(candidates) {
		return candidates
	}
	selected := make([]domain.SearchResult, 0, k)
	remaining := make([]domain.SearchResult, len(candidates))
	copy(remaining, candidates)

	for len(selected) < k && len(remaining) > 0 {
		best := 0
		bestScore := mmrScore(ix, remaining[0], selected, lambda)
		for i := 1; i < len(remaining); i++ {
			if s := mmrScore(ix, remaining[i], selected, lambda); s > bestScore {
				best, bestScore = i, s
			}
		}
		selected = append(selected, remaining[best])
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return selected
}

func mmrScore(ix *vectorstore.Index, cand domain.SearchResult, selected []domain.SearchResult, lambda float64) float64 {
	maxSim := 0.0
	cv := ix.Vector(cand.Chunk.ID)
	for _, s := range selected {
		sv := ix.Vector(s.Chunk.ID)
		if cv == nil || sv == nil {
			continue
		}
		if sim := dot(cv, sv); sim > maxSim {
			maxSim = sim
		}
	}
	return lambda*cand.Score - (1-lambda)*maxSim
}

func dot(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
