package retrieve

import (
	"context"
	"math"
	"sort"

	"github.com/akarwowski/docdex"
)

// Ensure EmbeddingReranker implements docdex.Reranker at compile time.
var _ docdex.Reranker = (*EmbeddingReranker)(nil)

// EmbeddingReranker rescores (query, document) pairs with a secondary
// embedding model and resorts by that score. Pair it with a model other
// than the store's primary embedder, otherwise it only reproduces the
// original ranking.
type EmbeddingReranker struct {
	embedder docdex.Embedder
}

// NewEmbeddingReranker creates a reranker over the given embedder.
func NewEmbeddingReranker(embedder docdex.Embedder) *EmbeddingReranker {
	return &EmbeddingReranker{embedder: embedder}
}

// Rerank returns results resorted by secondary-model similarity to the
// query. Scores on the returned results are replaced with the secondary
// scores.
func (r *EmbeddingReranker) Rerank(ctx context.Context, query string, results []docdex.SearchResult) ([]docdex.SearchResult, error) {
	if len(results) < 2 {
		return results, nil
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.Content
	}
	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(results) {
		return nil, docdex.Errorf(docdex.EINTERNAL,
			"reranker embedder returned %d vectors for %d results", len(vectors), len(results))
	}

	reranked := make([]docdex.SearchResult, len(results))
	copy(reranked, results)
	for i := range reranked {
		reranked[i].Score = cosine(queryVec, vectors[i])
	}
	sort.SliceStable(reranked, func(i, j int) bool { return reranked[i].Score > reranked[j].Score })

	return reranked, nil
}

// cosine is cosine similarity clamped to [0, 1].
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Min(1, math.Max(0, sim))
}
