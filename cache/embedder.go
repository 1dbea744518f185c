package cache

import (
	"context"

	"github.com/akarwowski/docdex"
)

// Ensure Embedder implements docdex.Embedder at compile time.
var _ docdex.Embedder = (*Embedder)(nil)

// Embedder decorates a docdex.Embedder with the embedding cache: the
// store's embedding hook consults the cache before computing, so previously
// seen text is never re-embedded.
type Embedder struct {
	inner docdex.Embedder
	cache *EmbeddingCache
}

// NewEmbedder wraps inner with cache.
func NewEmbedder(inner docdex.Embedder, cache *EmbeddingCache) *Embedder {
	return &Embedder{inner: inner, cache: cache}
}

// Embed returns a cached vector when available, otherwise delegates to the
// wrapped embedder and caches the result.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec := e.cache.Get(text, e.inner.Model()); vec != nil {
		return vec, nil
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	e.cache.Set(text, vec, e.inner.Model())
	return vec, nil
}

// EmbedBatch embeds texts, computing only the cache misses and preserving
// input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	model := e.inner.Model()
	vectors := e.cache.GetBatch(texts, model)

	var missTexts []string
	var missIdx []int
	for i, vec := range vectors {
		if vec == nil {
			missTexts = append(missTexts, texts[i])
			missIdx = append(missIdx, i)
		}
	}
	if len(missTexts) == 0 {
		return vectors, nil
	}

	computed, err := e.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(computed) != len(missTexts) {
		return nil, docdex.Errorf(docdex.EINTERNAL, "embedder returned %d vectors for %d texts", len(computed), len(missTexts))
	}

	for j, vec := range computed {
		vectors[missIdx[j]] = vec
	}
	e.cache.SetBatch(missTexts, computed, model)

	return vectors, nil
}

// Model returns the wrapped embedder's model identifier.
func (e *Embedder) Model() string {
	return e.inner.Model()
}
