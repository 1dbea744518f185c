// Package mock provides mock implementations of docdex interfaces for testing.
package mock

import (
	"context"

	"github.com/akarwowski/docdex"
)

var _ docdex.Embedder = (*Embedder)(nil)

// Embedder is a mock implementation of docdex.Embedder.
type Embedder struct {
	EmbedFn      func(ctx context.Context, text string) ([]float32, error)
	EmbedBatchFn func(ctx context.Context, texts []string) ([][]float32, error)
	ModelFn      func() string
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.EmbedFn(ctx, text)
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.EmbedBatchFn != nil {
		return e.EmbedBatchFn(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.EmbedFn(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (e *Embedder) Model() string {
	if e.ModelFn != nil {
		return e.ModelFn()
	}
	return "mock-embedding-model"
}
