package docdex

import "context"

// Embedder produces fixed-dimension vectors representing a text's semantic
// content. Implementations hide the provider API; the model name is exposed
// so caches can key on it.
type Embedder interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the identifier of the underlying embedding model.
	Model() string
}

// Reranker rescores candidate results against a query using a secondary,
// more precise relevance model. Reranking is a best-effort enhancement:
// callers treat failure as non-fatal and keep the prior ordering.
type Reranker interface {
	Rerank(ctx context.Context, query string, results []SearchResult) ([]SearchResult, error)
}
