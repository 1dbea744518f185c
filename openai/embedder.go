// Package openai implements embedding and answer generation backed by
// the OpenAI API. It mirrors the gemini package so either provider can
// be selected by configuration.
package openai

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/akarwowski/docdex"
)

const (
	// DefaultEmbeddingModel is the OpenAI embedding model used unless
	// overridden.
	DefaultEmbeddingModel = "text-embedding-3-small"

	defaultRequestsPerMinute = 300
)

// Ensure Embedder implements docdex.Embedder at compile time.
var _ docdex.Embedder = (*Embedder)(nil)

// Embedder implements docdex.Embedder using the OpenAI embeddings API.
type Embedder struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

// EmbedderOption configures an Embedder.
type EmbedderOption func(*Embedder)

// WithEmbeddingModel overrides the embedding model.
func WithEmbeddingModel(model string) EmbedderOption {
	return func(e *Embedder) {
		if model != "" {
			e.model = model
		}
	}
}

// WithRequestsPerMinute overrides the client-side rate limit.
func WithRequestsPerMinute(rpm int) EmbedderOption {
	return func(e *Embedder) {
		if rpm > 0 {
			e.limiter = rate.NewLimiter(rate.Limit(float64(rpm)/60), rpm/10+1)
		}
	}
}

// NewEmbedder creates an Embedder over the OpenAI client.
func NewEmbedder(client *openai.Client, opts ...EmbedderOption) *Embedder {
	e := &Embedder{
		client:  client,
		model:   DefaultEmbeddingModel,
		limiter: rate.NewLimiter(rate.Limit(float64(defaultRequestsPerMinute)/60), defaultRequestsPerMinute/10+1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Model returns the embedding model identifier.
func (e *Embedder) Model() string {
	return e.model
}

// Embed returns the embedding vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts in one API call, preserving input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	rsp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, mapError(err)
	}
	if len(rsp.Data) != len(texts) {
		return nil, docdex.Errorf(docdex.EINTERNAL,
			"openai returned %d embeddings for %d texts", len(rsp.Data), len(texts))
	}

	// Response order is not guaranteed; Index says where each belongs.
	vectors := make([][]float32, len(texts))
	for _, item := range rsp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, docdex.Errorf(docdex.EINTERNAL, "openai returned embedding index %d out of range", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, docdex.Errorf(docdex.EINTERNAL, "openai returned empty embedding at index %d", i)
		}
	}
	return vectors, nil
}

// mapError classifies OpenAI API errors into application error codes.
func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429:
			return docdex.Errorf(docdex.EQUOTA, "openai quota exhausted: %s", apiErr.Message)
		case 400, 404:
			return docdex.Errorf(docdex.EINVALID, "openai rejected request: %s", apiErr.Message)
		case 503:
			return docdex.Errorf(docdex.EUNAVAILABLE, "openai unavailable: %s", apiErr.Message)
		}
	}
	return err
}
