// Package gemini implements embedding, generation and token counting
// backed by the Google Gemini API.
package gemini

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/akarwowski/docdex"
)

const (
	// DefaultEmbeddingModel is the Gemini embedding model used unless
	// overridden.
	DefaultEmbeddingModel = "gemini-embedding-001"

	// defaultRequestsPerMinute keeps the embedder under the free-tier
	// quota with headroom for the generator sharing the same key.
	defaultRequestsPerMinute = 100
)

// Ensure Embedder implements docdex.Embedder at compile time.
var _ docdex.Embedder = (*Embedder)(nil)

// Embedder implements docdex.Embedder using the Gemini embedding API.
// Requests are rate limited client-side to stay under API quota.
type Embedder struct {
	client  *genai.Client
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

// NewEmbedder creates an Embedder over the Gemini client.
func NewEmbedder(client *genai.Client, opts ...EmbedderOption) *Embedder {
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

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, mapError(err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		return nil, docdex.Errorf(docdex.EINTERNAL,
			"gemini returned %d embeddings for %d texts", embeddingCount(result), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, docdex.Errorf(docdex.EINTERNAL, "gemini returned empty embedding at index %d", i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

func embeddingCount(result *genai.EmbedContentResponse) int {
	if result == nil {
		return 0
	}
	return len(result.Embeddings)
}

// mapError classifies Gemini API errors into application error codes so
// the store's retry policy can distinguish quota exhaustion from
// transient failures.
func mapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429:
			return docdex.Errorf(docdex.EQUOTA, "gemini quota exhausted: %s", apiErr.Message)
		case 400, 404:
			return docdex.Errorf(docdex.EINVALID, "gemini rejected request: %s", apiErr.Message)
		case 503:
			return docdex.Errorf(docdex.EUNAVAILABLE, "gemini unavailable: %s", apiErr.Message)
		}
	}
	return err
}
