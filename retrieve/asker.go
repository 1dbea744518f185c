package retrieve

import (
	"context"
	"log/slog"

	"github.com/akarwowski/docdex"
	"github.com/akarwowski/docdex/cache"
)

// Ensure Asker implements docdex.Asker at compile time.
var _ docdex.Asker = (*Asker)(nil)

// Asker answers natural language questions over indexed documentation.
// It composes retrieval, answer generation, and the persisted response
// cache: a cache hit skips the generation call entirely.
type Asker struct {
	retriever docdex.Retriever
	generator docdex.Generator
	responses *cache.ResponseCache
	counter   docdex.TokenCounter
	logger    *slog.Logger
}

// AskerOption configures an Asker.
type AskerOption func(*Asker)

// WithAskerLogger sets the logger.
func WithAskerLogger(logger *slog.Logger) AskerOption {
	return func(a *Asker) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithTokenCounter enables context-size logging before generation.
func WithTokenCounter(counter docdex.TokenCounter) AskerOption {
	return func(a *Asker) { a.counter = counter }
}

// NewAsker creates an Asker. The response cache may be nil, which
// disables answer caching.
func NewAsker(retriever docdex.Retriever, generator docdex.Generator, responses *cache.ResponseCache, opts ...AskerOption) *Asker {
	a := &Asker{
		retriever: retriever,
		generator: generator,
		responses: responses,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask answers a natural language question about the indexed documentation.
// Returns ENOTFOUND when retrieval surfaces no context to answer from.
func (a *Asker) Ask(ctx context.Context, question string) (string, error) {
	if question == "" {
		return "", docdex.Errorf(docdex.EINVALID, "question required")
	}

	results, err := a.retriever.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", docdex.Errorf(docdex.ENOTFOUND, "no relevant documentation found")
	}

	if a.responses != nil {
		if answer, ok := a.responses.Get(question, results); ok {
			a.logger.Debug("answer served from response cache", "question", question)
			return answer, nil
		}
	}

	if a.counter != nil {
		tokens, err := a.counter.CountTokens(ctx, docdex.FormatResults(results))
		if err != nil {
			a.logger.Warn("token counting failed", "error", err)
		} else {
			a.logger.Debug("generation context size", "tokens", tokens, "results", len(results))
		}
	}

	answer, err := a.generator.Generate(ctx, question, results)
	if err != nil {
		return "", err
	}

	if a.responses != nil {
		a.responses.Set(question, results, answer)
	}

	return answer, nil
}
