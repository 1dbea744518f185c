package mock

import (
	"context"

	"github.com/akarwowski/docdex"
)

var (
	_ docdex.Reranker     = (*Reranker)(nil)
	_ docdex.Generator    = (*Generator)(nil)
	_ docdex.Retriever    = (*Retriever)(nil)
	_ docdex.Chunker      = (*Chunker)(nil)
	_ docdex.Locker       = (*Locker)(nil)
	_ docdex.TokenCounter = (*TokenCounter)(nil)
	_ docdex.Asker        = (*Asker)(nil)
)

// Asker is a mock implementation of docdex.Asker.
type Asker struct {
	AskFn func(ctx context.Context, question string) (string, error)
}

func (a *Asker) Ask(ctx context.Context, question string) (string, error) {
	return a.AskFn(ctx, question)
}

// Reranker is a mock implementation of docdex.Reranker.
type Reranker struct {
	RerankFn func(ctx context.Context, query string, results []docdex.SearchResult) ([]docdex.SearchResult, error)
}

func (r *Reranker) Rerank(ctx context.Context, query string, results []docdex.SearchResult) ([]docdex.SearchResult, error) {
	return r.RerankFn(ctx, query, results)
}

// Generator is a mock implementation of docdex.Generator.
type Generator struct {
	GenerateFn func(ctx context.Context, question string, results []docdex.SearchResult) (string, error)
}

func (g *Generator) Generate(ctx context.Context, question string, results []docdex.SearchResult) (string, error) {
	return g.GenerateFn(ctx, question, results)
}

// Retriever is a mock implementation of docdex.Retriever.
type Retriever struct {
	RetrieveFn func(ctx context.Context, query string) ([]docdex.SearchResult, error)
}

func (r *Retriever) Retrieve(ctx context.Context, query string) ([]docdex.SearchResult, error) {
	return r.RetrieveFn(ctx, query)
}

// Chunker is a mock implementation of docdex.Chunker.
type Chunker struct {
	SplitFn func(doc *docdex.Document) []docdex.Chunk
}

func (c *Chunker) Split(doc *docdex.Document) []docdex.Chunk {
	return c.SplitFn(doc)
}

// Locker is a mock implementation of docdex.Locker.
type Locker struct {
	LockFn   func(ctx context.Context) error
	UnlockFn func() error
}

func (l *Locker) Lock(ctx context.Context) error {
	if l.LockFn != nil {
		return l.LockFn(ctx)
	}
	return nil
}

func (l *Locker) Unlock() error {
	if l.UnlockFn != nil {
		return l.UnlockFn()
	}
	return nil
}

// TokenCounter is a mock implementation of docdex.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (t *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return t.CountTokensFn(ctx, text)
}
