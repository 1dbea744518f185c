package mock

import (
	"context"

	"github.com/akarwowski/docdex"
)

var _ docdex.Store = (*Store)(nil)

// Store is a mock implementation of docdex.Store.
type Store struct {
	AddDocumentsFn func(ctx context.Context, texts []string, metadatas []map[string]any, ids []string) (int, error)
	SearchFn       func(ctx context.Context, query string, k int, filter *docdex.SearchFilter) ([]docdex.SearchResult, error)
	StatsFn        func(ctx context.Context) (*docdex.CollectionStats, error)
	ResetFn        func(ctx context.Context) error
}

func (s *Store) AddDocuments(ctx context.Context, texts []string, metadatas []map[string]any, ids []string) (int, error) {
	return s.AddDocumentsFn(ctx, texts, metadatas, ids)
}

func (s *Store) Search(ctx context.Context, query string, k int, filter *docdex.SearchFilter) ([]docdex.SearchResult, error) {
	return s.SearchFn(ctx, query, k, filter)
}

func (s *Store) Stats(ctx context.Context) (*docdex.CollectionStats, error) {
	return s.StatsFn(ctx)
}

func (s *Store) Reset(ctx context.Context) error {
	return s.ResetFn(ctx)
}
