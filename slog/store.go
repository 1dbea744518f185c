// Package slog provides logging decorators for core interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/akarwowski/docdex"
)

// Ensure LoggingStore implements docdex.Store.
var _ docdex.Store = (*LoggingStore)(nil)

// LoggingStore wraps a Store with operational logging.
type LoggingStore struct {
	next   docdex.Store
	logger *slog.Logger
}

// NewLoggingStore creates a new LoggingStore.
func NewLoggingStore(next docdex.Store, logger *slog.Logger) *LoggingStore {
	return &LoggingStore{next: next, logger: logger}
}

// AddDocuments delegates to the wrapped store and logs the operation.
func (s *LoggingStore) AddDocuments(ctx context.Context, texts []string, metadatas []map[string]any, ids []string) (added int, err error) {
	defer func(begin time.Time) {
		s.logger.Info("store add",
			"requested", len(texts),
			"added", added,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.AddDocuments(ctx, texts, metadatas, ids)
}

// Search delegates to the wrapped store and logs the operation.
func (s *LoggingStore) Search(ctx context.Context, query string, k int, filter *docdex.SearchFilter) (results []docdex.SearchResult, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("store search",
			"query", query,
			"k", k,
			"count", len(results),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Search(ctx, query, k, filter)
}

// Stats delegates to the wrapped store and logs the operation.
func (s *LoggingStore) Stats(ctx context.Context) (stats *docdex.CollectionStats, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("store stats",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Stats(ctx)
}

// Reset delegates to the wrapped store and logs the operation.
func (s *LoggingStore) Reset(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("store reset",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Reset(ctx)
}
