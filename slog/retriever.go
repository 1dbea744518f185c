package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/akarwowski/docdex"
)

// Ensure LoggingRetriever implements docdex.Retriever.
var _ docdex.Retriever = (*LoggingRetriever)(nil)

// LoggingRetriever wraps a Retriever with debug logging.
type LoggingRetriever struct {
	next   docdex.Retriever
	logger *slog.Logger
}

// NewLoggingRetriever creates a new LoggingRetriever.
func NewLoggingRetriever(next docdex.Retriever, logger *slog.Logger) *LoggingRetriever {
	return &LoggingRetriever{next: next, logger: logger}
}

// Retrieve delegates to the wrapped retriever and logs the operation.
func (r *LoggingRetriever) Retrieve(ctx context.Context, query string) (results []docdex.SearchResult, err error) {
	defer func(begin time.Time) {
		r.logger.Debug("retrieve",
			"query", query,
			"count", len(results),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.Retrieve(ctx, query)
}
