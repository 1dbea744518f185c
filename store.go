package docdex

import "context"

// MaxSearchResults is the upper bound on results a single search may return.
// Search requests asking for more are capped, not rejected.
const MaxSearchResults = 100

// SearchResult represents a single search match, ephemeral and produced
// per query. Score is a similarity in [0, 1], higher is better.
type SearchResult struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Score    float64           `json:"score"`
}

// SearchFilter restricts a search to records matching all set fields.
type SearchFilter struct {
	Source  string `json:"source,omitempty"`
	DocType string `json:"docType,omitempty"`
}

// CollectionStats summarizes the indexed collection. TotalChunks is exact;
// Sources is computed from a bounded sample and is an approximation for
// large collections.
type CollectionStats struct {
	TotalChunks int            `json:"totalChunks"`
	Sources     map[string]int `json:"sources"`
}

// Store provides durable, concurrency-safe storage and similarity search
// over indexed records.
type Store interface {
	// AddDocuments embeds and upserts texts with their metadata under the
	// given ids. Re-adding an existing id overwrites, never duplicates.
	// Inputs must have equal lengths. Malformed items are skipped per item;
	// the returned count reflects items actually added.
	AddDocuments(ctx context.Context, texts []string, metadatas []map[string]any, ids []string) (int, error)

	// Search returns up to k results ranked by descending similarity.
	// Read failures degrade to an empty result list.
	Search(ctx context.Context, query string, k int, filter *SearchFilter) ([]SearchResult, error)

	// Stats returns the exact total count and an approximate per-source breakdown.
	Stats(ctx context.Context) (*CollectionStats, error)

	// Reset removes every record in the collection.
	Reset(ctx context.Context) error
}

// Locker serializes mutations to a shared collection directory
// (single-writer invariant). Acquisition is bounded; failure to acquire
// within the bound is a reported error, not a silent no-op.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock() error
}
