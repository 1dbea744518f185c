package docdex

import "context"

// Retriever turns a user query into a ranked, deduplicated, diversified set
// of search results, layering recall and quality strategies atop the Store.
// Retrieval degrades rather than fails: exhausting every strategy yields an
// empty result set, not an error.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]SearchResult, error)
}
