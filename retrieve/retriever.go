// Package retrieve turns user queries into ranked, deduplicated,
// diversified search results, layering recall and quality strategies
// on top of a docdex.Store.
package retrieve

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/akarwowski/docdex"
	"github.com/akarwowski/docdex/cache"
)

// Retriever tuning defaults.
const (
	DefaultMaxK            = 10
	DefaultMinScore        = 0.3
	DefaultDiversityWeight = 0.7
	DefaultCacheSize       = 128
)

// Ensure Retriever implements docdex.Retriever at compile time.
var _ docdex.Retriever = (*Retriever)(nil)

type resultKey struct {
	query string
	k     int
}

// Retriever implements docdex.Retriever over a vector store. Retrieval
// tries a fallback chain of strategies and applies best-effort quality
// passes (type-aware reordering, reranking) to whatever the chain yields.
type Retriever struct {
	store           docdex.Store
	reranker        docdex.Reranker
	logger          *slog.Logger
	maxK            int
	minScore        float64
	diversityWeight float64
	results         *cache.LRU[resultKey, []docdex.SearchResult]
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithReranker sets a secondary relevance model. Reranking is best
// effort; a failing reranker leaves the prior ordering intact.
func WithReranker(reranker docdex.Reranker) Option {
	return func(r *Retriever) { r.reranker = reranker }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMaxK caps the dynamic result count.
func WithMaxK(maxK int) Option {
	return func(r *Retriever) {
		if maxK > 0 {
			r.maxK = maxK
		}
	}
}

// WithMinScore sets the threshold for the second fallback stage.
func WithMinScore(minScore float64) Option {
	return func(r *Retriever) { r.minScore = minScore }
}

// WithDiversityWeight sets the MMR relevance/redundancy balance in (0, 1].
func WithDiversityWeight(weight float64) Option {
	return func(r *Retriever) {
		if weight > 0 && weight <= 1 {
			r.diversityWeight = weight
		}
	}
}

// WithCacheSize bounds the in-process result cache.
func WithCacheSize(size int) Option {
	return func(r *Retriever) {
		r.results = cache.NewLRU[resultKey, []docdex.SearchResult](size)
	}
}

// New creates a Retriever over the store.
func New(store docdex.Store, opts ...Option) *Retriever {
	r := &Retriever{
		store:           store,
		logger:          slog.Default(),
		maxK:            DefaultMaxK,
		minScore:        DefaultMinScore,
		diversityWeight: DefaultDiversityWeight,
		results:         cache.NewLRU[resultKey, []docdex.SearchResult](DefaultCacheSize),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve runs the full retrieval pipeline for query. It never returns
// an error for an empty result set; an exhausted fallback chain yields
// an empty slice.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]docdex.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []docdex.SearchResult{}, nil
	}

	k := r.dynamicK(query)

	key := resultKey{query: query, k: k}
	if cached, ok := r.results.Get(key); ok {
		return copyResults(cached), nil
	}

	expanded := expandQuery(query)
	if expanded != query {
		r.logger.Debug("query expanded", "query", query, "expanded", expanded)
	}

	results := r.fetch(ctx, expanded, k)
	results = partitionByIntent(query, results)
	results = r.rerank(ctx, query, results)

	r.results.Put(key, copyResults(results))

	return results, nil
}

// copyResults clones a result slice so callers and the cache never share
// backing storage. Callers are free to reorder what they receive.
func copyResults(results []docdex.SearchResult) []docdex.SearchResult {
	out := make([]docdex.SearchResult, len(results))
	copy(out, results)
	return out
}

// fetch runs the fallback chain: MMR, then min-score filtering, then
// plain top-k. The first stage to produce results wins.
func (r *Retriever) fetch(ctx context.Context, query string, k int) []docdex.SearchResult {
	if results := r.mmrSearch(ctx, query, k); len(results) > 0 {
		return results
	}
	if results := r.thresholdSearch(ctx, query, k); len(results) > 0 {
		return results
	}

	results, err := r.store.Search(ctx, query, k, nil)
	if err != nil || len(results) == 0 {
		return []docdex.SearchResult{}
	}
	return results
}

// mmrSearch fetches 2k candidates and greedily selects k, trading
// relevance against redundancy with already-selected results.
func (r *Retriever) mmrSearch(ctx context.Context, query string, k int) []docdex.SearchResult {
	candidates, err := r.store.Search(ctx, query, 2*k, nil)
	if err != nil {
		r.logger.Warn("mmr candidate search failed", "error", err)
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) <= k {
		return candidates
	}

	tokens := make([]map[string]struct{}, len(candidates))
	for i, c := range candidates {
		tokens[i] = tokenSet(c.Content)
	}

	selected := make([]docdex.SearchResult, 0, k)
	selectedTokens := make([]map[string]struct{}, 0, k)
	remaining := make([]int, len(candidates))
	for i := range remaining {
		remaining[i] = i
	}

	for len(selected) < k && len(remaining) > 0 {
		bestPos, bestScore := -1, 0.0
		for pos, idx := range remaining {
			redundancy := 0.0
			for _, sel := range selectedTokens {
				if sim := jaccard(tokens[idx], sel); sim > redundancy {
					redundancy = sim
				}
			}
			score := r.diversityWeight*candidates[idx].Score - (1-r.diversityWeight)*redundancy
			if bestPos == -1 || score > bestScore {
				bestPos, bestScore = pos, score
			}
		}
		idx := remaining[bestPos]
		selected = append(selected, candidates[idx])
		selectedTokens = append(selectedTokens, tokens[idx])
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}

	return selected
}

// thresholdSearch keeps only results at or above the minimum score.
func (r *Retriever) thresholdSearch(ctx context.Context, query string, k int) []docdex.SearchResult {
	results, err := r.store.Search(ctx, query, k, nil)
	if err != nil {
		r.logger.Warn("threshold search failed", "error", err)
		return nil
	}

	kept := results[:0]
	for _, res := range results {
		if res.Score >= r.minScore {
			kept = append(kept, res)
		}
	}
	return kept
}

// rerank applies the secondary relevance model when one is configured.
func (r *Retriever) rerank(ctx context.Context, query string, results []docdex.SearchResult) []docdex.SearchResult {
	if r.reranker == nil || len(results) < 2 {
		return results
	}
	reranked, err := r.reranker.Rerank(ctx, query, results)
	if err != nil {
		r.logger.Warn("reranking failed, keeping prior order", "error", err)
		return results
	}
	if len(reranked) != len(results) {
		r.logger.Warn("reranker changed result count, keeping prior order",
			"before", len(results), "after", len(reranked))
		return results
	}
	return reranked
}

// dynamicK derives the result count from query length. Longer queries
// are more specific and need fewer documents.
func (r *Retriever) dynamicK(query string) int {
	k := 8
	switch words := len(strings.Fields(query)); {
	case words >= 10:
		k = 3
	case words >= 6:
		k = 5
	}
	if k > r.maxK {
		k = r.maxK
	}
	return k
}

// Intent keyword groups mapping to preferred doc types.
var intentPreferences = []struct {
	keywords []string
	docTypes []string
}{
	{
		keywords: []string{"example", "examples", "tutorial", "how", "guide"},
		docTypes: []string{docdex.DocTypeDocumentation, docdex.DocTypeAPI},
	},
	{
		keywords: []string{"function", "class", "method", "code", "implementation"},
		docTypes: []string{docdex.DocTypeCode, docdex.DocTypeAPI},
	},
}

// partitionByIntent moves results whose doc_type matches the query's
// intent to the front. The partition is stable: relative order within
// each group is preserved, and nothing is filtered out.
func partitionByIntent(query string, results []docdex.SearchResult) []docdex.SearchResult {
	if len(results) < 2 {
		return results
	}

	preferred := preferredDocTypes(query)
	if len(preferred) == 0 {
		return results
	}

	sort.SliceStable(results, func(i, j int) bool {
		return preferred[results[i].Metadata["doc_type"]] && !preferred[results[j].Metadata["doc_type"]]
	})
	return results
}

func preferredDocTypes(query string) map[string]bool {
	words := tokenSet(query)
	for _, pref := range intentPreferences {
		for _, kw := range pref.keywords {
			if _, ok := words[kw]; ok {
				types := make(map[string]bool, len(pref.docTypes))
				for _, dt := range pref.docTypes {
					types[dt] = true
				}
				return types
			}
		}
	}
	return nil
}

// tokenSet lowercases and splits text into a set of word tokens.
func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(text)) {
		set[strings.Trim(word, ".,;:!?()[]{}\"'`")] = struct{}{}
	}
	return set
}

// jaccard computes token-set Jaccard similarity, the redundancy measure
// used by MMR selection.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
