package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/akarwowski/docdex"
)

// Store tuning defaults.
const (
	// MaxTextLen is the per-item size guard; larger texts are skipped.
	MaxTextLen = 100_000

	// statsSampleSize bounds the records examined for the per-source
	// breakdown, making it an approximation for large collections.
	statsSampleSize = 1000

	// minQueryWords is the threshold below which queries are padded with
	// filler terms, compensating for short-query degradation in the
	// similarity metric.
	minQueryWords = 3
)

// queryFiller supplies generic terms appended to short queries.
var queryFiller = []string{"documentation", "reference", "guide"}

// Connection states for the store's backing database.
const (
	stateUninitialized int32 = iota
	stateConnected
	stateReconnecting
	stateFailed
)

// Ensure Store implements docdex.Store at compile time.
var _ docdex.Store = (*Store)(nil)

// Store is the SQLite-backed vector store. Mutations acquire a
// directory-scoped advisory lock (single-writer invariant); reads do not.
type Store struct {
	db       *DB
	embedder docdex.Embedder
	locker   docdex.Locker
	logger   *slog.Logger
	retry    docdex.RetryPolicy
	state    atomic.Int32
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRetryPolicy overrides the retry policy applied to batch upserts.
func WithRetryPolicy(policy docdex.RetryPolicy) Option {
	return func(s *Store) { s.retry = policy }
}

// NewStore creates a Store over an opened DB. The embedder is the store's
// embedding hook (normally the cache-wrapping decorator); the locker guards
// the collection directory against concurrent writers.
func NewStore(db *DB, embedder docdex.Embedder, locker docdex.Locker, opts ...Option) *Store {
	s := &Store{
		db:       db,
		embedder: embedder,
		locker:   locker,
		logger:   slog.Default(),
		retry:    docdex.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Store(stateConnected)
	return s
}

// AddDocuments embeds and upserts texts under their ids. Inputs must have
// equal lengths. Items are sanitized first; malformed items are skipped per
// item with a warning, never aborting the whole batch. Returns the number
// of items actually added.
func (s *Store) AddDocuments(ctx context.Context, texts []string, metadatas []map[string]any, ids []string) (int, error) {
	if len(texts) != len(metadatas) || len(texts) != len(ids) {
		return 0, docdex.Errorf(docdex.EINVALID,
			"mismatched input lengths: %d texts, %d metadatas, %d ids",
			len(texts), len(metadatas), len(ids))
	}
	if len(texts) == 0 {
		return 0, nil
	}

	items := s.sanitizeItems(texts, metadatas, ids)
	if len(items) == 0 {
		return 0, nil
	}

	if err := s.locker.Lock(ctx); err != nil {
		return 0, err
	}
	defer func() {
		if err := s.locker.Unlock(); err != nil {
			s.logger.Warn("collection unlock failed", "error", err)
		}
	}()

	batchSize := adaptiveBatchSize(items)
	var added int

	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		n, err := s.addBatch(ctx, batch)
		if err != nil {
			// Quota exhaustion is fatal: retrying cannot help, and
			// continuing would burn the remaining budget.
			if docdex.ErrorCode(err) == docdex.EQUOTA {
				return added, err
			}
			s.logger.Warn("batch skipped after exhausting retries",
				"batch_start", start,
				"batch_size", len(batch),
				"error", err,
			)
			continue
		}
		added += n
	}

	s.logger.Info("documents added",
		"requested", len(texts),
		"added", added,
		"skipped", len(texts)-added,
	)

	return added, nil
}

// record is a sanitized item ready for embedding and upsert.
type record struct {
	id       string
	text     string
	source   string
	docType  string
	metadata map[string]string
}

func (s *Store) sanitizeItems(texts []string, metadatas []map[string]any, ids []string) []record {
	items := make([]record, 0, len(texts))
	for i := range texts {
		text := sanitizeText(texts[i])
		id := strings.TrimSpace(ids[i])

		if id == "" {
			id = uuid.New().String()
		}

		switch {
		case text == "":
			s.logger.Warn("skipping item with empty text", "id", id)
			continue
		case len(text) > MaxTextLen:
			s.logger.Warn("skipping oversized item", "id", id, "length", len(text))
			continue
		}

		meta := sanitizeMetadata(metadatas[i])
		items = append(items, record{
			id:       id,
			text:     text,
			source:   meta["source"],
			docType:  meta["doc_type"],
			metadata: meta,
		})
	}
	return items
}

// addBatch embeds one batch and upserts it under the retry policy.
func (s *Store) addBatch(ctx context.Context, batch []record) (int, error) {
	texts := make([]string, len(batch))
	for i, item := range batch {
		texts[i] = item.text
	}

	var vectors [][]float32
	err := docdex.Retry(ctx, s.retry, func() error {
		var embedErr error
		vectors, embedErr = s.embedder.EmbedBatch(ctx, texts)
		return embedErr
	})
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(batch) {
		return 0, docdex.Errorf(docdex.EINTERNAL,
			"embedder returned %d vectors for %d texts", len(vectors), len(batch))
	}

	err = docdex.Retry(ctx, s.retry, func() error {
		return s.withReconnect(ctx, func() error {
			return s.upsertBatch(ctx, batch, vectors)
		})
	})
	if err != nil {
		return 0, err
	}

	return len(batch), nil
}

// upsertBatch writes one batch in a single transaction. Upsert rather than
// plain insert keeps retried partial writes idempotent.
func (s *Store) upsertBatch(ctx context.Context, batch []record, vectors [][]float32) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (id, content, source, doc_type, metadata, vector, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			source = excluded.source,
			doc_type = excluded.doc_type,
			metadata = excluded.metadata,
			vector = excluded.vector,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for i, item := range batch {
		metaJSON, err := json.Marshal(item.metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, item.id, item.text, item.source, item.docType,
			string(metaJSON), encodeVector(vectors[i]), now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Search returns up to k results ranked by descending similarity, where
// similarity is cosine similarity in [0, 1]. Internal failures degrade to
// an empty result list rather than an error: downstream logic treats "no
// context found" as a first-class case. Reads do not take the write lock.
func (s *Store) Search(ctx context.Context, query string, k int, filter *docdex.SearchFilter) ([]docdex.SearchResult, error) {
	if k <= 0 {
		return []docdex.SearchResult{}, nil
	}
	if k > docdex.MaxSearchResults {
		k = docdex.MaxSearchResults
	}

	query = padQuery(query)

	var queryVec []float32
	err := docdex.Retry(ctx, s.retry, func() error {
		var embedErr error
		queryVec, embedErr = s.embedder.Embed(ctx, query)
		return embedErr
	})
	if err != nil {
		s.logger.Warn("query embedding failed", "error", err)
		return []docdex.SearchResult{}, nil
	}

	results, err := s.scanSimilar(ctx, queryVec, k, filter)
	if err != nil {
		s.logger.Warn("similarity scan failed", "error", err)
		return []docdex.SearchResult{}, nil
	}
	return results, nil
}

func (s *Store) scanSimilar(ctx context.Context, queryVec []float32, k int, filter *docdex.SearchFilter) ([]docdex.SearchResult, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT content, metadata, vector FROM records WHERE 1=1")
	if filter != nil {
		if filter.Source != "" {
			query.WriteString(" AND source = ?")
			args = append(args, filter.Source)
		}
		if filter.DocType != "" {
			query.WriteString(" AND doc_type = ?")
			args = append(args, filter.DocType)
		}
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []docdex.SearchResult
	for rows.Next() {
		var content, metaJSON string
		var blob []byte
		if err := rows.Scan(&content, &metaJSON, &blob); err != nil {
			return nil, err
		}

		meta := make(map[string]string)
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			meta = map[string]string{}
		}

		results = append(results, docdex.SearchResult{
			Content:  content,
			Metadata: meta,
			Score:    cosineSimilarity(queryVec, decodeVector(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	if results == nil {
		results = []docdex.SearchResult{}
	}
	return results, nil
}

// Stats returns the exact record count and a per-source breakdown computed
// from a bounded sample. The breakdown is an approximation for collections
// larger than the sample.
func (s *Store) Stats(ctx context.Context) (*docdex.CollectionStats, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&total); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT source FROM records LIMIT ?", statsSampleSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := make(map[string]int)
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, err
		}
		sources[source]++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &docdex.CollectionStats{TotalChunks: total, Sources: sources}, nil
}

// Reset removes every record in the collection.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.locker.Lock(ctx); err != nil {
		return err
	}
	defer func() {
		if err := s.locker.Unlock(); err != nil {
			s.logger.Warn("collection unlock failed", "error", err)
		}
	}()

	_, err := s.db.ExecContext(ctx, "DELETE FROM records")
	return err
}

// withReconnect runs fn, attempting one reconnect cycle on failure before
// reporting. The store moves Connected -> Reconnecting -> Connected on a
// successful cycle, or to Failed when the database stays unreachable.
func (s *Store) withReconnect(ctx context.Context, fn func() error) error {
	if s.state.Load() == stateFailed {
		return docdex.Errorf(docdex.EINTERNAL, "store connection is in a failed state")
	}

	err := fn()
	if err == nil {
		return nil
	}
	if !docdex.Retryable(err) {
		return err
	}

	s.state.Store(stateReconnecting)
	s.logger.Warn("store error, attempting reconnect", "error", err)

	if pingErr := s.db.Ping(ctx); pingErr != nil {
		s.state.Store(stateFailed)
		return docdex.Errorf(docdex.EINTERNAL, "store unreachable: %v", pingErr)
	}
	s.state.Store(stateConnected)

	return err
}

// adaptiveBatchSize derives the upsert batch size from average text length:
// shorter texts allow larger batches, bounding memory and request size.
func adaptiveBatchSize(items []record) int {
	var total int
	for _, item := range items {
		total += len(item.text)
	}
	avg := total / len(items)

	switch {
	case avg <= 500:
		return 200
	case avg <= 2000:
		return 100
	case avg <= 5000:
		return 50
	default:
		return 25
	}
}

// sanitizeText strips null bytes and coerces invalid UTF-8. This is a
// deliberate lossy normalization, not an error path.
func sanitizeText(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ToValidUTF8(s, "")
	return strings.TrimSpace(s)
}

// sanitizeMetadata flattens metadata values to strings; nil values become
// empty strings.
func sanitizeMetadata(meta map[string]any) map[string]string {
	out := make(map[string]string, len(meta))
	for key, val := range meta {
		if val == nil {
			out[key] = ""
			continue
		}
		switch v := val.(type) {
		case string:
			out[key] = sanitizeText(v)
		default:
			out[key] = fmt.Sprintf("%v", v)
		}
	}
	return out
}

// padQuery appends generic filler terms to queries under three words,
// which otherwise degrade badly in the similarity metric.
func padQuery(query string) string {
	words := strings.Fields(query)
	if len(words) >= minQueryWords {
		return query
	}
	for _, filler := range queryFiller {
		if len(words) >= minQueryWords {
			break
		}
		words = append(words, filler)
	}
	return strings.Join(words, " ")
}
