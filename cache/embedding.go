package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Embedding cache defaults.
const (
	DefaultEmbeddingMaxSize    = 10000
	DefaultEmbeddingFlushEvery = 100
	MinCacheableTextLen        = 5

	embeddingBlobFile = "embeddings.gob"
	embeddingMetaFile = "embeddings.meta.json"
)

// entryMeta records cache bookkeeping, persisted in the JSON sidecar.
type entryMeta struct {
	CreatedAt  time.Time `json:"created_at"`
	AccessedAt time.Time `json:"accessed_at"`
}

// EmbeddingCache is a content-addressed cache from (model, normalized text)
// to embedding vector. Capacity is bounded; overflow evicts the oldest ~10%
// of entries by last access in one batch. State is flushed to disk
// periodically and loaded eagerly at construction; corrupt or missing cache
// files degrade to an empty cache.
type EmbeddingCache struct {
	mu         sync.Mutex
	dir        string
	maxSize    int
	flushEvery int
	logger     *slog.Logger

	vectors map[string][]float32
	meta    map[string]entryMeta
	inserts int
}

// EmbeddingOption configures an EmbeddingCache.
type EmbeddingOption func(*EmbeddingCache)

// WithEmbeddingDir enables on-disk persistence under dir.
// Without a directory the cache is memory-only.
func WithEmbeddingDir(dir string) EmbeddingOption {
	return func(c *EmbeddingCache) { c.dir = dir }
}

// WithEmbeddingMaxSize bounds the number of cached vectors.
func WithEmbeddingMaxSize(n int) EmbeddingOption {
	return func(c *EmbeddingCache) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithEmbeddingFlushEvery sets how many insertions trigger a disk flush.
func WithEmbeddingFlushEvery(n int) EmbeddingOption {
	return func(c *EmbeddingCache) {
		if n > 0 {
			c.flushEvery = n
		}
	}
}

// WithEmbeddingLogger sets the logger.
func WithEmbeddingLogger(logger *slog.Logger) EmbeddingOption {
	return func(c *EmbeddingCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewEmbeddingCache creates an EmbeddingCache and eagerly loads any
// persisted state.
func NewEmbeddingCache(opts ...EmbeddingOption) *EmbeddingCache {
	c := &EmbeddingCache{
		maxSize:    DefaultEmbeddingMaxSize,
		flushEvery: DefaultEmbeddingFlushEvery,
		logger:     slog.Default(),
		vectors:    make(map[string][]float32),
		meta:       make(map[string]entryMeta),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.load()
	return c
}

// Key derives the cache key for a (model, text) pair. Normalization trims
// and lowercases for cache-key purposes only; the original text is still
// embedded verbatim elsewhere.
func Key(model, text string) string {
	sum := sha256.Sum256([]byte(model + ":" + normalizeText(text)))
	return hex.EncodeToString(sum[:])
}

func normalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Get returns the cached vector for (text, model), or nil.
func (c *EmbeddingCache) Get(text, model string) []float32 {
	if len(strings.TrimSpace(text)) < MinCacheableTextLen {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := Key(model, text)
	vec, ok := c.vectors[key]
	if !ok {
		return nil
	}

	m := c.meta[key]
	m.AccessedAt = time.Now().UTC()
	c.meta[key] = m

	return vec
}

// Set caches a vector for (text, model). Texts below the minimum length are
// never cached.
func (c *EmbeddingCache) Set(text string, vector []float32, model string) {
	if len(strings.TrimSpace(text)) < MinCacheableTextLen || len(vector) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(text, vector, model)
}

func (c *EmbeddingCache) set(text string, vector []float32, model string) {
	key := Key(model, text)
	if _, exists := c.vectors[key]; !exists && len(c.vectors) >= c.maxSize {
		c.evictBatch()
	}

	now := time.Now().UTC()
	if _, exists := c.vectors[key]; !exists {
		c.meta[key] = entryMeta{CreatedAt: now, AccessedAt: now}
		c.inserts++
	} else {
		m := c.meta[key]
		m.AccessedAt = now
		c.meta[key] = m
	}
	c.vectors[key] = vector

	if c.inserts >= c.flushEvery {
		c.flushLocked()
		c.inserts = 0
	}
}

// GetBatch returns one vector per text, nil for misses.
func (c *EmbeddingCache) GetBatch(texts []string, model string) [][]float32 {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = c.Get(text, model)
	}
	return vectors
}

// SetBatch caches vectors for texts pairwise. Length mismatches are ignored
// beyond the shorter slice.
func (c *EmbeddingCache) SetBatch(texts []string, vectors [][]float32, model string) {
	n := min(len(texts), len(vectors))

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := 0; i < n; i++ {
		if len(strings.TrimSpace(texts[i])) < MinCacheableTextLen || len(vectors[i]) == 0 {
			continue
		}
		c.set(texts[i], vectors[i], model)
	}
}

// Len returns the number of cached vectors.
func (c *EmbeddingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.vectors)
}

// evictBatch removes the oldest ~10% of entries by last access time in one
// pass, amortizing eviction cost. Always removes at least one entry.
func (c *EmbeddingCache) evictBatch() {
	n := c.maxSize / 10
	if n < 1 {
		n = 1
	}

	type aged struct {
		key string
		at  time.Time
	}
	entries := make([]aged, 0, len(c.meta))
	for key, m := range c.meta {
		entries = append(entries, aged{key: key, at: m.AccessedAt})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })

	if n > len(entries) {
		n = len(entries)
	}
	for _, e := range entries[:n] {
		delete(c.vectors, e.key)
		delete(c.meta, e.key)
	}
}

// Flush persists the cache and its access metadata to disk.
func (c *EmbeddingCache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flush()
}

func (c *EmbeddingCache) flush() error {
	if c.dir == "" {
		return nil
	}
	if err := saveGob(filepath.Join(c.dir, embeddingBlobFile), c.vectors); err != nil {
		return err
	}
	return saveJSON(filepath.Join(c.dir, embeddingMetaFile), c.meta)
}

func (c *EmbeddingCache) flushLocked() {
	if err := c.flush(); err != nil {
		c.logger.Warn("embedding cache flush failed", "error", err)
	}
}

// load restores persisted state. Any corrupt or missing file degrades to an
// empty cache, never a failure.
func (c *EmbeddingCache) load() {
	if c.dir == "" {
		return
	}

	vectors := make(map[string][]float32)
	if err := loadGob(filepath.Join(c.dir, embeddingBlobFile), &vectors); err != nil {
		return
	}

	meta := make(map[string]entryMeta)
	if err := loadJSON(filepath.Join(c.dir, embeddingMetaFile), &meta); err != nil {
		// Blob without sidecar: synthesize metadata so eviction stays sane.
		now := time.Now().UTC()
		meta = make(map[string]entryMeta, len(vectors))
		for key := range vectors {
			meta[key] = entryMeta{CreatedAt: now, AccessedAt: now}
		}
	}

	c.vectors = vectors
	c.meta = meta
	c.logger.Debug("embedding cache loaded", "entries", len(vectors))
}
