package cache

import (
	"container/list"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/akarwowski/docdex"
)

// Response cache defaults.
const (
	DefaultResponseMaxSize    = 500
	DefaultResponseFlushEvery = 20
	MinCacheableAnswerLen     = 10

	responseBlobFile = "responses.gob"
	responseMetaFile = "responses.meta.json"

	// The fingerprint covers the top results actually fed to the
	// generator, so a changed knowledge base is a cache miss.
	fingerprintResults = 3
)

// responseEntry is a cached answer with its LRU bookkeeping.
type responseEntry struct {
	key        string
	answer     string
	createdAt  time.Time
	accessedAt time.Time
	elem       *list.Element
}

// persistedResponse is the gob-serialized form of a cache entry.
type persistedResponse struct {
	Answer string
}

// ResponseCache caches final generated answers keyed by the normalized query
// plus a fingerprint of the top retrieved passages. Overflow evicts the
// single least-recently-accessed entry; unlike the embedding cache's batch
// eviction this is entry-at-a-time, which suits its smaller expected size.
// Entries have no time-based expiry, only capacity-based eviction.
type ResponseCache struct {
	mu         sync.Mutex
	dir        string
	maxSize    int
	flushEvery int
	logger     *slog.Logger

	entries map[string]*responseEntry
	order   *list.List // front = most recently accessed
	sets    int
}

// ResponseOption configures a ResponseCache.
type ResponseOption func(*ResponseCache)

// WithResponseDir enables on-disk persistence under dir.
func WithResponseDir(dir string) ResponseOption {
	return func(c *ResponseCache) { c.dir = dir }
}

// WithResponseMaxSize bounds the number of cached answers.
func WithResponseMaxSize(n int) ResponseOption {
	return func(c *ResponseCache) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithResponseFlushEvery sets how many stores trigger a disk flush.
func WithResponseFlushEvery(n int) ResponseOption {
	return func(c *ResponseCache) {
		if n > 0 {
			c.flushEvery = n
		}
	}
}

// WithResponseLogger sets the logger.
func WithResponseLogger(logger *slog.Logger) ResponseOption {
	return func(c *ResponseCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewResponseCache creates a ResponseCache and eagerly loads any persisted
// state; a corrupt or missing cache file degrades to an empty cache.
func NewResponseCache(opts ...ResponseOption) *ResponseCache {
	c := &ResponseCache{
		maxSize:    DefaultResponseMaxSize,
		flushEvery: DefaultResponseFlushEvery,
		logger:     slog.Default(),
		entries:    make(map[string]*responseEntry),
		order:      list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.load()
	return c
}

// ResponseKey derives the cache key for a question asked against a
// particular retrieval outcome.
func ResponseKey(query string, results []docdex.SearchResult) string {
	fp := xxhash.New()
	for i, res := range results {
		if i >= fingerprintResults {
			break
		}
		_, _ = fp.WriteString(res.Content)
		_, _ = fp.WriteString("\x00")
	}

	h := xxhash.New()
	_, _ = h.WriteString(strings.ToLower(strings.TrimSpace(query)))
	_, _ = h.WriteString("|")
	fmt.Fprintf(h, "%016x", fp.Sum64())

	return fmt.Sprintf("%016x", h.Sum64())
}

// Get returns the cached answer for (query, results), if any.
func (c *ResponseCache) Get(query string, results []docdex.SearchResult) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[ResponseKey(query, results)]
	if !ok {
		return "", false
	}

	entry.accessedAt = time.Now().UTC()
	c.order.MoveToFront(entry.elem)

	return entry.answer, true
}

// Set caches an answer for (query, results). Answers below the minimum
// length are never stored.
func (c *ResponseCache) Set(query string, results []docdex.SearchResult, answer string) {
	if len(answer) < MinCacheableAnswerLen {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := ResponseKey(query, results)
	now := time.Now().UTC()

	if entry, ok := c.entries[key]; ok {
		entry.answer = answer
		entry.accessedAt = now
		c.order.MoveToFront(entry.elem)
	} else {
		if len(c.entries) >= c.maxSize {
			c.evictOldest()
		}
		entry := &responseEntry{key: key, answer: answer, createdAt: now, accessedAt: now}
		entry.elem = c.order.PushFront(entry)
		c.entries[key] = entry
	}

	c.sets++
	if c.sets >= c.flushEvery {
		if err := c.flush(); err != nil {
			c.logger.Warn("response cache flush failed", "error", err)
		}
		c.sets = 0
	}
}

// Len returns the number of cached answers.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOldest removes the single least-recently-accessed entry.
func (c *ResponseCache) evictOldest() {
	back := c.order.Back()
	if back == nil {
		return
	}
	entry := back.Value.(*responseEntry)
	c.order.Remove(back)
	delete(c.entries, entry.key)
}

// Flush persists the cache to disk.
func (c *ResponseCache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flush()
}

func (c *ResponseCache) flush() error {
	if c.dir == "" {
		return nil
	}

	blob := make(map[string]persistedResponse, len(c.entries))
	meta := make(map[string]entryMeta, len(c.entries))
	for key, entry := range c.entries {
		blob[key] = persistedResponse{Answer: entry.answer}
		meta[key] = entryMeta{CreatedAt: entry.createdAt, AccessedAt: entry.accessedAt}
	}

	if err := saveGob(filepath.Join(c.dir, responseBlobFile), blob); err != nil {
		return err
	}
	return saveJSON(filepath.Join(c.dir, responseMetaFile), meta)
}

func (c *ResponseCache) load() {
	if c.dir == "" {
		return
	}

	blob := make(map[string]persistedResponse)
	if err := loadGob(filepath.Join(c.dir, responseBlobFile), &blob); err != nil {
		return
	}

	meta := make(map[string]entryMeta)
	if err := loadJSON(filepath.Join(c.dir, responseMetaFile), &meta); err != nil {
		meta = map[string]entryMeta{}
	}

	// Rebuild LRU order oldest-first so PushFront yields newest at front.
	type aged struct {
		key string
		at  time.Time
	}
	ordered := make([]aged, 0, len(blob))
	now := time.Now().UTC()
	for key := range blob {
		at := now
		if m, ok := meta[key]; ok {
			at = m.AccessedAt
		}
		ordered = append(ordered, aged{key: key, at: at})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].at.Before(ordered[j].at) })

	for _, a := range ordered {
		m, ok := meta[a.key]
		if !ok {
			m = entryMeta{CreatedAt: now, AccessedAt: now}
		}
		entry := &responseEntry{
			key:        a.key,
			answer:     blob[a.key].Answer,
			createdAt:  m.CreatedAt,
			accessedAt: m.AccessedAt,
		}
		entry.elem = c.order.PushFront(entry)
		c.entries[a.key] = entry
	}

	c.logger.Debug("response cache loaded", "entries", len(c.entries))
}
