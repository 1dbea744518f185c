// Package ingest turns raw documents into indexed chunks. Chunking of
// independent documents runs in a bounded worker pool; store writes are
// serialized through a single collector so the store's write lock is
// taken once per document, in submission order.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/akarwowski/docdex"
	"github.com/akarwowski/docdex/bloom"
)

// Pipeline defaults.
const (
	DefaultConcurrency = 4

	// Bloom filter sizing for content dedup.
	dedupExpectedDocs      = 10000
	dedupFalsePositiveRate = 0.01
)

// Result reports the outcome of one ingestion run. Failures are per
// document; a run only errors as a whole on quota exhaustion or
// cancellation.
type Result struct {
	Documents int // documents chunked and written
	Skipped   int // documents skipped as duplicates
	Failed    int // documents that failed validation or writing
	Chunks    int // chunks written to the store
}

// Pipeline ingests documents into a store.
type Pipeline struct {
	chunker     docdex.Chunker
	store       docdex.Store
	converter   docdex.Converter
	logger      *slog.Logger
	concurrency int
	seen        *bloom.Filter
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConverter enables HTML-to-Markdown normalization for documents
// typed as HTML.
func WithConverter(converter docdex.Converter) Option {
	return func(p *Pipeline) { p.converter = converter }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithConcurrency bounds the chunking worker pool.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// New creates a Pipeline over the chunker and store.
func New(chunker docdex.Chunker, store docdex.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		chunker:     chunker,
		store:       store,
		logger:      slog.Default(),
		concurrency: DefaultConcurrency,
		seen:        bloom.NewFilter(dedupExpectedDocs, dedupFalsePositiveRate),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// chunked is one document's chunking output, carried from the worker
// pool to the serialized writer.
type chunked struct {
	position  int
	doc       *docdex.Document
	texts     []string
	metadatas []map[string]any
	ids       []string
	err       error
}

// Run ingests docs. Individual document failures are logged and counted,
// not fatal; quota exhaustion from the store aborts the run.
func (p *Pipeline) Run(ctx context.Context, docs []*docdex.Document) (*Result, error) {
	result := &Result{}
	if len(docs) == 0 {
		return result, nil
	}

	pending := make([]*docdex.Document, 0, len(docs))
	for _, doc := range docs {
		if err := doc.Validate(); err != nil {
			p.logger.Warn("skipping invalid document", "source", doc.Source, "error", err)
			result.Failed++
			continue
		}
		fingerprint := fmt.Sprintf("%016x", xxhash.Sum64String(doc.Content))
		if p.seen.Test(fingerprint) {
			p.logger.Debug("skipping duplicate content", "source", doc.Source, "url", doc.URL)
			result.Skipped++
			continue
		}
		p.seen.Add(fingerprint)
		pending = append(pending, doc)
	}
	if len(pending) == 0 {
		return result, nil
	}

	ch := make(chan chunked, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	go func() {
		for i, doc := range pending {
			i, doc := i, doc
			g.Go(func() error {
				ch <- p.chunk(doc, i)
				return nil
			})
		}
		_ = g.Wait()
		close(ch)
	}()

	// Collect into submission order so writes are deterministic.
	ordered := make([]chunked, len(pending))
	for c := range ch {
		ordered[c.position] = c
	}
	if err := gctx.Err(); err != nil {
		return result, err
	}

	for _, c := range ordered {
		if c.err != nil {
			p.logger.Warn("chunking failed", "source", c.doc.Source, "error", c.err)
			result.Failed++
			continue
		}
		if len(c.texts) == 0 {
			p.logger.Warn("document produced no chunks", "source", c.doc.Source)
			result.Failed++
			continue
		}

		added, err := p.store.AddDocuments(ctx, c.texts, c.metadatas, c.ids)
		if err != nil {
			if docdex.ErrorCode(err) == docdex.EQUOTA {
				result.Failed++
				return result, err
			}
			p.logger.Warn("store write failed", "source", c.doc.Source, "error", err)
			result.Failed++
			continue
		}

		result.Documents++
		result.Chunks += added
	}

	p.logger.Info("ingestion finished",
		"documents", result.Documents,
		"chunks", result.Chunks,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)

	return result, nil
}

// chunk normalizes and splits one document.
func (p *Pipeline) chunk(doc *docdex.Document, position int) chunked {
	out := chunked{position: position, doc: doc}

	if doc.DocType == docdex.DocTypeHTML && p.converter != nil {
		markdown, err := p.converter.Convert(doc.Content)
		if err != nil {
			out.err = err
			return out
		}
		normalized := *doc
		normalized.Content = markdown
		normalized.DocType = docdex.DocTypeDocumentation
		doc = &normalized
	}

	chunks := p.chunker.Split(doc)
	if len(chunks) == 0 {
		return out
	}

	prefix := chunkIDPrefix(doc)
	out.texts = make([]string, len(chunks))
	out.metadatas = make([]map[string]any, len(chunks))
	out.ids = make([]string, len(chunks))
	for i, c := range chunks {
		out.texts[i] = c.Content
		out.metadatas[i] = c.Metadata.Map()
		out.ids[i] = fmt.Sprintf("%s-%04d", prefix, i)
	}
	return out
}

// chunkIDPrefix derives a stable id prefix from the document identity so
// re-ingesting the same document upserts its chunks instead of
// duplicating them. When a revision shrinks to fewer chunks, records at
// the dropped higher indexes remain until the collection is reset.
func chunkIDPrefix(doc *docdex.Document) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(doc.Source+"|"+doc.URL))
}
