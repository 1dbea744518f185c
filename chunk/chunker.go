// Package chunk splits raw document text into bounded, semantically-aware
// units suitable for embedding and retrieval. Paragraph boundaries are
// preferred, then sentence boundaries, then hard character windows; fenced
// code blocks are kept atomic where possible.
package chunk

import (
	"log/slog"
	"strings"

	"github.com/akarwowski/docdex"
)

// Default chunking parameters.
const (
	DefaultChunkSize     = 1000
	DefaultOverlap       = 200
	DefaultMinContentLen = 50
)

// Ensure Chunker implements docdex.Chunker at compile time.
var _ docdex.Chunker = (*Chunker)(nil)

// Chunker splits documents into overlapping chunks of bounded length.
type Chunker struct {
	chunkSize     int
	overlap       int
	minContentLen int
	logger        *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the target chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// WithMinContentLen sets the minimum document length worth chunking.
func WithMinContentLen(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.minContentLen = n
		}
	}
}

// WithLogger sets the logger used for soft-failure warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize:     DefaultChunkSize,
		overlap:       DefaultOverlap,
		minContentLen: DefaultMinContentLen,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap leaves room for forward progress.
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// MaxChunkLen returns the hard upper bound on produced chunk length:
// chunk size plus overlap slack.
func (c *Chunker) MaxChunkLen() int {
	return c.chunkSize + c.overlap
}

// Split turns one document's raw text into an ordered list of chunks.
// Content shorter than the minimum threshold yields nil plus a logged
// warning, never an error.
func (c *Chunker) Split(doc *docdex.Document) []docdex.Chunk {
	content := normalizeWhitespace(doc.Content)
	if len(content) < c.minContentLen {
		c.logger.Warn("document too short to chunk",
			"source", doc.Source,
			"length", len(content),
			"min", c.minContentLen,
		)
		return nil
	}

	var pieces []piece
	if len(content) <= c.chunkSize {
		kind := docdex.ChunkTypeText
		if hasCodeFences(content) {
			kind = docdex.ChunkTypeMixed
		}
		pieces = []piece{{text: content, kind: kind}}
	} else {
		switch {
		case looksLikeAPIReference(content):
			pieces = c.splitSections(content)
		case hasCodeFences(content):
			pieces = c.splitWithCodeFences(content)
		default:
			pieces = c.splitProse(content)
		}
	}

	chunks := make([]docdex.Chunk, 0, len(pieces))
	for i, p := range pieces {
		chunks = append(chunks, docdex.Chunk{
			Content: p.text,
			Metadata: docdex.ChunkMetadata{
				Source:      doc.Source,
				Title:       doc.Title,
				URL:         doc.URL,
				DocType:     doc.DocType,
				ChunkIndex:  i,
				TotalChunks: len(pieces),
				ChunkType:   p.kind,
			},
		})
	}

	return chunks
}

// piece is an intermediate chunk before metadata assignment.
type piece struct {
	text string
	kind string // docdex.ChunkType*
}

// splitProse accumulates paragraphs until the chunk size would be exceeded,
// closing chunks at paragraph boundaries. Oversized paragraphs recurse into
// sentence-level splitting; oversized sentences fall back to hard windows.
func (c *Chunker) splitProse(content string) []piece {
	acc := c.newAccumulator()
	c.feedProse(acc, content)
	acc.drain()
	return acc.pieces
}

func (c *Chunker) feedProse(acc *accumulator, content string) {
	for _, para := range splitParagraphs(content) {
		if len(para) > c.chunkSize {
			c.feedSentences(acc, para)
			continue
		}
		acc.add(para, "\n\n", false)
	}
}

func (c *Chunker) feedSentences(acc *accumulator, para string) {
	for _, sent := range splitSentences(para) {
		if len(sent) > c.chunkSize {
			for _, window := range hardSplit(sent, c.chunkSize) {
				acc.add(window, " ", false)
			}
			continue
		}
		acc.add(sent, " ", false)
	}
}

// accumulator builds chunks from parts, carrying a sentence-aligned overlap
// seed from each closed chunk into the next.
type accumulator struct {
	chunkSize int
	overlap   int
	pieces    []piece
	cur       strings.Builder
	seedLen   int
	hasCode   bool
	hasText   bool
}

func (c *Chunker) newAccumulator() *accumulator {
	return &accumulator{chunkSize: c.chunkSize, overlap: c.overlap}
}

// add appends one part, flushing first when the part would overflow the
// chunk. A seed that leaves no room for the part is dropped rather than
// emitted as a chunk of its own.
func (a *accumulator) add(part, sep string, code bool) {
	if part == "" {
		return
	}

	if a.cur.Len() > a.seedLen && a.projected(part, sep) > a.chunkSize {
		a.flush()
	}
	if a.cur.Len() == a.seedLen && a.seedLen > 0 && a.projected(part, sep) > a.chunkSize {
		a.cur.Reset()
		a.seedLen = 0
	}

	if a.cur.Len() > 0 {
		a.cur.WriteString(sep)
	}
	a.cur.WriteString(part)
	if code {
		a.hasCode = true
	} else {
		a.hasText = true
	}
}

func (a *accumulator) projected(part, sep string) int {
	n := a.cur.Len() + len(part)
	if a.cur.Len() > 0 {
		n += len(sep)
	}
	return n
}

// flush closes the current chunk, emits it, and seeds the next chunk with
// the closed chunk's sentence-aligned tail.
func (a *accumulator) flush() {
	text := strings.TrimSpace(a.cur.String())
	hadContent := a.cur.Len() > a.seedLen
	a.cur.Reset()
	a.seedLen = 0

	if text == "" || !hadContent {
		a.hasCode, a.hasText = false, false
		return
	}

	a.pieces = append(a.pieces, piece{text: text, kind: a.kind()})
	a.hasCode, a.hasText = false, false

	if seed := overlapSeed(text, a.overlap); seed != "" {
		a.cur.WriteString(seed)
		a.seedLen = a.cur.Len()
	}
}

// drain emits any remaining content without seeding a successor.
func (a *accumulator) drain() {
	if a.cur.Len() > a.seedLen {
		a.flush()
	}
}

func (a *accumulator) kind() string {
	switch {
	case a.hasCode && a.hasText:
		return docdex.ChunkTypeMixed
	case a.hasCode:
		return docdex.ChunkTypeCode
	default:
		return docdex.ChunkTypeText
	}
}

// overlapSeed takes the last overlap characters of a chunk and trims forward
// to the nearest sentence boundary, so overlaps never start mid-sentence.
// Returns "" when no sentence boundary falls inside the tail.
func overlapSeed(prev string, overlap int) string {
	if overlap <= 0 || len(prev) <= overlap {
		return ""
	}

	tail := prev[len(prev)-overlap:]
	idx := sentenceStart(tail)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(tail[idx:])
}
