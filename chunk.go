package docdex

// Chunk content classifications recorded in chunk metadata.
const (
	ChunkTypeText  = "text"
	ChunkTypeCode  = "code"
	ChunkTypeMixed = "mixed"
)

// Chunk represents a bounded-length slice of a source document's text,
// the atomic unit indexed for retrieval.
type Chunk struct {
	Content  string        `json:"content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata carries the provenance and position of a chunk within its
// source document.
type ChunkMetadata struct {
	Source      string `json:"source"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	DocType     string `json:"docType"`
	ChunkIndex  int    `json:"chunkIndex"`
	TotalChunks int    `json:"totalChunks"`
	ChunkType   string `json:"chunkType"`
}

// Validate returns an error if the chunk contains invalid fields.
func (c *Chunk) Validate() error {
	if c.Content == "" {
		return Errorf(EINVALID, "chunk content required")
	}
	if c.Metadata.Source == "" {
		return Errorf(EINVALID, "chunk source required")
	}
	return nil
}

// Map flattens chunk metadata into the generic metadata form accepted by
// Store.AddDocuments.
func (m ChunkMetadata) Map() map[string]any {
	return map[string]any{
		"source":       m.Source,
		"title":        m.Title,
		"url":          m.URL,
		"doc_type":     m.DocType,
		"chunk_index":  m.ChunkIndex,
		"total_chunks": m.TotalChunks,
		"chunk_type":   m.ChunkType,
	}
}

// Chunker splits one document's raw text into an ordered list of chunks.
// Splitting fails softly: content below a minimum threshold yields an empty
// list, never an error.
type Chunker interface {
	Split(doc *Document) []Chunk
}
