package docdex

// Document type classifications. The retriever uses these to bias result
// ordering toward the kind of content a query is asking for.
const (
	DocTypeDocumentation = "documentation"
	DocTypeAPI           = "api"
	DocTypeCode          = "code"
	DocTypeTutorial      = "tutorial"
	DocTypeHTML          = "html"
)

// Document represents one raw documentation record supplied by an ingestion
// source (scraper, loader, export file). The indexing core is agnostic to
// how the record was produced.
type Document struct {
	Content string `json:"content"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	URL     string `json:"url"`
	DocType string `json:"docType"`
}

// Validate returns an error if the document contains invalid fields.
func (d *Document) Validate() error {
	if d.Source == "" {
		return Errorf(EINVALID, "document source required")
	}
	if d.Content == "" {
		return Errorf(EINVALID, "document content required")
	}
	return nil
}
