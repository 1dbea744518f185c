package docdex

// Converter transforms HTML content into Markdown. The ingest pipeline
// normalizes html-typed documents before chunking so the chunker only
// ever sees markdown or plain text.
type Converter interface {
	Convert(html string) (string, error)
}
