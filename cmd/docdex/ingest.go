package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/akarwowski/docdex"
	"github.com/akarwowski/docdex/chunk"
)

// newChunker builds the chunker used for ingestion.
func newChunker(logger *slog.Logger) docdex.Chunker {
	return chunk.New(chunk.WithLogger(logger))
}

// Run executes the ingest command.
func (c *IngestCmd) Run(deps *Dependencies) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", c.File, err)
	}

	var docs []*docdex.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("failed to parse %q: expected a JSON array of documents: %w", c.File, err)
	}
	if len(docs) == 0 {
		fmt.Fprintln(deps.Stdout, "No documents to ingest.")
		return nil
	}

	result, err := deps.Pipeline.Run(deps.Ctx, docs)
	if result != nil {
		fmt.Fprintf(deps.Stdout, "Indexed %d documents (%d chunks), %d skipped as duplicates, %d failed.\n",
			result.Documents, result.Chunks, result.Skipped, result.Failed)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
		return err
	}

	return nil
}
