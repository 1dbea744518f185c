package docdex

import "strings"

// FormatResults formats search results for display or LLM context.
// Uses the title metadata if available, falls back to the source URL.
// Results are separated by blank lines.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	parts := make([]string, 0, len(results))
	for _, res := range results {
		header := res.Metadata["title"]
		if header == "" {
			header = res.Metadata["url"]
		}
		if header == "" {
			header = res.Metadata["source"]
		}
		parts = append(parts, "## Document: "+header+"\n"+res.Content)
	}

	return strings.Join(parts, "\n\n")
}
