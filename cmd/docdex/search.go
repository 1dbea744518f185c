package main

import (
	"fmt"

	"github.com/akarwowski/docdex"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	var filter *docdex.SearchFilter
	if c.Source != "" || c.DocType != "" {
		filter = &docdex.SearchFilter{Source: c.Source, DocType: c.DocType}
	}

	results, err := deps.Store.Search(deps.Ctx, c.Query, c.K, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(deps.Stdout, "No results.")
		return nil
	}

	for i, res := range results {
		header := res.Metadata["title"]
		if header == "" {
			header = res.Metadata["source"]
		}
		fmt.Fprintf(deps.Stdout, "%d. [%.3f] %s\n%s\n\n", i+1, res.Score, header, res.Content)
	}

	return nil
}
