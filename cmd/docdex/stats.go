package main

import (
	"fmt"
	"sort"

	"github.com/akarwowski/docdex"
)

// Run executes the stats command.
func (c *StatsCmd) Run(deps *Dependencies) error {
	stats, err := deps.Store.Stats(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Total chunks: %d\n", stats.TotalChunks)
	if len(stats.Sources) == 0 {
		return nil
	}

	names := make([]string, 0, len(stats.Sources))
	for name := range stats.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(deps.Stdout, "Sources (sampled):")
	for _, name := range names {
		fmt.Fprintf(deps.Stdout, "  %s  %d\n", name, stats.Sources[name])
	}

	return nil
}
