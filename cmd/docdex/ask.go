package main

import (
	"fmt"

	"github.com/akarwowski/docdex"
)

// Run executes the ask command.
func (c *AskCmd) Run(deps *Dependencies) error {
	answer, err := deps.Asker.Ask(deps.Ctx, c.Question)
	if err != nil {
		if docdex.ErrorCode(err) == docdex.ENOTFOUND {
			fmt.Fprintln(deps.Stderr, "error: no relevant documentation found. Use 'docdex ingest' to index documents first.")
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, answer)
	return nil
}
