package main

import (
	"fmt"

	"github.com/akarwowski/docdex"
)

// Run executes the reset command.
func (c *ResetCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintln(deps.Stderr, "error: reset deletes every record. Re-run with --force to confirm.")
		return docdex.Errorf(docdex.EINVALID, "reset requires --force")
	}

	if err := deps.Store.Reset(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docdex.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, "Collection reset.")
	return nil
}
