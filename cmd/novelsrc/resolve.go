package main

import (
	"fmt"

	"github.com/fwojciec/novelsrc"
)

// Run executes the resolve command.
func (c *ResolveCmd) Run(deps *Dependencies) error {
	p, bookID, err := deps.Registry.ForURL(c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", novelsrc.ErrorMessage(err))
		return err
	}

	if deps.JSON {
		return writeJSON(deps.Stdout, struct {
			Provider string `json:"provider"`
			BookID   string `json:"bookId"`
		}{p.Name(), bookID})
	}

	fmt.Fprintf(deps.Stdout, "%s %s\n", p.Name(), bookID)
	return nil
}
