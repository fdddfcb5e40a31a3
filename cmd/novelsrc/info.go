package main

import (
	"fmt"

	"github.com/fwojciec/novelsrc"
)

// Run executes the info command.
func (c *InfoCmd) Run(deps *Dependencies) error {
	p, bookID, err := resolveBook(deps.Registry, c.Book, c.Site)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", novelsrc.ErrorMessage(err))
		return err
	}

	meta, err := p.GetBookMetadata(deps.Ctx, bookID)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", novelsrc.ErrorMessage(err))
		return err
	}

	if deps.JSON {
		return writeJSON(deps.Stdout, meta)
	}

	fmt.Fprint(deps.Stdout, novelsrc.FormatMetadata(meta))
	return nil
}
