package main

import (
	"fmt"

	"github.com/fwojciec/novelsrc"
)

// Run executes the episode command.
func (c *EpisodeCmd) Run(deps *Dependencies) error {
	p, bookID, err := resolveBook(deps.Registry, c.Book, c.Site)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", novelsrc.ErrorMessage(err))
		return err
	}

	ep, err := p.GetEpisode(deps.Ctx, bookID, c.Episode)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", novelsrc.ErrorMessage(err))
		return err
	}

	if deps.JSON {
		return writeJSON(deps.Stdout, ep)
	}

	fmt.Fprintln(deps.Stdout, novelsrc.FormatEpisode(ep))
	return nil
}
