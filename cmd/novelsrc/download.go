package main

import (
	"fmt"

	"github.com/fwojciec/novelsrc"
	"github.com/fwojciec/novelsrc/crawl"
	"github.com/fwojciec/novelsrc/fs"
)

// Run executes the download command.
// The book is written to <out>/<site>-<book ID>; an interrupted or failed
// download leaves any previous copy untouched.
func (c *DownloadCmd) Run(deps *Dependencies) error {
	p, bookID, err := resolveBook(deps.Registry, c.Book, c.Site)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", novelsrc.ErrorMessage(err))
		return err
	}

	store := fs.NewBookStore(c.Out, p.Name()+"-"+bookID)
	d := &crawl.Downloader{
		Provider:    p,
		Store:       store,
		Concurrency: c.Concurrency,
	}

	res, err := d.Download(deps.Ctx, bookID, func(e novelsrc.DownloadProgress) {
		if e.Error != nil {
			fmt.Fprintf(deps.Stderr, "  failed %s: %s\n", e.EpisodeID, novelsrc.ErrorMessage(e.Error))
			return
		}
		fmt.Fprintf(deps.Stderr, "  [%d/%d] %s\n", e.Completed, e.Total, e.EpisodeID)
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", novelsrc.ErrorMessage(err))
		return err
	}

	if deps.JSON {
		return writeJSON(deps.Stdout, struct {
			Dir      string `json:"dir"`
			Title    string `json:"title"`
			Episodes int    `json:"episodes"`
			Bytes    int    `json:"bytes"`
			Chars    int    `json:"chars"`
		}{store.Dir(), res.Metadata.Title, res.Episodes, res.Bytes, res.Chars})
	}

	fmt.Fprintf(deps.Stdout, "Downloaded %q (%d episodes, %s, %s) to %s\n",
		res.Metadata.Title, res.Episodes, crawl.FormatChars(res.Chars), crawl.FormatBytes(res.Bytes), store.Dir())
	return nil
}
