package crawl

import (
	"context"
	"unicode/utf8"

	"github.com/fwojciec/novelsrc"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of episodes fetched at once.
const DefaultConcurrency = 4

// Downloader fetches every episode of a book and saves it to a BookStore.
type Downloader struct {
	Provider    novelsrc.Provider
	Store       novelsrc.BookStore
	Concurrency int
}

// Result holds the outcome of a download.
type Result struct {
	Metadata *novelsrc.BookMetadata
	Episodes int
	Bytes    int
	Chars    int
}

// episodeResult holds the outcome of fetching a single episode.
type episodeResult struct {
	position int
	episode  *novelsrc.EpisodeContent
	err      error
}

// Download fetches the book's metadata and all of its episodes, then saves
// them in chapter order and commits the store. If any step fails the store
// is aborted and the first error is returned.
// The progress callback, if provided, is called once per fetched episode
// from the calling goroutine.
func (d *Downloader) Download(ctx context.Context, bookID string, progress novelsrc.DownloadProgressFunc) (result *Result, err error) {
	defer func() {
		if err != nil {
			_ = d.Store.Abort()
		}
	}()

	meta, err := d.Provider.GetBookMetadata(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if err := d.Store.SaveMetadata(ctx, bookID, meta); err != nil {
		return nil, err
	}

	concurrency := d.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	resultCh := make(chan episodeResult, len(meta.Chapters))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for i, ch := range meta.Chapters {
			g.Go(func() error {
				ep, err := d.Provider.GetEpisode(gctx, bookID, ch.EpisodeID)
				resultCh <- episodeResult{position: i, episode: ep, err: err}
				return err
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	// Collect results; positions fill in any order.
	episodes := make([]*novelsrc.EpisodeContent, len(meta.Chapters))
	total := len(meta.Chapters)
	completed := 0
	var firstErr error
	for r := range resultCh {
		if r.err != nil {
			if firstErr == nil {
				firstErr = r.err
			}
		} else {
			completed++
			episodes[r.position] = r.episode
		}
		if progress != nil {
			progress(novelsrc.DownloadProgress{
				EpisodeID: meta.Chapters[r.position].EpisodeID,
				Completed: completed,
				Total:     total,
				Error:     r.err,
			})
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result = &Result{Metadata: meta, Episodes: len(episodes)}
	for i, ep := range episodes {
		if err := d.Store.SaveEpisode(ctx, i+1, meta.Chapters[i], ep); err != nil {
			return nil, err
		}
		result.Bytes += len(novelsrc.FormatEpisode(ep))
		for _, p := range ep.Paragraphs {
			result.Chars += utf8.RuneCountInString(p)
		}
	}

	if err := d.Store.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}
