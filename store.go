package novelsrc

import "context"

// DownloadProgress reports progress while downloading a book's episodes.
type DownloadProgress struct {
	EpisodeID string
	Completed int
	Total     int
	Error     error
}

// DownloadProgressFunc is called as episodes are processed.
type DownloadProgressFunc func(DownloadProgress)

// BookStore persists a downloaded book with atomic semantics.
// Save methods write to a temporary location; Commit makes changes
// permanent; Abort discards pending changes.
type BookStore interface {
	SaveMetadata(ctx context.Context, bookID string, meta *BookMetadata) error
	SaveEpisode(ctx context.Context, position int, ch Chapter, ep *EpisodeContent) error
	Commit() error
	Abort() error
}
