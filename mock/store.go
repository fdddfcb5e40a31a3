package mock

import (
	"context"

	"github.com/fwojciec/novelsrc"
)

var _ novelsrc.BookStore = (*BookStore)(nil)

// BookStore is a mock implementation of novelsrc.BookStore.
type BookStore struct {
	SaveMetadataFn func(ctx context.Context, bookID string, meta *novelsrc.BookMetadata) error
	SaveEpisodeFn  func(ctx context.Context, position int, ch novelsrc.Chapter, ep *novelsrc.EpisodeContent) error
	CommitFn       func() error
	AbortFn        func() error
}

func (s *BookStore) SaveMetadata(ctx context.Context, bookID string, meta *novelsrc.BookMetadata) error {
	return s.SaveMetadataFn(ctx, bookID, meta)
}

func (s *BookStore) SaveEpisode(ctx context.Context, position int, ch novelsrc.Chapter, ep *novelsrc.EpisodeContent) error {
	return s.SaveEpisodeFn(ctx, position, ch, ep)
}

func (s *BookStore) Commit() error {
	return s.CommitFn()
}

func (s *BookStore) Abort() error {
	return s.AbortFn()
}
