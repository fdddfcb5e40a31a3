package mock

import (
	"context"

	"github.com/fwojciec/novelsrc"
)

var _ novelsrc.Provider = (*Provider)(nil)

// Provider is a mock implementation of novelsrc.Provider.
type Provider struct {
	NameFn            func() string
	ExtractBookIDFn   func(rawURL string) (string, error)
	GetBookMetadataFn func(ctx context.Context, bookID string) (*novelsrc.BookMetadata, error)
	GetEpisodeFn      func(ctx context.Context, bookID, episodeID string) (*novelsrc.EpisodeContent, error)
}

func (p *Provider) Name() string {
	return p.NameFn()
}

func (p *Provider) ExtractBookID(rawURL string) (string, error) {
	return p.ExtractBookIDFn(rawURL)
}

func (p *Provider) GetBookMetadata(ctx context.Context, bookID string) (*novelsrc.BookMetadata, error) {
	return p.GetBookMetadataFn(ctx, bookID)
}

func (p *Provider) GetEpisode(ctx context.Context, bookID, episodeID string) (*novelsrc.EpisodeContent, error) {
	return p.GetEpisodeFn(ctx, bookID, episodeID)
}
