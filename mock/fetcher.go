package mock

import (
	"context"

	"github.com/fwojciec/novelsrc"
)

var _ novelsrc.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of novelsrc.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*novelsrc.Response, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*novelsrc.Response, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}
