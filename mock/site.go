package mock

import (
	"context"
	"net/http"
	"sync"

	"github.com/fwojciec/novelsrc"
)

// Site returns a Fetcher serving fixed pages keyed by URL.
// Unknown URLs get a 404 response. Redirects map a requested URL to the
// URL whose page is served, reported as the final URL.
// The returned log records every requested URL in order.
func Site(pages map[string]string, redirects map[string]string) (*Fetcher, *[]string) {
	var mu sync.Mutex
	var requested []string
	f := &Fetcher{
		FetchFn: func(_ context.Context, url string) (*novelsrc.Response, error) {
			mu.Lock()
			requested = append(requested, url)
			mu.Unlock()

			final := url
			if to, ok := redirects[url]; ok {
				final = to
			}
			body, ok := pages[final]
			if !ok {
				return &novelsrc.Response{StatusCode: http.StatusNotFound, URL: final}, nil
			}
			return &novelsrc.Response{StatusCode: http.StatusOK, URL: final, Body: body}, nil
		},
		CloseFn: func() error { return nil },
	}
	return f, &requested
}
