package crawl

import (
	"context"
	"net/http"
	"time"

	"github.com/fwojciec/novelsrc"
)

var _ novelsrc.Fetcher = (*RetryFetcher)(nil)

// LogFunc is the signature for a logging function.
type LogFunc func(format string, args ...any)

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// RetryFetcher wraps a Fetcher and retries transient failures with backoff.
// Transport errors and 429 or 5xx responses are retried; everything else,
// including 404, is returned immediately.
type RetryFetcher struct {
	Fetcher novelsrc.Fetcher

	// Delays holds the wait before each retry. Nil means DefaultRetryDelays.
	Delays []time.Duration

	// Logger, if set, is called for each retry attempt.
	Logger LogFunc
}

// NewRetryFetcher creates a RetryFetcher with the default delays.
func NewRetryFetcher(f novelsrc.Fetcher, logger LogFunc) *RetryFetcher {
	return &RetryFetcher{Fetcher: f, Delays: DefaultRetryDelays(), Logger: logger}
}

// Fetch fetches url, retrying up to len(Delays) times.
// After the last attempt the final response or error is returned as is.
func (r *RetryFetcher) Fetch(ctx context.Context, url string) (*novelsrc.Response, error) {
	delays := r.Delays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var (
		resp *novelsrc.Response
		err  error
	)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err = r.Fetcher.Fetch(ctx, url)
		if !retryable(resp, err) {
			return resp, err
		}

		// Don't retry after the last attempt
		if attempt >= maxAttempts-1 {
			break
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if r.Logger != nil {
			r.Logger("  retry %s (attempt %d): %s", url, attempt+2, describe(resp, err))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return resp, err
}

// Close closes the underlying fetcher.
func (r *RetryFetcher) Close() error {
	return r.Fetcher.Close()
}

func retryable(resp *novelsrc.Response, err error) bool {
	if err != nil {
		code := novelsrc.ErrorCode(err)
		return code == novelsrc.ETRANSPORT || code == novelsrc.EINTERNAL
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}

func describe(resp *novelsrc.Response, err error) string {
	if err != nil {
		return err.Error()
	}
	return http.StatusText(resp.StatusCode)
}
