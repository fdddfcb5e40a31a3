package crawl

import (
	"context"
	"net/url"
	"sync"

	"github.com/fwojciec/novelsrc"
	"golang.org/x/time/rate"
)

// DomainLimiter provides per-domain rate limiting using token buckets.
// It creates a separate rate limiter for each domain, allowing concurrent
// requests to different domains while enforcing rate limits within each domain.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewDomainLimiter creates a new DomainLimiter with the specified requests per second limit.
// Each domain gets its own limiter with a burst of 1 (no bursting allowed).
func NewDomainLimiter(rps float64) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until the rate limit allows a request to the domain.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}

var _ novelsrc.Fetcher = (*LimitedFetcher)(nil)

// LimitedFetcher waits on a DomainLimiter before each request.
type LimitedFetcher struct {
	Fetcher novelsrc.Fetcher
	Limiter *DomainLimiter
}

// NewLimitedFetcher wraps f with a per-domain limit of rps requests per second.
func NewLimitedFetcher(f novelsrc.Fetcher, rps float64) *LimitedFetcher {
	return &LimitedFetcher{Fetcher: f, Limiter: NewDomainLimiter(rps)}
}

// Fetch waits for the URL's host to be allowed, then fetches it.
func (l *LimitedFetcher) Fetch(ctx context.Context, rawURL string) (*novelsrc.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, novelsrc.Errorf(novelsrc.EINVALID, "invalid URL %q", rawURL)
	}
	if err := l.Limiter.Wait(ctx, u.Hostname()); err != nil {
		return nil, novelsrc.WrapError(novelsrc.ETRANSPORT, err, "rate limit wait for %s", u.Hostname())
	}
	return l.Fetcher.Fetch(ctx, rawURL)
}

// Close closes the underlying fetcher.
func (l *LimitedFetcher) Close() error {
	return l.Fetcher.Close()
}
