package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fwojciec/novelsrc"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ novelsrc.Fetcher = (*PageCache)(nil)

// DefaultCacheTTL is how long a cached page is served before it is fetched again.
const DefaultCacheTTL = 24 * time.Hour

// PageCache is a Fetcher decorator that stores successful responses in
// SQLite, keyed by requested URL. Non-2xx responses, errors and responses
// rejected by Cacheable are never cached.
type PageCache struct {
	db      *DB
	fetcher novelsrc.Fetcher

	// TTL bounds the age of served entries. Zero means entries never expire.
	TTL time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Cacheable filters 2xx responses before they are stored, so that
	// error pages served with a 200 status are fetched again next time.
	// Nil caches every 2xx response.
	Cacheable func(*novelsrc.Response) bool
}

// NewPageCache creates a PageCache that fetches misses through f.
func NewPageCache(db *DB, f novelsrc.Fetcher) *PageCache {
	return &PageCache{
		db:      db,
		fetcher: f,
		TTL:     DefaultCacheTTL,
		Now:     time.Now,
	}
}

// CachedPage is a stored response.
type CachedPage struct {
	ID          string
	URL         string
	FinalURL    string
	StatusCode  int
	Body        string
	ContentHash string
	FetchedAt   time.Time
}

// Fetch returns a fresh cached response for url, or fetches and stores it.
func (c *PageCache) Fetch(ctx context.Context, url string) (*novelsrc.Response, error) {
	page, err := c.FindPage(ctx, url)
	switch {
	case err == nil && c.fresh(page):
		return &novelsrc.Response{StatusCode: page.StatusCode, URL: page.FinalURL, Body: page.Body}, nil
	case err != nil && novelsrc.ErrorCode(err) != novelsrc.ENOTFOUND:
		return nil, err
	}

	resp, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if resp.OK() && (c.Cacheable == nil || c.Cacheable(resp)) {
		if err := c.store(ctx, url, resp); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// Close closes the underlying fetcher. The database is left open.
func (c *PageCache) Close() error {
	return c.fetcher.Close()
}

// FindPage retrieves the cached entry for url regardless of its age.
func (c *PageCache) FindPage(ctx context.Context, url string) (*CachedPage, error) {
	var page CachedPage
	var fetchedAt string

	err := c.db.QueryRowContext(ctx, `
		SELECT id, url, final_url, status_code, body, content_hash, fetched_at
		FROM pages
		WHERE url = ?
	`, url).Scan(&page.ID, &page.URL, &page.FinalURL, &page.StatusCode, &page.Body, &page.ContentHash, &fetchedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, novelsrc.Errorf(novelsrc.ENOTFOUND, "page not cached: %s", url)
	}
	if err != nil {
		return nil, novelsrc.WrapError(novelsrc.EINTERNAL, err, "read page cache")
	}

	page.FetchedAt, err = parseRFC3339(fetchedAt, "fetched_at")
	if err != nil {
		return nil, novelsrc.WrapError(novelsrc.EINTERNAL, err, "read page cache")
	}
	return &page, nil
}

// Purge deletes entries older than TTL and returns how many were removed.
func (c *PageCache) Purge(ctx context.Context) (int, error) {
	if c.TTL <= 0 {
		return 0, nil
	}
	cutoff := c.Now().UTC().Add(-c.TTL).Format(timeFormat)

	result, err := c.db.ExecContext(ctx, "DELETE FROM pages WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, novelsrc.WrapError(novelsrc.EINTERNAL, err, "purge page cache")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, novelsrc.WrapError(novelsrc.EINTERNAL, err, "purge page cache")
	}
	return int(n), nil
}

func (c *PageCache) fresh(page *CachedPage) bool {
	if c.TTL <= 0 {
		return true
	}
	return c.Now().Sub(page.FetchedAt) < c.TTL
}

// store inserts or replaces the entry for url. Unchanged content keeps its
// row and only refreshes fetched_at.
func (c *PageCache) store(ctx context.Context, url string, resp *novelsrc.Response) error {
	fetchedAt := c.Now().UTC().Format(timeFormat)
	finalURL := resp.URL
	if finalURL == "" {
		finalURL = url
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO pages (id, url, final_url, status_code, body, content_hash, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			final_url = excluded.final_url,
			status_code = excluded.status_code,
			body = CASE WHEN content_hash = excluded.content_hash THEN body ELSE excluded.body END,
			content_hash = excluded.content_hash,
			fetched_at = excluded.fetched_at
	`, uuid.New().String(), url, finalURL, resp.StatusCode, resp.Body, hashContent(resp.Body), fetchedAt)
	if err != nil {
		return novelsrc.WrapError(novelsrc.EINTERNAL, err, "write page cache")
	}
	return nil
}
