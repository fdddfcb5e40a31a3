package goquery

import (
	"context"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/novelsrc"
)

// DefaultMaxPages bounds how many table-of-contents pages are followed.
const DefaultMaxPages = 200

// Page is a fetched and parsed HTML page.
type Page struct {
	// URL is the final URL after redirects.
	URL *url.URL

	Doc *goquery.Document
}

// Resolve resolves href against the page URL.
// Returns an empty string if href cannot be parsed.
func (p *Page) Resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return p.URL.ResolveReference(ref).String()
}

// FetchPage fetches rawURL and parses the body as HTML.
// The scope describes the caller (e.g., "hameln: book 123") and prefixes
// error messages. 404 and 410 map to ENOTFOUND; other non-2xx statuses map
// to ETRANSPORT.
func FetchPage(ctx context.Context, f novelsrc.Fetcher, rawURL, scope string) (*Page, error) {
	resp, err := f.Fetch(ctx, rawURL)
	if err != nil {
		if novelsrc.ErrorCode(err) == novelsrc.EINTERNAL {
			return nil, novelsrc.WrapError(novelsrc.ETRANSPORT, err, "%s: fetch %s", scope, rawURL)
		}
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, novelsrc.Errorf(novelsrc.ENOTFOUND, "%s: not found at %s", scope, rawURL)
	case !resp.OK():
		return nil, novelsrc.Errorf(novelsrc.ETRANSPORT, "%s: HTTP %d for %s", scope, resp.StatusCode, rawURL)
	}

	finalURL := resp.URL
	if finalURL == "" {
		finalURL = rawURL
	}
	u, err := url.Parse(finalURL)
	if err != nil {
		return nil, novelsrc.WrapError(novelsrc.ETRANSPORT, err, "%s: invalid final URL %q", scope, finalURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Body))
	if err != nil {
		return nil, novelsrc.WrapError(novelsrc.EPARSE, err, "%s: parse HTML of %s", scope, finalURL)
	}

	return &Page{URL: u, Doc: doc}, nil
}

// NextFunc returns the URL of the page following p, or "" if p is the last page.
type NextFunc func(p *Page) string

// Pages returns a lazy sequence of pages starting at first and following
// next until it reports no further page. Pages are fetched in order, one at
// a time. The sequence may be ranged over again, which fetches from the
// start. It yields an EPARSE error when a page repeats or more than
// maxPages pages are reached.
func Pages(ctx context.Context, f novelsrc.Fetcher, first, scope string, maxPages int, next NextFunc) iter.Seq2[*Page, error] {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return func(yield func(*Page, error) bool) {
		seen := make(map[string]struct{})
		pageURL := first
		for n := 1; pageURL != ""; n++ {
			if n > maxPages {
				yield(nil, novelsrc.Errorf(novelsrc.EPARSE, "%s: more than %d toc pages", scope, maxPages))
				return
			}
			if _, ok := seen[pageURL]; ok {
				yield(nil, novelsrc.Errorf(novelsrc.EPARSE, "%s: toc page %d links back to %s", scope, n, pageURL))
				return
			}
			seen[pageURL] = struct{}{}

			page, err := FetchPage(ctx, f, pageURL, scope)
			if err != nil {
				yield(nil, err)
				return
			}
			seen[page.URL.String()] = struct{}{}
			if !yield(page, nil) {
				return
			}
			pageURL = next(page)
		}
	}
}
