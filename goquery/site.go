package goquery

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/fwojciec/novelsrc"
)

// Option configures a provider.
type Option func(*site)

// WithBaseURL points the provider at a different origin, typically a test
// server or mirror. The origin's host is also accepted by ExtractBookID.
func WithBaseURL(rawURL string) Option {
	return func(s *site) {
		u, err := url.Parse(strings.TrimRight(rawURL, "/"))
		if err != nil || u.Host == "" {
			return
		}
		s.base = u
		s.hosts[strings.ToLower(u.Hostname())] = true
	}
}

// WithMaxPages bounds how many table-of-contents pages are followed.
func WithMaxPages(n int) Option {
	return func(s *site) {
		s.maxPages = n
	}
}

// site holds the configuration shared by all providers.
type site struct {
	name     string
	fetcher  novelsrc.Fetcher
	base     *url.URL
	hosts    map[string]bool
	maxPages int
}

func newSite(name, baseURL string, hosts []string, fetcher novelsrc.Fetcher, opts []Option) *site {
	base, _ := url.Parse(baseURL)
	s := &site{
		name:     name,
		fetcher:  fetcher,
		base:     base,
		hosts:    make(map[string]bool, len(hosts)+1),
		maxPages: DefaultMaxPages,
	}
	for _, h := range hosts {
		s.hosts[h] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// matchID parses rawURL, checks scheme and host, and applies re to the path.
// The first submatch of re is returned as the book ID.
func (s *site) matchID(rawURL string, re *regexp.Regexp) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", novelsrc.Errorf(novelsrc.EINVALID, "%s: invalid URL %q", s.name, rawURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", novelsrc.Errorf(novelsrc.EINVALID, "%s: unsupported URL %q", s.name, rawURL)
	}
	if !s.hosts[strings.ToLower(u.Hostname())] {
		return "", novelsrc.Errorf(novelsrc.EINVALID, "%s: unsupported host in %q", s.name, rawURL)
	}
	m := re.FindStringSubmatch(u.Path)
	if m == nil {
		return "", novelsrc.Errorf(novelsrc.EINVALID, "%s: no book ID in %q", s.name, rawURL)
	}
	return m[1], nil
}

// url joins path to the provider's base URL.
func (s *site) url(path string) string {
	u := *s.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

func (s *site) bookScope(bookID string) string {
	return s.name + ": book " + bookID
}

func (s *site) episodeScope(bookID, episodeID string) string {
	return s.name + ": book " + bookID + ": episode " + episodeID
}

func (s *site) fetch(ctx context.Context, rawURL, scope string) (*Page, error) {
	return FetchPage(ctx, s.fetcher, rawURL, scope)
}

// checkMetadata validates parsed metadata, reporting failures as EPARSE.
func checkMetadata(scope string, meta *novelsrc.BookMetadata) (*novelsrc.BookMetadata, error) {
	if err := meta.Validate(); err != nil {
		return nil, novelsrc.WrapError(novelsrc.EPARSE, err, "%s: metadata", scope)
	}
	return meta, nil
}

// checkEpisode validates a parsed episode, reporting failures as EPARSE.
func checkEpisode(scope string, ep *novelsrc.EpisodeContent) (*novelsrc.EpisodeContent, error) {
	if err := ep.Validate(); err != nil {
		return nil, novelsrc.WrapError(novelsrc.EPARSE, err, "%s: content", scope)
	}
	return ep, nil
}

// soleChapter resolves DefaultEpisodeID for providers whose sites have no
// separate one-shot page: the book must have exactly one chapter.
func soleChapter(scope string, meta *novelsrc.BookMetadata) (string, error) {
	if len(meta.Chapters) != 1 {
		return "", novelsrc.Errorf(novelsrc.ENOTFOUND, "%s: %q requires a single-chapter book, found %d chapters",
			scope, novelsrc.DefaultEpisodeID, len(meta.Chapters))
	}
	return meta.Chapters[0].EpisodeID, nil
}

// pathOf returns the path component of rawURL, or "" if it cannot be parsed.
func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}
