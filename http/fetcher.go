// Package http provides an HTTP-based implementation of novelsrc.Fetcher.
// Proxy, cookies and timeouts are explicit construction-time options.
package http

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/fwojciec/novelsrc"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/net/publicsuffix"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
const DefaultFetchTimeout = 30 * time.Second

// DefaultMaxRedirects is the default number of redirects followed per request.
const DefaultMaxRedirects = 10

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:134.0) Gecko/20100101 Firefox/134.0"

// Ensure Fetcher implements novelsrc.Fetcher at compile time.
var _ novelsrc.Fetcher = (*Fetcher)(nil)

type cookie struct {
	siteURL string
	name    string
	value   string
}

// Fetcher retrieves pages using HTTP GET requests.
type Fetcher struct {
	client       *http.Client
	timeout      time.Duration
	proxy        string
	userAgent    string
	maxRedirects int
	cookies      []cookie
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithProxy routes all requests through the given proxy URL.
// An empty string disables proxying.
func WithProxy(proxyURL string) Option {
	return func(f *Fetcher) {
		f.proxy = proxyURL
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxRedirects sets how many redirects are followed before giving up.
func WithMaxRedirects(n int) Option {
	return func(f *Fetcher) {
		f.maxRedirects = n
	}
}

// WithCookie presets a cookie for siteURL and its subdomains.
// Sites that gate content behind a confirmation page (e.g., an age check)
// are usually satisfied by the cookie that page would set.
func WithCookie(siteURL, name, value string) Option {
	return func(f *Fetcher) {
		f.cookies = append(f.cookies, cookie{siteURL: siteURL, name: name, value: value})
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
// Returns EINVALID if the proxy or a cookie URL cannot be parsed.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		timeout:      DefaultFetchTimeout,
		userAgent:    DefaultUserAgent,
		maxRedirects: DefaultMaxRedirects,
	}
	for _, opt := range opts {
		opt(f)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Compression is negotiated explicitly so brotli and zstd can be offered.
	transport.DisableCompression = true
	if f.proxy != "" {
		proxyURL, err := url.Parse(f.proxy)
		if err != nil || proxyURL.Host == "" {
			return nil, novelsrc.Errorf(novelsrc.EINVALID, "invalid proxy URL %q", f.proxy)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	} else {
		transport.Proxy = nil
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	for _, c := range f.cookies {
		u, err := url.Parse(c.siteURL)
		if err != nil || u.Host == "" {
			return nil, novelsrc.Errorf(novelsrc.EINVALID, "invalid cookie URL %q", c.siteURL)
		}
		jar.SetCookies(u, []*http.Cookie{{
			Name:   c.name,
			Value:  c.value,
			Path:   "/",
			Domain: u.Hostname(),
		}})
	}

	maxRedirects := f.maxRedirects
	f.client = &http.Client{
		Timeout:   f.timeout,
		Transport: transport,
		Jar:       jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	return f, nil
}

// Fetch retrieves the URL, following redirects, and returns the decoded body
// together with the final status code and URL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*novelsrc.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, novelsrc.WrapError(novelsrc.EINVALID, err, "build request for %s", rawURL)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.7,en;q=0.3")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br, zstd")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, novelsrc.WrapError(novelsrc.ETRANSPORT, err, "fetch %s", rawURL)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, novelsrc.WrapError(novelsrc.ETRANSPORT, err, "read body of %s", rawURL)
	}

	return &novelsrc.Response{
		StatusCode: resp.StatusCode,
		URL:        resp.Request.URL.String(),
		Body:       string(body),
	}, nil
}

// readBody decodes the response body according to its Content-Encoding.
func readBody(resp *http.Response) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		r, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case "deflate":
		// HTTP deflate is zlib-wrapped, not raw DEFLATE.
		r, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case "br":
		return io.ReadAll(brotli.NewReader(resp.Body))
	case "zstd":
		r, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	default:
		return io.ReadAll(resp.Body)
	}
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
