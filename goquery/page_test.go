package goquery_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/fwojciec/novelsrc"
	"github.com/fwojciec/novelsrc/goquery"
	"github.com/fwojciec/novelsrc/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticFetcher(status int, body string) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*novelsrc.Response, error) {
			return &novelsrc.Response{StatusCode: status, URL: url, Body: body}, nil
		},
	}
}

func TestFetchPage(t *testing.T) {
	t.Parallel()

	t.Run("parses body and records final URL", func(t *testing.T) {
		t.Parallel()

		f, _ := mock.Site(
			map[string]string{"https://b.example/final": "<h1>Title</h1>"},
			map[string]string{"https://a.example/start": "https://b.example/final"},
		)

		page, err := goquery.FetchPage(context.Background(), f, "https://a.example/start", "test")
		require.NoError(t, err)
		assert.Equal(t, "https://b.example/final", page.URL.String())
		assert.Equal(t, "Title", page.Doc.Find("h1").Text())
	})

	t.Run("maps 404 to ENOTFOUND", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.FetchPage(context.Background(), staticFetcher(http.StatusNotFound, ""), "https://a.example/", "test")
		assert.Equal(t, novelsrc.ENOTFOUND, novelsrc.ErrorCode(err))
	})

	t.Run("maps 410 to ENOTFOUND", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.FetchPage(context.Background(), staticFetcher(http.StatusGone, ""), "https://a.example/", "test")
		assert.Equal(t, novelsrc.ENOTFOUND, novelsrc.ErrorCode(err))
	})

	t.Run("maps other non-2xx statuses to ETRANSPORT", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.FetchPage(context.Background(), staticFetcher(http.StatusServiceUnavailable, ""), "https://a.example/", "test")
		assert.Equal(t, novelsrc.ETRANSPORT, novelsrc.ErrorCode(err))
		assert.Contains(t, novelsrc.ErrorMessage(err), "HTTP 503")
	})

	t.Run("classifies plain fetch errors as ETRANSPORT", func(t *testing.T) {
		t.Parallel()

		f := &mock.Fetcher{
			FetchFn: func(context.Context, string) (*novelsrc.Response, error) {
				return nil, errors.New("connection reset")
			},
		}

		_, err := goquery.FetchPage(context.Background(), f, "https://a.example/", "test")
		assert.Equal(t, novelsrc.ETRANSPORT, novelsrc.ErrorCode(err))
	})

	t.Run("propagates application errors unchanged", func(t *testing.T) {
		t.Parallel()

		want := novelsrc.Errorf(novelsrc.ETRANSPORT, "proxy refused")
		f := &mock.Fetcher{
			FetchFn: func(context.Context, string) (*novelsrc.Response, error) {
				return nil, want
			},
		}

		_, err := goquery.FetchPage(context.Background(), f, "https://a.example/", "test")
		assert.Same(t, want, err)
	})
}

func TestPage_Resolve(t *testing.T) {
	t.Parallel()

	f, _ := mock.Site(map[string]string{"https://a.example/n1/": ""}, nil)
	page, err := goquery.FetchPage(context.Background(), f, "https://a.example/n1/", "test")
	require.NoError(t, err)

	assert.Equal(t, "https://a.example/n1/?p=2", page.Resolve("?p=2"))
	assert.Equal(t, "https://a.example/n1/2/", page.Resolve("/n1/2/"))
	assert.Equal(t, "https://a.example/n1/3.html", page.Resolve("./3.html"))
}

func nextLink(p *goquery.Page) string {
	href, ok := p.Doc.Find("a.next").Attr("href")
	if !ok {
		return ""
	}
	return p.Resolve(href)
}

func TestPages(t *testing.T) {
	t.Parallel()

	t.Run("follows next links in order until none remain", func(t *testing.T) {
		t.Parallel()

		f, requested := mock.Site(map[string]string{
			"https://a.example/toc":     `<i>1</i><a class="next" href="/toc?p=2">next</a>`,
			"https://a.example/toc?p=2": `<i>2</i><a class="next" href="/toc?p=3">next</a>`,
			"https://a.example/toc?p=3": `<i>3</i>`,
		}, nil)

		var got []string
		for page, err := range goquery.Pages(context.Background(), f, "https://a.example/toc", "test", 0, nextLink) {
			require.NoError(t, err)
			got = append(got, page.Doc.Find("i").Text())
		}

		assert.Equal(t, []string{"1", "2", "3"}, got)
		assert.Equal(t, []string{
			"https://a.example/toc",
			"https://a.example/toc?p=2",
			"https://a.example/toc?p=3",
		}, *requested)
	})

	t.Run("can be ranged over again", func(t *testing.T) {
		t.Parallel()

		f, requested := mock.Site(map[string]string{
			"https://a.example/toc":     `<a class="next" href="/toc?p=2">next</a>`,
			"https://a.example/toc?p=2": `last`,
		}, nil)

		seq := goquery.Pages(context.Background(), f, "https://a.example/toc", "test", 0, nextLink)
		for range 2 {
			n := 0
			for _, err := range seq {
				require.NoError(t, err)
				n++
			}
			assert.Equal(t, 2, n)
		}
		assert.Len(t, *requested, 4)
	})

	t.Run("stops fetching when the consumer breaks", func(t *testing.T) {
		t.Parallel()

		f, requested := mock.Site(map[string]string{
			"https://a.example/toc":     `<a class="next" href="/toc?p=2">next</a>`,
			"https://a.example/toc?p=2": `last`,
		}, nil)

		for range goquery.Pages(context.Background(), f, "https://a.example/toc", "test", 0, nextLink) {
			break
		}

		assert.Len(t, *requested, 1)
	})

	t.Run("reports cycles as EPARSE", func(t *testing.T) {
		t.Parallel()

		f, _ := mock.Site(map[string]string{
			"https://a.example/toc":     `<a class="next" href="/toc?p=2">next</a>`,
			"https://a.example/toc?p=2": `<a class="next" href="/toc">next</a>`,
		}, nil)

		var lastErr error
		for _, err := range goquery.Pages(context.Background(), f, "https://a.example/toc", "test", 0, nextLink) {
			lastErr = err
		}

		assert.Equal(t, novelsrc.EPARSE, novelsrc.ErrorCode(lastErr))
	})

	t.Run("reports exceeding the page limit as EPARSE", func(t *testing.T) {
		t.Parallel()

		f, _ := mock.Site(map[string]string{
			"https://a.example/toc":     `<a class="next" href="/toc?p=2">next</a>`,
			"https://a.example/toc?p=2": `<a class="next" href="/toc?p=3">next</a>`,
			"https://a.example/toc?p=3": `last`,
		}, nil)

		var lastErr error
		for _, err := range goquery.Pages(context.Background(), f, "https://a.example/toc", "test", 2, nextLink) {
			lastErr = err
		}

		assert.Equal(t, novelsrc.EPARSE, novelsrc.ErrorCode(lastErr))
	})

	t.Run("yields fetch errors", func(t *testing.T) {
		t.Parallel()

		f, _ := mock.Site(map[string]string{
			"https://a.example/toc": `<a class="next" href="/toc?p=2">next</a>`,
		}, nil)

		var lastErr error
		for _, err := range goquery.Pages(context.Background(), f, "https://a.example/toc", "test", 0, nextLink) {
			lastErr = err
		}

		assert.Equal(t, novelsrc.ENOTFOUND, novelsrc.ErrorCode(lastErr))
	})
}
