package http_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/fwojciec/novelsrc"
	novelhttp "github.com/fwojciec/novelsrc/http"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFetcher(t *testing.T, opts ...novelhttp.Option) *novelhttp.Fetcher {
	t.Helper()
	f, err := novelhttp.NewFetcher(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns HTML body and status from server", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><body>Hello World</body></html>"))
		}))
		defer server.Close()

		resp, err := newFetcher(t).Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "<html><body>Hello World</body></html>", resp.Body)
		assert.Equal(t, server.URL, resp.URL)
	})

	t.Run("follows redirects and reports final URL", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
		})
		mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("moved"))
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		resp, err := newFetcher(t).Fetch(context.Background(), server.URL+"/old")
		require.NoError(t, err)
		assert.Equal(t, server.URL+"/new", resp.URL)
		assert.Equal(t, "moved", resp.Body)
	})

	t.Run("returns non-2xx responses without error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer server.Close()

		resp, err := newFetcher(t).Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.False(t, resp.OK())
	})

	t.Run("decodes gzip bodies", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, _ = zw.Write([]byte("compressed gzip"))
		require.NoError(t, zw.Close())

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write(buf.Bytes())
		}))
		defer server.Close()

		resp, err := newFetcher(t).Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "compressed gzip", resp.Body)
	})

	t.Run("decodes brotli bodies", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		bw := brotli.NewWriter(&buf)
		_, _ = bw.Write([]byte("compressed brotli"))
		require.NoError(t, bw.Close())

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.Header.Get("Accept-Encoding"), "br")
			w.Header().Set("Content-Encoding", "br")
			_, _ = w.Write(buf.Bytes())
		}))
		defer server.Close()

		resp, err := newFetcher(t).Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "compressed brotli", resp.Body)
	})

	t.Run("decodes deflate bodies", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		_, _ = zw.Write([]byte("compressed deflate"))
		require.NoError(t, zw.Close())

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.Header.Get("Accept-Encoding"), "deflate")
			w.Header().Set("Content-Encoding", "deflate")
			_, _ = w.Write(buf.Bytes())
		}))
		defer server.Close()

		resp, err := newFetcher(t).Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "compressed deflate", resp.Body)
	})

	t.Run("decodes zstd bodies", func(t *testing.T) {
		t.Parallel()

		enc, err := zstd.NewWriter(nil)
		require.NoError(t, err)
		payload := enc.EncodeAll([]byte("compressed zstd"), nil)
		require.NoError(t, enc.Close())

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Encoding", "zstd")
			_, _ = w.Write(payload)
		}))
		defer server.Close()

		resp, err := newFetcher(t).Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "compressed zstd", resp.Body)
	})

	t.Run("sends preset cookies", func(t *testing.T) {
		t.Parallel()

		var got string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie("over18"); err == nil {
				got = c.Value
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		f := newFetcher(t, novelhttp.WithCookie(server.URL, "over18", "yes"))
		_, err := f.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "yes", got)
	})

	t.Run("sends configured user agent", func(t *testing.T) {
		t.Parallel()

		var got string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.UserAgent()
		}))
		defer server.Close()

		f := newFetcher(t, novelhttp.WithUserAgent("novelsrc-test"))
		_, err := f.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, "novelsrc-test", got)
	})

	t.Run("routes requests through proxy", func(t *testing.T) {
		t.Parallel()

		var proxied string
		proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			proxied = r.URL.String()
			_, _ = w.Write([]byte("via proxy"))
		}))
		defer proxy.Close()

		f := newFetcher(t, novelhttp.WithProxy(proxy.URL))
		resp, err := f.Fetch(context.Background(), "http://novel.example/n1234ab/")
		require.NoError(t, err)
		assert.Equal(t, "via proxy", resp.Body)
		assert.Equal(t, "http://novel.example/n1234ab/", proxied)
	})

	t.Run("stops after too many redirects", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, r.URL.Path, http.StatusFound)
		}))
		defer server.Close()

		f := newFetcher(t, novelhttp.WithMaxRedirects(2))
		_, err := f.Fetch(context.Background(), server.URL+"/loop")
		require.Error(t, err)
		assert.Equal(t, novelsrc.ETRANSPORT, novelsrc.ErrorCode(err))
	})

	t.Run("respects custom timeout option", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("response"))
		}))
		defer server.Close()

		f := newFetcher(t, novelhttp.WithTimeout(10*time.Millisecond))
		_, err := f.Fetch(context.Background(), server.URL)
		require.Error(t, err)
		assert.Equal(t, novelsrc.ETRANSPORT, novelsrc.ErrorCode(err))
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newFetcher(t).Fetch(ctx, server.URL)
		require.Error(t, err)
	})

	t.Run("returns transport error for non-existent host", func(t *testing.T) {
		t.Parallel()

		f := newFetcher(t, novelhttp.WithTimeout(100*time.Millisecond))
		_, err := f.Fetch(context.Background(), "http://non-existent-host.invalid/page")
		require.Error(t, err)
		assert.Equal(t, novelsrc.ETRANSPORT, novelsrc.ErrorCode(err))
	})
}

func TestNewFetcher(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid proxy URL", func(t *testing.T) {
		t.Parallel()

		_, err := novelhttp.NewFetcher(novelhttp.WithProxy("::not a url"))
		require.Error(t, err)
		assert.Equal(t, novelsrc.EINVALID, novelsrc.ErrorCode(err))
	})

	t.Run("rejects invalid cookie URL", func(t *testing.T) {
		t.Parallel()

		_, err := novelhttp.NewFetcher(novelhttp.WithCookie("not-a-url", "a", "b"))
		require.Error(t, err)
		assert.Equal(t, novelsrc.EINVALID, novelsrc.ErrorCode(err))
	})
}
