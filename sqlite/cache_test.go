package sqlite_test

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/novelsrc"
	"github.com/fwojciec/novelsrc/mock"
	"github.com/fwojciec/novelsrc/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFetcher serves body with status for every URL and counts calls.
func countingFetcher(status int, body *string) (*mock.Fetcher, *atomic.Int32) {
	var calls atomic.Int32
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (*novelsrc.Response, error) {
			calls.Add(1)
			return &novelsrc.Response{StatusCode: status, URL: url + "#final", Body: *body}, nil
		},
		CloseFn: func() error { return nil },
	}, &calls
}

// clock is a settable time source.
type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func TestPageCache_Fetch(t *testing.T) {
	t.Parallel()

	const url = "https://kakuyomu.jp/works/1"

	t.Run("serves repeated requests from the cache", func(t *testing.T) {
		t.Parallel()

		body := "<h1>Work</h1>"
		f, calls := countingFetcher(http.StatusOK, &body)
		cache := sqlite.NewPageCache(setupTestDB(t), f)

		first, err := cache.Fetch(context.Background(), url)
		require.NoError(t, err)
		second, err := cache.Fetch(context.Background(), url)
		require.NoError(t, err)

		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, first, second)
		assert.Equal(t, url+"#final", second.URL)
	})

	t.Run("does not cache non-2xx responses", func(t *testing.T) {
		t.Parallel()

		body := ""
		f, calls := countingFetcher(http.StatusNotFound, &body)
		cache := sqlite.NewPageCache(setupTestDB(t), f)

		for range 2 {
			resp, err := cache.Fetch(context.Background(), url)
			require.NoError(t, err)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		}

		assert.Equal(t, int32(2), calls.Load())
		_, err := cache.FindPage(context.Background(), url)
		assert.Equal(t, novelsrc.ENOTFOUND, novelsrc.ErrorCode(err))
	})

	t.Run("does not cache responses rejected by Cacheable", func(t *testing.T) {
		t.Parallel()

		body := `<div class="nothing">error</div>`
		f, calls := countingFetcher(http.StatusOK, &body)
		cache := sqlite.NewPageCache(setupTestDB(t), f)
		cache.Cacheable = func(resp *novelsrc.Response) bool {
			return resp.Body != body
		}

		for range 2 {
			resp, err := cache.Fetch(context.Background(), url)
			require.NoError(t, err)
			assert.Equal(t, body, resp.Body)
		}

		assert.Equal(t, int32(2), calls.Load())
		_, err := cache.FindPage(context.Background(), url)
		assert.Equal(t, novelsrc.ENOTFOUND, novelsrc.ErrorCode(err))
	})

	t.Run("does not cache errors", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		f := &mock.Fetcher{
			FetchFn: func(context.Context, string) (*novelsrc.Response, error) {
				calls.Add(1)
				return nil, novelsrc.Errorf(novelsrc.ETRANSPORT, "connection refused")
			},
		}
		cache := sqlite.NewPageCache(setupTestDB(t), f)

		for range 2 {
			_, err := cache.Fetch(context.Background(), url)
			assert.Equal(t, novelsrc.ETRANSPORT, novelsrc.ErrorCode(err))
		}
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("refetches expired entries", func(t *testing.T) {
		t.Parallel()

		body := "v1"
		f, calls := countingFetcher(http.StatusOK, &body)
		clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
		cache := sqlite.NewPageCache(setupTestDB(t), f)
		cache.TTL = time.Hour
		cache.Now = clk.Now

		_, err := cache.Fetch(context.Background(), url)
		require.NoError(t, err)

		clk.now = clk.now.Add(30 * time.Minute)
		resp, err := cache.Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.Equal(t, "v1", resp.Body)
		assert.Equal(t, int32(1), calls.Load())

		body = "v2"
		clk.now = clk.now.Add(time.Hour)
		resp, err = cache.Fetch(context.Background(), url)
		require.NoError(t, err)
		assert.Equal(t, "v2", resp.Body)
		assert.Equal(t, int32(2), calls.Load())

		page, err := cache.FindPage(context.Background(), url)
		require.NoError(t, err)
		assert.Equal(t, "v2", page.Body)
		assert.True(t, page.FetchedAt.Equal(clk.now))
	})

	t.Run("never expires entries with zero TTL", func(t *testing.T) {
		t.Parallel()

		body := "v1"
		f, calls := countingFetcher(http.StatusOK, &body)
		clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
		cache := sqlite.NewPageCache(setupTestDB(t), f)
		cache.TTL = 0
		cache.Now = clk.Now

		_, err := cache.Fetch(context.Background(), url)
		require.NoError(t, err)
		clk.now = clk.now.AddDate(1, 0, 0)
		_, err = cache.Fetch(context.Background(), url)
		require.NoError(t, err)

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("keeps the row ID when content is unchanged", func(t *testing.T) {
		t.Parallel()

		body := "same"
		f, _ := countingFetcher(http.StatusOK, &body)
		clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
		cache := sqlite.NewPageCache(setupTestDB(t), f)
		cache.TTL = time.Minute
		cache.Now = clk.Now

		_, err := cache.Fetch(context.Background(), url)
		require.NoError(t, err)
		before, err := cache.FindPage(context.Background(), url)
		require.NoError(t, err)

		clk.now = clk.now.Add(time.Hour)
		_, err = cache.Fetch(context.Background(), url)
		require.NoError(t, err)
		after, err := cache.FindPage(context.Background(), url)
		require.NoError(t, err)

		assert.Equal(t, before.ID, after.ID)
		assert.Equal(t, before.ContentHash, after.ContentHash)
		assert.Len(t, after.ContentHash, 16)
		assert.True(t, after.FetchedAt.After(before.FetchedAt))
	})
}

func TestPageCache_Purge(t *testing.T) {
	t.Parallel()

	body := "x"
	f, _ := countingFetcher(http.StatusOK, &body)
	clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := sqlite.NewPageCache(setupTestDB(t), f)
	cache.TTL = time.Hour
	cache.Now = clk.Now
	ctx := context.Background()

	_, err := cache.Fetch(ctx, "https://syosetu.org/novel/1/")
	require.NoError(t, err)
	clk.now = clk.now.Add(90 * time.Minute)
	_, err = cache.Fetch(ctx, "https://syosetu.org/novel/2/")
	require.NoError(t, err)

	n, err := cache.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = cache.FindPage(ctx, "https://syosetu.org/novel/1/")
	assert.Equal(t, novelsrc.ENOTFOUND, novelsrc.ErrorCode(err))
	_, err = cache.FindPage(ctx, "https://syosetu.org/novel/2/")
	require.NoError(t, err)
}

func TestPageCache_Close(t *testing.T) {
	t.Parallel()

	var closed bool
	f := &mock.Fetcher{CloseFn: func() error {
		closed = true
		return nil
	}}

	require.NoError(t, sqlite.NewPageCache(setupTestDB(t), f).Close())
	assert.True(t, closed)
}
