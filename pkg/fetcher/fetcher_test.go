package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mhttp "github.com/Dusk-Labs/dim-sub002/pkg/http"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestShardFor(t *testing.T) {
	for _, url := range []string{"a", "https://image.tmdb.org/t/p/original/x.jpg", ""} {
		shard := shardFor(url)
		assert.GreaterOrEqual(t, shard, 0)
		assert.Less(t, shard, hashedShards)
		assert.Equal(t, shard, shardFor(url))
	}
}

func TestFetcher_Fetch(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/poster.jpg":
			w.Write([]byte("jpeg-bytes"))
		case "/sniff":
			w.Write(pngHeader)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	t.Run("writes below the metadata dir", func(t *testing.T) {
		dir := t.TempDir()
		f := New(dir)

		err := f.Fetch(ctx, Job{URL: srv.URL + "/poster.jpg", Outfile: "images/poster.jpg"})
		require.NoError(t, err)

		b, err := os.ReadFile(filepath.Join(dir, "images", "poster.jpg"))
		require.NoError(t, err)
		assert.Equal(t, "jpeg-bytes", string(b))

		before := hits.Load()
		err = f.Fetch(ctx, Job{URL: srv.URL + "/poster.jpg", Outfile: "images/poster.jpg"})
		require.NoError(t, err)
		assert.Equal(t, before, hits.Load())
	})

	t.Run("sniffs a missing extension", func(t *testing.T) {
		dir := t.TempDir()
		f := New(dir)

		require.NoError(t, f.Fetch(ctx, Job{URL: srv.URL + "/sniff", Outfile: "images/sniffed"}))
		_, err := os.Stat(filepath.Join(dir, "images", "sniffed.png"))
		assert.NoError(t, err)
	})

	t.Run("outfile cannot escape the dir", func(t *testing.T) {
		dir := t.TempDir()
		f := New(dir)

		require.NoError(t, f.Fetch(ctx, Job{URL: srv.URL + "/poster.jpg", Outfile: "../../escape.jpg"}))
		_, err := os.Stat(filepath.Join(dir, "escape.jpg"))
		assert.NoError(t, err)
	})

	t.Run("upstream failure", func(t *testing.T) {
		f := New(t.TempDir())
		err := f.Fetch(ctx, Job{URL: srv.URL + "/missing", Outfile: "images/missing.jpg"})
		assert.Error(t, err)
	})
}

func TestFetcher_DefaultClient(t *testing.T) {
	f := New(t.TempDir())
	assert.IsType(t, &mhttp.RateLimitedClient{}, f.client)
	assert.Equal(t, int64(DefaultMaxAssetSize), f.maxSize)
}

func TestFetcher_Limits(t *testing.T) {
	ctx := context.Background()

	t.Run("body over the limit is rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(make([]byte, 65))
		}))
		defer srv.Close()

		dir := t.TempDir()
		f := New(dir, WithMaxAssetSize(64))

		err := f.Fetch(ctx, Job{URL: srv.URL + "/big.jpg", Outfile: "images/big.jpg"})
		assert.ErrorIs(t, err, ErrAssetTooLarge)
		_, err = os.Stat(filepath.Join(dir, "images", "big.jpg"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("body at the limit is kept", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(make([]byte, 64))
		}))
		defer srv.Close()

		dir := t.TempDir()
		f := New(dir, WithMaxAssetSize(64))

		require.NoError(t, f.Fetch(ctx, Job{URL: srv.URL + "/exact.jpg", Outfile: "images/exact.jpg"}))
		b, err := os.ReadFile(filepath.Join(dir, "images", "exact.jpg"))
		require.NoError(t, err)
		assert.Len(t, b, 64)
	})

	t.Run("stalled upstream times out", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		client := mhttp.NewRateLimitedHTTPClient(mhttp.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
		f := New(t.TempDir(), WithHTTPClient(client))

		start := time.Now()
		err := f.Fetch(ctx, Job{URL: srv.URL + "/slow.jpg", Outfile: "images/slow.jpg"})
		assert.Error(t, err)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("transient upstream failure is retried", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte("jpeg-bytes"))
		}))
		defer srv.Close()

		client := mhttp.NewRateLimitedHTTPClient(mhttp.WithBaseBackoff(time.Millisecond))
		dir := t.TempDir()
		f := New(dir, WithHTTPClient(client))

		require.NoError(t, f.Fetch(ctx, Job{URL: srv.URL + "/flaky.jpg", Outfile: "images/flaky.jpg"}))
		assert.Equal(t, int32(2), hits.Load())
	})

	t.Run("retries exhausted", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		client := mhttp.NewRateLimitedHTTPClient(mhttp.WithBaseBackoff(time.Millisecond), mhttp.WithMaxRetries(2))
		f := New(t.TempDir(), WithHTTPClient(client))

		err := f.Fetch(ctx, Job{URL: srv.URL + "/down.jpg", Outfile: "images/down.jpg"})
		assert.ErrorIs(t, err, mhttp.ErrMaxRetries)
	})
}

func TestFetcher_Run(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := New(dir)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	f.Enqueue(srv.URL+"/a.jpg", "images/a.jpg")
	f.Enqueue(srv.URL+"/b.jpg", "images/b.jpg")
	f.EnqueueImmediate(srv.URL+"/c.jpg", "images/c.jpg")

	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		assert.Eventually(t, func() bool {
			_, err := os.Stat(filepath.Join(dir, "images", name))
			return err == nil
		}, 2*time.Second, 10*time.Millisecond, name)
	}

	cancel()
	<-done
	assert.Equal(t, 0, f.Pending())
}
