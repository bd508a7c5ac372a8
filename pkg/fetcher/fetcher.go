package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/metrics"
	"github.com/Dusk-Labs/dim-sub002/pkg/queue"
	"github.com/cespare/xxhash/v2"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	mhttp "github.com/Dusk-Labs/dim-sub002/pkg/http"
	dimio "github.com/Dusk-Labs/dim-sub002/pkg/io"
)

const (
	hashedShards = 4
	// immediateShard is drained separately so user visible requests skip the backlog
	immediateShard = hashedShards

	DefaultMaxAssetSize = 32 << 20
	DefaultTimeout      = 30 * time.Second
)

// ErrAssetTooLarge is returned when a response body exceeds the configured limit
var ErrAssetTooLarge = errors.New("asset too large")

// Job downloads URL into Outfile, a path relative to the metadata directory
type Job struct {
	URL     string
	Outfile string
}

// Fetcher downloads remote posters and backdrops into the metadata directory
type Fetcher struct {
	dir     string
	client  mhttp.HTTPClient
	files   dimio.FileIO
	maxSize int64
	shards  [hashedShards + 1]*queue.Unbounded[Job]
}

type Option func(*Fetcher)

func WithHTTPClient(client mhttp.HTTPClient) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithMaxAssetSize bounds the bytes read from a single response. Non-positive sizes keep the default.
func WithMaxAssetSize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxSize = n
		}
	}
}

// WithFileIO replaces the filesystem assets are written to
func WithFileIO(files dimio.FileIO) Option {
	return func(f *Fetcher) {
		f.files = files
	}
}

func New(dir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		dir: dir,
		client: mhttp.NewRateLimitedHTTPClient(
			mhttp.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
		),
		files:   &dimio.MediaFileSystem{},
		maxSize: DefaultMaxAssetSize,
	}
	for i := range f.shards {
		f.shards[i] = queue.New[Job]()
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func shardFor(url string) int {
	return int(xxhash.Sum64String(url) % hashedShards)
}

// Enqueue schedules a download on the shard owning url
func (f *Fetcher) Enqueue(url, outfile string) {
	f.shards[shardFor(url)].Push(Job{URL: url, Outfile: outfile})
}

// EnqueueImmediate schedules a download ahead of the hashed shards
func (f *Fetcher) EnqueueImmediate(url, outfile string) {
	f.shards[immediateShard].Push(Job{URL: url, Outfile: outfile})
}

// Pending returns the number of queued jobs across all shards
func (f *Fetcher) Pending() int {
	n := 0
	for _, s := range f.shards {
		n += s.Len()
	}
	return n
}

// Run drains every shard until ctx is done
func (f *Fetcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i, shard := range f.shards {
		wg.Add(1)
		go func(i int, shard *queue.Unbounded[Job]) {
			defer wg.Done()
			f.drain(ctx, i, shard)
		}(i, shard)
	}
	wg.Wait()
}

func (f *Fetcher) drain(ctx context.Context, index int, shard *queue.Unbounded[Job]) {
	log := logger.FromCtx(ctx, "shard", index)

	for {
		jobs, ok := shard.Pop(ctx)
		if !ok {
			return
		}

		for _, job := range jobs {
			if err := f.Fetch(ctx, job); err != nil {
				metrics.AssetFetches.WithLabelValues("error").Inc()
				log.Warnw("failed to fetch asset", "url", job.URL, zap.Error(err))
				continue
			}
			metrics.AssetFetches.WithLabelValues("ok").Inc()
		}
	}
}

// Fetch downloads a single job. Files already on disk are not downloaded again.
func (f *Fetcher) Fetch(ctx context.Context, job Job) error {
	target, err := f.path(job.Outfile)
	if err != nil {
		return err
	}

	if f.files.FileExists(target) {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		// retries exhausted still hand back the last response
		if resp != nil {
			resp.Body.Close()
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return err
	}
	if int64(len(body)) > f.maxSize {
		return fmt.Errorf("%w: more than %d bytes", ErrAssetTooLarge, f.maxSize)
	}
	if len(body) == 0 {
		return errors.New("empty asset")
	}

	if filepath.Ext(target) == "" {
		target += mimetype.Detect(body).Extension()
	}

	// the same url may be queued on two shards
	if err := f.files.WriteFile(target, body); err != nil && !errors.Is(err, dimio.ErrFileExists) {
		return err
	}
	return nil
}

// path resolves outfile below the metadata directory
func (f *Fetcher) path(outfile string) (string, error) {
	clean := filepath.Clean(string(filepath.Separator) + outfile)
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid outfile %q", outfile)
	}
	return filepath.Join(f.dir, clean), nil
}
