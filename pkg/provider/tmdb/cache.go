package tmdb

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Dusk-Labs/dim-sub002/pkg/cache"
	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/metrics"
)

const (
	DefaultCacheTTL      = 12 * time.Hour
	DefaultMaxCacheBytes = 32 << 20
	DefaultEvictInterval = 15 * time.Second

	// evictFraction of the cached bodies is dropped per tick while over the limit
	evictFraction = 0.05
)

type keyKind int

const (
	keySearch keyKind = iota
	keyGenreList
	keyByID
	keyActorByID
	keyEpisodes
)

// requestKey identifies a request. Fields that do not apply to its kind stay zero.
type requestKey struct {
	kind   keyKind
	media  Kind
	query  string
	year   int64
	id     string
	season int64
}

// call is the sentinel for a request in flight. Waiters block on done.
type call struct {
	done chan struct{}
	body string
	err  error
}

// entry holds either a cached body or an in-flight call
type entry struct {
	body    string
	expires time.Time
	call    *call
}

// RequestCache coalesces concurrent identical requests and keeps their bodies until they expire
type RequestCache struct {
	entries  *cache.Cache[requestKey, entry]
	ttl      time.Duration
	maxBytes int64
	usage    atomic.Int64
	now      func() time.Time
}

func NewRequestCache(ttl time.Duration, maxBytes int64) *RequestCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxCacheBytes
	}
	return &RequestCache{
		entries:  cache.New[requestKey, entry](),
		ttl:      ttl,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

// Do returns the cached body for key or runs fetch. Concurrent callers for the same key
// share a single fetch and all receive its body or error.
func (c *RequestCache) Do(ctx context.Context, key requestKey, fetch func(ctx context.Context) (string, error)) (string, error) {
	var (
		hit      bool
		body     string
		inflight *call
		owner    bool
	)

	c.entries.Compute(key, func(current entry, ok bool) entry {
		switch {
		case ok && current.call != nil:
			inflight = current.call
			return current
		case ok && c.now().Before(current.expires):
			hit = true
			body = current.body
			return current
		case ok:
			// expired
			c.usage.Add(-int64(len(current.body)))
		}

		owner = true
		inflight = &call{done: make(chan struct{})}
		return entry{call: inflight}
	})

	if hit {
		metrics.ProviderCache.WithLabelValues("hit").Inc()
		return body, nil
	}

	if !owner {
		metrics.ProviderCache.WithLabelValues("coalesced").Inc()
		select {
		case <-inflight.done:
			return inflight.body, inflight.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	metrics.ProviderCache.WithLabelValues("miss").Inc()
	inflight.body, inflight.err = fetch(ctx)

	if inflight.err != nil {
		c.entries.DeleteIf(key, func(e entry) bool {
			return e.call == inflight
		})
	} else {
		c.entries.Compute(key, func(current entry, ok bool) entry {
			if ok && current.call != inflight {
				return current
			}
			c.usage.Add(int64(len(inflight.body)))
			return entry{body: inflight.body, expires: c.now().Add(c.ttl)}
		})
	}
	metrics.ProviderCacheBytes.Set(float64(c.usage.Load()))

	close(inflight.done)
	return inflight.body, inflight.err
}

// Usage returns the approximate number of cached body bytes
func (c *RequestCache) Usage() int64 {
	return c.usage.Load()
}

// Evict drops a random share of cached bodies when usage is over the limit and returns how many were dropped
func (c *RequestCache) Evict() int {
	if c.usage.Load() <= c.maxBytes {
		return 0
	}

	keys := c.entries.Keys()
	n := int(float64(len(keys)) * evictFraction)
	if n < 1 {
		n = 1
	}

	evicted := 0
	for _, key := range c.entries.Sample(n) {
		var size int
		removed := c.entries.DeleteIf(key, func(e entry) bool {
			size = len(e.body)
			return e.call == nil
		})
		if removed {
			c.usage.Add(-int64(size))
			evicted++
		}
	}

	metrics.ProviderCacheEvictions.Add(float64(evicted))
	metrics.ProviderCacheBytes.Set(float64(c.usage.Load()))
	return evicted
}

// RunEvictor calls Evict every interval until ctx is done
func (c *RequestCache) RunEvictor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultEvictInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Evict(); n > 0 {
				logger.FromCtx(ctx).Debugw("evicted provider responses", "count", n, "usage", c.Usage())
			}
		}
	}
}
