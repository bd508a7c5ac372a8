package manager

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Dusk-Labs/dim-sub002/config"
	mhttp "github.com/Dusk-Labs/dim-sub002/pkg/http"
	"github.com/Dusk-Labs/dim-sub002/pkg/matcher"
	"github.com/Dusk-Labs/dim-sub002/pkg/provider"
	"github.com/Dusk-Labs/dim-sub002/pkg/provider/tmdb"
	"github.com/Dusk-Labs/dim-sub002/pkg/scanner"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
)

// Providers hands out the metadata provider serving a library kind
type Providers interface {
	For(kind storage.MediaType) (provider.Provider, error)
}

// StaticProviders serves fixed providers per kind
type StaticProviders map[storage.MediaType]provider.Provider

func (s StaticProviders) For(kind storage.MediaType) (provider.Provider, error) {
	p, ok := s[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", matcher.ErrUnsupportedMediaType, kind)
	}
	return p, nil
}

// TMDBProviders are the movie and tv clients sharing one transport and one request cache
type TMDBProviders struct {
	StaticProviders
	cache *tmdb.RequestCache
}

// NewTMDBProviders builds both tmdb clients from configuration
func NewTMDBProviders(cfg config.TMDB) (*TMDBProviders, error) {
	base := ""
	if cfg.Host != "" {
		scheme := cfg.Scheme
		if scheme == "" {
			scheme = "https"
		}
		u := url.URL{Scheme: scheme, Host: cfg.Host, Path: "/3"}
		base = u.String()
	}

	clientOpts := []mhttp.ClientOption{}
	if cfg.MaxRetries > 0 {
		clientOpts = append(clientOpts, mhttp.WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.BaseBackoff > 0 {
		clientOpts = append(clientOpts, mhttp.WithBaseBackoff(cfg.BaseBackoff))
	}
	if cfg.RatePerSecond > 0 {
		clientOpts = append(clientOpts, mhttp.WithRequestsPerSecond(cfg.RatePerSecond))
	}
	client := mhttp.NewRateLimitedHTTPClient(clientOpts...)

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = tmdb.DefaultCacheTTL
	}
	maxBytes := cfg.MaxCacheBytes
	if maxBytes <= 0 {
		maxBytes = tmdb.DefaultMaxCacheBytes
	}
	cache := tmdb.NewRequestCache(ttl, maxBytes)

	tmdbCfg := tmdb.Config{BaseURL: base, APIKey: cfg.APIKey, Timeout: cfg.Timeout}
	movies, err := tmdb.New(tmdb.Movie, tmdbCfg, tmdb.WithHTTPClient(client), tmdb.WithCache(cache))
	if err != nil {
		return nil, err
	}
	shows, err := tmdb.New(tmdb.Tv, tmdbCfg, tmdb.WithHTTPClient(client), tmdb.WithCache(cache))
	if err != nil {
		return nil, err
	}

	return &TMDBProviders{
		StaticProviders: StaticProviders{
			storage.MediaTypeMovie: movies,
			storage.MediaTypeTv:    shows,
		},
		cache: cache,
	}, nil
}

// Run evicts cached responses until ctx ends
func (t *TMDBProviders) Run(ctx context.Context) {
	t.cache.RunEvictor(ctx, tmdb.DefaultEvictInterval)
}

// ProviderFunc adapts providers to the watcher, which skips matching when a kind has none
func ProviderFunc(p Providers) scanner.ProviderFunc {
	return func(kind storage.MediaType) provider.Provider {
		prov, err := p.For(kind)
		if err != nil {
			return nil
		}
		return prov
	}
}
