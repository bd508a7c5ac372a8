package cmd

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"

	"github.com/Dusk-Labs/dim-sub002/config"
	"github.com/Dusk-Labs/dim-sub002/pkg/auth"
	"github.com/Dusk-Labs/dim-sub002/pkg/cdc"
	"github.com/Dusk-Labs/dim-sub002/pkg/fetcher"
	"github.com/Dusk-Labs/dim-sub002/pkg/hub"
	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/manager"
	"github.com/Dusk-Labs/dim-sub002/pkg/prober"
	"github.com/Dusk-Labs/dim-sub002/pkg/scanner"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite"
	"github.com/spf13/viper"

	mhttp "github.com/Dusk-Labs/dim-sub002/pkg/http"
)

// app is every long lived component built at startup
type app struct {
	cfg     config.Config
	store   *sqlite.SQLite
	hub     *hub.Hub
	manager *manager.MediaManager
}

func readConfig() (config.Config, error) {
	cfg, err := config.New(viper.GetViper())
	if err != nil {
		return cfg, fmt.Errorf("failed to read configurations: %w", err)
	}
	return cfg, nil
}

// newApp opens the catalog and wires the scanner, the change reactor and the event fabric around it
func newApp(ctx context.Context, cfg config.Config, probe prober.Prober) (*app, error) {
	log := logger.FromCtx(ctx)

	if err := os.MkdirAll(cfg.Metadata.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create metadata dir: %w", err)
	}

	events := hub.New()
	assets := fetcher.New(cfg.Metadata.Dir,
		fetcher.WithHTTPClient(newAssetClient(cfg.Metadata)),
		fetcher.WithMaxAssetSize(cfg.Metadata.MaxAssetBytes),
	)
	reactor := cdc.New(events, cdc.WithAssetQueue(assets))

	store, err := sqlite.New(ctx, cfg.Storage.FilePath, sqlite.WithChangeHook(reactor))
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	reactor.Attach(store)

	authenticator, err := newAuthenticator(ctx, cfg.Auth)
	if err != nil {
		store.Close()
		return nil, err
	}

	providers, err := manager.NewTMDBProviders(cfg.TMDB)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create metadata providers: %w", err)
	}
	if cfg.TMDB.APIKey == "" {
		log.Warn("no tmdb api key configured, files will only be indexed")
	}

	s := scanner.New(store, probe, events, scanner.WithProbeWorkers(cfg.Scanner.ProbeWorkers))
	watcher, err := scanner.NewWatcher(s, store, manager.ProviderFunc(providers), scanner.WithDebounce(cfg.Scanner.Debounce))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create library watcher: %w", err)
	}

	m := manager.New(store, providers, s, authenticator,
		manager.WithPublisher(events),
		manager.WithAssetQueue(assets),
		manager.WithWatcher(watcher),
		manager.WithSweeper(scanner.NewSweeper(store, cfg.Scanner.SweepSchedule)),
		manager.WithRunners(events, assets, reactor, providers),
	)

	return &app{cfg: cfg, store: store, hub: events, manager: m}, nil
}

func newAssetClient(cfg config.Metadata) *mhttp.RateLimitedClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = fetcher.DefaultTimeout
	}
	opts := []mhttp.ClientOption{mhttp.WithHTTPClient(&http.Client{Timeout: timeout})}
	if cfg.MaxRetries > 0 {
		opts = append(opts, mhttp.WithMaxRetries(cfg.MaxRetries))
	}
	return mhttp.NewRateLimitedHTTPClient(opts...)
}

func newAuthenticator(ctx context.Context, cfg config.Auth) (*auth.Authenticator, error) {
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		logger.FromCtx(ctx).Warn("no auth secret configured, tokens will not survive a restart")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
	}

	opts := []auth.Option{auth.WithTokenTTL(cfg.TokenTTL)}
	if cfg.CookieKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.CookieKey)
		if err != nil {
			return nil, fmt.Errorf("invalid cookie key: %w", err)
		}
		codec, err := auth.NewCookieCodec(key)
		if err != nil {
			return nil, err
		}
		opts = append(opts, auth.WithCookieCodec(codec))
	}
	return auth.New(secret, opts...)
}
