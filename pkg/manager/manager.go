package manager

import (
	"context"
	"errors"
	"sync"

	"github.com/Dusk-Labs/dim-sub002/pkg/auth"
	"github.com/Dusk-Labs/dim-sub002/pkg/events"
	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/scanner"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	// ErrPermission is returned when the caller lacks the owner role
	ErrPermission = errors.New("permission denied")
)

// Runner is a background component that works until its context ends
type Runner interface {
	Run(ctx context.Context)
}

// RunnerFunc adapts a function to a Runner
type RunnerFunc func(ctx context.Context)

func (f RunnerFunc) Run(ctx context.Context) {
	f(ctx)
}

// MediaManager is the context built once at startup. It owns the catalog and the components
// working on it, and implements the operations behind the api.
type MediaManager struct {
	store     storage.Storage
	providers Providers
	scanner   *scanner.Scanner
	watcher   *scanner.Watcher
	sweeper   *scanner.Sweeper
	auth      *auth.Authenticator
	streams   StreamManager
	publisher events.Publisher
	assets    AssetQueue
	runners   []Runner

	mu    sync.Mutex
	ctx   context.Context
	scans sync.WaitGroup
}

type Option func(*MediaManager)

// WithWatcher keeps libraries in sync with their roots. Libraries created later are watched too.
func WithWatcher(w *scanner.Watcher) Option {
	return func(m *MediaManager) {
		m.watcher = w
	}
}

func WithSweeper(s *scanner.Sweeper) Option {
	return func(m *MediaManager) {
		m.sweeper = s
	}
}

func WithStreamManager(s StreamManager) Option {
	return func(m *MediaManager) {
		m.streams = s
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(m *MediaManager) {
		m.publisher = p
	}
}

// WithAssetQueue lets missing images be fetched while a client waits for them
func WithAssetQueue(q AssetQueue) Option {
	return func(m *MediaManager) {
		m.assets = q
	}
}

// WithRunners adds components, such as the hub or the asset fetcher, that Run keeps alive
func WithRunners(runners ...Runner) Option {
	return func(m *MediaManager) {
		m.runners = append(m.runners, runners...)
	}
}

func New(store storage.Storage, providers Providers, s *scanner.Scanner, authenticator *auth.Authenticator, opts ...Option) *MediaManager {
	m := &MediaManager{
		store:     store,
		providers: providers,
		scanner:   s,
		auth:      authenticator,
		streams:   NoopStreamManager{},
		publisher: events.Discard,
		ctx:       context.Background(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MediaManager) Authenticator() *auth.Authenticator {
	return m.auth
}

// Run starts every background component and blocks until ctx ends. Scans started through the
// api are waited for before it returns.
func (m *MediaManager) Run(ctx context.Context) error {
	log := logger.FromCtx(ctx)

	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()

	if err := m.streams.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range m.runners {
		g.Go(func() error {
			r.Run(gctx)
			return nil
		})
	}

	if m.watcher != nil {
		if err := m.watcher.WatchAll(gctx); err != nil {
			log.Warnw("failed to watch libraries", zap.Error(err))
		}
		g.Go(func() error {
			return ignoreCanceled(m.watcher.Run(gctx))
		})
	}

	if m.sweeper != nil {
		g.Go(func() error {
			return ignoreCanceled(m.sweeper.Run(gctx))
		})
	}

	err := g.Wait()
	m.scans.Wait()

	if stopErr := m.streams.Stop(context.WithoutCancel(ctx)); stopErr != nil {
		log.Warnw("failed to stop stream manager", zap.Error(stopErr))
	}
	return err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// background runs fn detached from the request that triggered it
func (m *MediaManager) background(ctx context.Context, fn func(ctx context.Context)) {
	m.mu.Lock()
	base := m.ctx
	m.mu.Unlock()

	bg := logger.WithCtx(base, logger.FromCtx(ctx))
	m.scans.Add(1)
	go func() {
		defer m.scans.Done()
		fn(bg)
	}()
}

// Wait blocks until background scans finish
func (m *MediaManager) Wait() {
	m.scans.Wait()
}

func (m *MediaManager) readTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := m.store.ReadTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Done()
	return fn(tx)
}

func requireOwner(claims *auth.Claims) error {
	if claims == nil {
		return auth.ErrMissing
	}
	if !claims.HasRole(string(storage.RoleOwner)) {
		return ErrPermission
	}
	return nil
}
