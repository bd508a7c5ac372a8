package cdc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Dusk-Labs/dim-sub002/pkg/events"
	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/metrics"
	"github.com/Dusk-Labs/dim-sub002/pkg/queue"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"go.uber.org/zap"
)

type Table string

const (
	TableLibrary Table = "library"
	TableMedia   Table = "media"
	TableAssets  Table = "assets"
)

// DefaultSlowDrain is how long a commit drain may take before it is reported
const DefaultSlowDrain = time.Millisecond

// Event is a committed row change
type Event struct {
	ID    int64
	Table Table
	Kind  storage.Op
}

// AssetQueue schedules remote asset downloads
type AssetQueue interface {
	Enqueue(url, outfile string)
}

// Reactor turns row changes on the writer connection into push messages.
// It implements storage.ChangeHook.
type Reactor struct {
	mu sync.Mutex
	// uncommitted holds changes of the open transaction
	uncommitted []Event
	// committed holds changes whose transaction committed but may not be visible to readers yet
	committed []Event

	queue     *queue.Unbounded[Event]
	publisher events.Publisher
	assets    AssetQueue
	slowDrain time.Duration

	storeMu sync.RWMutex
	store   storage.Storage
}

var _ storage.ChangeHook = (*Reactor)(nil)

type Option func(*Reactor)

func WithAssetQueue(q AssetQueue) Option {
	return func(r *Reactor) {
		r.assets = q
	}
}

func WithSlowDrain(d time.Duration) Option {
	return func(r *Reactor) {
		r.slowDrain = d
	}
}

func New(publisher events.Publisher, opts ...Option) *Reactor {
	if publisher == nil {
		publisher = events.Discard
	}

	r := &Reactor{
		queue:     queue.New[Event](),
		publisher: publisher,
		slowDrain: DefaultSlowDrain,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attach gives the reactor the store it reads changed rows from.
// The store is opened with the reactor as its hook, so it is attached afterwards.
func (r *Reactor) Attach(store storage.Storage) {
	r.storeMu.Lock()
	defer r.storeMu.Unlock()
	r.store = store
}

func classify(table string) (Table, bool) {
	switch Table(table) {
	case TableLibrary, TableMedia, TableAssets:
		return Table(table), true
	}
	return "", false
}

func (r *Reactor) OnUpdate(op storage.Op, table string, rowID int64) {
	t, ok := classify(table)
	if !ok {
		return
	}

	r.mu.Lock()
	r.uncommitted = append(r.uncommitted, Event{ID: rowID, Table: t, Kind: op})
	r.mu.Unlock()
}

// OnCommit runs inside the database commit. It only moves buffered events.
func (r *Reactor) OnCommit() {
	start := time.Now()

	r.mu.Lock()
	for len(r.uncommitted) > 0 {
		last := len(r.uncommitted) - 1
		r.committed = append(r.committed, r.uncommitted[last])
		r.uncommitted = r.uncommitted[:last]
	}
	r.mu.Unlock()

	if elapsed := time.Since(start); elapsed > r.slowDrain {
		logger.Get().Warnw("slow commit drain", "elapsed", elapsed)
	}
}

// OnRollback drops the open transaction's changes. A commit that failed after
// its commit hook ran is rolled back too, so staged changes go with it.
func (r *Reactor) OnRollback() {
	r.mu.Lock()
	r.uncommitted = r.uncommitted[:0]
	r.committed = nil
	r.mu.Unlock()
}

// OnVisible releases committed events to Run once readers can see the rows
func (r *Reactor) OnVisible() {
	r.mu.Lock()
	committed := r.committed
	r.committed = nil
	r.mu.Unlock()

	r.queue.Push(committed...)
}

// Pending returns the number of released events not yet handled
func (r *Reactor) Pending() int {
	return r.queue.Len()
}

// Run handles released events until ctx is done
func (r *Reactor) Run(ctx context.Context) {
	for {
		batch, ok := r.queue.Pop(ctx)
		if !ok {
			return
		}

		for _, ev := range batch {
			metrics.CDCEvents.WithLabelValues(string(ev.Table), ev.Kind.String()).Inc()
			r.Handle(ctx, ev)
		}
	}
}

// Handle translates a single event. Failures are logged and dropped.
func (r *Reactor) Handle(ctx context.Context, ev Event) {
	log := logger.FromCtx(ctx, "table", ev.Table, "kind", ev.Kind.String(), "id", ev.ID)

	var err error
	switch ev.Table {
	case TableLibrary:
		err = r.handleLibrary(ctx, ev)
	case TableMedia:
		err = r.handleMedia(ctx, ev)
	case TableAssets:
		err = r.handleAsset(ctx, ev)
	}

	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		log.Debug("changed row is gone")
	default:
		log.Warn("failed to handle change", zap.Error(err))
	}
}

func (r *Reactor) handleLibrary(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case storage.OpInsert:
		r.publisher.Publish(events.NewLibrary(ev.ID))
	case storage.OpDelete:
		r.publisher.Publish(events.RemoveLibrary(ev.ID))
	case storage.OpUpdate:
		var hidden bool
		err := r.read(ctx, func(tx storage.Tx) error {
			library, err := tx.GetLibrary(ctx, ev.ID)
			if err != nil {
				return err
			}
			hidden = library.Hidden
			return nil
		})
		if err != nil {
			return err
		}
		if hidden {
			r.publisher.Publish(events.RemoveLibrary(ev.ID))
		}
	}
	return nil
}

func (r *Reactor) handleMedia(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case storage.OpDelete:
		r.publisher.Publish(events.RemoveCard(ev.ID))
	case storage.OpInsert:
		var (
			mediaType storage.MediaType
			libraryID int64
		)
		err := r.read(ctx, func(tx storage.Tx) error {
			media, err := tx.GetMedia(ctx, ev.ID)
			if err != nil {
				return err
			}
			mediaType = storage.MediaType(media.MediaType)
			libraryID = media.LibraryID
			return nil
		})
		if err != nil {
			return err
		}
		if mediaType == storage.MediaTypeMovie || mediaType == storage.MediaTypeTv {
			r.publisher.Publish(events.NewCard(ev.ID, libraryID))
		}
	}
	return nil
}

func (r *Reactor) handleAsset(ctx context.Context, ev Event) error {
	if ev.Kind != storage.OpInsert || r.assets == nil {
		return nil
	}

	var remote, local string
	err := r.read(ctx, func(tx storage.Tx) error {
		asset, err := tx.GetAsset(ctx, ev.ID)
		if err != nil {
			return err
		}
		if asset.RemoteURL != nil {
			remote = *asset.RemoteURL
		}
		local = asset.LocalPath
		return nil
	})
	if err != nil {
		return err
	}

	if remote != "" {
		r.assets.Enqueue(remote, local)
	}
	return nil
}

var errDetached = errors.New("reactor has no store attached")

func (r *Reactor) read(ctx context.Context, fn func(tx storage.Tx) error) error {
	r.storeMu.RLock()
	store := r.store
	r.storeMu.RUnlock()

	if store == nil {
		return errDetached
	}

	tx, err := store.ReadTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Done()

	return fn(tx)
}
