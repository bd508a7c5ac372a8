package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/parser"
	"github.com/Dusk-Labs/dim-sub002/pkg/provider"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a path must stay quiet before its events are handled
const DefaultDebounce = 5 * time.Second

// renamePairWindow bounds the gap between the two halves of a rename. fsnotify reports
// them back to back but does not expose the kernel's rename cookie.
const renamePairWindow = 50 * time.Millisecond

// ProviderFunc returns the metadata provider for a library kind
type ProviderFunc func(storage.MediaType) provider.Provider

type action int

const (
	actionCreate action = iota + 1
	actionRemove
	actionRename
)

type pending struct {
	action    action
	libraryID int64
	from      string
	timer     *time.Timer
}

// renameSource is the old half of a rename, waiting for the create that names its destination
type renameSource struct {
	path      string
	libraryID int64
	info      os.FileInfo
	at        time.Time
}

// Watcher reacts to filesystem changes under library roots. Creates are ingested and matched,
// renames keep their match, removals delete the file rows and any media left without files.
type Watcher struct {
	scanner  *Scanner
	store    storage.Storage
	provider ProviderFunc
	debounce time.Duration

	fs *fsnotify.Watcher

	mu      sync.Mutex
	roots   map[string]int64
	pending map[string]*pending
	// known holds the identity of every watched path, so a rename is only paired with the
	// create of the same file
	known      map[string]os.FileInfo
	lastRename *renameSource
	paired     *renameSource
	handling   sync.WaitGroup
	ctx        context.Context
}

type WatcherOption func(*Watcher)

func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

func NewWatcher(s *Scanner, store storage.Storage, providers ProviderFunc, opts ...WatcherOption) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		scanner:  s,
		store:    store,
		provider: providers,
		debounce: DefaultDebounce,
		fs:       fs,
		roots:    make(map[string]int64),
		pending:  make(map[string]*pending),
		known:    make(map[string]os.FileInfo),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// WatchAll registers every visible library
func (w *Watcher) WatchAll(ctx context.Context) error {
	tx, err := w.store.ReadTx(ctx)
	if err != nil {
		return err
	}
	libraries, err := tx.ListLibraries(ctx)
	tx.Done()
	if err != nil {
		return err
	}

	for _, library := range libraries {
		w.watchLibrary(ctx, library)
	}
	return nil
}

// Watch registers the roots of one library
func (w *Watcher) Watch(ctx context.Context, libraryID int64) error {
	library, err := w.scanner.library(ctx, libraryID)
	if err != nil {
		return err
	}
	w.watchLibrary(ctx, library)
	return nil
}

func (w *Watcher) watchLibrary(ctx context.Context, library *storage.Library) {
	log := logger.FromCtx(ctx, "library", library.ID)
	for _, root := range library.Locations {
		root = filepath.Clean(root)
		w.mu.Lock()
		w.roots[root] = library.ID
		w.mu.Unlock()

		if err := w.addRecursive(root); err != nil {
			log.Warnw("failed to watch library root", "root", root, zap.Error(err))
		}
	}
}

// Unwatch stops reporting changes for the library's roots
func (w *Watcher) Unwatch(libraryID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for root, id := range w.roots {
		if id == libraryID {
			delete(w.roots, root)
		}
	}
	for _, dir := range w.fs.WatchList() {
		if _, ok := w.libraryFor(dir); !ok {
			_ = w.fs.Remove(dir)
		}
	}
	for path := range w.known {
		if _, ok := w.libraryFor(path); !ok {
			delete(w.known, path)
		}
	}
}

func (w *Watcher) addRecursive(root string) error {
	seen := make(map[string]os.FileInfo)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info, err := d.Info(); err == nil {
			seen[filepath.Clean(path)] = info
		}
		if !d.IsDir() {
			return nil
		}
		return w.fs.Add(path)
	})

	w.mu.Lock()
	for path, info := range seen {
		w.known[path] = info
	}
	w.mu.Unlock()
	return err
}

// forget drops the identity of path and, for a directory, of everything below it. The caller holds mu.
func (w *Watcher) forget(path string) os.FileInfo {
	info, ok := w.known[path]
	if !ok {
		return nil
	}
	delete(w.known, path)
	if info.IsDir() {
		prefix := path + string(filepath.Separator)
		for p := range w.known {
			if strings.HasPrefix(p, prefix) {
				delete(w.known, p)
			}
		}
	}
	return info
}

// libraryFor resolves the library whose root contains path. The caller holds mu.
func (w *Watcher) libraryFor(path string) (int64, bool) {
	for dir := filepath.Clean(path); ; dir = filepath.Dir(dir) {
		if id, ok := w.roots[dir]; ok {
			return id, true
		}
		if parent := filepath.Dir(dir); parent == dir {
			return 0, false
		}
	}
}

// Run handles filesystem events until ctx ends
func (w *Watcher) Run(ctx context.Context) error {
	log := logger.FromCtx(ctx, "component", "watcher")

	w.mu.Lock()
	w.ctx = logger.WithCtx(ctx, log)
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		for path, p := range w.pending {
			p.timer.Stop()
			delete(w.pending, path)
		}
		w.mu.Unlock()
		w.handling.Wait()
		w.fs.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.observe(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Warnw("watcher error", zap.Error(err))
		}
	}
}

func ignored(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") || strings.HasSuffix(base, ".part")
}

func (w *Watcher) observe(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	// only the event right after a rename can be its destination
	source := w.lastRename
	w.lastRename = nil

	if ignored(path) {
		return
	}
	libraryID, ok := w.libraryFor(path)
	if !ok {
		return
	}

	switch {
	case ev.Has(fsnotify.Rename):
		// a moved directory reports its old name once more from its own watch
		if r := w.paired; r != nil && r.path == path && time.Since(r.at) <= renamePairWindow {
			return
		}
		// fsnotify reports the old name; the new one follows as a create when it stays watched
		w.lastRename = &renameSource{path: path, libraryID: libraryID, info: w.forget(path), at: time.Now()}
		w.schedule(path, &pending{action: actionRemove, libraryID: libraryID})
	case ev.Has(fsnotify.Remove):
		w.forget(path)
		w.schedule(path, &pending{action: actionRemove, libraryID: libraryID})
	case ev.Has(fsnotify.Create):
		var created os.FileInfo
		if info, err := os.Lstat(path); err == nil {
			w.known[path] = info
			created = info
		}
		if source != nil && w.pairs(source, libraryID, created) {
			if p, ok := w.pending[source.path]; ok {
				p.timer.Stop()
				delete(w.pending, source.path)
			}
			w.paired = source
			w.schedule(path, &pending{action: actionRename, libraryID: libraryID, from: source.path})
			return
		}
		w.schedule(path, &pending{action: actionCreate, libraryID: libraryID})
	case ev.Has(fsnotify.Write):
		if p, ok := w.pending[path]; ok {
			p.timer.Reset(w.debounce)
			return
		}
		w.schedule(path, &pending{action: actionCreate, libraryID: libraryID})
	}
}

// pairs reports whether a created path is the destination of source: same library, within the
// pairing window, and the same file on disk. A file moved out of the library keeps its inode, so
// an unrelated file created right after never pairs with it.
func (w *Watcher) pairs(source *renameSource, libraryID int64, created os.FileInfo) bool {
	if source.libraryID != libraryID || time.Since(source.at) > renamePairWindow {
		return false
	}
	if source.info == nil || created == nil {
		return false
	}
	return os.SameFile(source.info, created)
}

// schedule replaces any pending work on path and runs p once the path is quiet. The caller holds mu.
func (w *Watcher) schedule(path string, p *pending) {
	if prev, ok := w.pending[path]; ok {
		prev.timer.Stop()
		if prev.action == actionRename && p.action == actionCreate {
			p.action, p.from = actionRename, prev.from
		}
	}

	w.pending[path] = p
	p.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.pending[path] != p {
			w.mu.Unlock()
			return
		}
		delete(w.pending, path)
		ctx := w.ctx
		w.handling.Add(1)
		w.mu.Unlock()

		defer w.handling.Done()
		w.handle(ctx, path, p)
	})
}

func (w *Watcher) handle(ctx context.Context, path string, p *pending) {
	if ctx.Err() != nil {
		return
	}
	log := logger.FromCtx(ctx, "path", path, "library", p.libraryID)

	switch p.action {
	case actionRemove:
		n, err := w.scanner.RemovePath(ctx, p.libraryID, path)
		if err != nil {
			log.Errorw("failed to remove path", zap.Error(err))
			return
		}
		log.Debugw("removed mediafiles", "count", n)

	case actionRename:
		renamed, err := w.scanner.RenamePath(ctx, p.libraryID, p.from, path)
		if err != nil {
			log.Errorw("failed to rename path", "from", p.from, zap.Error(err))
			return
		}
		if !renamed {
			w.create(ctx, path, p.libraryID)
			return
		}
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				log.Warnw("failed to watch renamed directory", zap.Error(err))
			}
		}
		log.Debugw("renamed mediafiles", "from", p.from)

	case actionCreate:
		w.create(ctx, path, p.libraryID)
	}
}

func (w *Watcher) create(ctx context.Context, path string, libraryID int64) {
	log := logger.FromCtx(ctx, "path", path, "library", libraryID)

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		log.Warnw("failed to stat created path", zap.Error(err))
		return
	}

	library, err := w.scanner.library(ctx, libraryID)
	if err != nil {
		log.Warnw("failed to read library", zap.Error(err))
		return
	}
	p := w.provider(storage.MediaType(library.MediaType))

	if info.IsDir() {
		if err := w.addRecursive(path); err != nil {
			log.Warnw("failed to watch new directory", zap.Error(err))
		}
		if _, err := w.scanner.ScanDir(ctx, libraryID, path, p); err != nil {
			log.Errorw("failed to scan new directory", zap.Error(err))
		}
		return
	}

	if !parser.IsVideo(path) {
		return
	}
	if err := w.scanner.IngestFile(ctx, libraryID, path, p); err != nil {
		log.Errorw("failed to ingest file", zap.Error(err))
	}
}
