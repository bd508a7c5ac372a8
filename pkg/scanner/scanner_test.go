package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Dusk-Labs/dim-sub002/pkg/cdc"
	"github.com/Dusk-Labs/dim-sub002/pkg/events"
	"github.com/Dusk-Labs/dim-sub002/pkg/prober"
	"github.com/Dusk-Labs/dim-sub002/pkg/provider"
	"github.com/Dusk-Labs/dim-sub002/pkg/provider/providertest"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	msgs []events.Message
}

func (r *recorder) Publish(msg events.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) messages() []events.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Message(nil), r.msgs...)
}

func (r *recorder) has(want events.Message) bool {
	for _, m := range r.messages() {
		if m.ID == want.ID && m.Kind == want.Kind {
			return true
		}
	}
	return false
}

type fakeProber struct {
	mu      sync.Mutex
	paths   []string
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeProber) Probe(ctx context.Context, path string) (prober.Info, error) {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()

	if f.gate != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
		select {
		case <-f.gate:
		case <-ctx.Done():
			return prober.Info{}, ctx.Err()
		}
	}

	duration := int64(7200)
	return prober.Info{Container: "matroska", Codec: "h264", Audio: "aac", Width: 1920, Height: 1080, Duration: &duration}, nil
}

func (f *fakeProber) probed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func date(s string) *time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return &t
}

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("video"), 0o644))
	return path
}

type env struct {
	store   *sqlite.SQLite
	rec     *recorder
	prober  *fakeProber
	scanner *Scanner
}

// newEnv opens a store whose row changes are published through a running reactor
func newEnv(t *testing.T) *env {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rec := &recorder{}
	reactor := cdc.New(rec)
	store, err := sqlite.New(ctx, filepath.Join(t.TempDir(), "dim.db"), sqlite.WithChangeHook(reactor))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	reactor.Attach(store)
	go reactor.Run(ctx)

	p := &fakeProber{}
	return &env{store: store, rec: rec, prober: p, scanner: New(store, p, rec, WithProbeWorkers(2))}
}

func (e *env) library(t *testing.T, kind storage.MediaType, roots ...string) int64 {
	t.Helper()
	ctx := context.Background()
	var id int64
	err := e.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		var err error
		id, err = tx.CreateLibrary(ctx, storage.InsertableLibrary{Name: string(kind), MediaType: kind, Locations: roots})
		return err
	})
	require.NoError(t, err)
	return id
}

func read[T any](t *testing.T, store storage.Storage, fn func(tx storage.Tx) (T, error)) T {
	t.Helper()
	tx, err := store.ReadTx(context.Background())
	require.NoError(t, err)
	defer tx.Done()

	v, err := fn(tx)
	require.NoError(t, err)
	return v
}

func (e *env) mediafile(t *testing.T, path string) *model.Mediafile {
	t.Helper()
	return read(t, e.store, func(tx storage.Tx) (*model.Mediafile, error) {
		return tx.GetMediafileByPath(context.Background(), path)
	})
}

func movies() *providertest.Fake {
	return providertest.New().
		Add(provider.ExternalMedia{ExternalID: "335984", Title: "Blade Runner 2049", ReleaseDate: date("2017-10-04")}).
		Add(provider.ExternalMedia{ExternalID: "603", Title: "The Matrix", ReleaseDate: date("1999-03-31")})
}

func TestScanner_Start(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	root := t.TempDir()

	blade := touch(t, filepath.Join(root, "Blade Runner 2049 (2017).mkv"))
	matrix := touch(t, filepath.Join(root, "The Matrix", "The.Matrix.1999.1080p.BluRay.x264.mp4"))
	touch(t, filepath.Join(root, "Unknown Film (2001).avi"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, ".hidden.mkv"))
	touch(t, filepath.Join(root, ".trash", "The Matrix (1999).mkv"))

	libraryID := e.library(t, storage.MediaTypeMovie, root)

	report, err := e.scanner.Start(ctx, libraryID, movies())
	require.NoError(t, err)
	assert.Equal(t, Report{Found: 3, Inserted: 3, Matched: 2, Unmatched: 1}, report)
	assert.Len(t, e.prober.probed(), 3)

	mf := e.mediafile(t, blade)
	require.NotNil(t, mf.MediaID)
	assert.Equal(t, "Blade Runner 2049", mf.RawName)
	require.NotNil(t, mf.Quality)
	assert.Equal(t, "1080p", *mf.Quality)
	require.NotNil(t, mf.OriginalResolution)
	assert.Equal(t, "1920x1080", *mf.OriginalResolution)
	require.NotNil(t, mf.Codec)
	assert.Equal(t, "h264", *mf.Codec)
	assert.False(t, mf.Corrupt)

	mf = e.mediafile(t, matrix)
	require.NotNil(t, mf.MediaID)
	media := read(t, e.store, func(tx storage.Tx) (*model.Media, error) { return tx.GetMedia(ctx, *mf.MediaID) })
	assert.Equal(t, "The Matrix", media.Name)

	assert.True(t, e.rec.has(events.StartedScanning(libraryID)))
	assert.True(t, e.rec.has(events.StoppedScanning(libraryID)))
	assert.Equal(t, StateIdle, e.scanner.State(libraryID))
}

func TestScanner_RescanIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	root := t.TempDir()
	touch(t, filepath.Join(root, "Blade Runner 2049 (2017).mkv"))
	libraryID := e.library(t, storage.MediaTypeMovie, root)

	_, err := e.scanner.Start(ctx, libraryID, movies())
	require.NoError(t, err)

	report, err := e.scanner.Start(ctx, libraryID, movies())
	require.NoError(t, err)
	assert.Equal(t, Report{Found: 1}, report)
	assert.Len(t, e.prober.probed(), 1)

	files := read(t, e.store, func(tx storage.Tx) ([]*model.Mediafile, error) { return tx.ListMediafiles(ctx, nil) })
	assert.Len(t, files, 1)
}

func TestScanner_Tv(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	root := t.TempDir()
	path := touch(t, filepath.Join(root, "Letterkenny", "Season 1", "Letterkenny.S01E02.720p.mkv"))
	libraryID := e.library(t, storage.MediaTypeTv, root)

	fake := providertest.New().
		Add(provider.ExternalMedia{ExternalID: "65798", Title: "Letterkenny", ReleaseDate: date("2016-02-07")}).
		AddSeasons("65798", provider.ExternalSeason{ExternalID: "s1", SeasonNumber: 1}).
		AddEpisodes("65798", 1, provider.ExternalEpisode{ExternalID: "e2", Title: "Super Soft Birthday", Episode: 2})

	report, err := e.scanner.Start(ctx, libraryID, fake)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Matched)

	mf := e.mediafile(t, path)
	require.NotNil(t, mf.MediaID)
	assert.Equal(t, int64(1), *mf.Season)
	assert.Equal(t, int64(2), *mf.Episode)

	episode := read(t, e.store, func(tx storage.Tx) (*storage.Episode, error) { return tx.GetEpisode(ctx, *mf.MediaID) })
	assert.Equal(t, "Super Soft Birthday", episode.Media.Name)
}

func TestScanner_UnknownLibrary(t *testing.T) {
	e := newEnv(t)
	_, err := e.scanner.Start(context.Background(), 42, movies())
	assert.ErrorIs(t, err, ErrLibraryNotFound)
	assert.Equal(t, StateIdle, e.scanner.State(42))
}

func TestScanner_ConcurrentScanRejected(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.prober.gate = make(chan struct{})
	e.prober.entered = make(chan struct{}, 1)

	root := t.TempDir()
	touch(t, filepath.Join(root, "Blade Runner 2049 (2017).mkv"))
	libraryID := e.library(t, storage.MediaTypeMovie, root)

	done := make(chan error, 1)
	go func() {
		_, err := e.scanner.Start(ctx, libraryID, movies())
		done <- err
	}()

	select {
	case <-e.prober.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("scan never reached the prober")
	}
	assert.Equal(t, StateScanning, e.scanner.State(libraryID))

	_, err := e.scanner.Start(ctx, libraryID, movies())
	assert.ErrorIs(t, err, ErrScanInProgress)

	close(e.prober.gate)
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, e.scanner.State(libraryID))
}

func TestWalk_SymlinkLoop(t *testing.T) {
	root := t.TempDir()
	path := touch(t, filepath.Join(root, "a", "Blade Runner 2049 (2017).mkv"))
	require.NoError(t, os.Symlink(root, filepath.Join(root, "a", "loop")))
	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "dangling")))

	files, err := Walk(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestWalk_FollowsLinkedDirectories(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	touch(t, filepath.Join(other, "The Matrix (1999).mkv"))
	require.NoError(t, os.Symlink(other, filepath.Join(root, "linked")))

	files, err := Walk(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "linked", "The Matrix (1999).mkv")}, files)
}

func TestScanner_RenameKeepsMatch(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	root := t.TempDir()
	from := touch(t, filepath.Join(root, "Blade Runner 2049 (2017).mkv"))
	libraryID := e.library(t, storage.MediaTypeMovie, root)

	_, err := e.scanner.Start(ctx, libraryID, movies())
	require.NoError(t, err)
	before := e.mediafile(t, from)
	require.NotNil(t, before.MediaID)

	to := filepath.Join(root, "renamed.mkv")
	require.NoError(t, os.Rename(from, to))

	renamed, err := e.scanner.RenamePath(ctx, libraryID, from, to)
	require.NoError(t, err)
	assert.True(t, renamed)

	after := e.mediafile(t, to)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.MediaID, after.MediaID)

	renamed, err = e.scanner.RenamePath(ctx, libraryID, filepath.Join(root, "never-seen.mkv"), to)
	require.NoError(t, err)
	assert.False(t, renamed)
}

func TestScanner_RenameDirectory(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	root := t.TempDir()
	path := touch(t, filepath.Join(root, "old", "Blade Runner 2049 (2017).mkv"))
	libraryID := e.library(t, storage.MediaTypeMovie, root)

	_, err := e.scanner.Start(ctx, libraryID, movies())
	require.NoError(t, err)
	before := e.mediafile(t, path)

	renamed, err := e.scanner.RenamePath(ctx, libraryID, filepath.Join(root, "old"), filepath.Join(root, "new"))
	require.NoError(t, err)
	assert.True(t, renamed)

	after := e.mediafile(t, filepath.Join(root, "new", "Blade Runner 2049 (2017).mkv"))
	assert.Equal(t, before.MediaID, after.MediaID)
}

func TestScanner_RemoveLastFileDeletesMedia(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	root := t.TempDir()
	path := touch(t, filepath.Join(root, "Blade Runner 2049 (2017).mkv"))
	libraryID := e.library(t, storage.MediaTypeMovie, root)

	_, err := e.scanner.Start(ctx, libraryID, movies())
	require.NoError(t, err)
	mf := e.mediafile(t, path)
	require.NotNil(t, mf.MediaID)
	mediaID := *mf.MediaID

	require.NoError(t, os.Remove(path))
	n, err := e.scanner.RemovePath(ctx, libraryID, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tx, err := e.store.ReadTx(ctx)
	require.NoError(t, err)
	_, err = tx.GetMediafileByPath(ctx, path)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = tx.GetMedia(ctx, mediaID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	tx.Done()

	require.Eventually(t, func() bool {
		return e.rec.has(events.RemoveCard(mediaID))
	}, 2*time.Second, 5*time.Millisecond)
}

func TestScanner_RemoveKeepsMediaWithOtherFiles(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	root := t.TempDir()
	first := touch(t, filepath.Join(root, "Blade Runner 2049 (2017).mkv"))
	touch(t, filepath.Join(root, "Blade Runner 2049 (2017).mp4"))
	libraryID := e.library(t, storage.MediaTypeMovie, root)

	_, err := e.scanner.Start(ctx, libraryID, movies())
	require.NoError(t, err)
	mediaID := *e.mediafile(t, first).MediaID

	_, err = e.scanner.RemovePath(ctx, libraryID, first)
	require.NoError(t, err)

	media := read(t, e.store, func(tx storage.Tx) (*model.Media, error) { return tx.GetMedia(ctx, mediaID) })
	assert.Equal(t, "Blade Runner 2049", media.Name)
}

func TestScanner_RemoveLastEpisodeDeletesShow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	root := t.TempDir()
	path := touch(t, filepath.Join(root, "Letterkenny", "Letterkenny.S01E02.mkv"))
	libraryID := e.library(t, storage.MediaTypeTv, root)

	fake := providertest.New().Add(provider.ExternalMedia{ExternalID: "65798", Title: "Letterkenny"})
	_, err := e.scanner.Start(ctx, libraryID, fake)
	require.NoError(t, err)

	episodeID := *e.mediafile(t, path).MediaID
	showID := read(t, e.store, func(tx storage.Tx) (int64, error) {
		ep, err := tx.GetEpisode(ctx, episodeID)
		if err != nil {
			return 0, err
		}
		return ep.TvShowID, nil
	})

	// another show whose season is still waiting for its files
	var otherSeason int64
	err = e.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		otherShow, err := tx.CreateMedia(ctx, model.Media{LibraryID: libraryID, Name: "Shoresy", MediaType: string(storage.MediaTypeTv)})
		if err != nil {
			return err
		}
		otherSeason, err = tx.CreateSeason(ctx, model.Season{TvShowID: otherShow, SeasonNumber: 1})
		return err
	})
	require.NoError(t, err)

	_, err = e.scanner.RemovePath(ctx, libraryID, filepath.Join(root, "Letterkenny"))
	require.NoError(t, err)

	tx, err := e.store.ReadTx(ctx)
	require.NoError(t, err)
	defer tx.Done()
	_, err = tx.GetMedia(ctx, episodeID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = tx.GetMedia(ctx, showID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = tx.GetSeason(ctx, otherSeason)
	assert.NoError(t, err)
}

func TestSweeper_Sweep(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	root := t.TempDir()
	path := touch(t, filepath.Join(root, "Blade Runner 2049 (2017).mkv"))
	libraryID := e.library(t, storage.MediaTypeMovie, root)

	_, err := e.scanner.Start(ctx, libraryID, movies())
	require.NoError(t, err)
	mf := e.mediafile(t, path)

	// detach without the watcher's cleanup
	err = e.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		return tx.UpdateMediafile(ctx, mf.ID, storage.MediafileUpdate{ClearMedia: true})
	})
	require.NoError(t, err)

	sweeper := NewSweeper(e.store, "")
	n, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWatcher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := newEnv(t)
	root := t.TempDir()
	libraryID := e.library(t, storage.MediaTypeMovie, root)

	fake := movies()
	w, err := NewWatcher(e.scanner, e.store, func(storage.MediaType) provider.Provider { return fake }, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.WatchAll(ctx))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	path := touch(t, filepath.Join(root, "Blade Runner 2049 (2017).mkv"))

	var mediaID int64
	require.Eventually(t, func() bool {
		tx, err := e.store.ReadTx(ctx)
		if err != nil {
			return false
		}
		defer tx.Done()
		mf, err := tx.GetMediafileByPath(ctx, path)
		if err != nil || mf.MediaID == nil {
			return false
		}
		mediaID = *mf.MediaID
		return true
	}, 5*time.Second, 10*time.Millisecond)

	to := filepath.Join(root, "Blade Runner 2049 (2017) 2160p.mkv")
	require.NoError(t, os.Rename(path, to))

	require.Eventually(t, func() bool {
		tx, err := e.store.ReadTx(ctx)
		if err != nil {
			return false
		}
		defer tx.Done()
		mf, err := tx.GetMediafileByPath(ctx, to)
		return err == nil && mf.LibraryID == libraryID && mf.MediaID != nil && *mf.MediaID == mediaID
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(to))
	require.Eventually(t, func() bool {
		return e.rec.has(events.RemoveCard(mediaID))
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestWatcher_MoveOutThenCreate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := newEnv(t)
	root := t.TempDir()
	outside := t.TempDir()
	libraryID := e.library(t, storage.MediaTypeMovie, root)

	fake := movies()
	w, err := NewWatcher(e.scanner, e.store, func(storage.MediaType) provider.Provider { return fake }, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.WatchAll(ctx))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	blade := touch(t, filepath.Join(root, "Blade Runner 2049 (2017).mkv"))
	var bladeMedia int64
	require.Eventually(t, func() bool {
		tx, err := e.store.ReadTx(ctx)
		if err != nil {
			return false
		}
		defer tx.Done()
		mf, err := tx.GetMediafileByPath(ctx, blade)
		if err != nil || mf.MediaID == nil {
			return false
		}
		bladeMedia = *mf.MediaID
		return true
	}, 5*time.Second, 10*time.Millisecond)

	// the move out and the unrelated create arrive back to back
	require.NoError(t, os.Rename(blade, filepath.Join(outside, "Blade Runner 2049 (2017).mkv")))
	matrix := touch(t, filepath.Join(root, "The Matrix (1999).mkv"))

	var matrixFile *model.Mediafile
	require.Eventually(t, func() bool {
		tx, err := e.store.ReadTx(ctx)
		if err != nil {
			return false
		}
		defer tx.Done()
		mf, err := tx.GetMediafileByPath(ctx, matrix)
		if err != nil || mf.MediaID == nil {
			return false
		}
		matrixFile = mf
		return true
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, libraryID, matrixFile.LibraryID)
	assert.NotEqual(t, bladeMedia, *matrixFile.MediaID)
	assert.Equal(t, "The Matrix", matrixFile.RawName)
	assert.Contains(t, e.prober.probed(), matrix)

	require.Eventually(t, func() bool {
		return e.rec.has(events.RemoveCard(bladeMedia))
	}, 5*time.Second, 10*time.Millisecond)

	tx, err := e.store.ReadTx(ctx)
	require.NoError(t, err)
	_, err = tx.GetMediafileByPath(ctx, blade)
	tx.Done()
	assert.ErrorIs(t, err, storage.ErrNotFound)

	cancel()
	<-done
}
