package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Dusk-Labs/dim-sub002/pkg/events"
	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/machine"
	"github.com/Dusk-Labs/dim-sub002/pkg/matcher"
	"github.com/Dusk-Labs/dim-sub002/pkg/metrics"
	"github.com/Dusk-Labs/dim-sub002/pkg/parser"
	"github.com/Dusk-Labs/dim-sub002/pkg/prober"
	"github.com/Dusk-Labs/dim-sub002/pkg/provider"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultProbeWorkers = 4

var (
	ErrInvalidExternalID = errors.New("invalid external id")
	ErrMovieScanner      = errors.New("movie scanner failed")
	ErrTvScanner         = errors.New("tv scanner failed")
	ErrMediafile         = errors.New("mediafile error")
	ErrEventDispatch     = errors.New("event dispatch failed")
	ErrLibraryNotFound   = errors.New("library not found")
	ErrScanInProgress    = errors.New("library is already being scanned")
)

type State string

const (
	StateIdle     State = "idle"
	StateScanning State = "scanning"
)

// Report summarizes a scan
type Report struct {
	Found     int
	Inserted  int
	Matched   int
	Unmatched int
}

// Scanner walks library roots, stores the media files it finds and matches them against a provider
type Scanner struct {
	store     storage.Storage
	prober    prober.Prober
	publisher events.Publisher
	workers   int

	mu     sync.Mutex
	states map[int64]*machine.StateMachine[State]
}

type Option func(*Scanner)

// WithProbeWorkers bounds how many files are probed at once
func WithProbeWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

func New(store storage.Storage, p prober.Prober, publisher events.Publisher, opts ...Option) *Scanner {
	if publisher == nil {
		publisher = events.Discard
	}
	s := &Scanner{
		store:     store,
		prober:    p,
		publisher: publisher,
		workers:   DefaultProbeWorkers,
		states:    make(map[int64]*machine.StateMachine[State]),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newStateMachine() *machine.StateMachine[State] {
	return machine.New(StateIdle,
		machine.From(StateIdle).To(StateScanning),
		machine.From(StateScanning).To(StateIdle),
	)
}

func (s *Scanner) state(libraryID int64) *machine.StateMachine[State] {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.states[libraryID]
	if !ok {
		m = newStateMachine()
		s.states[libraryID] = m
	}
	return m
}

// State returns whether the library is being scanned
func (s *Scanner) State(libraryID int64) State {
	return s.state(libraryID).Current()
}

// Start scans every root of the library, then matches the library's unmatched files with p.
// Per-file failures are logged and never abort the scan.
func (s *Scanner) Start(ctx context.Context, libraryID int64, p provider.Provider) (Report, error) {
	sm := s.state(libraryID)
	if err := sm.ToState(StateScanning); err != nil {
		return Report{}, fmt.Errorf("%w: %d", ErrScanInProgress, libraryID)
	}
	defer func() {
		_ = sm.ToState(StateIdle)
	}()

	library, err := s.library(ctx, libraryID)
	if err != nil {
		return Report{}, err
	}

	log := logger.FromCtx(ctx, "library", libraryID)
	ctx = logger.WithCtx(ctx, log)

	s.publisher.Publish(events.StartedScanning(libraryID))
	defer s.publisher.Publish(events.StoppedScanning(libraryID))

	var files []string
	for _, root := range library.Locations {
		found, err := Walk(ctx, root)
		if err != nil {
			log.Warnw("failed to walk library root", "root", root, zap.Error(err))
		}
		files = append(files, found...)
	}

	report := Report{Found: len(files)}
	report.Inserted, err = s.ingestAll(ctx, library, files)
	if err != nil {
		return report, err
	}

	res, err := s.MatchUnmatched(ctx, library, p)
	report.Matched, report.Unmatched = res.Matched, res.Unmatched
	if err != nil {
		return report, err
	}

	log.Infow("scan finished", "found", report.Found, "inserted", report.Inserted, "matched", report.Matched, "unmatched", report.Unmatched)
	return report, nil
}

// ScanDir stores and matches the files below dir, which must be inside one of the library's roots
func (s *Scanner) ScanDir(ctx context.Context, libraryID int64, dir string, p provider.Provider) (Report, error) {
	library, err := s.library(ctx, libraryID)
	if err != nil {
		return Report{}, err
	}

	files, err := Walk(ctx, dir)
	if err != nil {
		return Report{}, err
	}

	report := Report{Found: len(files)}
	report.Inserted, err = s.ingestAll(ctx, library, files)
	if err != nil {
		return report, err
	}

	res, err := s.MatchUnmatched(ctx, library, p)
	report.Matched, report.Unmatched = res.Matched, res.Unmatched
	return report, err
}

// IngestFile runs the per-file pipeline for one path and matches it if it was new
func (s *Scanner) IngestFile(ctx context.Context, libraryID int64, path string, p provider.Provider) error {
	library, err := s.library(ctx, libraryID)
	if err != nil {
		return err
	}

	mediafile, created, err := s.ingest(ctx, library, path)
	if err != nil || !created || p == nil {
		return err
	}

	m, err := s.matcher(library)
	if err != nil {
		return err
	}
	unit := matcher.WorkUnit{Mediafile: *mediafile, Candidates: parser.Candidates(rootOf(library, path), path)}
	_, err = m.BatchMatch(ctx, p, []matcher.WorkUnit{unit})
	return err
}

func (s *Scanner) library(ctx context.Context, libraryID int64) (*storage.Library, error) {
	tx, err := s.store.ReadTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Done()

	library, err := tx.GetLibrary(ctx, libraryID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrLibraryNotFound, libraryID)
	}
	return library, err
}

func (s *Scanner) matcher(library *storage.Library) (*matcher.Matcher, error) {
	m, err := matcher.New(storage.MediaType(library.MediaType), s.store, s.publisher)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", scannerErr(library), err)
	}
	return m, nil
}

func scannerErr(library *storage.Library) error {
	if storage.MediaType(library.MediaType) == storage.MediaTypeTv {
		return ErrTvScanner
	}
	return ErrMovieScanner
}

// ingestAll runs the per-file pipeline over files with bounded parallelism and returns how many rows were created
func (s *Scanner) ingestAll(ctx context.Context, library *storage.Library, files []string) (int, error) {
	log := logger.FromCtx(ctx)

	var inserted atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, path := range files {
		g.Go(func() error {
			_, created, err := s.ingest(gctx, library, path)
			switch {
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				return err
			case err != nil:
				metrics.ScannedFiles.WithLabelValues("error").Inc()
				log.Warnw("failed to store mediafile", "path", path, zap.Error(err))
			case created:
				inserted.Add(1)
			}
			return nil
		})
	}

	err := g.Wait()
	return int(inserted.Load()), err
}

// ingest parses, probes and stores path unless a mediafile already points at it
func (s *Scanner) ingest(ctx context.Context, library *storage.Library, path string) (*model.Mediafile, bool, error) {
	existing, err := s.mediafileByPath(ctx, path)
	if err == nil {
		metrics.ScannedFiles.WithLabelValues("skipped").Inc()
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("%w: %w", ErrMediafile, err)
	}

	meta := parser.Parse(filepath.Base(path))
	if meta.Name == "" {
		if candidates := parser.Candidates(rootOf(library, path), path); len(candidates) > 0 {
			meta = candidates[0]
		}
	}

	info, err := s.prober.Probe(ctx, path)
	if err != nil {
		return nil, false, err
	}

	mediafile := model.Mediafile{
		LibraryID:          library.ID,
		TargetFile:         path,
		RawName:            meta.Name,
		RawYear:            meta.Year,
		Season:             meta.Season,
		Episode:            meta.Episode,
		Quality:            info.Quality(),
		Codec:              optional(info.Codec),
		Container:          optional(info.Container),
		Audio:              optional(info.Audio),
		OriginalResolution: info.Resolution(),
		Duration:           info.Duration,
		Bitrate:            info.Bitrate,
		Corrupt:            info.Corrupt,
	}

	created := false
	err = s.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		if found, err := tx.GetMediafileByPath(ctx, path); err == nil {
			mediafile = *found
			return nil
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		id, err := tx.CreateMediafile(ctx, mediafile)
		if err != nil {
			return err
		}
		mediafile.ID = id
		created = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s: %w", ErrMediafile, path, err)
	}

	if created {
		metrics.ScannedFiles.WithLabelValues("inserted").Inc()
	} else {
		metrics.ScannedFiles.WithLabelValues("skipped").Inc()
	}
	return &mediafile, created, nil
}

func (s *Scanner) mediafileByPath(ctx context.Context, path string) (*model.Mediafile, error) {
	tx, err := s.store.ReadTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Done()
	return tx.GetMediafileByPath(ctx, path)
}

// MatchUnmatched runs the library's matcher over every mediafile without media
func (s *Scanner) MatchUnmatched(ctx context.Context, library *storage.Library, p provider.Provider) (matcher.Result, error) {
	tx, err := s.store.ReadTx(ctx)
	if err != nil {
		return matcher.Result{}, err
	}
	unmatched, err := tx.ListUnmatchedMediafiles(ctx, library.ID)
	tx.Done()
	if err != nil {
		return matcher.Result{}, fmt.Errorf("%w: %w", scannerErr(library), err)
	}
	if len(unmatched) == 0 {
		return matcher.Result{}, nil
	}
	// without a provider files are only indexed
	if p == nil {
		return matcher.Result{Unmatched: len(unmatched)}, nil
	}

	units := make([]matcher.WorkUnit, 0, len(unmatched))
	for _, mf := range unmatched {
		units = append(units, matcher.WorkUnit{
			Mediafile:  *mf,
			Candidates: parser.Candidates(rootOf(library, mf.TargetFile), mf.TargetFile),
		})
	}

	m, err := s.matcher(library)
	if err != nil {
		return matcher.Result{}, err
	}
	return m.BatchMatch(ctx, p, units)
}

// RenamePath moves the mediafiles at from, or below it when from was a directory, to to.
// Match state is kept. It returns false when nothing was stored under from.
func (s *Scanner) RenamePath(ctx context.Context, libraryID int64, from, to string) (bool, error) {
	renamed := false
	err := s.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		if mf, err := tx.GetMediafileByPath(ctx, from); err == nil {
			renamed = true
			return tx.UpdateMediafile(ctx, mf.ID, storage.MediafileUpdate{TargetFile: &to})
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}

		under, err := tx.ListMediafilesUnderPath(ctx, libraryID, from)
		if err != nil {
			return err
		}
		for _, mf := range under {
			target := filepath.Join(to, strings.TrimPrefix(mf.TargetFile, filepath.Clean(from)))
			if err := tx.UpdateMediafile(ctx, mf.ID, storage.MediafileUpdate{TargetFile: &target}); err != nil {
				return err
			}
			renamed = true
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrMediafile, err)
	}
	return renamed, nil
}

// RemovePath deletes the mediafiles at path, or below it when path was a directory. Media left
// without any mediafile are deleted with them. It returns how many mediafiles were removed.
func (s *Scanner) RemovePath(ctx context.Context, libraryID int64, path string) (int, error) {
	removed := 0
	err := s.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		var files []*model.Mediafile
		if mf, err := tx.GetMediafileByPath(ctx, path); err == nil {
			files = append(files, mf)
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		} else {
			files, err = tx.ListMediafilesUnderPath(ctx, libraryID, path)
			if err != nil {
				return err
			}
		}

		for _, mf := range files {
			if err := tx.DeleteMediafile(ctx, mf.ID); err != nil {
				return err
			}
			removed++

			if mf.MediaID != nil {
				if err := deleteIfOrphan(ctx, tx, *mf.MediaID); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMediafile, err)
	}
	return removed, nil
}

// deleteIfOrphan removes a media that no mediafile renders any more. Removing the last
// episode of a show removes its empty seasons and the show as well.
func deleteIfOrphan(ctx context.Context, tx storage.Tx, mediaID int64) error {
	count, err := tx.CountMediafiles(ctx, mediaID)
	if err != nil || count > 0 {
		return err
	}

	media, err := tx.GetMedia(ctx, mediaID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var showID *int64
	if storage.MediaType(media.MediaType) == storage.MediaTypeEpisode {
		if ep, err := tx.GetEpisode(ctx, mediaID); err == nil {
			showID = &ep.TvShowID
		}
	}

	if err := tx.DeleteMedia(ctx, mediaID); err != nil {
		return err
	}
	if showID == nil {
		return nil
	}

	if _, err := tx.DeleteEmptySeasonsOfShow(ctx, *showID); err != nil {
		return err
	}
	seasons, err := tx.ListSeasons(ctx, *showID)
	if err != nil {
		return err
	}
	if len(seasons) == 0 {
		return deleteIfOrphan(ctx, tx, *showID)
	}
	return nil
}

// rootOf returns the library root that contains path
func rootOf(library *storage.Library, path string) string {
	best := ""
	for _, root := range library.Locations {
		clean := filepath.Clean(root)
		if (path == clean || strings.HasPrefix(path, clean+string(filepath.Separator))) && len(clean) > len(best) {
			best = clean
		}
	}
	if best == "" {
		return filepath.Dir(path)
	}
	return best
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Walk lists the video files below root. Symlinks are followed, each real directory is
// visited once so link cycles end, and hidden entries are skipped.
func Walk(ctx context.Context, root string) ([]string, error) {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, err
	}

	w := walker{visited: map[string]bool{}}
	err = w.walk(ctx, filepath.Clean(root), resolved)
	return w.files, err
}

type walker struct {
	visited map[string]bool
	files   []string
}

func (w *walker) walk(ctx context.Context, dir, resolved string) error {
	if w.visited[resolved] {
		return nil
	}
	w.visited[resolved] = true

	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.FromCtx(ctx).Debugw("skipping unreadable directory", "dir", dir, zap.Error(err))
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		info, err := os.Stat(path)
		if err != nil {
			// broken link
			continue
		}

		if info.IsDir() {
			target, err := filepath.EvalSymlinks(path)
			if err != nil {
				continue
			}
			if err := w.walk(ctx, path, target); err != nil {
				return err
			}
			continue
		}

		if info.Mode().IsRegular() && parser.IsVideo(name) {
			w.files = append(w.files, path)
		}
	}
	return nil
}
