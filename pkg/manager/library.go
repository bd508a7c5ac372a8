package manager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/pagination"
	"github.com/Dusk-Labs/dim-sub002/pkg/scanner"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"go.uber.org/zap"
)

func toLibrary(l *storage.Library) Library {
	locations := l.Locations
	if locations == nil {
		locations = []string{}
	}
	return Library{ID: l.ID, Name: l.Name, MediaType: l.MediaType, Locations: locations}
}

// ListLibraries returns the libraries that are not hidden
func (m *MediaManager) ListLibraries(ctx context.Context) ([]Library, error) {
	var out []Library
	err := m.readTx(ctx, func(tx storage.Tx) error {
		libraries, err := tx.ListLibraries(ctx)
		if err != nil {
			return err
		}
		out = make([]Library, 0, len(libraries))
		for _, l := range libraries {
			out = append(out, toLibrary(l))
		}
		return nil
	})
	return out, err
}

// GetLibrary returns a library. Hidden libraries are reported as not found.
func (m *MediaManager) GetLibrary(ctx context.Context, id int64) (Library, error) {
	var out Library
	err := m.readTx(ctx, func(tx storage.Tx) error {
		l, err := visibleLibrary(ctx, tx, id)
		if err != nil {
			return err
		}
		out = toLibrary(l)
		return nil
	})
	return out, err
}

func visibleLibrary(ctx context.Context, tx storage.Tx, id int64) (*storage.Library, error) {
	l, err := tx.GetLibrary(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", scanner.ErrLibraryNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	if l.Hidden {
		return nil, fmt.Errorf("%w: %d", scanner.ErrLibraryNotFound, id)
	}
	return l, nil
}

// CreateLibrary stores a library, starts watching its roots and scans it in the background
func (m *MediaManager) CreateLibrary(ctx context.Context, req CreateLibraryRequest) (Library, error) {
	kind, ok := storage.ParseMediaType(req.MediaType)
	if !ok || kind == storage.MediaTypeEpisode {
		return Library{}, fmt.Errorf("%w: media type %q", ErrInvalidRequest, req.MediaType)
	}

	locations := make([]string, 0, len(req.Locations))
	for _, loc := range req.Locations {
		abs, err := filepath.Abs(loc)
		if err != nil {
			return Library{}, fmt.Errorf("%w: location %q: %w", ErrInvalidRequest, loc, err)
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			return Library{}, fmt.Errorf("%w: location %q is not a directory", ErrInvalidRequest, loc)
		}
		locations = append(locations, abs)
	}

	var id int64
	err := m.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		var err error
		id, err = tx.CreateLibrary(ctx, storage.InsertableLibrary{Name: req.Name, MediaType: kind, Locations: locations})
		return err
	})
	if err != nil {
		return Library{}, err
	}

	log := logger.FromCtx(ctx, "library", id)
	log.Infow("created library", "name", req.Name, "media_type", kind)

	if m.watcher != nil {
		if err := m.watcher.Watch(ctx, id); err != nil {
			log.Warnw("failed to watch library", zap.Error(err))
		}
	}
	m.scanInBackground(ctx, id, kind)

	return Library{ID: id, Name: req.Name, MediaType: string(kind), Locations: locations}, nil
}

// DeleteLibrary hides the library so it disappears at once, then deletes it with everything in it
func (m *MediaManager) DeleteLibrary(ctx context.Context, id int64) error {
	err := m.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		if _, err := visibleLibrary(ctx, tx, id); err != nil {
			return err
		}
		return tx.HideLibrary(ctx, id)
	})
	if err != nil {
		return err
	}

	if m.watcher != nil {
		m.watcher.Unwatch(id)
	}

	err = m.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		return tx.DeleteLibrary(ctx, id)
	})
	if err != nil {
		return err
	}
	logger.FromCtx(ctx, "library", id).Info("deleted library")
	return nil
}

// LibraryMedia pages through the cards of a library
func (m *MediaManager) LibraryMedia(ctx context.Context, id int64, params pagination.Params) (LibraryMedia, error) {
	params = params.Normalize()
	out := LibraryMedia{Media: []Card{}}
	err := m.readTx(ctx, func(tx storage.Tx) error {
		if _, err := visibleLibrary(ctx, tx, id); err != nil {
			return err
		}
		media, total, err := tx.ListLibraryMedia(ctx, id, params)
		if err != nil {
			return err
		}
		cards, err := toCards(ctx, tx, media)
		if err != nil {
			return err
		}
		out.Media = cards
		out.Meta = params.BuildMeta(total)
		return nil
	})
	return out, err
}

// Unmatched lists the library's files that have no media
func (m *MediaManager) Unmatched(ctx context.Context, id int64) ([]Mediafile, error) {
	var out []Mediafile
	err := m.readTx(ctx, func(tx storage.Tx) error {
		if _, err := visibleLibrary(ctx, tx, id); err != nil {
			return err
		}
		files, err := tx.ListUnmatchedMediafiles(ctx, id)
		if err != nil {
			return err
		}
		out = toMediafiles(files)
		return nil
	})
	return out, err
}

// ScanLibrary starts a scan in the background. A library that is already scanning is rejected.
func (m *MediaManager) ScanLibrary(ctx context.Context, id int64) error {
	var kind storage.MediaType
	err := m.readTx(ctx, func(tx storage.Tx) error {
		l, err := visibleLibrary(ctx, tx, id)
		if err != nil {
			return err
		}
		kind = storage.MediaType(l.MediaType)
		return nil
	})
	if err != nil {
		return err
	}

	if m.scanner.State(id) == scanner.StateScanning {
		return fmt.Errorf("%w: library %d", scanner.ErrScanInProgress, id)
	}
	m.scanInBackground(ctx, id, kind)
	return nil
}

// Scan scans a library and waits for the result
func (m *MediaManager) Scan(ctx context.Context, id int64) (scanner.Report, error) {
	var kind storage.MediaType
	err := m.readTx(ctx, func(tx storage.Tx) error {
		l, err := visibleLibrary(ctx, tx, id)
		if err != nil {
			return err
		}
		kind = storage.MediaType(l.MediaType)
		return nil
	})
	if err != nil {
		return scanner.Report{}, err
	}

	p, err := m.providers.For(kind)
	if err != nil {
		return scanner.Report{}, err
	}
	return m.scanner.Start(ctx, id, p)
}

func (m *MediaManager) scanInBackground(ctx context.Context, id int64, kind storage.MediaType) {
	p, err := m.providers.For(kind)
	if err != nil {
		logger.FromCtx(ctx).Errorw("no provider for library", "library", id, zap.Error(err))
		return
	}

	m.background(ctx, func(ctx context.Context) {
		log := logger.FromCtx(ctx, "library", id)
		report, err := m.scanner.Start(ctx, id, p)
		if err != nil {
			log.Warnw("scan failed", zap.Error(err))
			return
		}
		log.Infow("scan finished", "found", report.Found, "inserted", report.Inserted,
			"matched", report.Matched, "unmatched", report.Unmatched)
	})
}

func toMediafiles(files []*model.Mediafile) []Mediafile {
	out := make([]Mediafile, 0, len(files))
	for _, f := range files {
		out = append(out, toMediafile(f))
	}
	return out
}
