package manager

import (
	"context"
	"fmt"
	"os"

	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/matcher"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"github.com/dustin/go-humanize"
	"github.com/oapi-codegen/nullable"
)

func toMediafile(f *model.Mediafile) Mediafile {
	out := Mediafile{
		ID:                 f.ID,
		MediaID:            f.MediaID,
		LibraryID:          f.LibraryID,
		TargetFile:         f.TargetFile,
		RawName:            f.RawName,
		RawYear:            f.RawYear,
		Quality:            f.Quality,
		Codec:              f.Codec,
		Container:          f.Container,
		Audio:              f.Audio,
		OriginalResolution: f.OriginalResolution,
		Duration:           f.Duration,
		Bitrate:            f.Bitrate,
		Season:             f.Season,
		Episode:            f.Episode,
		Corrupt:            f.Corrupt,
	}
	if info, err := os.Stat(f.TargetFile); err == nil {
		size := uint64(info.Size())
		out.Size = &size
		out.SizeHuman = humanize.Bytes(size)
	}
	return out
}

func (m *MediaManager) GetMediafile(ctx context.Context, id int64) (Mediafile, error) {
	var out Mediafile
	err := m.readTx(ctx, func(tx storage.Tx) error {
		f, err := tx.GetMediafile(ctx, id)
		if err != nil {
			return err
		}
		out = toMediafile(f)
		return nil
	})
	return out, err
}

// UpdateMediafile corrects the parsed name, year, season or episode of a file
func (m *MediaManager) UpdateMediafile(ctx context.Context, id int64, req UpdateMediafileRequest) (Mediafile, error) {
	update := storage.MediafileUpdate{}
	if req.RawName.IsSpecified() {
		name, err := req.RawName.Get()
		if err != nil || name == "" {
			return Mediafile{}, fmt.Errorf("%w: raw_name can not be empty", ErrInvalidRequest)
		}
		update.RawName = &name
	}
	var err error
	if update.RawYear, err = value("raw_year", req.RawYear); err != nil {
		return Mediafile{}, err
	}
	if update.Season, err = value("season", req.Season); err != nil {
		return Mediafile{}, err
	}
	if update.Episode, err = value("episode", req.Episode); err != nil {
		return Mediafile{}, err
	}

	var out Mediafile
	err = m.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.GetMediafile(ctx, id); err != nil {
			return err
		}
		if err := tx.UpdateMediafile(ctx, id, update); err != nil {
			return err
		}
		f, err := tx.GetMediafile(ctx, id)
		if err != nil {
			return err
		}
		out = toMediafile(f)
		return nil
	})
	return out, err
}

// value returns the field's value when it was sent. An explicit null is rejected.
func value[T any](field string, n nullable.Nullable[T]) (*T, error) {
	if !n.IsSpecified() {
		return nil, nil
	}
	v, err := n.Get()
	if err != nil {
		return nil, fmt.Errorf("%w: %s can not be null", ErrInvalidRequest, field)
	}
	return &v, nil
}

// Rematch attaches every file to the media with externalID. Files are checked before the provider
// is asked, so an unknown id leaves the catalog untouched.
func (m *MediaManager) Rematch(ctx context.Context, req RematchRequest) error {
	kind, ok := storage.ParseMediaType(req.MediaType)
	if !ok {
		return fmt.Errorf("%w: media type %q", ErrInvalidRequest, req.MediaType)
	}
	if len(req.MediafileIDs) == 0 || req.ExternalID == "" {
		return fmt.Errorf("%w: mediafile ids and an external id are required", ErrInvalidRequest)
	}

	mt, err := matcher.New(kind, m.store, m.publisher)
	if err != nil {
		return err
	}
	p, err := m.providers.For(kind)
	if err != nil {
		return err
	}

	err = m.readTx(ctx, func(tx storage.Tx) error {
		for _, id := range req.MediafileIDs {
			f, err := tx.GetMediafile(ctx, id)
			if err != nil {
				return err
			}
			l, err := tx.GetLibrary(ctx, f.LibraryID)
			if err != nil {
				return err
			}
			if storage.MediaType(l.MediaType) != kind {
				return fmt.Errorf("%w: mediafile %d is in a %s library", matcher.ErrMediaTypeMismatch, id, l.MediaType)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if _, err := p.SearchByID(ctx, req.ExternalID); err != nil {
		return err
	}

	log := logger.FromCtx(ctx, "external_id", req.ExternalID)
	for _, id := range req.MediafileIDs {
		if err := mt.MatchToID(ctx, p, id, req.ExternalID); err != nil {
			return err
		}
		log.Debugw("rematched mediafile", "mediafile", id)
	}
	return nil
}
