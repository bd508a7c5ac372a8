package manager

import (
	"context"
	"fmt"

	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
)

func toSeason(ctx context.Context, tx storage.Tx, s *model.Season) (Season, error) {
	poster, err := assetPath(ctx, tx, s.Poster)
	if err != nil {
		return Season{}, err
	}
	return Season{
		ID:           s.ID,
		SeasonNumber: s.SeasonNumber,
		TvShowID:     s.TvShowID,
		Added:        s.Added,
		PosterPath:   poster,
	}, nil
}

// visibleShow returns the tv show with id when its library is visible
func visibleShow(ctx context.Context, tx storage.Tx, id int64) (*model.Media, error) {
	show, err := visibleMedia(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if storage.MediaType(show.MediaType) != storage.MediaTypeTv {
		return nil, fmt.Errorf("%w: media %d is not a tv show", storage.ErrNotFound, id)
	}
	return show, nil
}

func visibleSeason(ctx context.Context, tx storage.Tx, id int64) (*model.Season, error) {
	season, err := tx.GetSeason(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := visibleShow(ctx, tx, season.TvShowID); err != nil {
		return nil, err
	}
	return season, nil
}

// ListSeasons returns a show's seasons by season number
func (m *MediaManager) ListSeasons(ctx context.Context, showID int64) ([]Season, error) {
	var out []Season
	err := m.readTx(ctx, func(tx storage.Tx) error {
		if _, err := visibleShow(ctx, tx, showID); err != nil {
			return err
		}
		seasons, err := tx.ListSeasons(ctx, showID)
		if err != nil {
			return err
		}
		out = make([]Season, 0, len(seasons))
		for _, s := range seasons {
			season, err := toSeason(ctx, tx, s)
			if err != nil {
				return err
			}
			out = append(out, season)
		}
		return nil
	})
	return out, err
}

func (m *MediaManager) GetSeason(ctx context.Context, id int64) (Season, error) {
	var out Season
	err := m.readTx(ctx, func(tx storage.Tx) error {
		s, err := visibleSeason(ctx, tx, id)
		if err != nil {
			return err
		}
		out, err = toSeason(ctx, tx, s)
		return err
	})
	return out, err
}

// UpdateSeason renumbers a season. A number already used by the show is a constraint violation.
func (m *MediaManager) UpdateSeason(ctx context.Context, id int64, req UpdateSeasonRequest) (Season, error) {
	number, err := value("season_number", req.SeasonNumber)
	if err != nil {
		return Season{}, err
	}
	if number != nil && *number < 0 {
		return Season{}, fmt.Errorf("%w: negative season number", ErrInvalidRequest)
	}

	err = m.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		if _, err := visibleSeason(ctx, tx, id); err != nil {
			return err
		}
		return tx.UpdateSeason(ctx, id, storage.SeasonUpdate{SeasonNumber: number})
	})
	if err != nil {
		return Season{}, err
	}
	return m.GetSeason(ctx, id)
}

// DeleteSeason removes a season with its episodes. Their files become unmatched.
func (m *MediaManager) DeleteSeason(ctx context.Context, id int64) error {
	return m.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		if _, err := visibleSeason(ctx, tx, id); err != nil {
			return err
		}
		episodes, err := tx.ListEpisodes(ctx, id)
		if err != nil {
			return err
		}
		for _, e := range episodes {
			if err := tx.DeleteEpisode(ctx, e.Episode.ID); err != nil {
				return err
			}
		}
		return tx.DeleteSeason(ctx, id)
	})
}

func (m *MediaManager) toEpisode(ctx context.Context, tx storage.Tx, userID int64, e *storage.Episode) (Episode, error) {
	thumbnail, err := assetPath(ctx, tx, e.Media.Backdrop)
	if err != nil {
		return Episode{}, err
	}
	files, err := tx.ListMediafilesByMedia(ctx, e.Media.ID)
	if err != nil {
		return Episode{}, err
	}
	delta, err := progress(ctx, tx, userID, e.Media.ID)
	if err != nil {
		return Episode{}, err
	}

	out := Episode{
		ID:            e.Episode.ID,
		Episode:       e.Episode.Episode,
		SeasonID:      e.Episode.SeasonID,
		SeasonNumber:  e.SeasonNumber,
		TvShowID:      e.TvShowID,
		Name:          e.Media.Name,
		Description:   e.Media.Description,
		ThumbnailPath: thumbnail,
		Progress:      delta,
		Files:         toMediafiles(files),
	}
	for _, f := range files {
		if f.Duration != nil {
			out.Duration = f.Duration
			break
		}
	}
	return out, nil
}

// SeasonEpisodes lists a season's episodes by episode number
func (m *MediaManager) SeasonEpisodes(ctx context.Context, userID, seasonID int64) ([]Episode, error) {
	var out []Episode
	err := m.readTx(ctx, func(tx storage.Tx) error {
		if _, err := visibleSeason(ctx, tx, seasonID); err != nil {
			return err
		}
		episodes, err := tx.ListEpisodes(ctx, seasonID)
		if err != nil {
			return err
		}
		out = make([]Episode, 0, len(episodes))
		for _, e := range episodes {
			episode, err := m.toEpisode(ctx, tx, userID, e)
			if err != nil {
				return err
			}
			out = append(out, episode)
		}
		return nil
	})
	return out, err
}

func visibleEpisode(ctx context.Context, tx storage.Tx, id int64) (*storage.Episode, error) {
	e, err := tx.GetEpisode(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := visibleShow(ctx, tx, e.TvShowID); err != nil {
		return nil, err
	}
	return e, nil
}

func (m *MediaManager) GetEpisode(ctx context.Context, userID, id int64) (Episode, error) {
	var out Episode
	err := m.readTx(ctx, func(tx storage.Tx) error {
		e, err := visibleEpisode(ctx, tx, id)
		if err != nil {
			return err
		}
		out, err = m.toEpisode(ctx, tx, userID, e)
		return err
	})
	return out, err
}

// UpdateEpisode renumbers or renames an episode
func (m *MediaManager) UpdateEpisode(ctx context.Context, userID, id int64, req UpdateEpisodeRequest) (Episode, error) {
	number, err := value("episode", req.Episode)
	if err != nil {
		return Episode{}, err
	}
	if number != nil && *number < 0 {
		return Episode{}, fmt.Errorf("%w: negative episode number", ErrInvalidRequest)
	}
	name, err := value("name", req.Name)
	if err != nil {
		return Episode{}, err
	}

	err = m.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		if _, err := visibleEpisode(ctx, tx, id); err != nil {
			return err
		}
		if number != nil {
			if err := tx.UpdateEpisodeNumber(ctx, id, *number); err != nil {
				return err
			}
		}
		if name != nil {
			return tx.UpdateMedia(ctx, id, storage.MediaUpdate{Name: name})
		}
		return nil
	})
	if err != nil {
		return Episode{}, err
	}
	return m.GetEpisode(ctx, userID, id)
}

// DeleteEpisode removes an episode. Its files become unmatched.
func (m *MediaManager) DeleteEpisode(ctx context.Context, id int64) error {
	return m.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		if _, err := visibleEpisode(ctx, tx, id); err != nil {
			return err
		}
		return tx.DeleteEpisode(ctx, id)
	})
}
