package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/sqlite"
	"golang.org/x/exp/rand"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const dashboardSectionSize = 10

const (
	SectionTopRated      = "Top Rated"
	SectionRecentlyAdded = "Recently Added"
)

var cards = table.Media.MediaType.IN(
	sqlite.String(string(storage.MediaTypeMovie)),
	sqlite.String(string(storage.MediaTypeTv)),
)

// assetPath returns where the server exposes a stored asset
func assetPath(ctx context.Context, tx storage.Tx, id *int64) (*string, error) {
	if id == nil {
		return nil, nil
	}
	asset, err := tx.GetAsset(ctx, *id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := "/" + strings.TrimPrefix(asset.LocalPath, "/")
	return &p, nil
}

func toCard(ctx context.Context, tx storage.Tx, media *model.Media) (Card, error) {
	poster, err := assetPath(ctx, tx, media.Poster)
	if err != nil {
		return Card{}, err
	}
	return Card{
		ID:         media.ID,
		LibraryID:  media.LibraryID,
		Name:       media.Name,
		Year:       media.Year,
		PosterPath: poster,
		MediaType:  media.MediaType,
	}, nil
}

func toCards(ctx context.Context, tx storage.Tx, media []*model.Media) ([]Card, error) {
	out := make([]Card, 0, len(media))
	for _, m := range media {
		c, err := toCard(ctx, tx, m)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func genreNames(ctx context.Context, tx storage.Tx, mediaID int64) ([]string, error) {
	genres, err := tx.ListMediaGenres(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	caser := cases.Title(language.English)
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		names = append(names, caser.String(strings.ToLower(g.Name)))
	}
	return names, nil
}

func progress(ctx context.Context, tx storage.Tx, userID, mediaID int64) (int64, error) {
	p, err := tx.GetProgress(ctx, userID, mediaID)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return p.Delta, nil
}

// visibleMedia returns media whose library is not hidden
func visibleMedia(ctx context.Context, tx storage.Tx, id int64) (*model.Media, error) {
	media, err := tx.GetMedia(ctx, id)
	if err != nil {
		return nil, err
	}
	l, err := tx.GetLibrary(ctx, media.LibraryID)
	if err != nil {
		return nil, err
	}
	if l.Hidden {
		return nil, fmt.Errorf("%w: media %d", storage.ErrNotFound, id)
	}
	return media, nil
}

// GetMedia returns a movie, show or episode with its genres, files and the user's progress
func (m *MediaManager) GetMedia(ctx context.Context, userID, id int64) (Media, error) {
	var out Media
	err := m.readTx(ctx, func(tx storage.Tx) error {
		media, err := visibleMedia(ctx, tx, id)
		if err != nil {
			return err
		}
		out, err = m.mediaDetails(ctx, tx, userID, media)
		return err
	})
	return out, err
}

func (m *MediaManager) mediaDetails(ctx context.Context, tx storage.Tx, userID int64, media *model.Media) (Media, error) {
	card, err := toCard(ctx, tx, media)
	if err != nil {
		return Media{}, err
	}
	backdrop, err := assetPath(ctx, tx, media.Backdrop)
	if err != nil {
		return Media{}, err
	}
	genres, err := genreNames(ctx, tx, media.ID)
	if err != nil {
		return Media{}, err
	}
	files, err := tx.ListMediafilesByMedia(ctx, media.ID)
	if err != nil {
		return Media{}, err
	}
	delta, err := progress(ctx, tx, userID, media.ID)
	if err != nil {
		return Media{}, err
	}

	out := Media{
		Card:         card,
		Description:  media.Description,
		Rating:       media.Rating,
		Added:        media.Added,
		BackdropPath: backdrop,
		Genres:       genres,
		Progress:     delta,
		Files:        toMediafiles(files),
	}
	for _, f := range files {
		if f.Duration != nil {
			out.Duration = f.Duration
			break
		}
	}
	return out, nil
}

// UpdateMedia edits the metadata of a media
func (m *MediaManager) UpdateMedia(ctx context.Context, userID, id int64, req UpdateMediaRequest) (Media, error) {
	var (
		update storage.MediaUpdate
		err    error
	)
	if update.Name, err = value("name", req.Name); err != nil {
		return Media{}, err
	}
	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return Media{}, fmt.Errorf("%w: name can not be empty", ErrInvalidRequest)
	}
	if update.Description, err = value("description", req.Description); err != nil {
		return Media{}, err
	}
	if update.Year, err = value("year", req.Year); err != nil {
		return Media{}, err
	}
	if update.Rating, err = value("rating", req.Rating); err != nil {
		return Media{}, err
	}
	if update.Rating != nil && (*update.Rating < 0 || *update.Rating > 10) {
		return Media{}, fmt.Errorf("%w: rating must be between 0 and 10", ErrInvalidRequest)
	}

	err = m.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		if _, err := visibleMedia(ctx, tx, id); err != nil {
			return err
		}
		return tx.UpdateMedia(ctx, id, update)
	})
	if err != nil {
		return Media{}, err
	}
	return m.GetMedia(ctx, userID, id)
}

// DeleteMedia removes a media. Its files stay in the library unmatched.
func (m *MediaManager) DeleteMedia(ctx context.Context, id int64) error {
	return m.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		if _, err := visibleMedia(ctx, tx, id); err != nil {
			return err
		}
		return tx.DeleteMedia(ctx, id)
	})
}

// SetProgress records how far into a media the user is, in seconds
func (m *MediaManager) SetProgress(ctx context.Context, userID, id int64, offset int64) error {
	if offset < 0 {
		return fmt.Errorf("%w: negative offset", ErrInvalidRequest)
	}
	return m.store.WithWriteTx(ctx, func(tx storage.Tx) error {
		if _, err := visibleMedia(ctx, tx, id); err != nil {
			return err
		}
		return tx.SetProgress(ctx, userID, id, offset)
	})
}

// Search finds media by name, optionally narrowed by year, library, genre or kind
func (m *MediaManager) Search(ctx context.Context, req SearchRequest) ([]Card, error) {
	var out []Card
	err := m.readTx(ctx, func(tx storage.Tx) error {
		media, err := tx.SearchMedia(ctx, storage.SearchQuery{
			Query:     req.Query,
			Year:      req.Year,
			LibraryID: req.LibraryID,
			Genre:     req.Genre,
			MediaType: req.MediaType,
		})
		if err != nil {
			return err
		}
		out, err = toCards(ctx, tx, media)
		return err
	})
	return out, err
}

// Dashboard returns the top rated and the most recently added media
func (m *MediaManager) Dashboard(ctx context.Context) (Dashboard, error) {
	out := Dashboard{}
	sections := []struct {
		name  string
		where sqlite.BoolExpression
		order []sqlite.OrderByClause
	}{
		{
			name:  SectionTopRated,
			where: cards.AND(table.Media.Rating.IS_NOT_NULL()),
			order: []sqlite.OrderByClause{table.Media.Rating.DESC(), table.Media.ID.ASC()},
		},
		{
			name:  SectionRecentlyAdded,
			where: cards,
			order: []sqlite.OrderByClause{table.Media.Added.DESC(), table.Media.ID.DESC()},
		},
	}

	err := m.readTx(ctx, func(tx storage.Tx) error {
		for _, s := range sections {
			media, err := tx.ListMedia(ctx, s.where, s.order, dashboardSectionSize)
			if err != nil {
				return err
			}
			c, err := toCards(ctx, tx, media)
			if err != nil {
				return err
			}
			out[s.name] = c
		}
		return nil
	})
	return out, err
}

// Banner picks a random movie or show that has a backdrop
func (m *MediaManager) Banner(ctx context.Context, userID int64) (Banner, error) {
	var out Banner
	err := m.readTx(ctx, func(tx storage.Tx) error {
		media, err := tx.ListMedia(ctx, cards.AND(table.Media.Backdrop.IS_NOT_NULL()), nil, 0)
		if err != nil {
			return err
		}
		if len(media) == 0 {
			return fmt.Errorf("%w: no media with a backdrop", storage.ErrNotFound)
		}

		pick := media[rand.Intn(len(media))]
		details, err := m.mediaDetails(ctx, tx, userID, pick)
		if err != nil {
			return err
		}
		out = Banner{
			ID:           pick.ID,
			Title:        pick.Name,
			Year:         pick.Year,
			Synopsis:     pick.Description,
			BackdropPath: details.BackdropPath,
			Genres:       details.Genres,
			Duration:     details.Duration,
			Progress:     details.Progress,
		}
		return nil
	})
	if err == nil {
		logger.FromCtx(ctx).Debugw("picked banner", "media", out.ID)
	}
	return out, err
}
