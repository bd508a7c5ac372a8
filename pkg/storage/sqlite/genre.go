package sqlite

import (
	"context"
	"strings"

	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/sqlite"
)

func normalizeGenre(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// CreateGenre inserts the genre by its uppercased name, or returns the id of the existing one
func (t *tx) CreateGenre(ctx context.Context, name string) (int64, error) {
	name = normalizeGenre(name)

	stmt := table.Genre.
		INSERT(table.Genre.Name).
		MODEL(model.Genre{Name: name}).
		ON_CONFLICT(table.Genre.Name).
		DO_NOTHING()

	if _, err := t.exec(ctx, stmt); err != nil {
		return 0, err
	}

	genre, err := t.GetGenreByName(ctx, name)
	if err != nil {
		return 0, err
	}
	return genre.ID, nil
}

// GetGenreByName looks a genre up ignoring case
func (t *tx) GetGenreByName(ctx context.Context, name string) (*model.Genre, error) {
	stmt := table.Genre.
		SELECT(table.Genre.AllColumns).
		FROM(table.Genre).
		WHERE(table.Genre.Name.EQ(sqlite.String(normalizeGenre(name))))

	genre := new(model.Genre)
	if err := t.query(ctx, stmt, genre); err != nil {
		return nil, err
	}
	return genre, nil
}

func (t *tx) ListGenres(ctx context.Context) ([]*model.Genre, error) {
	stmt := table.Genre.
		SELECT(table.Genre.AllColumns).
		FROM(table.Genre).
		ORDER_BY(table.Genre.Name.ASC())

	genres := make([]*model.Genre, 0)
	if err := t.query(ctx, stmt, &genres); err != nil {
		return nil, err
	}
	return genres, nil
}

func (t *tx) ListMediaGenres(ctx context.Context, mediaID int64) ([]*model.Genre, error) {
	stmt := sqlite.
		SELECT(table.Genre.AllColumns).
		FROM(table.Genre.INNER_JOIN(table.GenreMedia, table.GenreMedia.GenreID.EQ(table.Genre.ID))).
		WHERE(table.GenreMedia.MediaID.EQ(sqlite.Int64(mediaID))).
		ORDER_BY(table.Genre.Name.ASC())

	genres := make([]*model.Genre, 0)
	if err := t.query(ctx, stmt, &genres); err != nil {
		return nil, err
	}
	return genres, nil
}

// ReplaceMediaGenres drops the media's genre edges and links it to names instead
func (t *tx) ReplaceMediaGenres(ctx context.Context, mediaID int64, names []string) error {
	deleteStmt := table.GenreMedia.
		DELETE().
		WHERE(table.GenreMedia.MediaID.EQ(sqlite.Int64(mediaID)))

	if _, err := t.exec(ctx, deleteStmt); err != nil {
		return err
	}

	for _, name := range names {
		if normalizeGenre(name) == "" {
			continue
		}

		genreID, err := t.CreateGenre(ctx, name)
		if err != nil {
			return err
		}

		edge := table.GenreMedia.
			INSERT(table.GenreMedia.GenreID, table.GenreMedia.MediaID).
			MODEL(model.GenreMedia{GenreID: genreID, MediaID: mediaID}).
			ON_CONFLICT(table.GenreMedia.GenreID, table.GenreMedia.MediaID).
			DO_NOTHING()

		if _, err := t.exec(ctx, edge); err != nil {
			return err
		}
	}

	return nil
}
