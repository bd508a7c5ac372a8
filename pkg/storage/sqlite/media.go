package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Dusk-Labs/dim-sub002/pkg/pagination"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/sqlite"
)

const defaultSearchLimit = 20

// topLevel matches the media that are shown as cards
var topLevel = table.Media.MediaType.IN(
	sqlite.String(string(storage.MediaTypeMovie)),
	sqlite.String(string(storage.MediaTypeTv)),
)

// CreateMedia stores a media row. Added defaults to the current time when unset.
func (t *tx) CreateMedia(ctx context.Context, media model.Media) (int64, error) {
	if !storage.MediaType(media.MediaType).Valid() {
		return 0, fmt.Errorf("%w: invalid media type %q", storage.ErrDatabase, media.MediaType)
	}
	if media.Added == nil {
		media.Added = ptr(time.Now().UTC().Unix())
	}

	insertColumns := table.Media.MutableColumns
	if media.ID != 0 {
		insertColumns = table.Media.AllColumns
	}

	stmt := table.Media.
		INSERT(insertColumns).
		MODEL(media)

	return t.insert(ctx, stmt)
}

func (t *tx) GetMedia(ctx context.Context, id int64) (*model.Media, error) {
	return t.FindMedia(ctx, table.Media.ID.EQ(sqlite.Int64(id)))
}

// FindMedia returns the first media matching where
func (t *tx) FindMedia(ctx context.Context, where sqlite.BoolExpression) (*model.Media, error) {
	stmt := table.Media.
		SELECT(table.Media.AllColumns).
		FROM(table.Media).
		WHERE(where).
		ORDER_BY(table.Media.ID.ASC()).
		LIMIT(1)

	media := new(model.Media)
	if err := t.query(ctx, stmt, media); err != nil {
		return nil, err
	}
	return media, nil
}

func (t *tx) GetMediaByName(ctx context.Context, libraryID int64, name string, mediaType storage.MediaType) (*model.Media, error) {
	return t.FindMedia(ctx,
		table.Media.LibraryID.EQ(sqlite.Int64(libraryID)).
			AND(table.Media.Name.EQ(sqlite.String(name))).
			AND(table.Media.MediaType.EQ(sqlite.String(string(mediaType)))),
	)
}

// ListLibraryMedia lists the movies and shows of a library by name along with the total count
func (t *tx) ListLibraryMedia(ctx context.Context, libraryID int64, params pagination.Params) ([]*model.Media, int, error) {
	where := table.Media.LibraryID.EQ(sqlite.Int64(libraryID)).AND(topLevel)

	countStmt := table.Media.
		SELECT(sqlite.COUNT(table.Media.ID).AS("count")).
		FROM(table.Media).
		WHERE(where)

	var count struct {
		Count int64
	}
	if err := t.query(ctx, countStmt, &count); err != nil {
		return nil, 0, err
	}

	stmt := table.Media.
		SELECT(table.Media.AllColumns).
		FROM(table.Media).
		WHERE(where).
		ORDER_BY(table.Media.Name.ASC(), table.Media.ID.ASC())

	offset, limit := params.CalculateOffsetLimit()
	if limit > 0 {
		stmt = stmt.LIMIT(int64(limit)).OFFSET(int64(offset))
	}

	media := make([]*model.Media, 0)
	if err := t.query(ctx, stmt, &media); err != nil {
		return nil, 0, err
	}

	return media, int(count.Count), nil
}

// ListMedia lists media in visible libraries. A limit of 0 returns every row.
func (t *tx) ListMedia(ctx context.Context, where sqlite.BoolExpression, orderBy []sqlite.OrderByClause, limit int64) ([]*model.Media, error) {
	visible := table.Library.Hidden.IS_FALSE()
	if where != nil {
		visible = visible.AND(where)
	}

	stmt := sqlite.
		SELECT(table.Media.AllColumns).
		FROM(table.Media.INNER_JOIN(table.Library, table.Library.ID.EQ(table.Media.LibraryID))).
		WHERE(visible)

	if len(orderBy) > 0 {
		stmt = stmt.ORDER_BY(orderBy...)
	}
	if limit > 0 {
		stmt = stmt.LIMIT(limit)
	}

	media := make([]*model.Media, 0)
	if err := t.query(ctx, stmt, &media); err != nil {
		return nil, err
	}
	return media, nil
}

// SearchMedia matches media names containing the query. Episodes are only returned when asked for.
func (t *tx) SearchMedia(ctx context.Context, query storage.SearchQuery) ([]*model.Media, error) {
	where := table.Library.Hidden.IS_FALSE()

	if q := strings.TrimSpace(query.Query); q != "" {
		where = where.AND(table.Media.Name.LIKE(sqlite.String("%" + escapeLike(q) + "%")))
	}
	if query.Year != nil {
		where = where.AND(table.Media.Year.EQ(sqlite.Int64(*query.Year)))
	}
	if query.LibraryID != nil {
		where = where.AND(table.Media.LibraryID.EQ(sqlite.Int64(*query.LibraryID)))
	}
	if query.MediaType != nil {
		where = where.AND(table.Media.MediaType.EQ(sqlite.String(string(*query.MediaType))))
	} else {
		where = where.AND(topLevel)
	}
	if query.Genre != nil {
		genreMatch := table.GenreMedia.
			SELECT(table.GenreMedia.ID).
			FROM(table.GenreMedia.INNER_JOIN(table.Genre, table.Genre.ID.EQ(table.GenreMedia.GenreID))).
			WHERE(
				table.GenreMedia.MediaID.EQ(table.Media.ID).
					AND(table.Genre.Name.EQ(sqlite.String(strings.ToUpper(*query.Genre)))),
			)
		where = where.AND(sqlite.EXISTS(genreMatch))
	}

	limit := int64(query.Limit)
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	stmt := sqlite.
		SELECT(table.Media.AllColumns).
		FROM(table.Media.INNER_JOIN(table.Library, table.Library.ID.EQ(table.Media.LibraryID))).
		WHERE(where).
		ORDER_BY(table.Media.Name.ASC(), table.Media.ID.ASC()).
		LIMIT(limit)

	media := make([]*model.Media, 0)
	if err := t.query(ctx, stmt, &media); err != nil {
		return nil, err
	}
	return media, nil
}

// escapeLike turns LIKE wildcards in s into single character matches
func escapeLike(s string) string {
	return strings.NewReplacer("%", "_").Replace(s)
}

// UpdateMedia sets the non-nil fields of update
func (t *tx) UpdateMedia(ctx context.Context, id int64, update storage.MediaUpdate) error {
	var set []any
	if update.Name != nil {
		set = append(set, table.Media.Name.SET(sqlite.String(*update.Name)))
	}
	if update.Description != nil {
		set = append(set, table.Media.Description.SET(sqlite.String(*update.Description)))
	}
	if update.Rating != nil {
		set = append(set, table.Media.Rating.SET(sqlite.Float(*update.Rating)))
	}
	if update.Year != nil {
		set = append(set, table.Media.Year.SET(sqlite.Int64(*update.Year)))
	}
	if update.Added != nil {
		set = append(set, table.Media.Added.SET(sqlite.Int64(*update.Added)))
	}
	if update.Poster != nil {
		set = append(set, table.Media.Poster.SET(sqlite.Int64(*update.Poster)))
	}
	if update.Backdrop != nil {
		set = append(set, table.Media.Backdrop.SET(sqlite.Int64(*update.Backdrop)))
	}

	if len(set) == 0 {
		_, err := t.GetMedia(ctx, id)
		return err
	}

	stmt := table.Media.
		UPDATE().
		SET(set[0], set[1:]...).
		WHERE(table.Media.ID.EQ(sqlite.Int64(id)))

	return t.mutate(ctx, stmt)
}

// DeleteMedia removes a media row. Mediafiles pointing at it become unmatched.
func (t *tx) DeleteMedia(ctx context.Context, id int64) error {
	stmt := table.Media.
		DELETE().
		WHERE(table.Media.ID.EQ(sqlite.Int64(id)))

	return t.mutate(ctx, stmt)
}

// ListOrphanMedia returns movies and episodes without mediafiles, and shows without episodes or files
func (t *tx) ListOrphanMedia(ctx context.Context) ([]*model.Media, error) {
	files := table.Mediafile.
		SELECT(table.Mediafile.ID).
		FROM(table.Mediafile).
		WHERE(table.Mediafile.MediaID.EQ(table.Media.ID))

	episodes := table.Season.
		SELECT(table.Season.ID).
		FROM(table.Season.INNER_JOIN(table.Episode, table.Episode.SeasonID.EQ(table.Season.ID))).
		WHERE(table.Season.TvShowID.EQ(table.Media.ID))

	leaf := table.Media.MediaType.IN(
		sqlite.String(string(storage.MediaTypeMovie)),
		sqlite.String(string(storage.MediaTypeEpisode)),
	)
	show := table.Media.MediaType.EQ(sqlite.String(string(storage.MediaTypeTv)))

	stmt := table.Media.
		SELECT(table.Media.AllColumns).
		FROM(table.Media).
		WHERE(
			sqlite.NOT(sqlite.EXISTS(files)).AND(
				leaf.OR(show.AND(sqlite.NOT(sqlite.EXISTS(episodes)))),
			),
		).
		ORDER_BY(table.Media.ID.ASC())

	media := make([]*model.Media, 0)
	if err := t.query(ctx, stmt, &media); err != nil {
		return nil, err
	}
	return media, nil
}
