package sqlite

import (
	"context"
	"time"

	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/sqlite"
)

// CreateSeason stores a season for a show
func (t *tx) CreateSeason(ctx context.Context, season model.Season) (int64, error) {
	if season.Added == nil {
		season.Added = ptr(time.Now().UTC().Unix())
	}

	stmt := table.Season.
		INSERT(table.Season.MutableColumns).
		MODEL(season)

	return t.insert(ctx, stmt)
}

func (t *tx) GetSeason(ctx context.Context, id int64) (*model.Season, error) {
	return t.findSeason(ctx, table.Season.ID.EQ(sqlite.Int64(id)))
}

func (t *tx) GetSeasonByNumber(ctx context.Context, tvShowID int64, seasonNumber int64) (*model.Season, error) {
	return t.findSeason(ctx,
		table.Season.TvShowID.EQ(sqlite.Int64(tvShowID)).
			AND(table.Season.SeasonNumber.EQ(sqlite.Int64(seasonNumber))),
	)
}

func (t *tx) findSeason(ctx context.Context, where sqlite.BoolExpression) (*model.Season, error) {
	stmt := table.Season.
		SELECT(table.Season.AllColumns).
		FROM(table.Season).
		WHERE(where)

	season := new(model.Season)
	if err := t.query(ctx, stmt, season); err != nil {
		return nil, err
	}
	return season, nil
}

// ListSeasons lists a show's seasons by season number
func (t *tx) ListSeasons(ctx context.Context, tvShowID int64) ([]*model.Season, error) {
	stmt := table.Season.
		SELECT(table.Season.AllColumns).
		FROM(table.Season).
		WHERE(table.Season.TvShowID.EQ(sqlite.Int64(tvShowID))).
		ORDER_BY(table.Season.SeasonNumber.ASC())

	seasons := make([]*model.Season, 0)
	if err := t.query(ctx, stmt, &seasons); err != nil {
		return nil, err
	}
	return seasons, nil
}

func (t *tx) UpdateSeason(ctx context.Context, id int64, update storage.SeasonUpdate) error {
	var set []any
	if update.SeasonNumber != nil {
		set = append(set, table.Season.SeasonNumber.SET(sqlite.Int64(*update.SeasonNumber)))
	}
	if update.Poster != nil {
		set = append(set, table.Season.Poster.SET(sqlite.Int64(*update.Poster)))
	}

	if len(set) == 0 {
		_, err := t.GetSeason(ctx, id)
		return err
	}

	stmt := table.Season.
		UPDATE().
		SET(set[0], set[1:]...).
		WHERE(table.Season.ID.EQ(sqlite.Int64(id)))

	return t.mutate(ctx, stmt)
}

// DeleteSeason removes a season and its episodes
func (t *tx) DeleteSeason(ctx context.Context, id int64) error {
	stmt := table.Season.
		DELETE().
		WHERE(table.Season.ID.EQ(sqlite.Int64(id)))

	return t.mutate(ctx, stmt)
}

// DeleteEmptySeasons removes seasons that have no episodes left and returns how many were removed
func (t *tx) DeleteEmptySeasons(ctx context.Context) (int64, error) {
	return t.deleteEmptySeasons(ctx, nil)
}

// DeleteEmptySeasonsOfShow removes the show's seasons that have no episodes left
func (t *tx) DeleteEmptySeasonsOfShow(ctx context.Context, showID int64) (int64, error) {
	return t.deleteEmptySeasons(ctx, table.Season.TvShowID.EQ(sqlite.Int64(showID)))
}

func (t *tx) deleteEmptySeasons(ctx context.Context, scope sqlite.BoolExpression) (int64, error) {
	episodes := table.Episode.
		SELECT(table.Episode.ID).
		FROM(table.Episode).
		WHERE(table.Episode.SeasonID.EQ(table.Season.ID))

	where := sqlite.NOT(sqlite.EXISTS(episodes))
	if scope != nil {
		where = where.AND(scope)
	}
	stmt := table.Season.
		DELETE().
		WHERE(where)

	result, err := t.exec(ctx, stmt)
	if err != nil {
		return 0, err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, dbErr(err)
	}
	return n, nil
}
