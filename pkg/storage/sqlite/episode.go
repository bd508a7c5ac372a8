package sqlite

import (
	"context"

	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/sqlite"
)

// CreateEpisode links an episode media row to its season
func (t *tx) CreateEpisode(ctx context.Context, episode model.Episode) error {
	stmt := table.Episode.
		INSERT(table.Episode.AllColumns).
		MODEL(episode)

	_, err := t.exec(ctx, stmt)
	return err
}

func episodeSelect(where sqlite.BoolExpression) sqlite.SelectStatement {
	return sqlite.
		SELECT(
			table.Media.AllColumns,
			table.Episode.AllColumns,
			table.Season.SeasonNumber,
			table.Season.TvShowID,
		).
		FROM(
			table.Episode.
				INNER_JOIN(table.Media, table.Media.ID.EQ(table.Episode.ID)).
				INNER_JOIN(table.Season, table.Season.ID.EQ(table.Episode.SeasonID)),
		).
		WHERE(where)
}

func (t *tx) GetEpisode(ctx context.Context, id int64) (*storage.Episode, error) {
	episode := new(storage.Episode)
	if err := t.query(ctx, episodeSelect(table.Episode.ID.EQ(sqlite.Int64(id))), episode); err != nil {
		return nil, err
	}
	return episode, nil
}

func (t *tx) GetEpisodeByNumber(ctx context.Context, seasonID int64, number int64) (*storage.Episode, error) {
	where := table.Episode.SeasonID.EQ(sqlite.Int64(seasonID)).
		AND(table.Episode.Episode.EQ(sqlite.Int64(number)))

	episode := new(storage.Episode)
	if err := t.query(ctx, episodeSelect(where), episode); err != nil {
		return nil, err
	}
	return episode, nil
}

// ListEpisodes lists a season's episodes by episode number
func (t *tx) ListEpisodes(ctx context.Context, seasonID int64) ([]*storage.Episode, error) {
	stmt := episodeSelect(table.Episode.SeasonID.EQ(sqlite.Int64(seasonID))).
		ORDER_BY(table.Episode.Episode.ASC())

	episodes := make([]*storage.Episode, 0)
	if err := t.query(ctx, stmt, &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}

func (t *tx) UpdateEpisodeNumber(ctx context.Context, id int64, number int64) error {
	stmt := table.Episode.
		UPDATE().
		SET(table.Episode.Episode.SET(sqlite.Int64(number))).
		WHERE(table.Episode.ID.EQ(sqlite.Int64(id)))

	return t.mutate(ctx, stmt)
}

// DeleteEpisode removes the episode row. Its media row is removed by trigger.
func (t *tx) DeleteEpisode(ctx context.Context, id int64) error {
	stmt := table.Episode.
		DELETE().
		WHERE(table.Episode.ID.EQ(sqlite.Int64(id)))

	return t.mutate(ctx, stmt)
}
