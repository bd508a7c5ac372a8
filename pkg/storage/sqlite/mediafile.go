package sqlite

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/sqlite"
)

// CreateMediafile stores a mediafile. Paths are unique across the catalog.
func (t *tx) CreateMediafile(ctx context.Context, mediafile model.Mediafile) (int64, error) {
	stmt := table.Mediafile.
		INSERT(table.Mediafile.MutableColumns).
		MODEL(mediafile)

	return t.insert(ctx, stmt)
}

func (t *tx) GetMediafile(ctx context.Context, id int64) (*model.Mediafile, error) {
	return t.findMediafile(ctx, table.Mediafile.ID.EQ(sqlite.Int64(id)))
}

func (t *tx) GetMediafileByPath(ctx context.Context, path string) (*model.Mediafile, error) {
	return t.findMediafile(ctx, table.Mediafile.TargetFile.EQ(sqlite.String(path)))
}

func (t *tx) findMediafile(ctx context.Context, where sqlite.BoolExpression) (*model.Mediafile, error) {
	stmt := table.Mediafile.
		SELECT(table.Mediafile.AllColumns).
		FROM(table.Mediafile).
		WHERE(where)

	mediafile := new(model.Mediafile)
	if err := t.query(ctx, stmt, mediafile); err != nil {
		return nil, err
	}
	return mediafile, nil
}

// ListMediafiles lists mediafiles matching where. A nil where lists every mediafile.
func (t *tx) ListMediafiles(ctx context.Context, where sqlite.BoolExpression) ([]*model.Mediafile, error) {
	stmt := table.Mediafile.
		SELECT(table.Mediafile.AllColumns).
		FROM(table.Mediafile)

	if where != nil {
		stmt = stmt.WHERE(where)
	}
	stmt = stmt.ORDER_BY(table.Mediafile.ID.ASC())

	mediafiles := make([]*model.Mediafile, 0)
	if err := t.query(ctx, stmt, &mediafiles); err != nil {
		return nil, err
	}
	return mediafiles, nil
}

func (t *tx) ListUnmatchedMediafiles(ctx context.Context, libraryID int64) ([]*model.Mediafile, error) {
	return t.ListMediafiles(ctx,
		table.Mediafile.LibraryID.EQ(sqlite.Int64(libraryID)).
			AND(table.Mediafile.MediaID.IS_NULL()),
	)
}

func (t *tx) ListMediafilesByMedia(ctx context.Context, mediaID int64) ([]*model.Mediafile, error) {
	return t.ListMediafiles(ctx, table.Mediafile.MediaID.EQ(sqlite.Int64(mediaID)))
}

func (t *tx) ListMediafilesUnderPath(ctx context.Context, libraryID int64, dir string) ([]*model.Mediafile, error) {
	prefix := strings.TrimSuffix(filepath.Clean(dir), string(filepath.Separator)) + string(filepath.Separator)

	mediafiles, err := t.ListMediafiles(ctx,
		table.Mediafile.LibraryID.EQ(sqlite.Int64(libraryID)).
			AND(table.Mediafile.TargetFile.LIKE(sqlite.String(escapeLike(prefix)+"%"))),
	)
	if err != nil {
		return nil, err
	}

	// LIKE ignores case, the filesystem may not
	under := make([]*model.Mediafile, 0, len(mediafiles))
	for _, m := range mediafiles {
		if strings.HasPrefix(m.TargetFile, prefix) {
			under = append(under, m)
		}
	}
	return under, nil
}

func (t *tx) CountMediafiles(ctx context.Context, mediaID int64) (int64, error) {
	stmt := table.Mediafile.
		SELECT(sqlite.COUNT(table.Mediafile.ID).AS("count")).
		FROM(table.Mediafile).
		WHERE(table.Mediafile.MediaID.EQ(sqlite.Int64(mediaID)))

	var result struct {
		Count int64
	}
	if err := t.query(ctx, stmt, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

// UpdateMediafile sets the non-nil fields of update
func (t *tx) UpdateMediafile(ctx context.Context, id int64, update storage.MediafileUpdate) error {
	var set []any
	switch {
	case update.ClearMedia:
		set = append(set, table.Mediafile.MediaID.SET(sqlite.IntExp(sqlite.NULL)))
	case update.MediaID != nil:
		set = append(set, table.Mediafile.MediaID.SET(sqlite.Int64(*update.MediaID)))
	}
	if update.TargetFile != nil {
		set = append(set, table.Mediafile.TargetFile.SET(sqlite.String(*update.TargetFile)))
	}
	if update.RawName != nil {
		set = append(set, table.Mediafile.RawName.SET(sqlite.String(*update.RawName)))
	}
	if update.RawYear != nil {
		set = append(set, table.Mediafile.RawYear.SET(sqlite.Int64(*update.RawYear)))
	}
	if update.Season != nil {
		set = append(set, table.Mediafile.Season.SET(sqlite.Int64(*update.Season)))
	}
	if update.Episode != nil {
		set = append(set, table.Mediafile.Episode.SET(sqlite.Int64(*update.Episode)))
	}
	if update.Corrupt != nil {
		set = append(set, table.Mediafile.Corrupt.SET(sqlite.Bool(*update.Corrupt)))
	}

	if len(set) == 0 {
		_, err := t.GetMediafile(ctx, id)
		return err
	}

	stmt := table.Mediafile.
		UPDATE().
		SET(set[0], set[1:]...).
		WHERE(table.Mediafile.ID.EQ(sqlite.Int64(id)))

	return t.mutate(ctx, stmt)
}

func (t *tx) DeleteMediafile(ctx context.Context, id int64) error {
	stmt := table.Mediafile.
		DELETE().
		WHERE(table.Mediafile.ID.EQ(sqlite.Int64(id)))

	return t.mutate(ctx, stmt)
}
