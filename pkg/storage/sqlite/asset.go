package sqlite

import (
	"context"

	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/sqlite"
)

// CreateAsset stores an asset unless one already exists at the same local path, and returns the stored row
func (t *tx) CreateAsset(ctx context.Context, asset storage.InsertableAsset) (*model.Assets, error) {
	stmt := table.Assets.
		INSERT(table.Assets.MutableColumns).
		MODEL(model.Assets{
			RemoteURL: asset.RemoteURL,
			LocalPath: asset.LocalPath,
			FileExt:   asset.FileExt,
		}).
		ON_CONFLICT(table.Assets.LocalPath).
		DO_NOTHING()

	if _, err := t.exec(ctx, stmt); err != nil {
		return nil, err
	}

	return t.findAsset(ctx, table.Assets.LocalPath.EQ(sqlite.String(asset.LocalPath)))
}

func (t *tx) GetAsset(ctx context.Context, id int64) (*model.Assets, error) {
	return t.findAsset(ctx, table.Assets.ID.EQ(sqlite.Int64(id)))
}

func (t *tx) GetAssetByLocalPath(ctx context.Context, localPath string) (*model.Assets, error) {
	return t.findAsset(ctx, table.Assets.LocalPath.EQ(sqlite.String(localPath)))
}

func (t *tx) findAsset(ctx context.Context, where sqlite.BoolExpression) (*model.Assets, error) {
	stmt := table.Assets.
		SELECT(table.Assets.AllColumns).
		FROM(table.Assets).
		WHERE(where)

	asset := new(model.Assets)
	if err := t.query(ctx, stmt, asset); err != nil {
		return nil, err
	}
	return asset, nil
}
