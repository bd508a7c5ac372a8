package sqlite

import (
	"context"
	"time"

	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/sqlite"
)

// SetProgress records how far into a media the user is, in seconds
func (t *tx) SetProgress(ctx context.Context, userID, mediaID, delta int64) error {
	now := time.Now().UTC().Unix()

	stmt := table.Progress.
		INSERT(table.Progress.MutableColumns).
		MODEL(model.Progress{
			UserID:    userID,
			MediaID:   mediaID,
			Delta:     delta,
			Populated: now,
		}).
		ON_CONFLICT(table.Progress.UserID, table.Progress.MediaID).
		DO_UPDATE(sqlite.SET(
			table.Progress.Delta.SET(sqlite.Int64(delta)),
			table.Progress.Populated.SET(sqlite.Int64(now)),
		))

	_, err := t.exec(ctx, stmt)
	return err
}

func (t *tx) GetProgress(ctx context.Context, userID, mediaID int64) (*model.Progress, error) {
	stmt := table.Progress.
		SELECT(table.Progress.AllColumns).
		FROM(table.Progress).
		WHERE(
			table.Progress.UserID.EQ(sqlite.Int64(userID)).
				AND(table.Progress.MediaID.EQ(sqlite.Int64(mediaID))),
		)

	progress := new(model.Progress)
	if err := t.query(ctx, stmt, progress); err != nil {
		return nil, err
	}
	return progress, nil
}
