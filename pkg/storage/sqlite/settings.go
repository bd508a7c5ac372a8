package sqlite

import (
	"context"
	"errors"

	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/sqlite"
)

const hostSettingsID = 1

// GetHostSettings returns the stored settings document, or an empty object when none was saved
func (t *tx) GetHostSettings(ctx context.Context) (string, error) {
	stmt := table.HostSettings.
		SELECT(table.HostSettings.AllColumns).
		FROM(table.HostSettings).
		WHERE(table.HostSettings.ID.EQ(sqlite.Int64(hostSettingsID)))

	var settings model.HostSettings
	err := t.query(ctx, stmt, &settings)
	if errors.Is(err, storage.ErrNotFound) {
		return "{}", nil
	}
	if err != nil {
		return "", err
	}
	return settings.Settings, nil
}

func (t *tx) SetHostSettings(ctx context.Context, settings string) error {
	stmt := table.HostSettings.
		INSERT(table.HostSettings.AllColumns).
		MODEL(model.HostSettings{ID: hostSettingsID, Settings: settings}).
		ON_CONFLICT(table.HostSettings.ID).
		DO_UPDATE(sqlite.SET(table.HostSettings.Settings.SET(sqlite.String(settings))))

	_, err := t.exec(ctx, stmt)
	return err
}
