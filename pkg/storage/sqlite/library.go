package sqlite

import (
	"context"
	"fmt"

	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/model"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage/sqlite/schema/gen/table"
	"github.com/go-jet/jet/v2/sqlite"
)

// CreateLibrary stores a library along with its root locations
func (t *tx) CreateLibrary(ctx context.Context, library storage.InsertableLibrary) (int64, error) {
	if !library.MediaType.Valid() {
		return 0, fmt.Errorf("%w: invalid media type %q", storage.ErrDatabase, library.MediaType)
	}

	stmt := table.Library.
		INSERT(table.Library.Name, table.Library.MediaType, table.Library.Hidden).
		MODEL(model.Library{
			Name:      library.Name,
			MediaType: string(library.MediaType),
		})

	id, err := t.insert(ctx, stmt)
	if err != nil {
		return 0, err
	}

	for _, location := range library.Locations {
		pathStmt := table.IndexedPaths.
			INSERT(table.IndexedPaths.Location, table.IndexedPaths.LibraryID).
			MODEL(model.IndexedPaths{Location: location, LibraryID: id}).
			ON_CONFLICT(table.IndexedPaths.LibraryID, table.IndexedPaths.Location).
			DO_NOTHING()

		if _, err := t.exec(ctx, pathStmt); err != nil {
			return 0, err
		}
	}

	return id, nil
}

func (t *tx) GetLibrary(ctx context.Context, id int64) (*storage.Library, error) {
	stmt := table.Library.
		SELECT(table.Library.AllColumns).
		FROM(table.Library).
		WHERE(table.Library.ID.EQ(sqlite.Int64(id)))

	library := new(storage.Library)
	if err := t.query(ctx, stmt, &library.Library); err != nil {
		return nil, err
	}

	locations, err := t.libraryLocations(ctx, id)
	if err != nil {
		return nil, err
	}
	library.Locations = locations

	return library, nil
}

func (t *tx) ListLibraries(ctx context.Context) ([]*storage.Library, error) {
	stmt := table.Library.
		SELECT(table.Library.AllColumns).
		FROM(table.Library).
		WHERE(table.Library.Hidden.IS_FALSE()).
		ORDER_BY(table.Library.ID.ASC())

	var rows []model.Library
	if err := t.query(ctx, stmt, &rows); err != nil {
		return nil, err
	}

	libraries := make([]*storage.Library, 0, len(rows))
	for _, row := range rows {
		locations, err := t.libraryLocations(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		libraries = append(libraries, &storage.Library{Library: row, Locations: locations})
	}

	return libraries, nil
}

func (t *tx) libraryLocations(ctx context.Context, libraryID int64) ([]string, error) {
	stmt := table.IndexedPaths.
		SELECT(table.IndexedPaths.AllColumns).
		FROM(table.IndexedPaths).
		WHERE(table.IndexedPaths.LibraryID.EQ(sqlite.Int64(libraryID))).
		ORDER_BY(table.IndexedPaths.ID.ASC())

	var paths []model.IndexedPaths
	if err := t.query(ctx, stmt, &paths); err != nil {
		return nil, err
	}

	locations := make([]string, len(paths))
	for i, p := range paths {
		locations[i] = p.Location
	}
	return locations, nil
}

// HideLibrary marks the library as a tombstone ahead of its removal
func (t *tx) HideLibrary(ctx context.Context, id int64) error {
	stmt := table.Library.
		UPDATE().
		SET(table.Library.Hidden.SET(sqlite.Bool(true))).
		WHERE(table.Library.ID.EQ(sqlite.Int64(id)))

	return t.mutate(ctx, stmt)
}

// DeleteLibrary removes the library. Its mediafiles and media are removed with it.
func (t *tx) DeleteLibrary(ctx context.Context, id int64) error {
	stmt := table.Library.
		DELETE().
		WHERE(table.Library.ID.EQ(sqlite.Int64(id)))

	return t.mutate(ctx, stmt)
}
