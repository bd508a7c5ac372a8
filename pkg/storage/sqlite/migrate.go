package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type migrationResult struct {
	once sync.Once
	err  error
}

// migrated records, per database file, that migrations already ran in this process
var migrated sync.Map

// RunMigrations applies pending migrations under the writer lock. Only the first call per database file does any work.
func (s *SQLite) RunMigrations(ctx context.Context) error {
	log := logger.FromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == memoryPath {
		return runMigrations(s.writer)
	}

	key, err := filepath.Abs(s.path)
	if err != nil {
		key = s.path
	}

	v, _ := migrated.LoadOrStore(key, &migrationResult{})
	result := v.(*migrationResult)
	result.once.Do(func() {
		log.Debugw("running migrations", "path", key)
		result.err = runMigrations(s.writer)
	})

	return result.err
}

// runMigrations executes pending database migrations
func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	dbDriver, err := sqlite3.WithInstance(db, &sqlite3.Config{
		MigrationsTable: "schema_migrations",
		NoTxWrap:        true,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to create database driver: %w", storage.ErrDatabase, err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", dbDriver)
	if err != nil {
		return fmt.Errorf("%w: failed to create migrate instance: %w", storage.ErrDatabase, err)
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: failed to run migrations: %w", storage.ErrDatabase, err)
	}

	return nil
}

// MigrationVersion returns the current migration version and dirty state
func (s *SQLite) MigrationVersion(ctx context.Context) (version uint, dirty bool, err error) {
	var v sql.NullInt64
	var d bool
	query := `SELECT version, dirty FROM schema_migrations LIMIT 1`
	err = s.reader.QueryRowContext(ctx, query).Scan(&v, &d)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, dbErr(err)
	}
	return uint(v.Int64), d, nil
}
