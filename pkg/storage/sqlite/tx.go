package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/go-jet/jet/v2/sqlite"
	"go.uber.org/zap"
)

// tx implements storage.Tx over a single database transaction
type tx struct {
	tx    *sql.Tx
	write bool
}

var _ storage.Tx = (*tx)(nil)

func (t *tx) Done() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return dbErr(err)
}

func (t *tx) exec(ctx context.Context, stmt sqlite.Statement) (sql.Result, error) {
	if !t.write {
		return nil, errReadOnly
	}

	result, err := stmt.ExecContext(ctx, t.tx)
	if err != nil {
		logger.FromCtx(ctx).Debug("failed to execute statement", zap.String("query", stmt.DebugSql()), zap.Error(err))
		return nil, dbErr(err)
	}
	return result, nil
}

func (t *tx) insert(ctx context.Context, stmt sqlite.InsertStatement) (int64, error) {
	result, err := t.exec(ctx, stmt)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, dbErr(err)
	}
	return id, nil
}

// mutate executes stmt and reports ErrNotFound when no row was affected
func (t *tx) mutate(ctx context.Context, stmt sqlite.Statement) error {
	result, err := t.exec(ctx, stmt)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return dbErr(err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (t *tx) query(ctx context.Context, stmt sqlite.Statement, dest any) error {
	err := stmt.QueryContext(ctx, t.tx, dest)
	if err != nil {
		return dbErr(err)
	}
	return nil
}

var errReadOnly = errors.Join(storage.ErrDatabase, errors.New("write attempted in a read transaction"))

func ptr[T any](v T) *T {
	return &v
}
