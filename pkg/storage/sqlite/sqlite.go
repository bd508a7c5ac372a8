package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Dusk-Labs/dim-sub002/pkg/logger"
	"github.com/Dusk-Labs/dim-sub002/pkg/storage"
	"github.com/go-jet/jet/v2/qrm"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const memoryPath = ":memory:"

type SQLite struct {
	// writer holds a single connection. mu serializes write transactions over it.
	writer *sql.DB
	reader *sql.DB
	mu     sync.Mutex
	path   string
	hook   storage.ChangeHook
}

type Option func(*SQLite)

// WithChangeHook registers hook on the writer connection
func WithChangeHook(hook storage.ChangeHook) Option {
	return func(s *SQLite) {
		s.hook = hook
	}
}

// New opens the database at filePath, runs pending migrations and returns the store
func New(ctx context.Context, filePath string, opts ...Option) (*SQLite, error) {
	log := logger.FromCtx(ctx)

	s := &SQLite{path: filePath}
	for _, opt := range opts {
		opt(s)
	}

	s.writer = sql.OpenDB(&connector{
		dsn:    writerDSN(filePath),
		driver: &sqlite3.SQLiteDriver{ConnectHook: s.connectHook},
	})
	s.writer.SetMaxOpenConns(1)

	if err := s.writer.PingContext(ctx); err != nil {
		s.writer.Close()
		return nil, fmt.Errorf("%w: failed to open writer: %w", storage.ErrDatabase, err)
	}

	if err := s.RunMigrations(ctx); err != nil {
		s.writer.Close()
		return nil, err
	}

	if filePath == memoryPath {
		// an in-memory database only exists on the writer's connection
		s.reader = s.writer
		return s, nil
	}

	reader, err := sql.Open("sqlite3", readerDSN(filePath))
	if err != nil {
		s.writer.Close()
		return nil, fmt.Errorf("%w: failed to open reader: %w", storage.ErrDatabase, err)
	}
	s.reader = reader

	log.Debugw("opened database", "path", filePath)
	return s, nil
}

func writerDSN(path string) string {
	params := "_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_txlock=immediate"
	if path == memoryPath {
		return "file::memory:?" + params
	}
	return "file:" + path + "?" + params
}

func readerDSN(path string) string {
	return "file:" + path + "?mode=ro&_busy_timeout=5000&_foreign_keys=on"
}

func (s *SQLite) connectHook(conn *sqlite3.SQLiteConn) error {
	if s.hook == nil {
		return nil
	}

	conn.RegisterUpdateHook(func(op int, _ string, table string, rowID int64) {
		var kind storage.Op
		switch op {
		case sqlite3.SQLITE_INSERT:
			kind = storage.OpInsert
		case sqlite3.SQLITE_UPDATE:
			kind = storage.OpUpdate
		case sqlite3.SQLITE_DELETE:
			kind = storage.OpDelete
		default:
			return
		}
		s.hook.OnUpdate(kind, table, rowID)
	})
	conn.RegisterCommitHook(func() int {
		s.hook.OnCommit()
		// zero lets the commit proceed
		return 0
	})
	conn.RegisterRollbackHook(func() {
		s.hook.OnRollback()
	})

	return nil
}

// connector opens connections through a driver carrying this store's hooks
type connector struct {
	dsn    string
	driver *sqlite3.SQLiteDriver
}

func (c *connector) Connect(context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c *connector) Driver() driver.Driver {
	return c.driver
}

// ReadTx begins a read only transaction on the reader pool
func (s *SQLite) ReadTx(ctx context.Context) (storage.Tx, error) {
	sqlTx, err := s.reader.BeginTx(ctx, &sql.TxOptions{ReadOnly: s.reader != s.writer})
	if err != nil {
		return nil, dbErr(err)
	}

	return &tx{tx: sqlTx}, nil
}

// WithWriteTx runs fn in a transaction on the writer. The transaction commits when fn returns nil.
func (s *SQLite) WithWriteTx(ctx context.Context, fn func(storage.Tx) error) error {
	log := logger.FromCtx(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return dbErr(err)
	}

	t := &tx{tx: sqlTx, write: true}
	if err := fn(t); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Debug("failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return dbErr(err)
	}

	if s.hook != nil {
		s.hook.OnVisible()
	}

	return nil
}

func (s *SQLite) Close() error {
	var errs []error
	if s.reader != nil && s.reader != s.writer {
		errs = append(errs, s.reader.Close())
	}
	if s.writer != nil {
		errs = append(errs, s.writer.Close())
	}
	return errors.Join(errs...)
}

// dbErr maps driver errors to the storage error kinds
func dbErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrDatabase) {
		return err
	}
	if errors.Is(err, qrm.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if isConstraint(err) {
		return fmt.Errorf("%w: %w: %w", storage.ErrDatabase, storage.ErrConstraint, err)
	}
	return fmt.Errorf("%w: %w", storage.ErrDatabase, err)
}

// isConstraint reports whether err is an integrity-constraint failure
func isConstraint(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return strings.Contains(err.Error(), "constraint failed")
}
