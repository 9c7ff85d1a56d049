// Package sqlite provides the embedded single-node implementation of the ledger store.
// All writes go through one connection, so the read-modify-write steps inside a
// transaction are serialised.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eco-fund-ledger/internal/domain/donation"
	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/eco-fund-ledger/internal/platform/persistence"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// LedgerStore implements ledger.Store on SQLite
type LedgerStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
	closer func() error
}

var _ ledger.Store = (*LedgerStore)(nil)

// NewLedgerStore creates the store on top of db. Close releases db.
func NewLedgerStore(logger *slog.Logger, db *persistence.SQLiteDB) *LedgerStore {
	return &LedgerStore{
		db:     db.DB(),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		closer: db.Close,
	}
}

func (s *LedgerStore) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	return nil
}

func (s *LedgerStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return persistence.ExecuteSQLTx(ctx, s.db, fn)
}

func (s *LedgerStore) fail(op string, err error, attrs ...any) error {
	if isDomainError(err) {
		return err
	}
	s.logger.Error("Failed to "+op, append(attrs, "error", err)...)
	if isUnavailable(err) {
		return shared.StoreUnavailableError{Op: op, Err: err}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func isDomainError(err error) bool {
	return errors.Is(err, shared.ValidationError{}) ||
		errors.Is(err, shared.NotFoundError{}) ||
		errors.Is(err, shared.StoreUnavailableError{}) ||
		errors.Is(err, donation.ErrDuplicateDonation{})
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	switch sqliteCode(err) & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_CANTOPEN:
		return true
	}
	return false
}

// sqliteCode returns the extended result code of err, or 0
func sqliteCode(err error) int {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()
	}
	return 0
}

func isUniqueViolation(err error) bool {
	switch sqliteCode(err) {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "UNIQUE constraint failed")
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	switch sqliteCode(err) {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
	}
	return false
}

type scanner interface {
	Scan(dest ...any) error
}

// Times are stored as unix milliseconds

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func fromNullMillis(ms sql.NullInt64) *time.Time {
	if !ms.Valid {
		return nil
	}
	t := fromMillis(ms.Int64)
	return &t
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
