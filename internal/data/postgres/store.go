// Package postgres provides the PostgreSQL implementation of the ledger store.
// Every cross-row mutation runs as a store-native increment inside a local
// transaction, so concurrent donations never lose updates.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eco-fund-ledger/internal/domain/donation"
	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/outbox"
	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/eco-fund-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// LedgerStore implements ledger.Store for PostgreSQL
type LedgerStore struct {
	db     persistence.TxQuerier
	outbox outbox.Repository
	logger *slog.Logger
	now    func() time.Time
	closer func()
}

var _ ledger.Store = (*LedgerStore)(nil)

// NewLedgerStore creates the store on top of db. Donation events are written through outboxRepo
// in the same transaction as the donation. Close releases db.
func NewLedgerStore(logger *slog.Logger, db *persistence.PostgresDB, outboxRepo outbox.Repository) *LedgerStore {
	return &LedgerStore{
		db:     db.Pool(),
		outbox: outboxRepo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		closer: db.Close,
	}
}

func (s *LedgerStore) Close() error {
	if s.closer != nil {
		s.closer()
	}
	return nil
}

// fail logs err and returns it unchanged when it already belongs to the error taxonomy.
// Connectivity problems become shared.StoreUnavailableError.
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
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08 is connection exception, 57P0x is operator intervention
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P0")
	}
	return false
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

type scanner interface {
	Scan(dest ...any) error
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
