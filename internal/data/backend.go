// Package data opens the configured ledger store backend.
package data

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eco-fund-ledger/internal/config"
	"github.com/eco-fund-ledger/internal/data/postgres"
	"github.com/eco-fund-ledger/internal/data/sqlite"
	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/outbox"
	"github.com/eco-fund-ledger/internal/platform/persistence"
)

// Backend is an opened ledger store. Outbox is nil for backends without an event outbox.
type Backend struct {
	Driver string
	Store  ledger.Store
	Outbox outbox.Repository
}

// OpenLedger migrates and opens the store selected by cfg.Store.Driver
func OpenLedger(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*Backend, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := persistence.NewPostgresDB(ctx, logger, &cfg.Postgres)
		if err != nil {
			return nil, err
		}
		outboxRepo := postgres.NewOutboxRepository(logger, db)
		return &Backend{
			Driver: cfg.Store.Driver,
			Store:  postgres.NewLedgerStore(logger, db, outboxRepo),
			Outbox: outboxRepo,
		}, nil

	case config.StoreDriverSQLite:
		db, err := persistence.NewSQLiteDB(ctx, logger, &cfg.SQLite)
		if err != nil {
			return nil, err
		}
		return &Backend{
			Driver: cfg.Store.Driver,
			Store:  sqlite.NewLedgerStore(logger, db),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

// Close releases the underlying database
func (b *Backend) Close() error {
	return b.Store.Close()
}
