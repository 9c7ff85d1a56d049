package components

import (
	"log/slog"

	"github.com/eco-fund-ledger/internal/config"
	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/fund/service"
)

// CreateDonationService creates the DonationService with its planner and leg pool.
// The returned function releases the pool.
func CreateDonationService(
	store ledger.Store,
	cfg *config.DistributionConfig,
	logger *slog.Logger,
) (service.DonationService, func(), error) {
	planner := NewPlanner(store, logger.With("component", "planner"))

	applier, err := NewLegApplier(store, cfg.WorkerPoolSize, logger.With("component", "leg_pool"))
	if err != nil {
		return nil, nil, err
	}

	svc := service.NewDonationService(
		store,
		planner,
		applier,
		service.DonationServiceConfig{
			Timeout:         cfg.Timeout,
			DefaultCurrency: cfg.DefaultCurrency,
		},
		logger,
	)

	logger.Info("Created donation service", "pool_size", applier.Capacity(), "timeout", cfg.Timeout)
	return svc, applier.Shutdown, nil
}
