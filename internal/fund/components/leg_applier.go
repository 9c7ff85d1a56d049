package components

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// LegApplierImpl applies the legs of a plan on a bounded worker pool.
// Each project runs project leg then donor leg; projects run concurrently.
type LegApplierImpl struct {
	store  ledger.DistributionStore
	pool   *ants.Pool
	logger *slog.Logger
}

// NewLegApplier creates a LegApplierImpl with a pool of size workers
func NewLegApplier(store ledger.DistributionStore, size int, logger *slog.Logger) (*LegApplierImpl, error) {
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create leg worker pool: %w", err)
	}

	return &LegApplierImpl{
		store:  store,
		pool:   pool,
		logger: logger,
	}, nil
}

// ApplyLegs applies the legs of every project in projectIDs. A failing project never
// stops the others. The failed ids come back sorted with the first cause seen.
func (a *LegApplierImpl) ApplyLegs(ctx context.Context, donationID uuid.UUID, projectIDs []string) ([]string, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failed   []string
		firstErr error
	)
	record := func(projectID string, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, projectID)
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, projectID := range projectIDs {
		projectID := projectID
		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					record(projectID, fmt.Errorf("panic applying legs for project %s: %v", projectID, r))
				}
			}()
			if err := a.applyLegs(ctx, donationID, projectID); err != nil {
				record(projectID, err)
			}
		}

		if err := a.pool.Submit(task); err != nil {
			wg.Done()
			a.logger.Error("Failed to submit leg to worker pool",
				"donation_id", donationID.String(),
				"project_id", projectID,
				"error", err,
			)
			record(projectID, err)
		}
	}
	wg.Wait()

	sort.Strings(failed)
	return failed, firstErr
}

func (a *LegApplierImpl) applyLegs(ctx context.Context, donationID uuid.UUID, projectID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	applied, err := a.store.ApplyProjectLeg(ctx, donationID, projectID)
	if err != nil {
		a.logger.Error("Failed to apply project leg", "donation_id", donationID.String(), "project_id", projectID, "error", err)
		return fmt.Errorf("project leg %s: %w", projectID, err)
	}
	if !applied {
		a.logger.Debug("Project leg already applied", "donation_id", donationID.String(), "project_id", projectID)
	}

	applied, err = a.store.ApplyDonorLeg(ctx, donationID, projectID)
	if err != nil {
		a.logger.Error("Failed to apply donor leg", "donation_id", donationID.String(), "project_id", projectID, "error", err)
		return fmt.Errorf("donor leg %s: %w", projectID, err)
	}
	if !applied {
		a.logger.Debug("Donor leg already applied", "donation_id", donationID.String(), "project_id", projectID)
	}
	return nil
}

// Shutdown releases the worker pool
func (a *LegApplierImpl) Shutdown() {
	a.logger.Info("Shutting down leg worker pool", "running_workers", a.pool.Running())
	a.pool.Release()
}

// Running returns the number of running workers in the pool.
func (a *LegApplierImpl) Running() int {
	return a.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (a *LegApplierImpl) Capacity() int {
	return a.pool.Cap()
}
