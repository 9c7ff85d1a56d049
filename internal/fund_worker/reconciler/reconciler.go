// Package reconciler re-drives distributions that were never planned or were left partially applied.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eco-fund-ledger/internal/config"
	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/eco-fund-ledger/internal/fund/service"
	"github.com/eco-fund-ledger/internal/logger"
)

// PendingLister finds distributions that are unplanned or still have outstanding legs
type PendingLister interface {
	ListPendingDistributions(ctx context.Context, olderThan time.Time, maxAttempts, limit int) ([]*ledger.Distribution, error)
}

// Retrier re-drives one donation
type Retrier interface {
	RetryDistribution(ctx context.Context, req service.RetryDistributionRequest) (*service.DonationResult, error)
}

// Reconciler periodically retries stale unplanned or partial distributions
type Reconciler struct {
	store       PendingLister
	retrier     Retrier
	logger      *slog.Logger
	interval    time.Duration
	gracePeriod time.Duration
	batchSize   int
	maxAttempts int
	now         func() time.Time
}

func New(cfg *config.ReconcilerConfig, store PendingLister, retrier Retrier, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:       store,
		retrier:     retrier,
		logger:      logger,
		interval:    cfg.Interval,
		gracePeriod: cfg.GracePeriod,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxAttempts,
		now:         time.Now,
	}
}

// Start runs passes until ctx is cancelled
func (r *Reconciler) Start(ctx context.Context) {
	r.logger.Info("Starting distribution reconciler",
		"interval", r.interval.String(),
		"grace_period", r.gracePeriod.String(),
		"batch_size", r.batchSize,
		"max_attempts", r.maxAttempts,
	)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Distribution reconciler stopping")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error("Reconciliation pass failed", "error", err)
			}
		}
	}
}

// Report summarises one pass
type Report struct {
	Scanned int
	Healed  int
	Pending int
	Failed  int
}

// RunOnce retries every pending distribution that has been idle longer than the grace
// period. Plans touched more recently may still be in flight on the API side.
func (r *Reconciler) RunOnce(ctx context.Context) (Report, error) {
	var report Report

	olderThan := r.now().Add(-r.gracePeriod)
	pending, err := r.store.ListPendingDistributions(ctx, olderThan, r.maxAttempts, r.batchSize)
	if err != nil {
		return report, fmt.Errorf("failed to list pending distributions: %w", err)
	}
	report.Scanned = len(pending)

	for _, plan := range pending {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		pctx := logger.WithCorrelationID(ctx, "reconcile-"+plan.DonationID.String())
		log := logger.FromContext(pctx, r.logger).With("donation_id", plan.DonationID.String(), "attempts", plan.Attempts)

		_, err := r.retrier.RetryDistribution(pctx, service.RetryDistributionRequest{DonationID: plan.DonationID})
		switch {
		case err == nil:
			report.Healed++
			log.Info("Distribution healed")
		case errors.Is(err, shared.PartialDistributionError{}):
			report.Pending++
			log.Warn("Distribution still partial", "error", err)
		default:
			report.Failed++
			log.Error("Distribution retry failed", "error", err)
		}
	}

	if report.Scanned > 0 {
		r.logger.Info("Reconciliation pass finished",
			"scanned", report.Scanned, "healed", report.Healed, "pending", report.Pending, "failed", report.Failed)
	}
	return report, nil
}
