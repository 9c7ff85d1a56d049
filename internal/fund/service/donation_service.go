package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/eco-fund-ledger/internal/domain/donation"
	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/eco-fund-ledger/internal/logger"
	"github.com/google/uuid"
)

// DonationServiceConfig tunes the distribution step
type DonationServiceConfig struct {
	// Timeout bounds the distribution once the donation is persisted
	Timeout         time.Duration
	DefaultCurrency string
}

// DonationServiceImpl implements the DonationService interface
type DonationServiceImpl struct {
	store   ledger.Store
	planner Planner
	applier LegApplier
	cfg     DonationServiceConfig
	logger  *slog.Logger
}

// NewDonationService creates a new donation service
func NewDonationService(
	store ledger.Store,
	planner Planner,
	applier LegApplier,
	cfg DonationServiceConfig,
	logger *slog.Logger,
) *DonationServiceImpl {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = shared.DefaultCurrency
	}
	return &DonationServiceImpl{
		store:   store,
		planner: planner,
		applier: applier,
		cfg:     cfg,
		logger:  logger,
	}
}

// RecordDonation validates and persists the donation, then distributes it.
// Cancellation of ctx is honoured only until the donation is persisted.
func (s *DonationServiceImpl) RecordDonation(ctx context.Context, req RecordDonationRequest) (*DonationResult, error) {
	log := logger.FromContext(ctx, s.logger)

	currency := req.Currency
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	d, err := donation.NewDonation(req.DonorID, req.Amount, currency, shared.DonationStatus(req.Status), req.IdempotencyKey)
	if err != nil {
		log.Info("Rejected donation", "donor_id", req.DonorID, "amount", req.Amount, "error", err)
		return nil, err
	}
	d.CorrelationID = req.CorrelationID
	if d.CorrelationID == "" {
		d.CorrelationID = logger.CorrelationID(ctx)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	replayed := false
	if err := s.store.CreateDonation(ctx, d); err != nil {
		var dup donation.ErrDuplicateDonation
		if !errors.As(err, &dup) {
			log.Error("Failed to persist donation", "donor_id", d.DonorID, "error", err)
			return nil, err
		}

		existing, getErr := s.store.GetDonation(ctx, dup.ExistingID)
		if getErr != nil {
			return nil, getErr
		}
		if existing.DonorID != d.DonorID || existing.Amount != d.Amount || existing.Currency != d.Currency {
			log.Info("Rejected idempotency key reuse",
				"idempotency_key", d.IdempotencyKey,
				"donation_id", existing.ID.String(),
				"donor_id", d.DonorID,
				"amount", d.Amount,
			)
			return nil, shared.ValidationError{Field: "idempotencyKey", Reason: "was already used for a different donation"}
		}
		log.Info("Found existing donation with idempotency key",
			"idempotency_key", d.IdempotencyKey,
			"donation_id", existing.ID.String(),
		)
		d = existing
		replayed = true
	} else {
		log.Info("Donation recorded",
			"donation_id", d.ID.String(),
			"donor_id", d.DonorID,
			"amount", d.Amount,
			"currency", d.Currency,
		)
	}

	// The donation is durable from here on, so the distribution must not be abandoned
	// half way because the caller went away.
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	defer cancel()

	result, err := s.distribute(dctx, d, nil)
	result.Replayed = replayed
	return result, err
}

// RetryDistribution re-drives a donation's distribution from its persisted plan.
// Without a DonationID the donor's newest unfinished donation is used.
func (s *DonationServiceImpl) RetryDistribution(ctx context.Context, req RetryDistributionRequest) (*DonationResult, error) {
	if req.DonationID == uuid.Nil {
		d, err := s.latestUnfinished(ctx, req.DonorID, req.ExpectedAmount)
		if err != nil {
			return nil, err
		}
		req.DonationID = d.ID
	}

	d, err := s.store.GetDonation(ctx, req.DonationID)
	if err != nil {
		return nil, err
	}
	if req.DonorID != "" && req.DonorID != d.DonorID {
		return nil, shared.NotFoundError{Entity: "donation", ID: req.DonationID.String()}
	}
	if req.ExpectedAmount != 0 && req.ExpectedAmount != d.Amount {
		return nil, shared.ValidationError{Field: "donationAmount", Reason: "does not match the recorded donation"}
	}

	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	defer cancel()

	return s.distribute(dctx, d, req.ProjectIDs)
}

// latestUnfinished returns the donor's newest donation whose distribution is not fully
// applied. A non-zero amount narrows the search to donations of that amount.
func (s *DonationServiceImpl) latestUnfinished(ctx context.Context, donorID string, amount int64) (*donation.Donation, error) {
	if donorID == "" {
		return nil, shared.ValidationError{Field: "donationId", Reason: "is required"}
	}
	donations, err := s.store.ListDonationsByDonor(ctx, donorID)
	if err != nil {
		return nil, err
	}

	for i := len(donations) - 1; i >= 0; i-- {
		d := donations[i]
		if amount != 0 && d.Amount != amount {
			continue
		}
		plan, err := s.store.GetDistribution(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		if plan == nil || plan.State != shared.DistributionStateFullyApplied {
			return d, nil
		}
	}
	return nil, shared.ValidationError{Field: "donationId", Reason: "is required: the donor has no unfinished distribution to re-drive"}
}

// distribute plans and applies the legs of d. The result is never nil; its Donor
// reflects the store after the attempt.
func (s *DonationServiceImpl) distribute(ctx context.Context, d *donation.Donation, only []string) (*DonationResult, error) {
	log := logger.FromContext(ctx, s.logger).With("donation_id", d.ID.String())
	result := &DonationResult{Donation: d}

	plan, err := s.planner.Plan(ctx, d.ID, d.Amount)
	if err != nil {
		if errors.Is(err, shared.ValidationError{}) {
			return result, err
		}
		log.Error("Distribution plan unavailable, donation left unallocated", "error", err)
		result.Donor = s.donorSummary(ctx, d.DonorID, log)
		return result, shared.PartialDistributionError{DonationID: d.ID, Cause: err}
	}

	pending := plan.PendingProjectIDs()
	if len(only) > 0 {
		for _, id := range only {
			if _, ok := plan.Allocation(id); !ok {
				return result, shared.ValidationError{Field: "projectIds", Reason: "project " + id + " is not part of the distribution"}
			}
		}
		pending = slices.DeleteFunc(pending, func(id string) bool { return !slices.Contains(only, id) })
	}

	var (
		failed []string
		cause  error
	)
	if len(pending) > 0 {
		failed, cause = s.applier.ApplyLegs(ctx, d.ID, pending)
	}

	refreshed, err := s.store.RefreshDistributionState(ctx, d.ID)
	if err != nil {
		log.Error("Failed to refresh distribution state", "error", err)
		if cause == nil {
			cause = err
		}
		refreshed = plan
	}
	result.Distribution = refreshed
	result.Donor = s.donorSummary(ctx, d.DonorID, log)

	if len(failed) > 0 || (err != nil && len(pending) > 0) {
		log.Warn("Distribution partially applied", "failed_project_ids", failed, "error", cause)
		return result, shared.PartialDistributionError{DonationID: d.ID, FailedProjectIDs: failed, Cause: cause}
	}

	log.Info("Distribution applied", "state", string(refreshed.State), "legs", len(pending))
	return result, nil
}

func (s *DonationServiceImpl) donorSummary(ctx context.Context, donorID string, log *slog.Logger) *DonorSummary {
	account, err := s.store.GetDonorAccount(ctx, donorID)
	if err != nil {
		log.Error("Failed to read donor account", "donor_id", donorID, "error", err)
		return nil
	}
	return newDonorSummary(donorID, account)
}

// GetDonorAccount returns the donor's summary. Unknown donors get zeros.
func (s *DonationServiceImpl) GetDonorAccount(ctx context.Context, donorID string) (*DonorSummary, error) {
	if donorID == "" {
		return nil, shared.ValidationError{Field: "userId", Reason: "is required"}
	}
	account, err := s.store.GetDonorAccount(ctx, donorID)
	if err != nil {
		return nil, err
	}
	return newDonorSummary(donorID, account), nil
}

// GetDonation returns the donation with its distribution, if one was planned
func (s *DonationServiceImpl) GetDonation(ctx context.Context, id uuid.UUID) (*DonationDetails, error) {
	d, err := s.store.GetDonation(ctx, id)
	if err != nil {
		return nil, err
	}
	plan, err := s.store.GetDistribution(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DonationDetails{Donation: d, Distribution: plan}, nil
}

// AuditDonor rebuilds the donor's total from the donation history
func (s *DonationServiceImpl) AuditDonor(ctx context.Context, donorID string) (*AuditReport, error) {
	donations, err := s.store.ListDonationsByDonor(ctx, donorID)
	if err != nil {
		return nil, err
	}
	account, err := s.store.GetDonorAccount(ctx, donorID)
	if err != nil {
		return nil, err
	}
	if account == nil && len(donations) == 0 {
		return nil, shared.NotFoundError{Entity: "donor", ID: donorID}
	}

	report := &AuditReport{DonorID: donorID, DonationCount: len(donations)}
	for _, d := range donations {
		report.HistoricalTotal += d.Amount
	}
	balanced := true
	if account != nil {
		report.RecordedTotal = account.TotalDonated
		report.Allocated = account.Allocated()
		report.Unallocated = account.Unallocated
		balanced = account.Balanced()
	}
	report.Drift = report.RecordedTotal - report.HistoricalTotal
	report.Consistent = report.Drift == 0 && balanced

	if !report.Consistent {
		s.logger.Warn("Donor account drift detected",
			"donor_id", donorID,
			"historical_total", report.HistoricalTotal,
			"recorded_total", report.RecordedTotal,
			"balanced", balanced,
		)
	}
	return report, nil
}
