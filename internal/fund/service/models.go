package service

import (
	"maps"
	"time"

	"github.com/eco-fund-ledger/internal/domain/donation"
	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/google/uuid"
)

// RecordDonationRequest carries a caller's donation before validation
type RecordDonationRequest struct {
	DonorID        string
	Amount         int64
	Currency       string
	Status         string
	IdempotencyKey string
	CorrelationID  string
}

// RetryDistributionRequest identifies the donation whose distribution is re-driven.
// A zero DonationID selects the donor's newest unfinished donation. ProjectIDs narrows
// the retry to part of the plan; ExpectedAmount, when set, must match the recorded donation.
type RetryDistributionRequest struct {
	DonorID        string
	DonationID     uuid.UUID
	ProjectIDs     []string
	ExpectedAmount int64
}

// DonationResult is the outcome of recording or re-driving a donation
type DonationResult struct {
	Donation     *donation.Donation
	Donor        *DonorSummary
	Distribution *ledger.Distribution
	// Replayed is set when the idempotency key matched an earlier donation
	Replayed bool
}

// DonationDetails is the authoritative view of one donation
type DonationDetails struct {
	Donation     *donation.Donation
	Distribution *ledger.Distribution
}

// DonorSummary is what the UI reads back after a donation
type DonorSummary struct {
	DonorID              string
	IsContributor        bool
	TotalDonated         int64
	Unallocated          int64
	ProjectContributions map[string]int64
	LastDonationAt       *time.Time
}

func newDonorSummary(donorID string, account *donation.DonorAccount) *DonorSummary {
	if account == nil {
		return &DonorSummary{DonorID: donorID, ProjectContributions: map[string]int64{}}
	}
	contributions := maps.Clone(account.ProjectContributions)
	if contributions == nil {
		contributions = map[string]int64{}
	}
	return &DonorSummary{
		DonorID:              account.DonorID,
		IsContributor:        account.IsContributor(),
		TotalDonated:         account.TotalDonated,
		Unallocated:          account.Unallocated,
		ProjectContributions: contributions,
		LastDonationAt:       account.LastDonationAt,
	}
}

// AuditReport compares a donor account with the donation history
type AuditReport struct {
	DonorID         string
	DonationCount   int
	HistoricalTotal int64
	RecordedTotal   int64
	Allocated       int64
	Unallocated     int64
	// Drift is RecordedTotal minus HistoricalTotal
	Drift      int64
	Consistent bool
}

// CreateProjectRequest carries a new project from the admin process
type CreateProjectRequest struct {
	ID           string
	Title        string
	Description  string
	TargetAmount int64
	Status       string
}

// UpdateProjectRequest carries the fields an admin may change. Nil fields are kept.
type UpdateProjectRequest struct {
	Title       *string
	Description *string
	Status      *string
}
