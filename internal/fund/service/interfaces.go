package service

import (
	"context"

	"github.com/eco-fund-ledger/internal/domain/journal"
	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/project"
	"github.com/google/uuid"
)

// DonationService is the only mutator of cross-entity fund state
type DonationService interface {
	// RecordDonation persists the donation and distributes it across the active projects.
	// A distribution that did not finish returns the result together with a
	// shared.PartialDistributionError; the donation itself is durable at that point.
	RecordDonation(ctx context.Context, req RecordDonationRequest) (*DonationResult, error)

	// RetryDistribution re-drives the persisted plan of a donation. Legs already applied are skipped.
	RetryDistribution(ctx context.Context, req RetryDistributionRequest) (*DonationResult, error)

	// GetDonorAccount returns the donor's summary; unknown donors are reported as non-contributors
	GetDonorAccount(ctx context.Context, donorID string) (*DonorSummary, error)

	GetDonation(ctx context.Context, id uuid.UUID) (*DonationDetails, error)

	// AuditDonor recomputes the donor's total from the donation history and compares it with the account
	AuditDonor(ctx context.Context, donorID string) (*AuditReport, error)
}

// ProjectService exposes the project catalogue. It never changes CurrentAmount.
type ProjectService interface {
	ListProjects(ctx context.Context) ([]*project.Project, error)
	GetProject(ctx context.Context, id string) (*project.Project, error)
	CreateProject(ctx context.Context, req CreateProjectRequest) (*project.Project, error)
	UpdateProject(ctx context.Context, id string, req UpdateProjectRequest) (*project.Project, error)
}

// StatsService computes the public fund figures
type StatsService interface {
	ComputeStats(ctx context.Context) (*ledger.StatsSnapshot, error)
}

// HistoryService pages through the donation journal
type HistoryService interface {
	// ListDonations returns entries, the total count and any error. An empty donorID lists every donor.
	ListDonations(ctx context.Context, donorID string, page, perPage int) ([]*journal.Entry, int64, error)
}

// Planner produces the persisted distribution plan for a donation
type Planner interface {
	// Plan returns the stored plan, or snapshots the active projects and stores a new one
	Plan(ctx context.Context, donationID uuid.UUID, amount int64) (*ledger.Distribution, error)
}

// LegApplier applies the project and donor legs of a plan
type LegApplier interface {
	// ApplyLegs applies the legs for projectIDs and returns the ids that failed, sorted,
	// with the first failure cause
	ApplyLegs(ctx context.Context, donationID uuid.UUID, projectIDs []string) ([]string, error)
}
