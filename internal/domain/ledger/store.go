package ledger

import (
	"context"
	"time"

	"github.com/eco-fund-ledger/internal/domain/donation"
	"github.com/eco-fund-ledger/internal/domain/project"
	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// DonationStore persists the append-only donation history
type DonationStore interface {
	// CreateDonation inserts the donation and credits the donor's TotalDonated and
	// Unallocated in one atomic step. A reused idempotency key yields
	// donation.ErrDuplicateDonation and writes nothing.
	CreateDonation(ctx context.Context, d *donation.Donation) error
	GetDonation(ctx context.Context, id uuid.UUID) (*donation.Donation, error)
	ListDonationsByDonor(ctx context.Context, donorID string) ([]*donation.Donation, error)
}

// ProjectStore persists projects. CurrentAmount only changes through IncrementProjectAmount.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *project.Project) error
	GetProject(ctx context.Context, id string) (*project.Project, error)
	ListProjects(ctx context.Context) ([]*project.Project, error)
	// ListActiveProjects returns a snapshot of active projects ordered by id
	ListActiveProjects(ctx context.Context) ([]*project.Project, error)
	UpdateProject(ctx context.Context, id string, update ProjectUpdate) (*project.Project, error)
	IncrementProjectAmount(ctx context.Context, id string, delta int64) (*project.Project, error)
}

// ProjectUpdate carries the mutable project fields. Nil fields are left untouched.
type ProjectUpdate struct {
	Title       *string
	Description *string
	Status      *shared.ProjectStatus
}

// DonorStore persists donor contribution records
type DonorStore interface {
	UpsertDonorContribution(ctx context.Context, donorID, projectID string, delta int64) (*donation.DonorAccount, error)
	// GetDonorAccount returns nil without error for a donor that never gave
	GetDonorAccount(ctx context.Context, donorID string) (*donation.DonorAccount, error)
}

// DistributionStore persists distribution plans and applies their legs exactly once
type DistributionStore interface {
	// SaveDistributionPlan stores the plan unless one already exists and returns the persisted plan
	SaveDistributionPlan(ctx context.Context, plan *Distribution) (*Distribution, error)
	// GetDistribution returns nil without error when no plan was saved
	GetDistribution(ctx context.Context, donationID uuid.UUID) (*Distribution, error)
	// ApplyProjectLeg adds the planned share to the project. It returns false when the leg was already applied.
	ApplyProjectLeg(ctx context.Context, donationID uuid.UUID, projectID string) (bool, error)
	// ApplyDonorLeg credits the planned share to the donor's contribution for the project.
	// It returns false when the leg was already applied.
	ApplyDonorLeg(ctx context.Context, donationID uuid.UUID, projectID string) (bool, error)
	// RefreshDistributionState recomputes the state from the leg flags, counting an attempt
	// when legs remain outstanding.
	RefreshDistributionState(ctx context.Context, donationID uuid.UUID) (*Distribution, error)
	// ListPendingDistributions returns plans that are not fully applied, last touched before
	// olderThan, with fewer than maxAttempts attempts.
	ListPendingDistributions(ctx context.Context, olderThan time.Time, maxAttempts, limit int) ([]*Distribution, error)
}

// StatsReader computes the aggregate fund figures
type StatsReader interface {
	StatsSnapshot(ctx context.Context) (*StatsSnapshot, error)
}

// StatsSnapshot holds the aggregate figures read in one pass
type StatsSnapshot struct {
	TotalDonations int64 `json:"total_donations"`
	TotalDonors    int64 `json:"total_donors"`
	TotalProjects  int64 `json:"total_projects"`
	ActiveProjects int64 `json:"active_projects"`
}

// Store is the authoritative ledger store
type Store interface {
	DonationStore
	ProjectStore
	DonorStore
	DistributionStore
	StatsReader
	Close() error
}
