package ledger

import (
	"time"

	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Allocation is one project's share of a donation. (DonationID, ProjectID) is the
// idempotency key for both the project leg and the donor leg.
type Allocation struct {
	ProjectID        string     `json:"project_id"`
	Amount           int64      `json:"amount"`
	ProjectAppliedAt *time.Time `json:"project_applied_at,omitempty"`
	DonorAppliedAt   *time.Time `json:"donor_applied_at,omitempty"`
}

// Applied reports whether both legs of the allocation are recorded
func (a Allocation) Applied() bool {
	return a.ProjectAppliedAt != nil && a.DonorAppliedAt != nil
}

// Distribution is the persisted plan for fanning a donation out to projects
type Distribution struct {
	DonationID  uuid.UUID                `json:"donation_id"`
	State       shared.DistributionState `json:"state"`
	Attempts    int                      `json:"attempts"`
	Allocations []Allocation             `json:"allocations"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// NewDistribution builds a fresh plan in the created state
func NewDistribution(donationID uuid.UUID, allocations []Allocation) *Distribution {
	now := time.Now().UTC()
	return &Distribution{
		DonationID:  donationID,
		State:       shared.DistributionStateCreated,
		Allocations: allocations,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Total sums the planned allocations
func (d *Distribution) Total() int64 {
	var total int64
	for _, a := range d.Allocations {
		total += a.Amount
	}
	return total
}

// PendingProjectIDs lists the projects with at least one leg outstanding, in plan order
func (d *Distribution) PendingProjectIDs() []string {
	var ids []string
	for _, a := range d.Allocations {
		if a.Amount > 0 && !a.Applied() {
			ids = append(ids, a.ProjectID)
		}
	}
	return ids
}

// Allocation returns the planned share for a project
func (d *Distribution) Allocation(projectID string) (Allocation, bool) {
	for _, a := range d.Allocations {
		if a.ProjectID == projectID {
			return a, true
		}
	}
	return Allocation{}, false
}

// DeriveState computes the state implied by the leg flags.
// Zero-amount allocations never need applying.
func DeriveState(allocations []Allocation) shared.DistributionState {
	for _, a := range allocations {
		if a.Amount > 0 && !a.Applied() {
			return shared.DistributionStatePartiallyApplied
		}
	}
	return shared.DistributionStateFullyApplied
}
