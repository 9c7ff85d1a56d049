package donation

import "time"

// DonorAccount is the per-donor contribution record read back by the UI.
// TotalDonated always equals the sum of ProjectContributions plus Unallocated.
// The stores maintain the totals with in-place increments; the account is a read model.
type DonorAccount struct {
	DonorID              string           `json:"donor_id"`
	TotalDonated         int64            `json:"total_donated"`
	Unallocated          int64            `json:"unallocated"`
	ProjectContributions map[string]int64 `json:"project_contributions"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
	LastDonationAt       *time.Time       `json:"last_donation_at,omitempty"`
}

// Allocated sums the per-project contributions
func (a *DonorAccount) Allocated() int64 {
	var total int64
	for _, amount := range a.ProjectContributions {
		total += amount
	}
	return total
}

// Balanced reports whether the totals reconcile
func (a *DonorAccount) Balanced() bool {
	return a.TotalDonated == a.Allocated()+a.Unallocated
}

// IsContributor reports whether the donor has given anything
func (a *DonorAccount) IsContributor() bool {
	return a != nil && a.TotalDonated > 0
}
