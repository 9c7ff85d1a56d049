// Package distribution splits a donation across the active projects.
package distribution

import (
	"sort"

	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/project"
	"github.com/eco-fund-ledger/internal/domain/shared"
)

// Distribute returns an equal-share plan for amount over projects. The plan is ordered
// by project id and the remainder of the integer division goes to the first project,
// so the allocations always sum to amount. Shares of zero are kept in the plan.
// An empty project set yields an empty plan.
func Distribute(amount int64, projects []*project.Project) ([]ledger.Allocation, error) {
	if amount <= 0 {
		return nil, shared.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if len(projects) == 0 {
		return []ledger.Allocation{}, nil
	}

	ids := make([]string, 0, len(projects))
	seen := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		if p == nil || p.ID == "" {
			return nil, shared.ValidationError{Field: "projects", Reason: "project id is required"}
		}
		if _, dup := seen[p.ID]; dup {
			return nil, shared.ValidationError{Field: "projects", Reason: "duplicate project id " + p.ID}
		}
		seen[p.ID] = struct{}{}
		ids = append(ids, p.ID)
	}
	sort.Strings(ids)

	n := int64(len(ids))
	share := amount / n
	remainder := amount - share*n

	allocations := make([]ledger.Allocation, len(ids))
	for i, id := range ids {
		allocations[i] = ledger.Allocation{ProjectID: id, Amount: share}
	}
	allocations[0].Amount += remainder

	return allocations, nil
}
