package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/project"
	"github.com/eco-fund-ledger/internal/fund/distribution"
	"github.com/eco-fund-ledger/internal/fund/service"
	"github.com/google/uuid"
)

// PlanStore is the part of the ledger store the planner needs
type PlanStore interface {
	GetDistribution(ctx context.Context, donationID uuid.UUID) (*ledger.Distribution, error)
	SaveDistributionPlan(ctx context.Context, plan *ledger.Distribution) (*ledger.Distribution, error)
	ListActiveProjects(ctx context.Context) ([]*project.Project, error)
}

// PlannerImpl implements the Planner interface
type PlannerImpl struct {
	store  PlanStore
	logger *slog.Logger
}

// NewPlanner creates a new PlannerImpl
func NewPlanner(store PlanStore, logger *slog.Logger) service.Planner {
	return &PlannerImpl{
		store:  store,
		logger: logger,
	}
}

// Plan returns the persisted plan for the donation. Without one, the active projects are
// snapshotted, split by the engine and stored; a concurrent writer's plan wins.
func (p *PlannerImpl) Plan(ctx context.Context, donationID uuid.UUID, amount int64) (*ledger.Distribution, error) {
	existing, err := p.store.GetDistribution(ctx, donationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load distribution plan: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	projects, err := p.store.ListActiveProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot active projects: %w", err)
	}

	allocations, err := distribution.Distribute(amount, projects)
	if err != nil {
		return nil, err
	}
	if len(allocations) == 0 {
		p.logger.Warn("No active projects, donation stays unallocated", "donation_id", donationID.String(), "amount", amount)
	}

	saved, err := p.store.SaveDistributionPlan(ctx, ledger.NewDistribution(donationID, allocations))
	if err != nil {
		return nil, fmt.Errorf("failed to save distribution plan: %w", err)
	}

	p.logger.Info("Distribution planned",
		"donation_id", donationID.String(),
		"projects", len(saved.Allocations),
		"amount", saved.Total(),
	)
	return saved, nil
}
