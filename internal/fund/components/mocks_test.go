package components

import (
	"context"
	"time"

	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/project"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockDistributionStore covers the plan and leg operations of the ledger store
type MockDistributionStore struct {
	mock.Mock
}

func (m *MockDistributionStore) SaveDistributionPlan(ctx context.Context, plan *ledger.Distribution) (*ledger.Distribution, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Distribution), args.Error(1)
}

func (m *MockDistributionStore) GetDistribution(ctx context.Context, donationID uuid.UUID) (*ledger.Distribution, error) {
	args := m.Called(ctx, donationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Distribution), args.Error(1)
}

func (m *MockDistributionStore) ListActiveProjects(ctx context.Context) ([]*project.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*project.Project), args.Error(1)
}

func (m *MockDistributionStore) ApplyProjectLeg(ctx context.Context, donationID uuid.UUID, projectID string) (bool, error) {
	args := m.Called(ctx, donationID, projectID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDistributionStore) ApplyDonorLeg(ctx context.Context, donationID uuid.UUID, projectID string) (bool, error) {
	args := m.Called(ctx, donationID, projectID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDistributionStore) RefreshDistributionState(ctx context.Context, donationID uuid.UUID) (*ledger.Distribution, error) {
	args := m.Called(ctx, donationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Distribution), args.Error(1)
}

func (m *MockDistributionStore) ListPendingDistributions(ctx context.Context, olderThan time.Time, maxAttempts, limit int) ([]*ledger.Distribution, error) {
	args := m.Called(ctx, olderThan, maxAttempts, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Distribution), args.Error(1)
}
