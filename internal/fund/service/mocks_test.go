package service

import (
	"context"
	"time"

	"github.com/eco-fund-ledger/internal/domain/donation"
	"github.com/eco-fund-ledger/internal/domain/journal"
	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/project"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateDonation(ctx context.Context, d *donation.Donation) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockStore) GetDonation(ctx context.Context, id uuid.UUID) (*donation.Donation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*donation.Donation), args.Error(1)
}

func (m *MockStore) ListDonationsByDonor(ctx context.Context, donorID string) ([]*donation.Donation, error) {
	args := m.Called(ctx, donorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*donation.Donation), args.Error(1)
}

func (m *MockStore) CreateProject(ctx context.Context, p *project.Project) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockStore) GetProject(ctx context.Context, id string) (*project.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *MockStore) ListProjects(ctx context.Context) ([]*project.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*project.Project), args.Error(1)
}

func (m *MockStore) ListActiveProjects(ctx context.Context) ([]*project.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*project.Project), args.Error(1)
}

func (m *MockStore) UpdateProject(ctx context.Context, id string, update ledger.ProjectUpdate) (*project.Project, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *MockStore) IncrementProjectAmount(ctx context.Context, id string, delta int64) (*project.Project, error) {
	args := m.Called(ctx, id, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *MockStore) UpsertDonorContribution(ctx context.Context, donorID, projectID string, delta int64) (*donation.DonorAccount, error) {
	args := m.Called(ctx, donorID, projectID, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*donation.DonorAccount), args.Error(1)
}

func (m *MockStore) GetDonorAccount(ctx context.Context, donorID string) (*donation.DonorAccount, error) {
	args := m.Called(ctx, donorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*donation.DonorAccount), args.Error(1)
}

func (m *MockStore) SaveDistributionPlan(ctx context.Context, plan *ledger.Distribution) (*ledger.Distribution, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Distribution), args.Error(1)
}

func (m *MockStore) GetDistribution(ctx context.Context, donationID uuid.UUID) (*ledger.Distribution, error) {
	args := m.Called(ctx, donationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Distribution), args.Error(1)
}

func (m *MockStore) ApplyProjectLeg(ctx context.Context, donationID uuid.UUID, projectID string) (bool, error) {
	args := m.Called(ctx, donationID, projectID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ApplyDonorLeg(ctx context.Context, donationID uuid.UUID, projectID string) (bool, error) {
	args := m.Called(ctx, donationID, projectID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) RefreshDistributionState(ctx context.Context, donationID uuid.UUID) (*ledger.Distribution, error) {
	args := m.Called(ctx, donationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Distribution), args.Error(1)
}

func (m *MockStore) ListPendingDistributions(ctx context.Context, olderThan time.Time, maxAttempts, limit int) ([]*ledger.Distribution, error) {
	args := m.Called(ctx, olderThan, maxAttempts, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Distribution), args.Error(1)
}

func (m *MockStore) StatsSnapshot(ctx context.Context) (*ledger.StatsSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.StatsSnapshot), args.Error(1)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockPlanner struct {
	mock.Mock
}

func (m *MockPlanner) Plan(ctx context.Context, donationID uuid.UUID, amount int64) (*ledger.Distribution, error) {
	args := m.Called(ctx, donationID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Distribution), args.Error(1)
}

type MockLegApplier struct {
	mock.Mock
}

func (m *MockLegApplier) ApplyLegs(ctx context.Context, donationID uuid.UUID, projectIDs []string) ([]string, error) {
	args := m.Called(ctx, donationID, projectIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockJournalRepository struct {
	mock.Mock
}

func (m *MockJournalRepository) Create(ctx context.Context, entry *journal.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournalRepository) GetByDonationID(ctx context.Context, donationID uuid.UUID) (*journal.Entry, error) {
	args := m.Called(ctx, donationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journal.Entry), args.Error(1)
}

func (m *MockJournalRepository) List(ctx context.Context, limit, offset int) ([]*journal.Entry, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Entry), args.Error(1)
}

func (m *MockJournalRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJournalRepository) ListByDonorID(ctx context.Context, donorID string, limit, offset int) ([]*journal.Entry, error) {
	args := m.Called(ctx, donorID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journal.Entry), args.Error(1)
}

func (m *MockJournalRepository) CountByDonorID(ctx context.Context, donorID string) (int64, error) {
	args := m.Called(ctx, donorID)
	return args.Get(0).(int64), args.Error(1)
}
