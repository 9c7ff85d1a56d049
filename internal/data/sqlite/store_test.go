package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/eco-fund-ledger/internal/config"
	"github.com/eco-fund-ledger/internal/domain/donation"
	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/project"
	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/eco-fund-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LedgerStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := persistence.NewSQLiteDB(context.Background(), logger, &config.SQLiteConfig{
		Path:        filepath.Join(t.TempDir(), "ledger.db"),
		BusyTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	store := NewLedgerStore(logger, db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedProjects(t *testing.T, store *LedgerStore, ids ...string) {
	t.Helper()
	for _, id := range ids {
		p, err := project.NewProject(id, "Project "+id, "", 1_000_000, shared.ProjectStatusActive)
		require.NoError(t, err)
		require.NoError(t, store.CreateProject(context.Background(), p))
	}
}

func recordDonation(t *testing.T, store *LedgerStore, donorID string, amount int64, key string) *donation.Donation {
	t.Helper()
	d, err := donation.NewDonation(donorID, amount, "", "", key)
	require.NoError(t, err)
	require.NoError(t, store.CreateDonation(context.Background(), d))
	return d
}

func TestLedgerStore_CreateDonation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first := recordDonation(t, store, "guest", 10000, "")
	recordDonation(t, store, "guest", 500, "retry-1")

	account, err := store.GetDonorAccount(ctx, "guest")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, int64(10500), account.TotalDonated)
	assert.Equal(t, int64(10500), account.Unallocated)
	assert.True(t, account.Balanced())
	require.NotNil(t, account.LastDonationAt)

	got, err := store.GetDonation(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, shared.DonationStatusCompleted, got.Status)
	assert.Equal(t, shared.DefaultCurrency, got.Currency)
	assert.WithinDuration(t, first.CreatedAt, got.CreatedAt, time.Millisecond)
}

func TestLedgerStore_CreateDonation_DuplicateKey(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	original := recordDonation(t, store, "guest", 700, "key-1")

	replay, err := donation.NewDonation("guest", 700, "", "", "key-1")
	require.NoError(t, err)
	err = store.CreateDonation(ctx, replay)

	var dup donation.ErrDuplicateDonation
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, original.ID, dup.ExistingID)

	account, err := store.GetDonorAccount(ctx, "guest")
	require.NoError(t, err)
	assert.Equal(t, int64(700), account.TotalDonated)

	history, err := store.ListDonationsByDonor(ctx, "guest")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestLedgerStore_GetDonation_NotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetDonation(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, shared.NotFoundError{Entity: "donation"}))
}

func TestLedgerStore_Projects(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedProjects(t, store, "b", "a")

	dup, err := project.NewProject("a", "Again", "", 10, "")
	require.NoError(t, err)
	err = store.CreateProject(ctx, dup)
	assert.True(t, errors.Is(err, shared.ValidationError{Field: "id"}))

	voting := shared.ProjectStatusVoting
	title := "Renamed"
	updated, err := store.UpdateProject(ctx, "b", ledger.ProjectUpdate{Title: &title, Status: &voting})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, shared.ProjectStatusVoting, updated.Status)

	_, err = store.UpdateProject(ctx, "missing", ledger.ProjectUpdate{Title: &title})
	assert.True(t, errors.Is(err, shared.NotFoundError{Entity: "project", ID: "missing"}))

	all, err := store.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)

	active, err := store.ListActiveProjects(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "a", active[0].ID)

	p, err := store.IncrementProjectAmount(ctx, "a", 250)
	require.NoError(t, err)
	assert.Equal(t, int64(250), p.CurrentAmount)

	_, err = store.IncrementProjectAmount(ctx, "missing", 1)
	assert.True(t, errors.Is(err, shared.NotFoundError{Entity: "project"}))
}

func TestLedgerStore_UpsertDonorContribution(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedProjects(t, store, "p1")
	recordDonation(t, store, "guest", 1000, "")

	account, err := store.UpsertDonorContribution(ctx, "guest", "p1", 600)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), account.TotalDonated)
	assert.Equal(t, int64(400), account.Unallocated)
	assert.Equal(t, int64(600), account.ProjectContributions["p1"])

	// exceeding the unallocated balance grows the total
	account, err = store.UpsertDonorContribution(ctx, "guest", "p1", 500)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), account.TotalDonated)
	assert.Equal(t, int64(0), account.Unallocated)
	assert.Equal(t, int64(1100), account.ProjectContributions["p1"])
	assert.True(t, account.Balanced())

	fresh, err := store.UpsertDonorContribution(ctx, "newcomer", "p1", 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), fresh.TotalDonated)

	_, err = store.UpsertDonorContribution(ctx, "guest", "ghost", 10)
	assert.True(t, errors.Is(err, shared.NotFoundError{Entity: "project", ID: "ghost"}))

	account, err = store.GetDonorAccount(ctx, "guest")
	require.NoError(t, err)
	assert.Equal(t, int64(1100), account.TotalDonated)

	missing, err := store.GetDonorAccount(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLedgerStore_DistributionLegs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedProjects(t, store, "p1", "p2", "p3")
	d := recordDonation(t, store, "guest", 10000, "")

	plan := ledger.NewDistribution(d.ID, []ledger.Allocation{
		{ProjectID: "p1", Amount: 3334},
		{ProjectID: "p2", Amount: 3333},
		{ProjectID: "p3", Amount: 3333},
	})
	saved, err := store.SaveDistributionPlan(ctx, plan)
	require.NoError(t, err)
	assert.Equal(t, shared.DistributionStateCreated, saved.State)
	assert.Equal(t, int64(10000), saved.Total())

	// a second plan for the same donation is ignored
	other := ledger.NewDistribution(d.ID, []ledger.Allocation{{ProjectID: "p1", Amount: 10000}})
	again, err := store.SaveDistributionPlan(ctx, other)
	require.NoError(t, err)
	assert.Len(t, again.Allocations, 3)

	for _, id := range saved.PendingProjectIDs() {
		applied, err := store.ApplyProjectLeg(ctx, d.ID, id)
		require.NoError(t, err)
		assert.True(t, applied)

		applied, err = store.ApplyDonorLeg(ctx, d.ID, id)
		require.NoError(t, err)
		assert.True(t, applied)
	}

	applied, err := store.ApplyProjectLeg(ctx, d.ID, "p1")
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = store.ApplyDonorLeg(ctx, d.ID, "p9")
	assert.True(t, errors.Is(err, shared.NotFoundError{Entity: "allocation"}))

	final, err := store.RefreshDistributionState(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.DistributionStateFullyApplied, final.State)
	assert.Equal(t, 0, final.Attempts)

	p1, err := store.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(3334), p1.CurrentAmount)

	account, err := store.GetDonorAccount(ctx, "guest")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), account.TotalDonated)
	assert.Equal(t, int64(0), account.Unallocated)
	assert.Equal(t, map[string]int64{"p1": 3334, "p2": 3333, "p3": 3333}, account.ProjectContributions)
}

func TestLedgerStore_PendingDistributions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedProjects(t, store, "p1", "p2")
	d := recordDonation(t, store, "guest", 100, "")

	_, err := store.SaveDistributionPlan(ctx, ledger.NewDistribution(d.ID, []ledger.Allocation{
		{ProjectID: "p1", Amount: 50},
		{ProjectID: "p2", Amount: 50},
	}))
	require.NoError(t, err)

	_, err = store.ApplyProjectLeg(ctx, d.ID, "p1")
	require.NoError(t, err)
	_, err = store.ApplyDonorLeg(ctx, d.ID, "p1")
	require.NoError(t, err)

	partial, err := store.RefreshDistributionState(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.DistributionStatePartiallyApplied, partial.State)
	assert.Equal(t, 1, partial.Attempts)
	assert.Equal(t, []string{"p2"}, partial.PendingProjectIDs())

	pending, err := store.ListPendingDistributions(ctx, time.Now().Add(time.Minute), 5, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, d.ID, pending[0].DonationID)

	none, err := store.ListPendingDistributions(ctx, time.Now().Add(time.Minute), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = store.RefreshDistributionState(ctx, uuid.New())
	assert.True(t, errors.Is(err, shared.NotFoundError{Entity: "distribution"}))
}

func TestLedgerStore_UnplannedDonationIsPending(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedProjects(t, store, "p1")
	d := recordDonation(t, store, "guest", 300, "")
	empty := recordDonation(t, store, "guest", 200, "")

	plan, err := store.GetDistribution(ctx, d.ID)
	require.NoError(t, err)
	assert.Nil(t, plan)

	pending, err := store.ListPendingDistributions(ctx, time.Now().Add(time.Minute), 5, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, shared.DistributionStateCreated, pending[0].State)

	_, err = store.RefreshDistributionState(ctx, d.ID)
	assert.True(t, errors.Is(err, shared.NotFoundError{Entity: "distribution"}))

	saved, err := store.SaveDistributionPlan(ctx, ledger.NewDistribution(d.ID, []ledger.Allocation{{ProjectID: "p1", Amount: 300}}))
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, saved.PendingProjectIDs())

	// no active projects still closes the distribution
	_, err = store.SaveDistributionPlan(ctx, ledger.NewDistribution(empty.ID, nil))
	require.NoError(t, err)
	closed, err := store.RefreshDistributionState(ctx, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.DistributionStateFullyApplied, closed.State)

	pending, err = store.ListPendingDistributions(ctx, time.Now().Add(time.Minute), 5, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, d.ID, pending[0].DonationID)
}

func TestLedgerStore_StatsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	empty, err := store.StatsSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatsSnapshot{}, *empty)

	seedProjects(t, store, "p1", "p2")
	completed := shared.ProjectStatusCompleted
	_, err = store.UpdateProject(ctx, "p2", ledger.ProjectUpdate{Status: &completed})
	require.NoError(t, err)

	recordDonation(t, store, "guest", 10000, "")
	recordDonation(t, store, "guest", 5000, "")
	recordDonation(t, store, "alice", 2500, "")

	stats, err := store.StatsSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(17500), stats.TotalDonations)
	assert.Equal(t, int64(2), stats.TotalDonors)
	assert.Equal(t, int64(2), stats.TotalProjects)
	assert.Equal(t, int64(1), stats.ActiveProjects)
}

func TestLedgerStore_ConcurrentDonations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seedProjects(t, store, "p1")

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := donation.NewDonation("guest", 100, "", "", fmt.Sprintf("k-%d", i))
			if err != nil {
				errs <- err
				return
			}
			if err := store.CreateDonation(ctx, d); err != nil {
				errs <- err
				return
			}
			if _, err := store.IncrementProjectAmount(ctx, "p1", 100); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	account, err := store.GetDonorAccount(ctx, "guest")
	require.NoError(t, err)
	assert.Equal(t, int64(workers*100), account.TotalDonated)

	p, err := store.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(workers*100), p.CurrentAmount)
}
