package distribution

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/project"
	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func projects(ids ...string) []*project.Project {
	out := make([]*project.Project, len(ids))
	for i, id := range ids {
		out[i] = &project.Project{ID: id, Title: id, TargetAmount: 1, Status: shared.ProjectStatusActive}
	}
	return out
}

func sum(allocations []ledger.Allocation) int64 {
	var total int64
	for _, a := range allocations {
		total += a.Amount
	}
	return total
}

func TestDistribute(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		projects []*project.Project
		expected []ledger.Allocation
	}{
		{
			name:     "remainder goes to the lowest id",
			amount:   10000,
			projects: projects("P1", "P2", "P3"),
			expected: []ledger.Allocation{{ProjectID: "P1", Amount: 3334}, {ProjectID: "P2", Amount: 3333}, {ProjectID: "P3", Amount: 3333}},
		},
		{
			name:     "caller order is ignored",
			amount:   10000,
			projects: projects("P3", "P1", "P2"),
			expected: []ledger.Allocation{{ProjectID: "P1", Amount: 3334}, {ProjectID: "P2", Amount: 3333}, {ProjectID: "P3", Amount: 3333}},
		},
		{
			name:     "single project takes everything",
			amount:   777,
			projects: projects("solo"),
			expected: []ledger.Allocation{{ProjectID: "solo", Amount: 777}},
		},
		{
			name:     "amount smaller than project count keeps zero shares",
			amount:   2,
			projects: projects("a", "b", "c"),
			expected: []ledger.Allocation{{ProjectID: "a", Amount: 2}, {ProjectID: "b", Amount: 0}, {ProjectID: "c", Amount: 0}},
		},
		{
			name:     "no projects",
			amount:   5000,
			projects: nil,
			expected: []ledger.Allocation{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Distribute(tt.amount, tt.projects)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, plan)
		})
	}
}

func TestDistribute_Invalid(t *testing.T) {
	_, err := Distribute(0, projects("a"))
	assert.True(t, errors.Is(err, shared.ValidationError{Field: "amount"}))

	_, err = Distribute(-5, nil)
	assert.True(t, errors.Is(err, shared.ValidationError{Field: "amount"}))

	_, err = Distribute(100, projects("a", "b", "a"))
	assert.True(t, errors.Is(err, shared.ValidationError{Field: "projects"}))

	_, err = Distribute(100, []*project.Project{nil})
	assert.True(t, errors.Is(err, shared.ValidationError{Field: "projects"}))
}

func TestDistribute_ConservesAmount(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		amount := rng.Int63n(1_000_000_000) + 1
		n := rng.Intn(25) + 1
		ids := make([]string, n)
		for j := range ids {
			ids[j] = fmt.Sprintf("p-%03d", rng.Intn(1000)*100+j)
		}

		plan, err := Distribute(amount, projects(ids...))
		require.NoError(t, err)
		require.Len(t, plan, n)
		assert.Equal(t, amount, sum(plan), "amount %d over %d projects", amount, n)

		for j := 1; j < len(plan); j++ {
			assert.Less(t, plan[j-1].ProjectID, plan[j].ProjectID)
			assert.Equal(t, plan[1].Amount, plan[j].Amount)
		}
		assert.Less(t, plan[0].Amount-plan[n-1].Amount, int64(n))
	}
}

func TestDistribute_Deterministic(t *testing.T) {
	first, err := Distribute(123457, projects("x", "m", "b", "q"))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Distribute(123457, projects("q", "b", "x", "m"))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
