package donation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDonorAccount_Balanced(t *testing.T) {
	tests := []struct {
		name      string
		account   DonorAccount
		allocated int64
		balanced  bool
	}{
		{
			name:     "empty",
			account:  DonorAccount{DonorID: "guest"},
			balanced: true,
		},
		{
			name:     "all unallocated",
			account:  DonorAccount{DonorID: "guest", TotalDonated: 700, Unallocated: 700},
			balanced: true,
		},
		{
			name: "fully attributed",
			account: DonorAccount{
				DonorID:              "guest",
				TotalDonated:         10000,
				ProjectContributions: map[string]int64{"p1": 3334, "p2": 3333, "p3": 3333},
			},
			allocated: 10000,
			balanced:  true,
		},
		{
			name: "partially attributed",
			account: DonorAccount{
				DonorID:              "guest",
				TotalDonated:         9000,
				Unallocated:          3000,
				ProjectContributions: map[string]int64{"p1": 3000, "p3": 3000},
			},
			allocated: 6000,
			balanced:  true,
		},
		{
			name: "drifted",
			account: DonorAccount{
				DonorID:              "guest",
				TotalDonated:         1000,
				Unallocated:          600,
				ProjectContributions: map[string]int64{"p1": 500},
			},
			allocated: 500,
			balanced:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allocated, tt.account.Allocated())
			assert.Equal(t, tt.balanced, tt.account.Balanced())
		})
	}
}

func TestDonorAccount_IsContributor(t *testing.T) {
	var missing *DonorAccount
	assert.False(t, missing.IsContributor())
	assert.False(t, (&DonorAccount{DonorID: "guest"}).IsContributor())
	assert.True(t, (&DonorAccount{DonorID: "guest", TotalDonated: 1}).IsContributor())
}
