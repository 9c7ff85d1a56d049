package components

import (
	"log/slog"
	"testing"
	"time"

	"github.com/eco-fund-ledger/internal/config"
	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/fund/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore satisfies ledger.Store; none of its methods run during construction
type stubStore struct {
	ledger.Store
}

func TestCreateDonationService(t *testing.T) {
	cfg := &config.DistributionConfig{
		WorkerPoolSize:  4,
		Timeout:         5 * time.Second,
		DefaultCurrency: "EUR",
	}

	svc, shutdown, err := CreateDonationService(stubStore{}, cfg, slog.Default())
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	defer shutdown()

	_, ok := svc.(*service.DonationServiceImpl)
	assert.True(t, ok)
}

func TestCreateDonationService_UnboundedPool(t *testing.T) {
	svc, shutdown, err := CreateDonationService(stubStore{}, &config.DistributionConfig{}, slog.Default())
	require.NoError(t, err)
	defer shutdown()
	assert.NotNil(t, svc)
}
