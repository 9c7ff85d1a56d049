package sqlite

import (
	"context"

	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/shared"
)

// StatsSnapshot reads the aggregate figures in a single statement
func (s *LedgerStore) StatsSnapshot(ctx context.Context) (*ledger.StatsSnapshot, error) {
	query := `
		SELECT
			(SELECT COALESCE(SUM(amount), 0) FROM donations),
			(SELECT COUNT(DISTINCT donor_id) FROM donations),
			(SELECT COUNT(*) FROM projects),
			(SELECT COUNT(*) FROM projects WHERE status = ?1)
	`

	var stats ledger.StatsSnapshot
	err := s.db.QueryRowContext(ctx, query, string(shared.ProjectStatusActive)).Scan(
		&stats.TotalDonations,
		&stats.TotalDonors,
		&stats.TotalProjects,
		&stats.ActiveProjects,
	)
	if err != nil {
		return nil, s.fail("read stats", err)
	}

	return &stats, nil
}
