package service

import (
	"context"
	"log/slog"

	"github.com/eco-fund-ledger/internal/domain/ledger"
)

// StatsServiceImpl implements the StatsService interface
type StatsServiceImpl struct {
	reader ledger.StatsReader
	logger *slog.Logger
}

func NewStatsService(logger *slog.Logger, reader ledger.StatsReader) StatsService {
	return &StatsServiceImpl{reader: reader, logger: logger}
}

// ComputeStats reads the figures on demand. The snapshot is best effort and
// may lag a concurrent donation.
func (s *StatsServiceImpl) ComputeStats(ctx context.Context) (*ledger.StatsSnapshot, error) {
	stats, err := s.reader.StatsSnapshot(ctx)
	if err != nil {
		s.logger.Error("Failed to compute stats", "error", err)
		return nil, err
	}
	return stats, nil
}
