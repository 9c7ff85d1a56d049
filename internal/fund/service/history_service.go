package service

import (
	"context"
	"log/slog"

	"github.com/eco-fund-ledger/internal/domain/journal"
)

// HistoryServiceImpl implements the HistoryService interface over the journal read model
type HistoryServiceImpl struct {
	journal journal.Repository
	logger  *slog.Logger
}

func NewHistoryService(logger *slog.Logger, repo journal.Repository) HistoryService {
	return &HistoryServiceImpl{journal: repo, logger: logger}
}

// ListDonations retrieves a page of journal entries, newest first
// Returns entries, total count, and any error
func (s *HistoryServiceImpl) ListDonations(ctx context.Context, donorID string, page, perPage int) ([]*journal.Entry, int64, error) {
	offset := (page - 1) * perPage

	var (
		entries []*journal.Entry
		total   int64
		err     error
	)
	if donorID == "" {
		entries, err = s.journal.List(ctx, perPage, offset)
		if err == nil {
			total, err = s.journal.Count(ctx)
		}
	} else {
		entries, err = s.journal.ListByDonorID(ctx, donorID, perPage, offset)
		if err == nil {
			total, err = s.journal.CountByDonorID(ctx, donorID)
		}
	}
	if err != nil {
		s.logger.Error("Failed to list donation history", "donor_id", donorID, "error", err)
		return nil, 0, err
	}

	return entries, total, nil
}
