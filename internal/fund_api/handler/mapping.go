package handler

import (
	"time"

	"github.com/eco-fund-ledger/internal/domain/donation"
	"github.com/eco-fund-ledger/internal/domain/journal"
	"github.com/eco-fund-ledger/internal/domain/ledger"
	"github.com/eco-fund-ledger/internal/domain/project"
	"github.com/eco-fund-ledger/internal/fund/service"
)

func mapDonationToResponse(d *donation.Donation) DonationResponse {
	return DonationResponse{
		ID:             d.ID.String(),
		UserID:         d.DonorID,
		Amount:         d.Amount,
		Currency:       d.Currency,
		Status:         string(d.Status),
		IdempotencyKey: d.IdempotencyKey,
		CreatedAt:      d.CreatedAt.Format(time.RFC3339),
	}
}

func mapDistributionToResponse(d *ledger.Distribution) *DistributionResponse {
	if d == nil {
		return nil
	}
	allocations := make([]AllocationResponse, 0, len(d.Allocations))
	for _, a := range d.Allocations {
		allocations = append(allocations, AllocationResponse{
			ProjectID: a.ProjectID,
			Amount:    a.Amount,
			Applied:   a.Amount == 0 || a.Applied(),
		})
	}
	return &DistributionResponse{
		DonationID:  d.DonationID.String(),
		State:       string(d.State),
		Attempts:    d.Attempts,
		Allocations: allocations,
	}
}

func mapDonorToResponse(s *service.DonorSummary) *DonorResponse {
	if s == nil {
		return nil
	}
	response := &DonorResponse{
		UserID:               s.DonorID,
		IsContributor:        s.IsContributor,
		TotalDonated:         s.TotalDonated,
		Unallocated:          s.Unallocated,
		ProjectContributions: s.ProjectContributions,
	}
	if s.LastDonationAt != nil {
		response.LastDonationAt = s.LastDonationAt.Format(time.RFC3339)
	}
	return response
}

func mapResultToResponse(r *service.DonationResult) DonationResultResponse {
	return DonationResultResponse{
		Donation:     mapDonationToResponse(r.Donation),
		Donor:        mapDonorToResponse(r.Donor),
		Distribution: mapDistributionToResponse(r.Distribution),
		Replayed:     r.Replayed,
	}
}

func mapProjectToResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		TargetAmount:  p.TargetAmount,
		CurrentAmount: p.CurrentAmount,
		FundedPercent: p.FundedPercent().StringFixed(2),
		Status:        string(p.Status),
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.Format(time.RFC3339),
	}
}

func mapJournalEntryToResponse(e *journal.Entry) JournalEntryResponse {
	return JournalEntryResponse{
		DonationID:    e.DonationID.String(),
		UserID:        e.DonorID,
		Amount:        e.Amount,
		Currency:      e.Currency,
		Status:        string(e.Status),
		CorrelationID: e.CorrelationID,
		CreatedAt:     e.CreatedAt.Format(time.RFC3339),
	}
}
