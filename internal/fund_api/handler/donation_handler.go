package handler

import (
	"errors"
	"log/slog"

	"github.com/eco-fund-ledger/internal/domain/shared"
	"github.com/eco-fund-ledger/internal/fund/service"
	"github.com/eco-fund-ledger/internal/fund_api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader may carry the idempotency key instead of the body
const IdempotencyKeyHeader = "Idempotency-Key"

// DonationHandler handles HTTP requests for donations and donor accounts
type DonationHandler struct {
	donationService service.DonationService
	logger          *slog.Logger
}

// NewDonationHandler creates a new donation handler
func NewDonationHandler(logger *slog.Logger, donationService service.DonationService) *DonationHandler {
	return &DonationHandler{
		donationService: donationService,
		logger:          logger,
	}
}

// Create records a donation and distributes it. A partially applied distribution
// answers 202 with the projects left to retry.
func (h *DonationHandler) Create(c *gin.Context) {
	var req CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Info("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)
	}

	result, err := h.donationService.RecordDonation(c.Request.Context(), service.RecordDonationRequest{
		DonorID:        req.UserID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Status:         req.Status,
		IdempotencyKey: req.IdempotencyKey,
		CorrelationID:  middleware.GetCorrelationID(c),
	})
	if h.respondPartial(c, result, err) {
		return
	}
	if err != nil {
		RespondServiceError(c, h.logger, "Failed to record donation", err)
		return
	}

	RespondCreated(c, mapResultToResponse(result))
}

// Distribute re-drives the distribution of one of the donor's donations
func (h *DonationHandler) Distribute(c *gin.Context) {
	var req DistributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Info("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	var donationID uuid.UUID
	if req.DonationID != "" {
		id, err := uuid.Parse(req.DonationID)
		if err != nil {
			RespondBadRequest(c, "Invalid donationId: must be a donation UUID")
			return
		}
		donationID = id
	}

	result, err := h.donationService.RetryDistribution(c.Request.Context(), service.RetryDistributionRequest{
		DonorID:        c.Param("userId"),
		DonationID:     donationID,
		ProjectIDs:     req.ProjectIDs,
		ExpectedAmount: req.DonationAmount,
	})
	if h.respondPartial(c, result, err) {
		return
	}
	if err != nil {
		RespondServiceError(c, h.logger, "Failed to distribute donation", err)
		return
	}

	RespondOK(c, mapResultToResponse(result))
}

func (h *DonationHandler) respondPartial(c *gin.Context, result *service.DonationResult, err error) bool {
	var partial shared.PartialDistributionError
	if result == nil || !errors.As(err, &partial) {
		return false
	}

	h.logger.Warn("Donation recorded with incomplete distribution",
		"donation_id", partial.DonationID.String(),
		"failed_project_ids", partial.FailedProjectIDs,
		"error", partial.Cause,
	)
	response := mapResultToResponse(result)
	response.FailedProjectIDs = partial.FailedProjectIDs
	response.Retryable = true
	if response.Distribution != nil {
		response.Distribution.State = string(shared.DistributionStatePartiallyApplied)
	}
	RespondAccepted(c, response)
	return true
}

// GetByID returns the authoritative donation with its distribution state
func (h *DonationHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid donation ID")
		return
	}

	details, err := h.donationService.GetDonation(c.Request.Context(), id)
	if err != nil {
		RespondServiceError(c, h.logger, "Failed to get donation", err)
		return
	}

	RespondOK(c, DonationDetailsResponse{
		Donation:     mapDonationToResponse(details.Donation),
		Distribution: mapDistributionToResponse(details.Distribution),
	})
}

// GetDonor returns the donor summary. Donors who never gave read back zeros.
func (h *DonationHandler) GetDonor(c *gin.Context) {
	summary, err := h.donationService.GetDonorAccount(c.Request.Context(), c.Param("userId"))
	if err != nil {
		RespondServiceError(c, h.logger, "Failed to get donor account", err)
		return
	}

	RespondOK(c, mapDonorToResponse(summary))
}

// Audit rebuilds the donor's total from the donation history
func (h *DonationHandler) Audit(c *gin.Context) {
	report, err := h.donationService.AuditDonor(c.Request.Context(), c.Param("userId"))
	if err != nil {
		RespondServiceError(c, h.logger, "Failed to audit donor", err)
		return
	}

	RespondOK(c, AuditResponse{
		UserID:          report.DonorID,
		DonationCount:   report.DonationCount,
		HistoricalTotal: report.HistoricalTotal,
		RecordedTotal:   report.RecordedTotal,
		Allocated:       report.Allocated,
		Unallocated:     report.Unallocated,
		Drift:           report.Drift,
		Consistent:      report.Consistent,
	})
}
