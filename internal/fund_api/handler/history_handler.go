package handler

import (
	"log/slog"
	"net/http"

	"github.com/eco-fund-ledger/internal/fund/service"
	"github.com/gin-gonic/gin"
)

// HistoryHandler lists donations from the journal read model
type HistoryHandler struct {
	historyService service.HistoryService
	logger         *slog.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(logger *slog.Logger, historyService service.HistoryService) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
		logger:         logger,
	}
}

// List returns a page of donations, newest first, optionally for one donor
func (h *HistoryHandler) List(c *gin.Context) {
	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Info("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	entries, total, err := h.historyService.ListDonations(c.Request.Context(), params.UserID, params.Page, params.PerPage)
	if err != nil {
		RespondServiceError(c, h.logger, "Failed to list donations", err)
		return
	}

	response := make([]JournalEntryResponse, 0, len(entries))
	for _, e := range entries {
		response = append(response, mapJournalEntryToResponse(e))
	}
	RespondWithPaginatedData(c, http.StatusOK, response, params.Page, params.PerPage, int(total))
}
