package handler

import (
	"log/slog"

	"github.com/eco-fund-ledger/internal/fund/service"
	"github.com/gin-gonic/gin"
)

// StatsHandler serves the fund-wide figures
type StatsHandler struct {
	statsService service.StatsService
	logger       *slog.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(logger *slog.Logger, statsService service.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		logger:       logger,
	}
}

func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.statsService.ComputeStats(c.Request.Context())
	if err != nil {
		RespondServiceError(c, h.logger, "Failed to compute stats", err)
		return
	}

	RespondOK(c, StatsResponse{
		TotalDonations: stats.TotalDonations,
		TotalDonors:    stats.TotalDonors,
		TotalProjects:  stats.TotalProjects,
		ActiveProjects: stats.ActiveProjects,
	})
}
