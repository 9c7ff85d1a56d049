package fund_api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/eco-fund-ledger/internal/fund_api/handler"
	"github.com/eco-fund-ledger/internal/fund_api/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers groups the route handlers. History is nil when the donation journal is disabled.
type Handlers struct {
	Donation *handler.DonationHandler
	Project  *handler.ProjectHandler
	Stats    *handler.StatsHandler
	History  *handler.HistoryHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, allowedOrigins []string, h Handlers) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.CORS(allowedOrigins))

	api := r.Group("/api")
	{
		donations := api.Group("/donations")
		{
			donations.POST("", h.Donation.Create)
			if h.History != nil {
				donations.GET("", h.History.List)
			}
			donations.GET("/:id", h.Donation.GetByID)
			donations.GET("/donor/:userId", h.Donation.GetDonor)
			donations.GET("/donor/:userId/audit", h.Donation.Audit)
			donations.POST("/donor/:userId/distribute", h.Donation.Distribute)
		}

		projects := api.Group("/projects")
		{
			projects.GET("", h.Project.List)
			projects.POST("", h.Project.Create)
			projects.GET("/:id", h.Project.GetByID)
			projects.PATCH("/:id", h.Project.Update)
		}

		api.GET("/stats", h.Stats.Get)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
