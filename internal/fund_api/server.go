// Package fund_api exposes the donation ledger over HTTP.
package fund_api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/eco-fund-ledger/internal/config"
	"github.com/eco-fund-ledger/internal/fund/service"
	"github.com/eco-fund-ledger/internal/fund_api/handler"
	"github.com/gin-gonic/gin"
)

// Services are the fund services the API serves. History may be nil.
type Services struct {
	Donations service.DonationService
	Projects  service.ProjectService
	Stats     service.StatsService
	History   service.HistoryService
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	handlers := Handlers{
		Donation: handler.NewDonationHandler(log, services.Donations),
		Project:  handler.NewProjectHandler(log, services.Projects),
		Stats:    handler.NewStatsHandler(log, services.Stats),
	}
	if services.History != nil {
		handlers.History = handler.NewHistoryHandler(log, services.History)
	}

	setupRouter(log, httpRouter, cfg.CORS.AllowedOrigins, handlers)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server within timeout
func (s *Server) Stop(ctx context.Context, timeout time.Duration) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
