package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eco-fund-ledger/internal/config"
	"github.com/eco-fund-ledger/internal/data"
	"github.com/eco-fund-ledger/internal/data/mongo"
	"github.com/eco-fund-ledger/internal/fund/components"
	"github.com/eco-fund-ledger/internal/fund/service"
	"github.com/eco-fund-ledger/internal/fund_api"
	"github.com/eco-fund-ledger/internal/logger"
	"github.com/eco-fund-ledger/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("fund_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting Fund API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"store_driver", cfg.Store.Driver,
	)

	backend, err := data.OpenLedger(appCtx, log, cfg)
	if err != nil {
		log.Error("Failed to open ledger store", "error", err)
		os.Exit(1)
	}

	donations, shutdownPool, err := components.CreateDonationService(backend.Store, &cfg.Distribution, log)
	if err != nil {
		log.Error("Failed to create donation service", "error", err)
		os.Exit(1)
	}

	services := fund_api.Services{
		Donations: donations,
		Projects:  service.NewProjectService(log, backend.Store),
		Stats:     service.NewStatsService(log, backend.Store),
	}

	// The journal is optional; without it the history endpoints are not mounted
	var mongoDB *persistence.MongoDB
	if cfg.MongoDB.URI != "" {
		mongoDB, err = persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
		if err != nil {
			log.Error("Failed to initialize MongoDB", "error", err)
			os.Exit(1)
		}
		journalRepo := mongo.NewJournalRepository(log, mongoDB.Database(), cfg.MongoDB.JournalCollection)
		services.History = service.NewHistoryService(log, journalRepo)
	}

	server := fund_api.NewServer(log, cfg, services)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()
	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before the pool and store go away
	if err = server.Stop(context.Background(), cfg.Server.ShutdownTimeout); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	shutdownPool()

	if err = backend.Close(); err != nil {
		log.Error("Error closing ledger store", "error", err)
	}

	if mongoDB != nil {
		closeCtx, cancelClose := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
		if err = mongoDB.Close(closeCtx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
		cancelClose()
	}

	if serverErr != nil {
		log.Error("Fund API shutdown with errors", "error", serverErr)
		os.Exit(1)
	}
	log.Info("Fund API shutdown completed")
}
