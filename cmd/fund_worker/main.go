package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/eco-fund-ledger/internal/config"
	"github.com/eco-fund-ledger/internal/data"
	"github.com/eco-fund-ledger/internal/data/mongo"
	"github.com/eco-fund-ledger/internal/fund/components"
	"github.com/eco-fund-ledger/internal/fund_worker/consumer"
	"github.com/eco-fund-ledger/internal/fund_worker/outbox_relay"
	"github.com/eco-fund-ledger/internal/fund_worker/reconciler"
	"github.com/eco-fund-ledger/internal/logger"
	"github.com/eco-fund-ledger/internal/platform/messaging/consumers"
	"github.com/eco-fund-ledger/internal/platform/messaging/producers"
	"github.com/eco-fund-ledger/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("fund_worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting Fund Worker",
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

	var wg sync.WaitGroup
	errChan := make(chan error, 1)

	// Reconciler runs for every backend
	recon := reconciler.New(&cfg.Reconciler, backend.Store, donations, log.With("component", "reconciler"))
	wg.Add(1)
	go func() {
		defer wg.Done()
		recon.Start(appCtx)
	}()

	// Outbox relay only exists where the store writes an outbox
	var eventProducer *producers.DonationEventProducer
	if backend.Outbox != nil {
		eventProducer, err = producers.NewDonationEventProducer(appCtx, log, &cfg.Kafka)
		if err != nil {
			log.Error("Failed to initialize donation event producer", "error", err)
			os.Exit(1)
		}
		relay := outbox_relay.NewKafkaEventRelay(backend.Outbox, eventProducer, log)
		poller := outbox_relay.NewPoller(&cfg.Outbox, backend.Outbox, relay, log.With("component", "outbox_relay"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			poller.Start(appCtx)
		}()
	} else {
		log.Info("Store has no outbox, donation events are not published", "store_driver", backend.Driver)
	}

	// Journal projection needs MongoDB
	var (
		mongoDB       *persistence.MongoDB
		kafkaConsumer *consumers.KafkaConsumer
		dlqProducer   *producers.DLQProducer
	)
	if cfg.MongoDB.URI != "" {
		mongoDB, err = persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
		if err != nil {
			log.Error("Failed to initialize MongoDB", "error", err)
			os.Exit(1)
		}
		journalRepo := mongo.NewJournalRepository(log, mongoDB.Database(), cfg.MongoDB.JournalCollection)
		if err := journalRepo.EnsureIndexes(appCtx); err != nil {
			log.Error("Failed to prepare journal collection", "error", err)
			os.Exit(1)
		}

		dlqProducer, err = producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
		if err != nil {
			log.Error("Failed to initialize DLQ Kafka producer", "error", err)
			os.Exit(1)
		}
		// A nil *DLQProducer must not reach the handler as a non-nil interface
		var dlq producers.DeadLetterPublisher
		if dlqProducer != nil {
			dlq = dlqProducer
		}

		handler := consumer.NewDonationEventHandler(log.With("component", "journal"), journalRepo, dlq)
		kafkaConsumer = consumers.NewKafkaConsumer(log, &cfg.Kafka)
		if err := kafkaConsumer.Subscribe(appCtx, handler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	} else {
		log.Info("MongoDB is not configured, donation journal disabled")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()
	log.Info("Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()
	select {
	case <-wgChan:
		log.Info("All workers stopped")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if kafkaConsumer != nil {
		if err := kafkaConsumer.Close(); err != nil {
			log.Error("Error closing Kafka consumer", "error", err)
		}
	}
	if dlqProducer != nil {
		if err := dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}
	if eventProducer != nil {
		if err := eventProducer.Close(); err != nil {
			log.Error("Error closing donation event producer", "error", err)
		}
	}

	shutdownPool()

	if err := backend.Close(); err != nil {
		log.Error("Error closing ledger store", "error", err)
	}
	if mongoDB != nil {
		if err := mongoDB.Close(shutdownCtx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}

	if serviceErr != nil {
		log.Error("Fund Worker shutdown with errors", "error", serviceErr)
		os.Exit(1)
	}
	log.Info("Fund Worker shutdown completed")
}
