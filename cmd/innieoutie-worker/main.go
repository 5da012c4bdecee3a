package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MedicD21/InnieOutie/internal/amqp"
	"github.com/MedicD21/InnieOutie/internal/config"
	applog "github.com/MedicD21/InnieOutie/internal/log"
	gsheet "github.com/MedicD21/InnieOutie/internal/sheets/google"
	"github.com/MedicD21/InnieOutie/internal/storage"
	"github.com/MedicD21/InnieOutie/internal/worker"
)

func main() {
	// Load .env for local development, ignore errors in production
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)
	log := logger.WithComponent(applog.ComponentWorker)

	log.Info("Starting innieoutie-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		log.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		log.Error("Failed to initialize SQLite repository", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The Sheets backup target is optional. Without it the worker only
	// drains the queue for deletion bookkeeping.
	var sheetsClient *gsheet.Client
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err = gsheet.NewFromEnv(context.Background())
		if err != nil {
			log.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
			os.Exit(1)
		}
		log.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		log.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		log.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var syncWorker *worker.SyncWorker
	if sheetsClient != nil {
		syncWorker = worker.NewSyncWorker(repo, sheetsClient, sheetsClient, cfg.SyncBatchSize)

		// Catch records left pending while the worker was down.
		log.Info("Performing startup sync check")
		syncWorker.StartupSyncCheck(ctx)

		go syncWorker.RunPendingLoop(ctx, cfg.SyncInterval)

		go func() {
			syncHandler := func(msg *amqp.TransactionSyncMessage) error {
				return syncWorker.HandleSyncMessage(ctx, msg)
			}
			deleteHandler := func(msg *amqp.TransactionDeleteMessage) error {
				return syncWorker.HandleDeleteMessage(ctx, msg)
			}
			if err := amqpClient.ConsumeMessages(ctx, syncHandler, deleteHandler); err != nil {
				if err != context.Canceled {
					log.Error("Message consumption failed", applog.FieldError, err)
				}
				cancel()
			}
		}()
	} else {
		log.Info("Skipping sync operations - no Sheets client available")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		log.Info("Context cancelled")
	}

	cancel()
	log.Info("Shutting down worker")
	time.Sleep(2 * time.Second)
	log.Info("Worker shutdown complete")
}
