package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/benvon/postpilot/internal/config"
	"github.com/benvon/postpilot/internal/logger"
	"github.com/benvon/postpilot/internal/queue"
	"github.com/benvon/postpilot/internal/store"
	"github.com/benvon/postpilot/internal/training"
	"github.com/benvon/postpilot/internal/workers"
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.WorkerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			// Ignore sync errors in production
			_ = syncErr
		}
	}()

	if cfg.RabbitMQURL == "" {
		zapLogger.Fatal("rabbitmq_url_required_for_worker")
	}

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("data_backend", cfg.DataBackend),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	// Open the durable per-user store
	kv, err := openBackend(cfg)
	if err != nil {
		zapLogger.Fatal("failed_to_open_store_backend", zap.Error(err))
	}
	defer func() {
		if err := kv.Close(); err != nil {
			zapLogger.Warn("failed_to_close_store_backend", zap.Error(err))
		}
	}()

	// The worker skips the model cache: fits install straight to the backend
	// and the server invalidates by key on its own saves.
	modelStore := store.NewModelStore(kv, nil, zapLogger)
	recordStore := store.NewRecordStore(kv, zapLogger)
	pipeline := training.NewPipeline(modelStore, recordStore, zapLogger, cfg.TrainWorkers)

	// Initialize RabbitMQ queue
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_rabbitmq")

	// Create retrainer
	retrainer := workers.NewRetrainer(pipeline, jobQueue)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start consuming messages
	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	zapLogger.Info("worker_started_consuming")

	// Process messages
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					return
				}

				if err := retrainer.ProcessJob(ctx, msg); err != nil {
					zapLogger.Error("failed_to_process_job",
						zap.Error(err),
						zap.String("job_id", msg.GetJob().ID.String()),
						zap.String("job_type", string(msg.GetJob().Type)),
					)
				}
			}
		}
	}()

	// Handle errors
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	zapLogger.Info("shutdown_signal_received")

	// Cancel context to stop processing
	cancel()

	zapLogger.Info("worker_stopped")
}

// openBackend constructs the configured KV backend.
func openBackend(cfg *config.Config) (store.KV, error) {
	switch cfg.DataBackend {
	case config.BackendFile:
		return store.NewFileKV(cfg.DataDir)
	case config.BackendBadger:
		return store.NewBadgerKV(cfg.BadgerDir)
	case config.BackendPostgres:
		return store.NewPostgresKV(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.DataBackend)
	}
}
