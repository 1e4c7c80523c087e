package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/benvon/postpilot/internal/config"
	"github.com/benvon/postpilot/internal/handlers"
	"github.com/benvon/postpilot/internal/logger"
	"github.com/benvon/postpilot/internal/middleware"
	"github.com/benvon/postpilot/internal/predict"
	"github.com/benvon/postpilot/internal/queue"
	"github.com/benvon/postpilot/internal/store"
	"github.com/benvon/postpilot/internal/telemetry"
	"github.com/benvon/postpilot/internal/training"
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
	debugMode := cfg.ServerDebugMode || *debugFlag

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

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("data_backend", cfg.DataBackend),
		zap.Int("train_workers", cfg.TrainWorkers),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Initialize OpenTelemetry if enabled
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "postpilot-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized",
					zap.String("endpoint", cfg.OTELEndpoint),
				)
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

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
	zapLogger.Info("opened_store_backend", zap.String("backend", cfg.DataBackend))

	// Connect to Redis for the model cache and rate limiting (optional)
	var redisClient *redis.Client
	var rateLimitMW func(http.Handler) http.Handler
	if cfg.RedisURL != "" {
		redisLimiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisLimiter.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		redisClient = redisLimiter.Client()

		rateLimitMW, err = middleware.RateLimit(redisClient, cfg.RateLimit)
		if err != nil {
			zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
		}
		zapLogger.Info("connected_to_redis")
	} else {
		zapLogger.Info("redis_not_configured_cache_and_rate_limiting_disabled")
	}

	// Connect to RabbitMQ for async retrain jobs (optional)
	// Retry connection with exponential backoff to handle RabbitMQ startup delays
	var jobQueue queue.JobQueue
	if cfg.RabbitMQURL != "" {
		jobQueue, err = connectQueue(cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_rabbitmq")
	} else {
		zapLogger.Info("rabbitmq_not_configured_async_retrain_disabled")
	}

	// Initialize stores and services
	modelStore := store.NewModelStore(kv, redisClient, zapLogger)
	recordStore := store.NewRecordStore(kv, zapLogger)
	pipeline := training.NewPipeline(modelStore, recordStore, zapLogger, cfg.TrainWorkers)
	predictService := predict.NewService(modelStore, zapLogger)

	// Initialize handlers
	trainHandler := handlers.NewTrainHandler(pipeline, recordStore, jobQueue, zapLogger)
	predictHandler := handlers.NewPredictHandler(predictService, zapLogger)
	modelInfoHandler := handlers.NewModelInfoHandler(modelStore, zapLogger)
	healthChecker := handlers.NewHealthChecker(kv, jobQueue)

	// Setup router
	r := mux.NewRouter()

	// Note: In gorilla/mux, middleware executes in reverse order of registration
	zapLogger.Info("setting_up_middleware")

	// 0. OpenTelemetry tracing (if enabled)
	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware("postpilot-api"))
		zapLogger.Info("otel_middleware_enabled")
	}
	// 1. Security headers (should be set on all responses)
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	// 2. CORS for the dashboard origin
	r.Use(middleware.CORSFromEnv(cfg.FrontendURL))
	// 3. Request size limits (protects against DoS; training uploads can be large)
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	// 4. Content-Type validation for POST requests
	r.Use(middleware.ContentType)
	// 5. Request timeout
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	// 6. Error handler (catches panics)
	r.Use(middleware.ErrorHandler(zapLogger))
	// 7. Logging (innermost, executes last before handler)
	r.Use(middleware.Logging(zapLogger))

	// Public routes (no rate limiting for health checks)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	// OpenAPI spec (public)
	openAPIPath := filepath.Join("api", "openapi", "openapi.yaml")
	openAPIHandler := handlers.NewOpenAPIHandler(openAPIPath)
	openAPIHandler.RegisterRoutes(r)

	// API v1 routes
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	if rateLimitMW != nil {
		apiRouter.Use(rateLimitMW)
	}
	trainHandler.RegisterRoutes(apiRouter)
	predictHandler.RegisterRoutes(apiRouter)
	modelInfoHandler.RegisterRoutes(apiRouter)

	// Catch-all OPTIONS handler for preflight requests. The CORS middleware
	// sets the headers before this is reached.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Setup server
	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	// Background context for the DLQ garbage collector
	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	// Start DLQ garbage collector if the queue implementation supports it
	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(dlqPurger, 1*time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(bgCtx); err != nil && err != context.Canceled {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", 1*time.Hour),
			zap.Duration("retention", 24*time.Hour),
		)
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("server_starting",
			zap.String("port", cfg.ServerPort),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	bgCancel()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
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

// connectQueue dials RabbitMQ with exponential backoff.
func connectQueue(amqpURL string, zapLogger *zap.Logger) (queue.JobQueue, error) {
	const maxRetries = 10
	const initialDelay = 2 * time.Second
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			return jobQueue, nil
		}

		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt)) // Exponential backoff
		if delay > 30*time.Second {
			delay = 30 * time.Second // Cap at 30 seconds
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	return nil, lastErr
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	// Only expose minimal version info (sanitized for security)
	if _, err := fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		_ = err
	}
}
