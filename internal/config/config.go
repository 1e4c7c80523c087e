package config

import (
	"fmt"
	"os"
	"strconv"
)

// Durable store backends.
const (
	BackendFile     = "file"
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	ServerPort  string
	BaseURL     string
	FrontendURL string
	EnableHSTS  bool

	// Durable per-user store backend: file, badger or postgres.
	DataBackend string
	DataDir     string
	BadgerDir   string
	DatabaseURL string

	// Optional: enables the model cache and rate limiting when set.
	RedisURL string
	// Optional: enables the async retrain path when set.
	RabbitMQURL      string
	RabbitMQPrefetch int

	// Bounded pool size for CPU-bound model fits.
	TrainWorkers int
	RateLimit    string

	// Optional: OTLP tracing for the HTTP surface.
	OTELEnabled  bool
	OTELEndpoint string

	WorkerDebugMode bool
	ServerDebugMode bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:       getEnvBool("ENABLE_HSTS", false),
		DataBackend:      getEnv("DATA_BACKEND", BackendFile),
		DataDir:          getEnv("DATA_DIR", "user_models"),
		BadgerDir:        getEnv("BADGER_DIR", "badger_data"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		TrainWorkers:     getEnvInt("TRAIN_WORKERS", 4),
		RateLimit:        getEnv("RATE_LIMIT", "5-S"),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		WorkerDebugMode:  getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
	}

	switch cfg.DataBackend {
	case BackendFile:
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("DATA_DIR is required for the file backend")
		}
	case BackendBadger:
		if cfg.BadgerDir == "" {
			return nil, fmt.Errorf("BADGER_DIR is required for the badger backend")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return nil, fmt.Errorf("unknown DATA_BACKEND %q (must be file, badger or postgres)", cfg.DataBackend)
	}

	if cfg.TrainWorkers <= 0 {
		return nil, fmt.Errorf("TRAIN_WORKERS must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
