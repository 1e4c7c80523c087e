package config

import (
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "BASE_URL", "FRONTEND_URL", "ENABLE_HSTS",
		"DATA_BACKEND", "DATA_DIR", "BADGER_DIR", "DATABASE_URL",
		"REDIS_URL", "RABBITMQ_URL", "RABBITMQ_PREFETCH",
		"TRAIN_WORKERS", "RATE_LIMIT", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"WORKER_DEBUG_MODE", "SERVER_DEBUG_MODE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.DataBackend != BackendFile {
		t.Errorf("DataBackend = %q, want %q", cfg.DataBackend, BackendFile)
	}
	if cfg.DataDir != "user_models" {
		t.Errorf("DataDir = %q, want user_models", cfg.DataDir)
	}
	if cfg.TrainWorkers != 4 {
		t.Errorf("TrainWorkers = %d, want 4", cfg.TrainWorkers)
	}
	if cfg.RabbitMQPrefetch != 1 {
		t.Errorf("RabbitMQPrefetch = %d, want 1", cfg.RabbitMQPrefetch)
	}
	if cfg.RateLimit != "5-S" {
		t.Errorf("RateLimit = %q, want 5-S", cfg.RateLimit)
	}
	if cfg.RedisURL != "" || cfg.RabbitMQURL != "" {
		t.Error("Optional services configured by default")
	}
	if cfg.OTELEnabled || cfg.OTELEndpoint != "" {
		t.Error("Tracing configured by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATA_BACKEND", "badger")
	t.Setenv("BADGER_DIR", "/tmp/badger")
	t.Setenv("TRAIN_WORKERS", "8")
	t.Setenv("WORKER_DEBUG_MODE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.DataBackend != BackendBadger {
		t.Errorf("DataBackend = %q, want badger", cfg.DataBackend)
	}
	if cfg.BadgerDir != "/tmp/badger" {
		t.Errorf("BadgerDir = %q, want /tmp/badger", cfg.BadgerDir)
	}
	if cfg.TrainWorkers != 8 {
		t.Errorf("TrainWorkers = %d, want 8", cfg.TrainWorkers)
	}
	if !cfg.WorkerDebugMode {
		t.Error("WorkerDebugMode not set from env")
	}
}

func TestLoad_BackendValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{
			name:    "postgres requires database url",
			env:     map[string]string{"DATA_BACKEND": "postgres"},
			wantErr: true,
		},
		{
			name: "postgres with database url",
			env: map[string]string{
				"DATA_BACKEND": "postgres",
				"DATABASE_URL": "postgres://localhost/postpilot",
			},
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"DATA_BACKEND": "etcd"},
			wantErr: true,
		},
		{
			name:    "non-positive train workers",
			env:     map[string]string{"TRAIN_WORKERS": "0"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if tt.wantErr && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
