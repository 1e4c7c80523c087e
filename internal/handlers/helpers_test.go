package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/postpilot/internal/models"
)

func TestRespondServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantRetry  bool
	}{
		{
			name:       "validation maps to 400",
			err:        models.NewValidationError("hour", "must be between 0 and 23"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "training maps to 422",
			err:        models.NewTrainingError("no records submitted", nil),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "persistence maps to 503 with retry hint",
			err:        models.NewPersistenceError("put", "model:creator_1", errors.New("disk full")),
			wantStatus: http.StatusServiceUnavailable,
			wantRetry:  true,
		},
		{
			name:       "wrapped persistence still maps to 503",
			err:        fmt.Errorf("train: %w", models.NewPersistenceError("get", "records:creator_1", errors.New("io"))),
			wantStatus: http.StatusServiceUnavailable,
			wantRetry:  true,
		},
		{
			name:       "unknown error maps to 500",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			respondServiceError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantRetry && rec.Header().Get("Retry-After") == "" {
				t.Error("Missing Retry-After header on 503")
			}
			if rec.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}
