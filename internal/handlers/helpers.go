package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/benvon/postpilot/internal/models"
)

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage removes internal details from error messages
func sanitizeErrorMessage(message string) string {
	sanitized := message
	if len(sanitized) > 200 {
		sanitized = sanitized[:200] + "..."
	}
	return sanitized
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondServiceError maps the error taxonomy to HTTP statuses:
// ValidationError -> 400, TrainingError -> 422, PersistenceError -> 503
// (retryable), anything else -> 500.
func respondServiceError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		respondJSONError(w, http.StatusBadRequest, "Validation Error", validationErr.Error())
		return
	}

	var trainingErr *models.TrainingError
	if errors.As(err, &trainingErr) {
		respondJSONError(w, http.StatusUnprocessableEntity, "Training Error", trainingErr.Error())
		return
	}

	var persistenceErr *models.PersistenceError
	if errors.As(err, &persistenceErr) {
		w.Header().Set("Retry-After", "5")
		respondJSONError(w, http.StatusServiceUnavailable, "Persistence Error", "Durable store unavailable, please retry")
		return
	}

	respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred")
}
