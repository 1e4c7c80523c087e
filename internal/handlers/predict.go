package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/postpilot/internal/models"
	"github.com/benvon/postpilot/internal/predict"
	"github.com/benvon/postpilot/internal/validation"
)

// PredictHandler handles forecast requests.
type PredictHandler struct {
	service *predict.Service
	logger  *zap.Logger
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(service *predict.Service, logger *zap.Logger) *PredictHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictHandler{service: service, logger: logger}
}

// RegisterRoutes registers prediction routes on the given router.
func (h *PredictHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/predict", h.Predict).Methods("POST")
}

// Predict forecasts engagement for a candidate post.
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req models.PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}

	// Sanitize caption text
	req.Caption = validation.SanitizeText(req.Caption)

	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}

	result, err := h.service.Predict(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
