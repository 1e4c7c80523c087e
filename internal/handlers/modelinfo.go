package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/postpilot/internal/store"
)

// ModelInfoHandler serves per-user model metadata.
type ModelInfoHandler struct {
	modelStore *store.ModelStore
	logger     *zap.Logger
}

// NewModelInfoHandler creates a new model info handler.
func NewModelInfoHandler(modelStore *store.ModelStore, logger *zap.Logger) *ModelInfoHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelInfoHandler{modelStore: modelStore, logger: logger}
}

// RegisterRoutes registers model info routes on the given router.
func (h *ModelInfoHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/models/{user_id}", h.GetInfo).Methods("GET")
}

// GetInfo returns the user's model metadata. Unseen users get zero-valued
// defaults, never an error.
func (h *ModelInfoHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	if userID == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "user_id is required")
		return
	}

	info, err := h.modelStore.Info(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}
