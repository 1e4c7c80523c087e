package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	logpkg "github.com/benvon/postpilot/internal/logger"
	"github.com/benvon/postpilot/internal/models"
	"github.com/benvon/postpilot/internal/queue"
	"github.com/benvon/postpilot/internal/store"
	"github.com/benvon/postpilot/internal/training"
	"github.com/benvon/postpilot/internal/validation"
)

// MaxTrainingPosts caps one training submission.
const MaxTrainingPosts = 100000

// TrainHandler handles training submissions.
type TrainHandler struct {
	pipeline    *training.Pipeline
	recordStore *store.RecordStore
	jobQueue    queue.JobQueue // nil disables the async path
	logger      *zap.Logger
}

// NewTrainHandler creates a new train handler.
func NewTrainHandler(pipeline *training.Pipeline, recordStore *store.RecordStore, jobQueue queue.JobQueue, logger *zap.Logger) *TrainHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrainHandler{
		pipeline:    pipeline,
		recordStore: recordStore,
		jobQueue:    jobQueue,
		logger:      logger,
	}
}

// RegisterRoutes registers training routes on the given router.
func (h *TrainHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/train", h.Train).Methods("POST")
}

// TrainRequest represents a training submission: the user's full historical
// post set, replacing whatever was stored before.
type TrainRequest struct {
	UserID string              `json:"user_id" validate:"required,max=128"`
	Posts  []models.PostRecord `json:"posts" validate:"max=100000,dive"`
}

// TrainResponse represents a completed synchronous training run.
type TrainResponse struct {
	UserID      string `json:"user_id"`
	Version     int    `json:"version"`
	SampleCount int    `json:"sample_count"`
}

// TrainAcceptedResponse represents an accepted asynchronous retrain.
type TrainAcceptedResponse struct {
	UserID string `json:"user_id"`
	JobID  string `json:"job_id"`
}

// Train persists the submitted history and fits a new model version.
// With ?async=1 the fit runs on the worker instead: records are persisted,
// a retrain job is enqueued, and 202 is returned.
func (h *TrainHandler) Train(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid JSON body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation Error", err.Error())
		return
	}

	// Sanitize caption text
	for i := range req.Posts {
		req.Posts[i].Caption = validation.SanitizeText(req.Posts[i].Caption)
	}

	if len(req.Posts) == 0 {
		respondServiceError(w, models.NewTrainingError("no records submitted", nil))
		return
	}

	ctx := r.Context()

	if h.jobQueue != nil && r.URL.Query().Get("async") == "1" {
		// Same pre-checks as a synchronous train: a submission that could
		// only dead-letter in the worker must not overwrite the durable set.
		if err := training.ValidateRecords(req.Posts); err != nil {
			respondServiceError(w, err)
			return
		}

		if err := h.recordStore.Replace(ctx, req.UserID, req.Posts); err != nil {
			respondServiceError(w, err)
			return
		}

		job := queue.NewJob(queue.JobTypeRetrain, req.UserID)
		if err := h.jobQueue.Enqueue(ctx, job); err != nil {
			h.logger.Error("failed_to_enqueue_retrain_job",
				zap.String("user_id", logpkg.SanitizeUserID(req.UserID)),
				zap.Error(err),
			)
			respondJSONError(w, http.StatusServiceUnavailable, "Queue Error", "Failed to enqueue retrain job")
			return
		}

		h.logger.Info("enqueued_retrain_job",
			zap.String("user_id", logpkg.SanitizeUserID(req.UserID)),
			zap.String("job_id", job.ID.String()),
			zap.Int("post_count", len(req.Posts)),
		)
		respondJSON(w, http.StatusAccepted, TrainAcceptedResponse{
			UserID: req.UserID,
			JobID:  job.ID.String(),
		})
		return
	}

	info, err := h.pipeline.Train(ctx, req.UserID, req.Posts)
	if err != nil {
		h.logger.Warn("training_failed",
			zap.String("user_id", logpkg.SanitizeUserID(req.UserID)),
			zap.Error(err),
		)
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, TrainResponse{
		UserID:      info.UserID,
		Version:     info.Version,
		SampleCount: info.SampleCount,
	})
}
