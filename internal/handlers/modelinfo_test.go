package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/benvon/postpilot/internal/models"
	"github.com/benvon/postpilot/internal/store"
	"github.com/benvon/postpilot/internal/training"
)

func newModelInfoTestRouter(t *testing.T) (*mux.Router, *training.Pipeline) {
	t.Helper()

	kv, err := store.NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file KV: %v", err)
	}
	modelStore := store.NewModelStore(kv, nil, nil)
	recordStore := store.NewRecordStore(kv, nil)
	pipeline := training.NewPipeline(modelStore, recordStore, nil, 2)

	router := mux.NewRouter()
	NewModelInfoHandler(modelStore, nil).RegisterRoutes(router)
	return router, pipeline
}

func getInfo(t *testing.T, router *mux.Router, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/models/"+userID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestModelInfoHandler_UnseenUserZeroDefaults(t *testing.T) {
	t.Parallel()

	router, _ := newModelInfoTestRouter(t)
	rec := getInfo(t, router, "never_trained")

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data models.ModelInfo `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if envelope.Data.UserID != "never_trained" {
		t.Errorf("UserID = %q, want never_trained", envelope.Data.UserID)
	}
	if envelope.Data.Version != 0 || envelope.Data.SampleCount != 0 || !envelope.Data.UpdatedAt.IsZero() {
		t.Errorf("Info = %+v, want zero-valued defaults", envelope.Data)
	}
}

func TestModelInfoHandler_TrainedUser(t *testing.T) {
	t.Parallel()

	router, pipeline := newModelInfoTestRouter(t)

	records := []models.PostRecord{
		{Timestamp: "2026-08-01 18:30:00", Likes: 150, Comments: 9, NewFollowers: 4, MediaType: "video", Niche: "fitness"},
		{Timestamp: "2026-08-02 09:00:00", Likes: 100, Comments: 5, NewFollowers: 2, MediaType: "image", Niche: "fitness"},
	}
	if _, err := pipeline.Train(context.Background(), "creator_1", records); err != nil {
		t.Fatalf("Failed to train: %v", err)
	}

	rec := getInfo(t, router, "creator_1")
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data models.ModelInfo `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if envelope.Data.Version != 1 || envelope.Data.SampleCount != 2 {
		t.Errorf("Info = %+v, want version 1 with 2 samples", envelope.Data)
	}
	if envelope.Data.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set after training")
	}
}
