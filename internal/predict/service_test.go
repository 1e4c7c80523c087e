package predict

import (
	"context"
	"errors"
	"testing"

	"github.com/benvon/postpilot/internal/models"
	"github.com/benvon/postpilot/internal/store"
	"github.com/benvon/postpilot/internal/training"
)

func newTestService(t *testing.T) (*Service, *training.Pipeline) {
	t.Helper()

	kv, err := store.NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file KV: %v", err)
	}
	modelStore := store.NewModelStore(kv, nil, nil)
	recordStore := store.NewRecordStore(kv, nil)
	pipeline := training.NewPipeline(modelStore, recordStore, nil, 2)
	return NewService(modelStore, nil), pipeline
}

func validRequest() models.PredictionRequest {
	return models.PredictionRequest{
		UserID:       "creator_1",
		MediaType:    "image",
		Caption:      "meal prep for the week",
		Hour:         18,
		DayOfWeek:    5,
		HashtagCount: 4,
		Niche:        "fitness",
	}
}

func TestService_PredictUntrainedBaseline(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.Predict(ctx, validRequest())
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	if result.Likes != 150 || result.Comments != 8 || result.NewFollowers != 3 {
		t.Errorf("Baseline = %+v, want 150/8/3", result)
	}
	if result.ModelVersion != 0 {
		t.Errorf("ModelVersion = %d, want 0 for untrained user", result.ModelVersion)
	}
}

func TestService_PredictUntrainedVideoBoost(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	req := validRequest()
	req.MediaType = "video"

	result, err := svc.Predict(context.Background(), req)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	if result.Likes != 195 { // 150 * 1.3
		t.Errorf("Video baseline likes = %d, want 195", result.Likes)
	}
}

func TestService_PredictValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)

	tests := []struct {
		name   string
		mutate func(r *models.PredictionRequest)
	}{
		{name: "missing user", mutate: func(r *models.PredictionRequest) { r.UserID = "" }},
		{name: "missing media type", mutate: func(r *models.PredictionRequest) { r.MediaType = "" }},
		{name: "hour out of range", mutate: func(r *models.PredictionRequest) { r.Hour = 24 }},
		{name: "day out of range", mutate: func(r *models.PredictionRequest) { r.DayOfWeek = 7 }},
		{name: "negative hashtags", mutate: func(r *models.PredictionRequest) { r.HashtagCount = -1 }},
		{name: "too many hashtags", mutate: func(r *models.PredictionRequest) { r.HashtagCount = 31 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Predict(context.Background(), req)
			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
		})
	}
}

func TestService_PredictTrainedModel(t *testing.T) {
	t.Parallel()

	svc, pipeline := newTestService(t)
	ctx := context.Background()

	// Video posts run hot, images cold: the media-type feature separates the
	// two groups cleanly.
	records := []models.PostRecord{
		{Timestamp: "2026-08-01 18:30:00", Likes: 150, Comments: 9, NewFollowers: 4, MediaType: "video", Niche: "fitness"},
		{Timestamp: "2026-08-02 09:00:00", Likes: 100, Comments: 5, NewFollowers: 2, MediaType: "image", Niche: "fitness"},
		{Timestamp: "2026-08-03 20:15:00", Likes: 100, Comments: 5, NewFollowers: 2, MediaType: "image", Niche: "fitness"},
	}
	if _, err := pipeline.Train(ctx, "creator_1", records); err != nil {
		t.Fatalf("Failed to train: %v", err)
	}

	req := validRequest()
	req.MediaType = "video"
	req.Hour = 18
	req.DayOfWeek = 5

	result, err := svc.Predict(ctx, req)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	if result.ModelVersion != 1 {
		t.Errorf("ModelVersion = %d, want 1", result.ModelVersion)
	}
	// 50 boosting rounds at rate 0.1 pull the video estimate most of the way
	// from the global mean toward the video group's 150.
	if result.Likes < 120 || result.Likes > 160 {
		t.Errorf("Video likes forecast = %d, want near 150", result.Likes)
	}

	req.MediaType = "image"
	imageResult, err := svc.Predict(ctx, req)
	if err != nil {
		t.Fatalf("Failed to predict for image: %v", err)
	}
	if imageResult.Likes >= result.Likes {
		t.Errorf("Image forecast %d not below video forecast %d", imageResult.Likes, result.Likes)
	}
	if imageResult.Likes < 0 || imageResult.Comments < 0 || imageResult.NewFollowers < 0 {
		t.Errorf("Forecast contains negative metrics: %+v", imageResult)
	}
}

func TestService_PredictUnseenCategoriesDegradeGracefully(t *testing.T) {
	t.Parallel()

	svc, pipeline := newTestService(t)
	ctx := context.Background()

	records := []models.PostRecord{
		{Timestamp: "2026-08-01 18:30:00", Likes: 150, Comments: 9, NewFollowers: 4, MediaType: "video", Niche: "fitness"},
		{Timestamp: "2026-08-02 09:00:00", Likes: 100, Comments: 5, NewFollowers: 2, MediaType: "image", Niche: "fitness"},
	}
	if _, err := pipeline.Train(ctx, "creator_1", records); err != nil {
		t.Fatalf("Failed to train: %v", err)
	}

	req := validRequest()
	req.MediaType = "hologram"
	req.Niche = "astrology"

	result, err := svc.Predict(ctx, req)
	if err != nil {
		t.Fatalf("Unseen categories must not fail prediction: %v", err)
	}
	if result.Likes < 0 {
		t.Errorf("Forecast likes = %d, want non-negative", result.Likes)
	}
	if result.ModelVersion != 1 {
		t.Errorf("ModelVersion = %d, want 1", result.ModelVersion)
	}
}

func TestClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   float64
		want int
	}{
		{name: "negative floors to zero", in: -12.4, want: 0},
		{name: "rounds half up", in: 7.5, want: 8},
		{name: "rounds down", in: 7.4, want: 7},
		{name: "zero", in: 0, want: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := clamp(tt.in); got != tt.want {
				t.Errorf("clamp(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}
