// Package predict serves engagement forecasts for candidate posts.
package predict

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/benvon/postpilot/internal/features"
	"github.com/benvon/postpilot/internal/models"
	"github.com/benvon/postpilot/internal/store"
)

// Baseline estimates returned for a never-trained user. Conservative values
// derived from the floor engagement in the historical datasets, so prediction
// never fails for a new user.
const (
	baselineLikes        = 150
	baselineComments     = 8
	baselineNewFollowers = 3
	// Video posts historically outperform stills by roughly this factor.
	videoBoost = 1.3
)

// Service produces forecasts from a user's current model. Predict has no
// persistent side effects: looking up an unseen user builds a fresh model in
// memory without installing it.
type Service struct {
	modelStore *store.ModelStore
	logger     *zap.Logger
}

// NewService creates a prediction service.
func NewService(modelStore *store.ModelStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{modelStore: modelStore, logger: logger}
}

// Predict validates the request, encodes it with the model's fixed
// vocabularies and returns the three forecast metrics clamped to non-negative
// integers, tagged with the model version that produced them.
func (s *Service) Predict(ctx context.Context, req models.PredictionRequest) (models.PredictionResult, error) {
	if err := req.Validate(); err != nil {
		return models.PredictionResult{}, err
	}

	m, err := s.modelStore.GetOrCreate(ctx, req.UserID)
	if err != nil {
		return models.PredictionResult{}, err
	}

	if !m.Trained() {
		// No training has occurred: a fitted regressor does not exist, so
		// return the baseline heuristic tagged with version 0.
		return baselineResult(req), nil
	}

	vector := features.Encode(&m.MediaTypes, &m.Niches, features.Row{
		MediaType:     req.MediaType,
		Niche:         req.Niche,
		Hour:          req.Hour,
		DayOfWeek:     req.DayOfWeek,
		HashtagCount:  req.HashtagCount,
		CaptionLength: len([]rune(req.Caption)),
	})

	result := models.PredictionResult{
		Likes:        clamp(m.Likes.Predict(vector)),
		Comments:     clamp(m.Comments.Predict(vector)),
		NewFollowers: clamp(m.NewFollowers.Predict(vector)),
		ModelVersion: m.Version,
	}

	s.logger.Debug("prediction_served",
		zap.String("user_id", req.UserID),
		zap.Int("model_version", m.Version),
	)
	return result, nil
}

func baselineResult(req models.PredictionRequest) models.PredictionResult {
	likes := float64(baselineLikes)
	if req.MediaType == "video" {
		likes *= videoBoost
	}
	return models.PredictionResult{
		Likes:        clamp(likes),
		Comments:     baselineComments,
		NewFollowers: baselineNewFollowers,
		ModelVersion: 0,
	}
}

// clamp rounds a regressor output to a non-negative integer.
func clamp(v float64) int {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return int(math.Round(v))
}
