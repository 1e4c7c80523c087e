// Package training fits per-user engagement models from accumulated post
// history. Every run is a full re-fit over the complete record set supplied,
// using the user's fixed seed, so identical input yields an identical
// artifact.
package training

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/postpilot/internal/features"
	"github.com/benvon/postpilot/internal/models"
	"github.com/benvon/postpilot/internal/regression"
	"github.com/benvon/postpilot/internal/store"
)

// DefaultWorkers bounds concurrent fits when no limit is configured.
const DefaultWorkers = 4

// Pipeline trains and installs per-user models. Fits are CPU-bound and run
// through a bounded worker pool so one user's training never starves requests
// for other users.
type Pipeline struct {
	modelStore  *store.ModelStore
	recordStore *store.RecordStore
	logger      *zap.Logger
	params      regression.Params
	sem         chan struct{}
	now         func() time.Time
}

// NewPipeline creates a training pipeline with a pool of the given size.
func NewPipeline(modelStore *store.ModelStore, recordStore *store.RecordStore, logger *zap.Logger, workers int) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pipeline{
		modelStore:  modelStore,
		recordStore: recordStore,
		logger:      logger,
		params:      regression.DefaultParams(),
		sem:         make(chan struct{}, workers),
		now:         time.Now,
	}
}

// trainingRow is one record with its derived features and targets extracted.
type trainingRow struct {
	row          features.Row
	likes        float64
	comments     float64
	newFollowers float64
}

// Train persists the submitted records as the user's full history and re-fits
// the user's model from exactly that set. On success the model version is
// bumped and the new artifact is installed atomically. The record replacement
// and the fit run under one per-user lock, so concurrent trains for the same
// user cannot leave the record set and the artifact from different calls.
func (p *Pipeline) Train(ctx context.Context, userID string, records []models.PostRecord) (models.ModelInfo, error) {
	if userID == "" {
		return models.ModelInfo{}, models.NewValidationError("user_id", "must not be empty")
	}

	rows, err := prepare(records)
	if err != nil {
		return models.ModelInfo{}, err
	}

	// Validation happened above; durable state is only touched inside the
	// user's critical section.
	return p.fit(ctx, userID, func(ctx context.Context) ([]trainingRow, error) {
		if err := p.recordStore.Replace(ctx, userID, records); err != nil {
			return nil, err
		}
		return rows, nil
	})
}

// Refit re-fits the user's model from the durable record set. Used by the
// asynchronous retrain path, where records were persisted when the job was
// enqueued. The read happens under the user's lock so a concurrent Train
// cannot swap the record set between load and fit.
func (p *Pipeline) Refit(ctx context.Context, userID string) (models.ModelInfo, error) {
	return p.fit(ctx, userID, func(ctx context.Context) ([]trainingRow, error) {
		records, err := p.recordStore.Load(ctx, userID)
		if err != nil {
			return nil, err
		}
		return prepare(records)
	})
}

// ValidateRecords checks a submission exactly the way a synchronous train
// would, without touching durable state. The async enqueue path runs it
// before persisting, so a set that can only fail in the worker is rejected
// up front.
func ValidateRecords(records []models.PostRecord) error {
	_, err := prepare(records)
	return err
}

// prepare derives features and targets from raw records. It fails with a
// TrainingError on an empty set or any unparseable timestamp, before any
// durable state is touched.
func prepare(records []models.PostRecord) ([]trainingRow, error) {
	if len(records) == 0 {
		return nil, models.NewTrainingError("no records submitted", nil)
	}

	rows := make([]trainingRow, 0, len(records))
	for i := range records {
		rec := &records[i]
		ts, err := rec.ParseTimestamp()
		if err != nil {
			return nil, models.NewTrainingError("invalid record timestamp", err)
		}
		rows = append(rows, trainingRow{
			row: features.Row{
				MediaType:     rec.MediaType,
				Niche:         rec.Niche,
				Hour:          ts.Hour(),
				DayOfWeek:     int(ts.Weekday()),
				HashtagCount:  rec.HashtagCount(),
				CaptionLength: rec.CaptionLength(),
			},
			likes:        float64(rec.Likes),
			comments:     float64(rec.Comments),
			newFollowers: float64(rec.NewFollowers),
		})
	}
	return rows, nil
}

// fit runs the bounded fit and installs the new artifact under the user's
// store lock. source produces the training rows inside that lock, so record
// writes or reads it performs are serialized with the install.
func (p *Pipeline) fit(ctx context.Context, userID string, source func(context.Context) ([]trainingRow, error)) (models.ModelInfo, error) {
	select {
	case p.sem <- struct{}{}:
		defer func() { <-p.sem }()
	case <-ctx.Done():
		return models.ModelInfo{}, ctx.Err()
	}

	start := p.now()

	updated, err := p.modelStore.Update(ctx, userID, func(current *models.UserModel) (*models.UserModel, error) {
		rows, err := source(ctx)
		if err != nil {
			return nil, err
		}

		next := &models.UserModel{
			UserID:      current.UserID,
			Seed:        current.Seed,
			Version:     current.Version + 1,
			SampleCount: len(rows),
			UpdatedAt:   p.now().UTC(),
			MediaTypes:  current.MediaTypes.Clone(),
			Niches:      current.Niches.Clone(),
		}

		// Extend vocabularies with newly observed categories. Existing codes
		// are never discarded; re-encoding old values stays stable.
		for _, r := range rows {
			next.MediaTypes.Extend(r.row.MediaType)
			next.Niches.Extend(r.row.Niche)
		}

		encoded := make([][]float64, len(rows))
		likes := make([]float64, len(rows))
		comments := make([]float64, len(rows))
		newFollowers := make([]float64, len(rows))
		for i, r := range rows {
			encoded[i] = features.Encode(&next.MediaTypes, &next.Niches, r.row)
			likes[i] = r.likes
			comments[i] = r.comments
			newFollowers[i] = r.newFollowers
		}

		var fitErr error
		if next.Likes, fitErr = regression.Fit(encoded, likes, next.Seed, p.params); fitErr != nil {
			return nil, models.NewTrainingError("fit likes regressor", fitErr)
		}
		if next.Comments, fitErr = regression.Fit(encoded, comments, next.Seed, p.params); fitErr != nil {
			return nil, models.NewTrainingError("fit comments regressor", fitErr)
		}
		if next.NewFollowers, fitErr = regression.Fit(encoded, newFollowers, next.Seed, p.params); fitErr != nil {
			return nil, models.NewTrainingError("fit new_followers regressor", fitErr)
		}

		return next, nil
	})
	if err != nil {
		return models.ModelInfo{}, err
	}

	p.logger.Info("training_completed",
		zap.String("user_id", userID),
		zap.Int("version", updated.Version),
		zap.Int("sample_count", updated.SampleCount),
		zap.Int64("duration_ms", p.now().Sub(start).Milliseconds()),
	)
	return updated.Info(), nil
}
