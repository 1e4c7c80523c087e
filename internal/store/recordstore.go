package store

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/benvon/postpilot/internal/models"
)

// RecordStore persists each user's raw historical posts. A training
// submission replaces the full set for that user; the pipeline always re-fits
// from the complete set.
type RecordStore struct {
	kv     KV
	logger *zap.Logger
}

// NewRecordStore creates a record store over the given backend.
func NewRecordStore(kv KV, logger *zap.Logger) *RecordStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordStore{kv: kv, logger: logger}
}

// Replace atomically overwrites the user's durable record set.
func (s *RecordStore) Replace(ctx context.Context, userID string, records []models.PostRecord) error {
	key := RecordKey(userID)

	data, err := json.Marshal(records)
	if err != nil {
		return models.NewPersistenceError("encode", key, err)
	}
	if err := s.kv.Put(ctx, key, data); err != nil {
		return models.NewPersistenceError("put", key, err)
	}

	s.logger.Debug("records_replaced",
		zap.String("user_id", userID),
		zap.Int("count", len(records)),
	)
	return nil
}

// Load returns the user's record set, or an empty set for an unseen user.
func (s *RecordStore) Load(ctx context.Context, userID string) ([]models.PostRecord, error) {
	key := RecordKey(userID)

	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return []models.PostRecord{}, nil
	}
	if err != nil {
		return nil, models.NewPersistenceError("get", key, err)
	}

	var records []models.PostRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, models.NewPersistenceError("decode", key, err)
	}
	return records, nil
}
