package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/benvon/postpilot/internal/models"
)

const cacheTTL = 10 * time.Minute

// ModelStore persists one model artifact per user identifier. Saves for the
// same user are mutually exclusive; different users never contend. An
// optional Redis read-through cache fronts the KV backend and is invalidated
// on every successful save.
type ModelStore struct {
	kv     KV
	cache  *redis.Client
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewModelStore creates a model store over the given backend. cache may be
// nil to disable the read-through cache.
func NewModelStore(kv KV, cache *redis.Client, logger *zap.Logger) *ModelStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelStore{
		kv:     kv,
		cache:  cache,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex serializing access to one user's entry.
func (s *ModelStore) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// GetOrCreate returns the user's persisted model, or a fresh untrained model
// (empty vocabularies, version 0, deterministic seed) for an unseen user.
// Creation does not persist anything: prediction must stay side-effect free,
// and the fresh model is deterministic so any process rebuilds it identically.
func (s *ModelStore) GetOrCreate(ctx context.Context, userID string) (*models.UserModel, error) {
	if userID == "" {
		return nil, models.NewValidationError("user_id", "must not be empty")
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	return s.load(ctx, userID)
}

// load reads the model from cache/KV without locking. Callers hold the user
// lock.
func (s *ModelStore) load(ctx context.Context, userID string) (*models.UserModel, error) {
	key := ModelKey(userID)

	if s.cache != nil {
		data, err := s.cache.Get(ctx, key).Bytes()
		if err == nil {
			if m, decErr := models.DecodeModel(data); decErr == nil {
				return m, nil
			}
			// Corrupt cache entry: drop it and fall through to the backend.
			_ = s.cache.Del(ctx, key).Err()
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("model_cache_read_failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return models.NewUserModel(userID), nil
	}
	if err != nil {
		return nil, models.NewPersistenceError("get", key, err)
	}

	m, err := models.DecodeModel(data)
	if err != nil {
		return nil, models.NewPersistenceError("decode", key, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, data, cacheTTL).Err(); err != nil {
			s.logger.Warn("model_cache_fill_failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	return m, nil
}

// Save atomically installs a new model artifact for the user and invalidates
// the cache entry. The stored version must strictly increase.
func (s *ModelStore) Save(ctx context.Context, userID string, m *models.UserModel) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()
	return s.save(ctx, userID, m)
}

// save writes without locking. Callers hold the user lock.
func (s *ModelStore) save(ctx context.Context, userID string, m *models.UserModel) error {
	key := ModelKey(userID)

	data, err := models.EncodeModel(m)
	if err != nil {
		return models.NewPersistenceError("encode", key, err)
	}
	if err := s.kv.Put(ctx, key, data); err != nil {
		return models.NewPersistenceError("put", key, err)
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, key).Err(); err != nil {
			s.logger.Warn("model_cache_invalidate_failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("model_saved",
		zap.String("user_id", userID),
		zap.Int("version", m.Version),
		zap.Int("sample_count", m.SampleCount),
	)
	return nil
}

// Update runs fn under the user's lock with the current (or fresh) model and
// atomically installs the model fn returns. The whole read-modify-write is
// serialized per user, so concurrent updates for the same user see complete
// states only. Update enforces that fn bumped the version.
func (s *ModelStore) Update(ctx context.Context, userID string, fn func(*models.UserModel) (*models.UserModel, error)) (*models.UserModel, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	current, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next.Version <= current.Version {
		return nil, fmt.Errorf("model version must increase: %d -> %d", current.Version, next.Version)
	}

	if err := s.save(ctx, userID, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Info returns the user's model metadata, with zero-valued defaults for an
// unseen user. It never fails on absence.
func (s *ModelStore) Info(ctx context.Context, userID string) (models.ModelInfo, error) {
	m, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return models.ModelInfo{}, err
	}
	return m.Info(), nil
}
