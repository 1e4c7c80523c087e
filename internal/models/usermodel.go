package models

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/benvon/postpilot/internal/regression"
)

// SeedRange bounds the per-user seed. Seeds are derived from a stable hash so
// two processes initializing the same unseen user converge to the same
// initial model.
const SeedRange = 1000

// SeedForUser derives the deterministic training seed for a user identifier
// using FNV-1a, which is stable across processes and releases.
func SeedForUser(userID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(userID))
	return int64(h.Sum64() % SeedRange)
}

// UserModel is the complete per-user model artifact: one regressor per
// engagement metric, the feature vocabularies, and versioning metadata.
// Exactly one live UserModel exists per user identifier; each successful
// training run replaces it wholesale.
type UserModel struct {
	UserID       string
	Seed         int64
	Version      int
	SampleCount  int
	UpdatedAt    time.Time
	MediaTypes   Vocabulary
	Niches       Vocabulary
	Likes        *regression.Ensemble
	Comments     *regression.Ensemble
	NewFollowers *regression.Ensemble
}

// NewUserModel constructs the fresh, untrained model for a user: empty
// vocabularies, version 0, and the user's deterministic seed.
func NewUserModel(userID string) *UserModel {
	return &UserModel{
		UserID: userID,
		Seed:   SeedForUser(userID),
	}
}

// Trained reports whether the model has been fitted at least once.
func (m *UserModel) Trained() bool {
	return m.SampleCount > 0 && m.Likes != nil && m.Comments != nil && m.NewFollowers != nil
}

// Info returns the model's metadata summary.
func (m *UserModel) Info() ModelInfo {
	return ModelInfo{
		UserID:      m.UserID,
		Version:     m.Version,
		SampleCount: m.SampleCount,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ModelInfo is the metadata surface of a user's model. An unseen user gets
// zero-valued defaults.
type ModelInfo struct {
	UserID      string    `json:"user_id"`
	Version     int       `json:"version"`
	SampleCount int       `json:"sample_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EncodeModel serializes a model artifact. The layout is deterministic:
// vocabularies are slice-backed and ensembles contain only ordered slices,
// so identical models encode to identical bytes.
func EncodeModel(m *UserModel) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(m); err != nil {
		return nil, fmt.Errorf("encode model artifact: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeModel deserializes a model artifact.
func DecodeModel(data []byte) (*UserModel, error) {
	var m UserModel
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	return &m, nil
}
