// Package store provides the durable per-user state: a pluggable key-value
// layer plus the model and training-record stores built on top of it.
//
// State is sharded by user identifier. A given user's entries are serialized
// by a per-user lock and atomic writes; different users never contend.
package store

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KV.Get for keys that were never written.
var ErrKeyNotFound = errors.New("store: key not found")

// KV is an injectable key-value backend with atomic per-key writes: a reader
// never observes a partially written value, and a failed Put leaves the prior
// value authoritative.
type KV interface {
	// Put atomically installs value under key, replacing any prior value.
	Put(ctx context.Context, key string, value []byte) error

	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// HealthCheck verifies the backend is reachable and writable.
	HealthCheck(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// Key prefixes partitioning the KV namespace.
const (
	modelKeyPrefix  = "model:"
	recordKeyPrefix = "records:"
)

// ModelKey returns the KV key holding a user's model artifact.
func ModelKey(userID string) string {
	return modelKeyPrefix + userID
}

// RecordKey returns the KV key holding a user's raw training records.
func RecordKey(userID string) string {
	return recordKeyPrefix + userID
}
