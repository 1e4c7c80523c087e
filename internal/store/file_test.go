package store

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestFileKV_RoundTrip(t *testing.T) {
	t.Parallel()

	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file KV: %v", err)
	}
	ctx := context.Background()

	if err := kv.Put(ctx, "model:creator_1", []byte("artifact-v1")); err != nil {
		t.Fatalf("Failed to put: %v", err)
	}

	got, err := kv.Get(ctx, "model:creator_1")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if !bytes.Equal(got, []byte("artifact-v1")) {
		t.Errorf("Get = %q, want artifact-v1", got)
	}

	// Overwrite replaces the value wholesale.
	if err := kv.Put(ctx, "model:creator_1", []byte("artifact-v2")); err != nil {
		t.Fatalf("Failed to overwrite: %v", err)
	}
	got, err = kv.Get(ctx, "model:creator_1")
	if err != nil {
		t.Fatalf("Failed to get after overwrite: %v", err)
	}
	if !bytes.Equal(got, []byte("artifact-v2")) {
		t.Errorf("Get after overwrite = %q, want artifact-v2", got)
	}
}

func TestFileKV_MissingKey(t *testing.T) {
	t.Parallel()

	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file KV: %v", err)
	}

	_, err = kv.Get(context.Background(), "model:never_seen")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get of missing key = %v, want ErrKeyNotFound", err)
	}
}

func TestFileKV_Delete(t *testing.T) {
	t.Parallel()

	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file KV: %v", err)
	}
	ctx := context.Background()

	if err := kv.Put(ctx, "records:creator_1", []byte("[]")); err != nil {
		t.Fatalf("Failed to put: %v", err)
	}
	if err := kv.Delete(ctx, "records:creator_1"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := kv.Get(ctx, "records:creator_1"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get after delete = %v, want ErrKeyNotFound", err)
	}

	// Deleting an absent key is not an error.
	if err := kv.Delete(ctx, "records:creator_1"); err != nil {
		t.Errorf("Second delete = %v, want nil", err)
	}
}

func TestFileKV_KeysWithSeparators(t *testing.T) {
	t.Parallel()

	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file KV: %v", err)
	}
	ctx := context.Background()

	// Opaque user identifiers may contain path separators; they must not
	// escape the data directory.
	key := ModelKey("../../etc/passwd")
	if err := kv.Put(ctx, key, []byte("x")); err != nil {
		t.Fatalf("Failed to put separator key: %v", err)
	}
	got, err := kv.Get(ctx, key)
	if err != nil {
		t.Fatalf("Failed to get separator key: %v", err)
	}
	if !bytes.Equal(got, []byte("x")) {
		t.Errorf("Get = %q, want x", got)
	}
}

func TestFileKV_HealthCheck(t *testing.T) {
	t.Parallel()

	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file KV: %v", err)
	}
	if err := kv.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck = %v, want nil", err)
	}
}

func TestNewFileKV_EmptyDir(t *testing.T) {
	t.Parallel()

	if _, err := NewFileKV(""); err == nil {
		t.Error("Expected error for empty data directory")
	}
}
