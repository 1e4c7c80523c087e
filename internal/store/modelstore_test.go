package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/benvon/postpilot/internal/models"
)

func newTestModelStore(t *testing.T) *ModelStore {
	t.Helper()
	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file KV: %v", err)
	}
	return NewModelStore(kv, nil, nil)
}

func TestModelStore_GetOrCreateUnseen(t *testing.T) {
	t.Parallel()

	s := newTestModelStore(t)
	ctx := context.Background()

	m, err := s.GetOrCreate(ctx, "creator_1")
	if err != nil {
		t.Fatalf("Failed to get model: %v", err)
	}
	if m.Version != 0 || m.SampleCount != 0 || m.Trained() {
		t.Errorf("Unseen user model = %+v, want fresh untrained model", m.Info())
	}
	if m.Seed != models.SeedForUser("creator_1") {
		t.Errorf("Seed = %d, want deterministic seed %d", m.Seed, models.SeedForUser("creator_1"))
	}

	// Creation must not persist: the backend still has no entry.
	if _, err := s.kv.Get(ctx, ModelKey("creator_1")); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("GetOrCreate persisted a fresh model: backend err = %v, want ErrKeyNotFound", err)
	}
}

func TestModelStore_GetOrCreateEmptyUser(t *testing.T) {
	t.Parallel()

	s := newTestModelStore(t)

	_, err := s.GetOrCreate(context.Background(), "")
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError for empty user, got %v", err)
	}
}

func TestModelStore_SaveRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestModelStore(t)
	ctx := context.Background()

	m := models.NewUserModel("creator_1")
	m.Version = 1
	m.SampleCount = 5
	m.MediaTypes.Extend("image")

	if err := s.Save(ctx, "creator_1", m); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}

	got, err := s.GetOrCreate(ctx, "creator_1")
	if err != nil {
		t.Fatalf("Failed to load saved model: %v", err)
	}
	if got.Version != 1 || got.SampleCount != 5 {
		t.Errorf("Loaded model = %+v, want version 1 with 5 samples", got.Info())
	}
	if got.MediaTypes.Code("image") != 0 {
		t.Errorf("Loaded vocabulary lost codes: Code(image) = %d", got.MediaTypes.Code("image"))
	}
}

func TestModelStore_UpdateEnforcesVersionIncrease(t *testing.T) {
	t.Parallel()

	s := newTestModelStore(t)
	ctx := context.Background()

	// A legitimate update bumps the version.
	updated, err := s.Update(ctx, "creator_1", func(current *models.UserModel) (*models.UserModel, error) {
		next := models.NewUserModel(current.UserID)
		next.Version = current.Version + 1
		return next, nil
	})
	if err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if updated.Version != 1 {
		t.Errorf("Version after update = %d, want 1", updated.Version)
	}

	// Returning the same version must be rejected and leave the store intact.
	_, err = s.Update(ctx, "creator_1", func(current *models.UserModel) (*models.UserModel, error) {
		return current, nil
	})
	if err == nil {
		t.Fatal("Expected error for non-increasing version")
	}

	got, err := s.GetOrCreate(ctx, "creator_1")
	if err != nil {
		t.Fatalf("Failed to reload: %v", err)
	}
	if got.Version != 1 {
		t.Errorf("Version after rejected update = %d, want 1", got.Version)
	}
}

func TestModelStore_UpdatePropagatesFnError(t *testing.T) {
	t.Parallel()

	s := newTestModelStore(t)
	ctx := context.Background()

	want := models.NewTrainingError("fit failed", nil)
	_, err := s.Update(ctx, "creator_1", func(*models.UserModel) (*models.UserModel, error) {
		return nil, want
	})

	var terr *models.TrainingError
	if !errors.As(err, &terr) {
		t.Fatalf("Expected TrainingError from fn, got %v", err)
	}

	// A failed update leaves no partial state behind.
	if _, err := s.kv.Get(ctx, ModelKey("creator_1")); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Failed update persisted state: backend err = %v, want ErrKeyNotFound", err)
	}
}

func TestModelStore_ConcurrentUpdatesSameUser(t *testing.T) {
	t.Parallel()

	s := newTestModelStore(t)
	ctx := context.Background()

	const updates = 20
	var wg sync.WaitGroup
	errs := make(chan error, updates)

	for i := 0; i < updates; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, "creator_1", func(current *models.UserModel) (*models.UserModel, error) {
				next := models.NewUserModel(current.UserID)
				next.Version = current.Version + 1
				next.SampleCount = current.SampleCount + 1
				return next, nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Concurrent update failed: %v", err)
		}
	}

	got, err := s.GetOrCreate(ctx, "creator_1")
	if err != nil {
		t.Fatalf("Failed to reload: %v", err)
	}
	// Updates are serialized per user: every increment must land.
	if got.Version != updates {
		t.Errorf("Version after %d concurrent updates = %d", updates, got.Version)
	}
	if got.SampleCount != updates {
		t.Errorf("SampleCount after %d concurrent updates = %d", updates, got.SampleCount)
	}
}

func TestModelStore_InfoUnseenUser(t *testing.T) {
	t.Parallel()

	s := newTestModelStore(t)

	info, err := s.Info(context.Background(), "never_trained")
	if err != nil {
		t.Fatalf("Info for unseen user failed: %v", err)
	}
	if info.UserID != "never_trained" || info.Version != 0 || info.SampleCount != 0 || !info.UpdatedAt.IsZero() {
		t.Errorf("Info = %+v, want zero-valued defaults", info)
	}
}
