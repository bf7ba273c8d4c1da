package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tripflow/tripflow/internal/domain"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite() error: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	sess := domain.NewSession("s1")
	sess.Destination = "Paris"
	sess.Step = domain.StepGatheringInfo
	sess.AddMessage(domain.RoleUser, "hi")
	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := s.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Destination != "Paris" || got.Step != domain.StepGatheringInfo || len(got.Messages) != 1 {
		t.Errorf("loaded session mismatch: %+v", got)
	}
}

func TestSQLiteUpsert(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	sess := domain.NewSession("s1")
	if err := s.Save(ctx, sess); err != nil {
		t.Fatal(err)
	}
	sess.Destination = "Rome"
	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("second Save() error: %v", err)
	}

	got, _ := s.Load(ctx, "s1")
	if got.Destination != "Rome" {
		t.Errorf("upsert did not replace document: %q", got.Destination)
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("List() returned %d rows, want 1", len(all))
	}
}

func TestSQLiteLoadMissing(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	if _, err := s.Load(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteDeleteIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	ctx := context.Background()

	if err := s.Save(ctx, domain.NewSession("s1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatalf("second Delete() error: %v", err)
	}
}
