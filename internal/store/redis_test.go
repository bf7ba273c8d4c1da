package store

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tripflow/tripflow/internal/domain"
)

func newTestRedis(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisFromClient(client, 0)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestRedisRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestRedis(t)
	ctx := context.Background()

	sess := domain.NewSession("s1")
	sess.Destination = "Paris"
	sess.TripDuration = 3
	sess.AddMessage(domain.RoleUser, "hi")
	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := s.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got.Destination != "Paris" || got.TripDuration != 3 || len(got.Messages) != 1 {
		t.Errorf("loaded session mismatch: %+v", got)
	}
}

func TestRedisLoadMissing(t *testing.T) {
	t.Parallel()

	s := newTestRedis(t)
	if _, err := s.Load(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestRedisDeleteIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestRedis(t)
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

func TestRedisList(t *testing.T) {
	t.Parallel()

	s := newTestRedis(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Save(ctx, domain.NewSession(id)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d sessions, want 3", len(got))
	}
}
