// Package store provides session persistence behind a single interface
// with memory, MongoDB, Redis and SQLite drivers.
package store

import (
	"context"
	"errors"

	"github.com/tripflow/tripflow/internal/domain"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// Repository persists conversation sessions. Save is a full-state
// upsert; concurrent writers for one session id are last-write-wins.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Load retrieves a session by id. Returns ErrNotFound if absent.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Save creates or replaces a session.
	Save(ctx context.Context, s *domain.Session) error

	// Delete removes a session. Deleting an absent session is not an
	// error.
	Delete(ctx context.Context, sessionID string) error

	// List returns all sessions.
	List(ctx context.Context) ([]*domain.Session, error)

	// Ping verifies backend connectivity.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
