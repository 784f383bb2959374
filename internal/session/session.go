// Package session defines persistence for login sessions and an in-memory implementation.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/listenupapp/listenup-lists/internal/domain"
)

var (
	// ErrNotFound is returned when no session exists for an ID.
	ErrNotFound = errors.New("session not found")
	// ErrExpired is returned when a session exists but has passed its expiry.
	ErrExpired = errors.New("session expired")
	// ErrExists is returned when creating a session whose ID is already taken.
	ErrExists = errors.New("session already exists")
)

// Store persists sessions. Both database backends implement it, as does Memory.
type Store interface {
	CreateSession(ctx context.Context, s *domain.Session) error
	// GetSession returns ErrExpired (and no session) once ExpiresAt has passed.
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	TouchSession(ctx context.Context, id string, at time.Time) error
	// DeleteSession is idempotent.
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)
}
