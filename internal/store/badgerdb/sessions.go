package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/listenupapp/listenup-lists/internal/domain"
	"github.com/listenupapp/listenup-lists/internal/session"
	"github.com/listenupapp/listenup-lists/internal/store"
)

const sessionPrefix = "session:"

func (s *Store) initSessions() {
	s.sessions = NewEntity[domain.Session](s, sessionPrefix)
}

// CreateSession creates a new user session.
func (s *Store) CreateSession(ctx context.Context, sess *domain.Session) error {
	err := s.sessions.Create(ctx, sess.ID, sess)
	if errors.Is(err, store.ErrAlreadyExists) {
		return session.ErrExists
	}
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession retrieves a live session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	// Check expiration
	if sess.IsExpired() {
		return nil, session.ErrExpired
	}

	return sess, nil
}

// TouchSession updates the session's last seen time.
func (s *Store) TouchSession(ctx context.Context, id string, at time.Time) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		sess, err := s.sessions.getTxn(txn, id)
		if err != nil {
			return err
		}
		sess.LastSeenAt = at
		return s.sessions.updateTxn(txn, id, sess)
	})
	if errors.Is(err, store.ErrNotFound) {
		return session.ErrNotFound
	}
	return err
}

// DeleteSession deletes a session (logout).
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

// DeleteExpiredSessions removes all expired sessions (cleanup job).
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int, error) {
	now := time.Now()
	var expiredIDs []string

	// First pass: find expired sessions
	for sess, err := range s.sessions.List(ctx) {
		if err != nil {
			return 0, fmt.Errorf("find expired sessions: %w", err)
		}
		if sess.IsExpiredAt(now) {
			expiredIDs = append(expiredIDs, sess.ID)
		}
	}

	// Second pass: delete expired sessions
	deleted := 0
	for _, id := range expiredIDs {
		if err := s.sessions.Delete(ctx, id); err != nil {
			s.logger.Warn("failed to delete expired session", "session_id", id, "error", err)
			continue
		}
		deleted++
	}

	return deleted, nil
}
