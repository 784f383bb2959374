package session

import (
	"context"
	"sync"
	"time"

	"github.com/listenupapp/listenup-lists/internal/domain"
)

// Memory is a goroutine-safe Store backed by a map. Sessions do not survive a restart.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	now      func() time.Time
}

// NewMemory creates an empty in-memory session store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]domain.Session),
		now:      time.Now,
	}
}

// WithClock overrides the time source used for expiry checks.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

// CreateSession implements Store.
func (m *Memory) CreateSession(ctx context.Context, s *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; ok {
		return ErrExists
	}
	m.sessions[s.ID] = *s
	return nil
}

// GetSession implements Store.
func (m *Memory) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if s.IsExpiredAt(m.now()) {
		return nil, ErrExpired
	}
	return &s, nil
}

// TouchSession implements Store.
func (m *Memory) TouchSession(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.LastSeenAt = at
	m.sessions[id] = s
	return nil
}

// DeleteSession implements Store.
func (m *Memory) DeleteSession(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// DeleteExpiredSessions implements Store.
func (m *Memory) DeleteExpiredSessions(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if s.IsExpiredAt(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
