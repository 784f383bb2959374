package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/listenupapp/listenup-lists/internal/domain"
	"github.com/listenupapp/listenup-lists/internal/session"
)

// sessionColumns is the ordered list of columns selected in session queries.
// Must match the scan order in scanSession.
const sessionColumns = `id, user_id, method, expires_at, created_at, last_seen_at, ip_address, user_agent`

// scanSession scans a sql.Row (or sql.Rows via its Scan method) into a domain.Session.
func scanSession(row scanner) (*domain.Session, error) {
	var s domain.Session

	var (
		method     string
		expiresAt  string
		createdAt  string
		lastSeenAt string
		ipAddress  sql.NullString
		userAgent  sql.NullString
	)

	err := row.Scan(&s.ID, &s.UserID, &method, &expiresAt, &createdAt, &lastSeenAt, &ipAddress, &userAgent)
	if err != nil {
		return nil, err
	}

	s.Method = domain.AuthMethod(method)
	s.IPAddress = ipAddress.String
	s.UserAgent = userAgent.String

	// Parse timestamps.
	if s.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if s.LastSeenAt, err = parseTime(lastSeenAt); err != nil {
		return nil, err
	}

	return &s, nil
}

// CreateSession inserts a new session.
func (s *Store) CreateSession(ctx context.Context, sess *domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID,
		sess.UserID,
		string(sess.Method),
		formatTime(sess.ExpiresAt),
		formatTime(sess.CreatedAt),
		formatTime(sess.LastSeenAt),
		nullString(sess.IPAddress),
		nullString(sess.UserAgent),
	)
	if isUniqueViolation(err) {
		return session.ErrExists
	}
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession retrieves a live session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if sess.IsExpired() {
		return nil, session.ErrExpired
	}
	return sess, nil
}

// TouchSession updates the session's last seen time.
func (s *Store) TouchSession(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_seen_at = ? WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return session.ErrNotFound
	}
	return nil
}

// DeleteSession deletes a session (logout). Missing sessions are ignored.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all expired sessions (cleanup job).
// RFC3339Nano strings do not sort by time, so expiry is compared after parsing.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, expires_at FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("find expired sessions: %w", err)
	}

	now := time.Now()
	var expiredIDs []string
	for rows.Next() {
		var id, expiresAt string
		if err := rows.Scan(&id, &expiresAt); err != nil {
			rows.Close()
			return 0, err
		}
		t, err := parseTime(expiresAt)
		if err != nil {
			s.logger.Warn("skipping session with malformed expiry", "session_id", id, "error", err)
			continue
		}
		if now.After(t) {
			expiredIDs = append(expiredIDs, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range expiredIDs {
		if err := s.DeleteSession(ctx, id); err != nil {
			s.logger.Warn("failed to delete expired session", "session_id", id, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}
