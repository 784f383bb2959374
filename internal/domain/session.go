package domain

import "time"

// AuthMethod records how a session was established.
type AuthMethod string

const (
	// AuthMethodLocal is a username and password sign-in.
	AuthMethodLocal AuthMethod = "local"
	// AuthMethodGoogle is a federated sign-in through Google.
	AuthMethodGoogle AuthMethod = "google"
)

// Session binds an opaque cookie to a user until logout or expiry.
type Session struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Method     AuthMethod `json:"method"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	LastSeenAt time.Time  `json:"last_seen_at"`
	IPAddress  string     `json:"ip_address,omitempty"`
	UserAgent  string     `json:"user_agent,omitempty"`
}

// Touch updates the session's last seen timestamp.
func (s *Session) Touch() {
	s.LastSeenAt = time.Now()
}

// IsExpired checks if the session has passed its expiration time.
func (s *Session) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// IsExpiredAt checks expiry against a given instant.
func (s *Session) IsExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
