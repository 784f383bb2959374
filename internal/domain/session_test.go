package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_IsExpiredAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"future expiry", now.Add(time.Hour), false},
		{"exact expiry is still valid", now, false},
		{"past expiry", now.Add(-time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, s.IsExpiredAt(now))
		})
	}
}

func TestSession_Touch(t *testing.T) {
	s := &Session{}
	s.Touch()

	assert.False(t, s.LastSeenAt.IsZero())
	assert.WithinDuration(t, time.Now(), s.LastSeenAt, time.Second)
}
