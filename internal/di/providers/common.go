package providers

import "time"

const (
	// sessionCleanupInterval is how often expired sessions are purged.
	sessionCleanupInterval = time.Hour
)
