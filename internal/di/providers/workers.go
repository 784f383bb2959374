package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/listenupapp/listenup-lists/internal/logger"
	"github.com/listenupapp/listenup-lists/internal/service"
)

// SessionCleanupJob runs periodic session cleanup.
type SessionCleanupJob struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	<-j.done
	return nil
}

// ProvideSessionCleanupJob provides the periodic session cleanup job.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	authService := do.MustInvoke[*service.AuthService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())
	job := &SessionCleanupJob{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(job.done)
		runSessionCleanup(ctx, authService, sessionCleanupInterval, log)
	}()

	log.Info("Session cleanup job started", "interval", sessionCleanupInterval)

	return job, nil
}

// sessionPurger is the part of AuthService the cleanup job needs.
type sessionPurger interface {
	DeleteExpiredSessions(ctx context.Context) (int, error)
}

// runSessionCleanup purges once on startup and then every interval until ctx is done.
// AuthService logs the deleted count.
func runSessionCleanup(ctx context.Context, sessions sessionPurger, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := sessions.DeleteExpiredSessions(ctx); err != nil {
		log.Warn("Initial session cleanup failed", "error", err)
	}

	for {
		select {
		case <-ticker.C:
			if _, err := sessions.DeleteExpiredSessions(ctx); err != nil {
				log.Warn("Session cleanup failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
