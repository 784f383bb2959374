// Package badgerdb implements store.Store on an embedded Badger database.
package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/listenupapp/listenup-lists/internal/domain"
	"github.com/listenupapp/listenup-lists/internal/store"
)

// maxTxnRetries bounds how often a transaction is replayed after a write conflict.
const maxTxnRetries = 5

var _ store.Store = (*Store)(nil)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Generic entities
	users    *Entity[domain.User]
	lists    *Entity[domain.List]
	sessions *Entity[domain.Session]
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}

	s.initUsers()
	s.initLists()
	s.initSessions()

	logger.Info("Badger database opened successfully", "path", path)

	return s, nil
}

// Close gracefully closes the database connection. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	s.logger.Info("Closing database connection")
	return s.db.Close()
}

// Ping verifies the database can serve a read transaction.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// update runs fn in a read-write transaction, replaying it when a concurrent commit
// conflicts with its reads. fn must reset anything it captures on each call.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 1; attempt <= maxTxnRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.logger.Debug("badger transaction conflict, retrying", "attempt", attempt)
	}
	return fmt.Errorf("transaction failed after %d attempts: %w", maxTxnRetries, err)
}
