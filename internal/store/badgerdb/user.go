package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/listenupapp/listenup-lists/internal/domain"
	"github.com/listenupapp/listenup-lists/internal/store"
)

const (
	userPrefix     = "user:"
	userByUsername = "username" // user:idx:username:<lowercase username>
	userByGoogleID = "google"   // user:idx:google:<google subject>
)

// initUsers initializes the users entity.
// Usernames are indexed case-insensitively; only federated users carry a Google index entry.
func (s *Store) initUsers() {
	s.users = NewEntity[domain.User](s, userPrefix).
		WithIndexTransform(userByUsername,
			func(u *domain.User) []string {
				return []string{store.NormalizeUsername(u.Username)}
			},
			store.NormalizeUsername,
		).
		WithIndex(userByGoogleID, func(u *domain.User) []string {
			if u.GoogleID == "" {
				return nil
			}
			return []string{u.GoogleID}
		})
}

// CreateUser creates a new user account.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if err := s.users.Create(ctx, user.ID, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.Get(ctx, id)
}

// GetUserByUsername retrieves a user by username, ignoring case.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.users.GetByIndex(ctx, userByUsername, username)
}

// RecordLogin stamps the user's last login time.
func (s *Store) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		user, err := s.users.getTxn(txn, userID)
		if err != nil {
			return err
		}
		user.LastLoginAt = at
		return s.users.updateTxn(txn, userID, user)
	})
}

// FindOrCreateFederatedUser resolves a Google identity to a user in a single transaction.
func (s *Store) FindOrCreateFederatedUser(ctx context.Context, user *domain.User, usernames []string) (*domain.User, bool, error) {
	var (
		result  *domain.User
		created bool
	)

	err := s.update(ctx, func(txn *badger.Txn) error {
		result, created = nil, false

		existing, err := s.users.getByIndexTxn(txn, userByGoogleID, user.GoogleID)
		if err == nil {
			result = existing
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		for _, name := range usernames {
			_, err := s.users.getByIndexTxn(txn, userByUsername, name)
			if err == nil {
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			candidate := *user
			candidate.Username = name
			if err := s.users.createTxn(txn, candidate.ID, &candidate); err != nil {
				return err
			}
			result, created = &candidate, true
			return nil
		}

		return store.ErrAlreadyExists.WithMessage("no free username for federated user")
	})
	if err != nil {
		return nil, false, fmt.Errorf("find or create federated user: %w", err)
	}

	return result, created, nil
}

// ListUsers returns all users.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	var users []*domain.User
	for user, err := range s.users.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = append(users, user)
	}
	return users, nil
}
