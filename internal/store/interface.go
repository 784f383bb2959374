// Package store defines the persistence interface for users and their lists.
// Implementations live in the badgerdb and sqlite subpackages.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/listenupapp/listenup-lists/internal/domain"
	"github.com/listenupapp/listenup-lists/internal/session"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Ping(ctx context.Context) error
	Close() error

	Users
	Lists
	session.Store
}

// Users is the identity store.
type Users interface {
	// CreateUser returns ErrAlreadyExists when the username (compared case-insensitively)
	// or the Google ID is already taken.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	// RecordLogin sets LastLoginAt.
	RecordLogin(ctx context.Context, userID string, at time.Time) error
	// FindOrCreateFederatedUser returns the user linked to user.GoogleID, or creates user
	// with the first free name in usernames. Lookup and creation happen in one transaction.
	// The bool reports whether the user was created.
	FindOrCreateFederatedUser(ctx context.Context, user *domain.User, usernames []string) (*domain.User, bool, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// Lists is the list store. Every operation is scoped to an owner.
type Lists interface {
	// UpsertList returns the owner's list for seed.Key, creating it from seed if absent.
	// The bool reports whether the list was created.
	UpsertList(ctx context.Context, seed *domain.List) (*domain.List, bool, error)
	GetList(ctx context.Context, ownerID, key string) (*domain.List, error)
	// ListsByOwner returns the owner's lists ordered by key.
	ListsByOwner(ctx context.Context, ownerID string) ([]*domain.List, error)
	// AppendItem returns ErrNotFound when the list does not exist.
	AppendItem(ctx context.Context, ownerID, key string, item domain.Item) (*domain.List, error)
	// RemoveItem is a no-op when the list or item does not exist.
	RemoveItem(ctx context.Context, ownerID, key, itemID string) error
	// DeleteList is a no-op when the list does not exist.
	DeleteList(ctx context.Context, ownerID, key string) error
}

// NormalizeUsername is the form usernames are indexed and compared in.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
