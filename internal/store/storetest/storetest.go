// Package storetest holds behavioural tests shared by every store.Store implementation.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/listenupapp/listenup-lists/internal/domain"
	"github.com/listenupapp/listenup-lists/internal/session"
	"github.com/listenupapp/listenup-lists/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory opens a fresh, empty store and registers its cleanup with t.
type Factory func(t *testing.T) store.Store

// Run executes the full suite against stores produced by open.
func Run(t *testing.T, open Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"CreateUser", testCreateUser},
		{"CreateUser_DuplicateUsername", testCreateUserDuplicate},
		{"GetUser_NotFound", testGetUserNotFound},
		{"RecordLogin", testRecordLogin},
		{"FindOrCreateFederatedUser", testFindOrCreateFederated},
		{"FindOrCreateFederatedUser_UsernameCollision", testFederatedCollision},
		{"FindOrCreateFederatedUser_Concurrent", testFederatedConcurrent},
		{"UpsertList_CreatesOnce", testUpsertCreatesOnce},
		{"UpsertList_Concurrent", testUpsertConcurrent},
		{"UpsertList_OwnersAreIndependent", testOwnersIndependent},
		{"AppendItem", testAppendItem},
		{"AppendItem_MissingList", testAppendItemMissingList},
		{"RemoveItem", testRemoveItem},
		{"DeleteList", testDeleteList},
		{"ListsByOwner_Ordered", testListsByOwnerOrdered},
		{"Sessions", testSessions},
		{"Sessions_Expired", testSessionsExpired},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

// NewUser returns a local user fixture.
func NewUser(id, username string) *domain.User {
	u := &domain.User{
		ID:           id,
		Username:     username,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
	}
	u.InitTimestamps()
	return u
}

// NewList returns a seeded list fixture.
func NewList(id, ownerID, key string) *domain.List {
	l := &domain.List{
		ID:      id,
		OwnerID: ownerID,
		Key:     key,
	}
	for i, name := range domain.DefaultItemNames {
		l.Items = append(l.Items, domain.Item{ID: fmt.Sprintf("%s-item-%d", id, i+1), Name: name})
	}
	l.InitTimestamps()
	return l
}

func testCreateUser(t *testing.T, s store.Store) {
	ctx := context.Background()

	u := NewUser("user-1", "Alice")
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Username)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "user-1", byName.ID)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func testCreateUserDuplicate(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, NewUser("user-1", "alice")))

	err := s.CreateUser(ctx, NewUser("user-2", "ALICE"))
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	// The original credential is untouched.
	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)

	_, err = s.GetUser(ctx, "user-2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testGetUserNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetUser(ctx, "user-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testRecordLogin(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("user-1", "alice")))

	at := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	require.NoError(t, s.RecordLogin(ctx, "user-1", at))

	got, err := s.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, at.Equal(got.LastLoginAt))

	assert.ErrorIs(t, s.RecordLogin(ctx, "user-missing", at), store.ErrNotFound)
}

func federatedUser(id, googleID string) *domain.User {
	u := &domain.User{ID: id, GoogleID: googleID, DisplayName: "Ada Lovelace"}
	u.InitTimestamps()
	return u
}

func testFindOrCreateFederated(t *testing.T, s store.Store) {
	ctx := context.Background()

	u, created, err := s.FindOrCreateFederatedUser(ctx, federatedUser("user-g1", "g-123"), []string{"ada_lovelace"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ada_lovelace", u.Username)
	assert.Equal(t, "g-123", u.GoogleID)

	again, created, err := s.FindOrCreateFederatedUser(ctx, federatedUser("user-g2", "g-123"), []string{"ada_lovelace"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "user-g1", again.ID)
}

func testFederatedCollision(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, NewUser("user-1", "ada_lovelace")))

	u, created, err := s.FindOrCreateFederatedUser(ctx, federatedUser("user-g1", "g-123"),
		[]string{"ada_lovelace", "ada_lovelace_123"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ada_lovelace_123", u.Username)

	_, _, err = s.FindOrCreateFederatedUser(ctx, federatedUser("user-g2", "g-456"),
		[]string{"ada_lovelace", "ada_lovelace_123"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func testFederatedConcurrent(t *testing.T, s store.Store) {
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, _, err := s.FindOrCreateFederatedUser(ctx, federatedUser(fmt.Sprintf("user-g%d", i), "g-race"),
				[]string{"racer"})
			if assert.NoError(t, err) {
				ids[i] = u.ID
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func testUpsertCreatesOnce(t *testing.T, s store.Store) {
	ctx := context.Background()

	first, created, err := s.UpsertList(ctx, NewList("list-1", "user-1", "groceries"))
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, first.Items, 3)
	assert.Equal(t, "Item 1", first.Items[0].Name)

	second, created, err := s.UpsertList(ctx, NewList("list-2", "user-1", "groceries"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "list-1", second.ID)
	assert.Equal(t, first.Items, second.Items)

	lists, err := s.ListsByOwner(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, lists, 1)
}

func testUpsertConcurrent(t *testing.T, s store.Store) {
	ctx := context.Background()

	const workers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		creates int
	)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := s.UpsertList(ctx, NewList(fmt.Sprintf("list-%d", i), "user-1", "chores"))
			if assert.NoError(t, err) && created {
				mu.Lock()
				creates++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, creates)
	lists, err := s.ListsByOwner(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Len(t, lists[0].Items, 3)
}

func testOwnersIndependent(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, created, err := s.UpsertList(ctx, NewList("list-a", "user-a", "groceries"))
	require.NoError(t, err)
	assert.True(t, created)
	_, created, err = s.UpsertList(ctx, NewList("list-b", "user-b", "groceries"))
	require.NoError(t, err)
	assert.True(t, created)

	_, err = s.AppendItem(ctx, "user-a", "groceries", domain.Item{ID: "item-milk", Name: "Milk"})
	require.NoError(t, err)

	a, err := s.GetList(ctx, "user-a", "groceries")
	require.NoError(t, err)
	b, err := s.GetList(ctx, "user-b", "groceries")
	require.NoError(t, err)
	assert.Len(t, a.Items, 4)
	assert.Len(t, b.Items, 3)
	assert.NotEqual(t, a.ID, b.ID)
}

func testAppendItem(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, _, err := s.UpsertList(ctx, NewList("list-1", "user-1", "groceries"))
	require.NoError(t, err)

	l, err := s.AppendItem(ctx, "user-1", "groceries", domain.Item{ID: "item-milk", Name: "Milk"})
	require.NoError(t, err)
	require.Len(t, l.Items, 4)
	assert.Equal(t, domain.Item{ID: "item-milk", Name: "Milk"}, l.Items[3])

	got, err := s.GetList(ctx, "user-1", "groceries")
	require.NoError(t, err)
	assert.Equal(t, l.Items, got.Items)
}

func testAppendItemMissingList(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.AppendItem(ctx, "user-1", "nowhere", domain.Item{ID: "item-x", Name: "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetList(ctx, "user-1", "nowhere")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testRemoveItem(t *testing.T, s store.Store) {
	ctx := context.Background()
	seed := NewList("list-1", "user-1", "groceries")
	_, _, err := s.UpsertList(ctx, seed)
	require.NoError(t, err)

	require.NoError(t, s.RemoveItem(ctx, "user-1", "groceries", seed.Items[1].ID))
	got, err := s.GetList(ctx, "user-1", "groceries")
	require.NoError(t, err)
	assert.Equal(t, []domain.Item{seed.Items[0], seed.Items[2]}, got.Items)

	// Absent item and absent list are silent no-ops.
	require.NoError(t, s.RemoveItem(ctx, "user-1", "groceries", "item-missing"))
	require.NoError(t, s.RemoveItem(ctx, "user-1", "nowhere", seed.Items[0].ID))

	// Another owner cannot remove items from this list.
	require.NoError(t, s.RemoveItem(ctx, "user-2", "groceries", seed.Items[0].ID))

	got, err = s.GetList(ctx, "user-1", "groceries")
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
}

func testDeleteList(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, _, err := s.UpsertList(ctx, NewList("list-1", "user-1", "groceries"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteList(ctx, "user-2", "groceries"))
	_, err = s.GetList(ctx, "user-1", "groceries")
	require.NoError(t, err)

	require.NoError(t, s.DeleteList(ctx, "user-1", "groceries"))
	require.NoError(t, s.DeleteList(ctx, "user-1", "groceries"))

	_, err = s.GetList(ctx, "user-1", "groceries")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testListsByOwnerOrdered(t *testing.T, s store.Store) {
	ctx := context.Background()
	for i, key := range []string{"work", "groceries", "books-to-read"} {
		_, _, err := s.UpsertList(ctx, NewList(fmt.Sprintf("list-%d", i), "user-1", key))
		require.NoError(t, err)
	}
	_, _, err := s.UpsertList(ctx, NewList("list-other", "user-2", "aardvarks"))
	require.NoError(t, err)

	lists, err := s.ListsByOwner(ctx, "user-1")
	require.NoError(t, err)

	keys := make([]string, 0, len(lists))
	for _, l := range lists {
		keys = append(keys, l.Key)
	}
	assert.Equal(t, []string{"books-to-read", "groceries", "work"}, keys)

	none, err := s.ListsByOwner(ctx, "user-3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testSessions(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	sess := &domain.Session{
		ID:         "session-1",
		UserID:     "user-1",
		Method:     domain.AuthMethodGoogle,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(time.Hour),
		IPAddress:  "10.0.0.1",
		UserAgent:  "test",
	}
	require.NoError(t, s.CreateSession(ctx, sess))
	assert.ErrorIs(t, s.CreateSession(ctx, sess), session.ErrExists)

	got, err := s.GetSession(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, domain.AuthMethodGoogle, got.Method)
	assert.Equal(t, "10.0.0.1", got.IPAddress)
	assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))

	later := now.Add(10 * time.Minute)
	require.NoError(t, s.TouchSession(ctx, "session-1", later))
	got, err = s.GetSession(ctx, "session-1")
	require.NoError(t, err)
	assert.True(t, later.Equal(got.LastSeenAt))

	require.NoError(t, s.DeleteSession(ctx, "session-1"))
	require.NoError(t, s.DeleteSession(ctx, "session-1"))

	_, err = s.GetSession(ctx, "session-1")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func testSessionsExpired(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.CreateSession(ctx, &domain.Session{
		ID: "session-live", UserID: "user-1", Method: domain.AuthMethodLocal,
		CreatedAt: now, LastSeenAt: now, ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, s.CreateSession(ctx, &domain.Session{
		ID: "session-dead", UserID: "user-1", Method: domain.AuthMethodLocal,
		CreatedAt: now.Add(-2 * time.Hour), LastSeenAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}))

	_, err := s.GetSession(ctx, "session-dead")
	assert.ErrorIs(t, err, session.ErrExpired)

	removed, err := s.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = s.GetSession(ctx, "session-dead")
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = s.GetSession(ctx, "session-live")
	assert.NoError(t, err)
}

func testPing(t *testing.T, s store.Store) {
	assert.NoError(t, s.Ping(context.Background()))
}
