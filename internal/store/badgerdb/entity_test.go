package badgerdb_test

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/listenupapp/listenup-lists/internal/store"
	"github.com/listenupapp/listenup-lists/internal/store/badgerdb"
	"github.com/stretchr/testify/require"
)

type testCard struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

func setupTestStore(t *testing.T) *badgerdb.Store {
	t.Helper()

	s, err := badgerdb.New(filepath.Join(t.TempDir(), "badger"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func newCards(s *badgerdb.Store) *badgerdb.Entity[testCard] {
	return badgerdb.NewEntity[testCard](s, "card:").
		WithIndexTransform("slug",
			func(c *testCard) []string { return []string{strings.ToLower(c.Slug)} },
			strings.ToLower,
		)
}

func TestEntity_CreateAndGet(t *testing.T) {
	s := setupTestStore(t)
	cards := newCards(s)
	ctx := context.Background()

	card := &testCard{ID: "c1", Title: "Weekend Chores", Slug: "weekend-chores"}
	require.NoError(t, cards.Create(ctx, "c1", card))

	got, err := cards.Get(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, card, got)

	require.ErrorIs(t, cards.Create(ctx, "c1", card), store.ErrAlreadyExists)
}

func TestEntity_Get_NotFound(t *testing.T) {
	s := setupTestStore(t)
	cards := newCards(s)

	_, err := cards.Get(context.Background(), "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_GetByIndex_Transformed(t *testing.T) {
	s := setupTestStore(t)
	cards := newCards(s)
	ctx := context.Background()

	require.NoError(t, cards.Create(ctx, "c1", &testCard{ID: "c1", Slug: "Groceries"}))

	got, err := cards.GetByIndex(ctx, "slug", "GROCERIES")
	require.NoError(t, err)
	require.Equal(t, "c1", got.ID)

	_, err = cards.GetByIndex(ctx, "slug", "chores")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_IndexConflict(t *testing.T) {
	s := setupTestStore(t)
	cards := newCards(s)
	ctx := context.Background()

	require.NoError(t, cards.Create(ctx, "c1", &testCard{ID: "c1", Slug: "same"}))

	err := cards.Create(ctx, "c2", &testCard{ID: "c2", Slug: "SAME"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
	require.Contains(t, err.Error(), "slug")

	_, err = cards.Get(ctx, "c2")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_Update_MovesIndex(t *testing.T) {
	s := setupTestStore(t)
	cards := newCards(s)
	ctx := context.Background()

	require.NoError(t, cards.Create(ctx, "c1", &testCard{ID: "c1", Slug: "old"}))
	require.NoError(t, cards.Update(ctx, "c1", &testCard{ID: "c1", Slug: "new"}))

	_, err := cards.GetByIndex(ctx, "slug", "old")
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := cards.GetByIndex(ctx, "slug", "new")
	require.NoError(t, err)
	require.Equal(t, "c1", got.ID)

	// Re-saving with an unchanged index value is not a conflict.
	require.NoError(t, cards.Update(ctx, "c1", &testCard{ID: "c1", Title: "renamed", Slug: "new"}))

	require.ErrorIs(t, cards.Update(ctx, "missing", &testCard{}), store.ErrNotFound)
}

func TestEntity_Delete(t *testing.T) {
	s := setupTestStore(t)
	cards := newCards(s)
	ctx := context.Background()

	require.NoError(t, cards.Create(ctx, "c1", &testCard{ID: "c1", Slug: "gone"}))
	require.NoError(t, cards.Delete(ctx, "c1"))
	require.NoError(t, cards.Delete(ctx, "c1"))

	_, err := cards.GetByIndex(ctx, "slug", "gone")
	require.ErrorIs(t, err, store.ErrNotFound)

	// The index value is free again.
	require.NoError(t, cards.Create(ctx, "c2", &testCard{ID: "c2", Slug: "gone"}))
}

func TestEntity_ContextCancellation(t *testing.T) {
	s := setupTestStore(t)
	cards := newCards(s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, cards.Create(ctx, "c1", &testCard{ID: "c1"}), context.Canceled)
	_, err := cards.Get(ctx, "c1")
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, cards.Update(ctx, "c1", &testCard{ID: "c1"}), context.Canceled)
	require.ErrorIs(t, cards.Delete(ctx, "c1"), context.Canceled)
}

func TestEntity_ScanAndList(t *testing.T) {
	s := setupTestStore(t)
	cards := newCards(s)
	ctx := context.Background()

	for _, id := range []string{"a:2", "a:1", "b:1", "a:3"} {
		require.NoError(t, cards.Create(ctx, id, &testCard{ID: id, Slug: "slug-" + id}))
	}

	var ids []string
	for card, err := range cards.Scan(ctx, "a:") {
		require.NoError(t, err)
		ids = append(ids, card.ID)
	}
	require.Equal(t, []string{"a:1", "a:2", "a:3"}, ids)

	// Index entries are never yielded as entities.
	var count int
	for card, err := range cards.List(ctx) {
		require.NoError(t, err)
		require.NotEmpty(t, card.ID)
		count++
	}
	require.Equal(t, 4, count)
}

func TestEntity_List_EarlyTermination(t *testing.T) {
	s := setupTestStore(t)
	cards := newCards(s)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		id := fmt.Sprintf("c%02d", i)
		require.NoError(t, cards.Create(ctx, id, &testCard{ID: id, Slug: id}))
	}

	var count int
	for _, err := range cards.List(ctx) {
		require.NoError(t, err)
		count++
		if count == 3 {
			break
		}
	}
	require.Equal(t, 3, count)
}

func TestEntity_List_ContextCancellation(t *testing.T) {
	s := setupTestStore(t)
	cards := newCards(s)

	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("c%d", i)
		require.NoError(t, cards.Create(context.Background(), id, &testCard{ID: id, Slug: id}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var (
		count   int
		lastErr error
	)
	for _, err := range cards.List(ctx) {
		if err != nil {
			lastErr = err
			break
		}
		count++
		if count == 2 {
			cancel()
		}
	}
	require.ErrorIs(t, lastErr, context.Canceled)
	require.Equal(t, 2, count)
}
