package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/listenupapp/listenup-lists/internal/domain"
	"github.com/listenupapp/listenup-lists/internal/store"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// loadList reads a list row and its items in position order.
func loadList(ctx context.Context, q querier, ownerID, key string) (*domain.List, error) {
	var (
		l         domain.List
		createdAt string
		updatedAt string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, owner_id, key, created_at, updated_at FROM lists WHERE owner_id = ? AND key = ?`,
		ownerID, key,
	).Scan(&l.ID, &l.OwnerID, &l.Key, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	l.Items, err = loadItems(ctx, q, l.ID)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func loadItems(ctx context.Context, q querier, listID string) ([]domain.Item, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, name FROM items WHERE list_id = ? ORDER BY position`, listID)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0)
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.Name); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpsertList returns the owner's list for seed.Key, creating it from seed when absent.
func (s *Store) UpsertList(ctx context.Context, seed *domain.List) (*domain.List, bool, error) {
	var (
		list    *domain.List
		created bool
	)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO lists (id, owner_id, key, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (owner_id, key) DO NOTHING`,
			seed.ID, seed.OwnerID, seed.Key, formatTime(seed.CreatedAt), formatTime(seed.UpdatedAt),
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}

		if n == 1 {
			for i, it := range seed.Items {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO items (id, list_id, position, name) VALUES (?, ?, ?, ?)`,
					it.ID, seed.ID, i+1, it.Name,
				); err != nil {
					return fmt.Errorf("seed item: %w", err)
				}
			}
			created = true
		}

		list, err = loadList(ctx, tx, seed.OwnerID, seed.Key)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("upsert list: %w", err)
	}

	return list, created, nil
}

// GetList retrieves one of the owner's lists by key.
func (s *Store) GetList(ctx context.Context, ownerID, key string) (*domain.List, error) {
	return loadList(ctx, s.db, ownerID, key)
}

// ListsByOwner returns every list the owner has, ordered by key.
func (s *Store) ListsByOwner(ctx context.Context, ownerID string) ([]*domain.List, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM lists WHERE owner_id = ? ORDER BY key`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return nil, err
		}
		keys = append(keys, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lists := make([]*domain.List, 0, len(keys))
	for _, key := range keys {
		l, err := loadList(ctx, s.db, ownerID, key)
		if errors.Is(err, store.ErrNotFound) {
			continue // deleted between queries
		}
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, nil
}

// AppendItem adds an item to the end of an existing list.
func (s *Store) AppendItem(ctx context.Context, ownerID, key string, item domain.Item) (*domain.List, error) {
	var list *domain.List

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var listID string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM lists WHERE owner_id = ? AND key = ?`, ownerID, key).Scan(&listID)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO items (id, list_id, position, name)
			VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM items WHERE list_id = ?), ?)`,
			item.ID, listID, listID, item.Name,
		); err != nil {
			return fmt.Errorf("insert item: %w", err)
		}

		if err := touchList(ctx, tx, listID); err != nil {
			return err
		}

		list, err = loadList(ctx, tx, ownerID, key)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("append item: %w", err)
	}

	return list, nil
}

// RemoveItem deletes an item from a list. Missing lists and items are ignored.
func (s *Store) RemoveItem(ctx context.Context, ownerID, key, itemID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var listID string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM lists WHERE owner_id = ? AND key = ?`, ownerID, key).Scan(&listID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM items WHERE id = ? AND list_id = ?`, itemID, listID)
		if err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		return touchList(ctx, tx, listID)
	})
}

// DeleteList removes a list and, through the foreign key, its items.
// Deleting a missing list is a no-op.
func (s *Store) DeleteList(ctx context.Context, ownerID, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM lists WHERE owner_id = ? AND key = ?`, ownerID, key); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	return nil
}

func touchList(ctx context.Context, tx *sql.Tx, listID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE lists SET updated_at = ? WHERE id = ?`, formatTime(time.Now()), listID)
	return err
}
