package badgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/listenupapp/listenup-lists/internal/domain"
	"github.com/listenupapp/listenup-lists/internal/store"
)

// listPrefix namespaces lists as list:<ownerID>:<key>, so one owner's lists are contiguous
// and sorted by key.
const listPrefix = "list:"

func listID(ownerID, key string) string {
	return ownerID + ":" + key
}

func (s *Store) initLists() {
	s.lists = NewEntity[domain.List](s, listPrefix)
}

// UpsertList returns the owner's list for seed.Key, creating it from seed when absent.
func (s *Store) UpsertList(ctx context.Context, seed *domain.List) (*domain.List, bool, error) {
	id := listID(seed.OwnerID, seed.Key)

	var (
		list    *domain.List
		created bool
	)
	err := s.update(ctx, func(txn *badger.Txn) error {
		list, created = nil, false

		existing, err := s.lists.getTxn(txn, id)
		if err == nil {
			list = existing
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if err := s.lists.createTxn(txn, id, seed); err != nil {
			return err
		}
		list, created = seed, true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("upsert list: %w", err)
	}

	return list, created, nil
}

// GetList retrieves one of the owner's lists by key.
func (s *Store) GetList(ctx context.Context, ownerID, key string) (*domain.List, error) {
	return s.lists.Get(ctx, listID(ownerID, key))
}

// ListsByOwner returns every list the owner has, ordered by key.
func (s *Store) ListsByOwner(ctx context.Context, ownerID string) ([]*domain.List, error) {
	lists := make([]*domain.List, 0)
	for list, err := range s.lists.Scan(ctx, ownerID+":") {
		if err != nil {
			return nil, fmt.Errorf("list lists: %w", err)
		}
		lists = append(lists, list)
	}
	return lists, nil
}

// AppendItem adds an item to the end of an existing list.
func (s *Store) AppendItem(ctx context.Context, ownerID, key string, item domain.Item) (*domain.List, error) {
	id := listID(ownerID, key)

	var list *domain.List
	err := s.update(ctx, func(txn *badger.Txn) error {
		var err error
		list, err = s.lists.getTxn(txn, id)
		if err != nil {
			return err
		}
		list.AppendItem(item)
		return s.lists.updateTxn(txn, id, list)
	})
	if err != nil {
		return nil, fmt.Errorf("append item: %w", err)
	}

	return list, nil
}

// RemoveItem deletes an item from a list. Missing lists and items are ignored.
func (s *Store) RemoveItem(ctx context.Context, ownerID, key, itemID string) error {
	id := listID(ownerID, key)

	return s.update(ctx, func(txn *badger.Txn) error {
		list, err := s.lists.getTxn(txn, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if !list.RemoveItem(itemID) {
			return nil
		}
		return s.lists.updateTxn(txn, id, list)
	})
}

// DeleteList removes a list and its items. Deleting a missing list is a no-op.
func (s *Store) DeleteList(ctx context.Context, ownerID, key string) error {
	return s.lists.Delete(ctx, listID(ownerID, key))
}
