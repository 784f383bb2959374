package badgerdb

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/listenupapp/listenup-lists/internal/store"
)

// Entity provides generic CRUD operations for any domain type.
// Public methods run in their own transaction; the *Txn variants compose inside a caller's.
type Entity[T any] struct {
	store   *Store
	prefix  string
	indexes []Index[T]
}

// Index defines a unique secondary index on an entity.
type Index[T any] struct {
	name            string
	keyGen          func(*T) []string
	lookupTransform func(string) string // Optional transformation for lookups
}

// NewEntity creates a new Entity instance for type T.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{
		store:   s,
		prefix:  prefix,
		indexes: make([]Index[T], 0),
	}
}

// WithIndex adds a secondary index to the entity.
// keyGen may return no keys, in which case the entity is not indexed.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{
		name:   name,
		keyGen: keyGen,
	})
	return e
}

// WithIndexTransform adds a secondary index with lookup transformation.
// The lookupTransform function is applied to search values before index lookup,
// enabling case-insensitive searches, normalization, etc.
func (e *Entity[T]) WithIndexTransform(name string, keyGen func(*T) []string, lookupTransform func(string) string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{
		name:            name,
		keyGen:          keyGen,
		lookupTransform: lookupTransform,
	})
	return e
}

// Create creates a new entity with the given ID.
// Returns store.ErrAlreadyExists if the ID or any index value is taken.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	return e.store.update(ctx, func(txn *badger.Txn) error {
		return e.createTxn(txn, id, entity)
	})
}

func (e *Entity[T]) createTxn(txn *badger.Txn, id string, entity *T) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	key := []byte(e.prefix + id)

	// Check if key already exists
	_, err = txn.Get(key)
	if err == nil {
		return store.ErrAlreadyExists
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to check existing key: %w", err)
	}

	// Check for index conflicts
	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(entity) {
			_, err := txn.Get(indexKey(e.prefix, idx.name, value))
			if err == nil {
				return fmt.Errorf("index %s conflict on key %s: %w", idx.name, value, store.ErrAlreadyExists)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check index key: %w", err)
			}
		}
	}

	if err := txn.Set(key, data); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	return e.setIndexes(txn, id, entity)
}

// Get retrieves an entity by ID.
// Returns store.ErrNotFound if the entity does not exist.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity *T
	err := e.store.db.View(func(txn *badger.Txn) error {
		var err error
		entity, err = e.getTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func (e *Entity[T]) getTxn(txn *badger.Txn, id string) (*T, error) {
	key := buildKey(e.prefix, id)
	defer releaseKey(key)

	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	var entity T
	err = item.Value(func(val []byte) error {
		if err := json.Unmarshal(val, &entity); err != nil {
			return fmt.Errorf("failed to unmarshal entity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// GetByIndex retrieves an entity by secondary index.
// If the index has a lookup transform, it will be applied to the value before lookup.
func (e *Entity[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity *T
	err := e.store.db.View(func(txn *badger.Txn) error {
		var err error
		entity, err = e.getByIndexTxn(txn, indexName, value)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func (e *Entity[T]) getByIndexTxn(txn *badger.Txn, indexName, value string) (*T, error) {
	for _, idx := range e.indexes {
		if idx.name == indexName && idx.lookupTransform != nil {
			value = idx.lookupTransform(value)
			break
		}
	}

	key := buildIndexKey(e.prefix, indexName, value)
	defer releaseKey(key)

	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get index key: %w", err)
	}

	id, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read index value: %w", err)
	}

	return e.getTxn(txn, string(id))
}

// Update replaces an existing entity and rewrites its index entries.
// Returns store.ErrNotFound if the entity does not exist.
func (e *Entity[T]) Update(ctx context.Context, id string, entity *T) error {
	return e.store.update(ctx, func(txn *badger.Txn) error {
		return e.updateTxn(txn, id, entity)
	})
}

func (e *Entity[T]) updateTxn(txn *badger.Txn, id string, entity *T) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	old, err := e.getTxn(txn, id)
	if err != nil {
		return err
	}

	if err := e.deleteIndexes(txn, old); err != nil {
		return err
	}

	// Check for new index conflicts (excluding the entity's own old keys)
	for _, idx := range e.indexes {
		oldKeys := make(map[string]bool)
		for _, k := range idx.keyGen(old) {
			oldKeys[k] = true
		}

		for _, value := range idx.keyGen(entity) {
			if oldKeys[value] {
				continue
			}
			_, err := txn.Get(indexKey(e.prefix, idx.name, value))
			if err == nil {
				return fmt.Errorf("index %s conflict on key %s: %w", idx.name, value, store.ErrAlreadyExists)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check index key: %w", err)
			}
		}
	}

	if err := txn.Set([]byte(e.prefix+id), data); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	return e.setIndexes(txn, id, entity)
}

// Delete deletes an entity by ID.
// This operation is idempotent - it does not return an error if the entity does not exist.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	return e.store.update(ctx, func(txn *badger.Txn) error {
		return e.deleteTxn(txn, id)
	})
}

func (e *Entity[T]) deleteTxn(txn *badger.Txn, id string) error {
	entity, err := e.getTxn(txn, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := e.deleteIndexes(txn, entity); err != nil {
		return err
	}

	if err := txn.Delete([]byte(e.prefix + id)); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

func (e *Entity[T]) setIndexes(txn *badger.Txn, id string, entity *T) error {
	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(entity) {
			if err := txn.Set(indexKey(e.prefix, idx.name, value), []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}
	}
	return nil
}

func (e *Entity[T]) deleteIndexes(txn *badger.Txn, entity *T) error {
	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(entity) {
			if err := txn.Delete(indexKey(e.prefix, idx.name, value)); err != nil {
				return fmt.Errorf("failed to delete index key: %w", err)
			}
		}
	}
	return nil
}

// List returns an iterator over all entities.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return e.Scan(ctx, "")
}

// Scan returns an iterator over entities whose ID starts with idPrefix, in key order.
func (e *Entity[T]) Scan(ctx context.Context, idPrefix string) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		prefix := []byte(e.prefix + idPrefix)

		err := e.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			opts.PrefetchValues = true

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}

				// Skip index keys
				if strings.HasPrefix(string(it.Item().Key()[len(e.prefix):]), "idx:") {
					continue
				}

				var entity T
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &entity)
				})
				if err != nil {
					return fmt.Errorf("failed to unmarshal entity: %w", err)
				}

				if !yield(&entity, nil) {
					return errStopScan
				}
			}
			return nil
		})

		if err != nil && !errors.Is(err, errStopScan) {
			yield(nil, err)
		}
	}
}

// errStopScan ends a scan when the consumer stops early.
var errStopScan = errors.New("scan stopped")
