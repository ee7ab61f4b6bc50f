package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// Entity provides generic CRUD operations for any domain type.
type Entity[T any] struct {
	store   *Store
	prefix  string
	indexes []Index[T]
}

// Index defines a secondary index on an entity. keyGen returns the index
// values for a record; each maps back to the record's primary ID.
type Index[T any] struct {
	name   string
	keyGen func(*T) []string
}

// NewEntity creates a new Entity instance for type T under a key prefix.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{
		store:   s,
		prefix:  prefix,
		indexes: make([]Index[T], 0),
	}
}

// WithIndex adds a secondary index to the entity.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{name: name, keyGen: keyGen})
	return e
}

func (e *Entity[T]) key(id string) []byte {
	return []byte(e.prefix + id)
}

func (e *Entity[T]) indexKey(name, value, id string) []byte {
	return []byte(e.prefix + "idx:" + name + ":" + value + ":" + id)
}

// Create stores a new entity under the given ID.
// Returns ErrAlreadyExists if an entity with this ID already exists.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(e.key(id)); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}

		if err := txn.Set(e.key(id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}

		for _, idx := range e.indexes {
			for _, value := range idx.keyGen(entity) {
				if err := txn.Set(e.indexKey(idx.name, value, id), []byte(id)); err != nil {
					return fmt.Errorf("failed to set index key: %w", err)
				}
			}
		}

		return nil
	})
}

// Get retrieves an entity by ID. Returns ErrNotFound if missing.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity T
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(e.key(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entity)
		})
	})
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// Update replaces an existing entity, maintaining its index entries.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Update(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(e.key(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}

		// Drop index entries derived from the previous version.
		var previous T
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &previous)
		}); err != nil {
			return fmt.Errorf("failed to read previous version: %w", err)
		}
		for _, idx := range e.indexes {
			for _, value := range idx.keyGen(&previous) {
				if err := txn.Delete(e.indexKey(idx.name, value, id)); err != nil {
					return fmt.Errorf("failed to delete old index key: %w", err)
				}
			}
		}

		if err := txn.Set(e.key(id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		for _, idx := range e.indexes {
			for _, value := range idx.keyGen(entity) {
				if err := txn.Set(e.indexKey(idx.name, value, id), []byte(id)); err != nil {
					return fmt.Errorf("failed to set index key: %w", err)
				}
			}
		}

		return nil
	})
}

// Delete removes an entity and its index entries.
// Deleting a missing entity returns ErrNotFound.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(e.key(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}

		var entity T
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entity)
		}); err != nil {
			return fmt.Errorf("failed to read entity: %w", err)
		}
		for _, idx := range e.indexes {
			for _, value := range idx.keyGen(&entity) {
				if err := txn.Delete(e.indexKey(idx.name, value, id)); err != nil {
					return fmt.Errorf("failed to delete index key: %w", err)
				}
			}
		}

		return txn.Delete(e.key(id))
	})
}

// List returns a page of entities ordered by ID, starting after the
// cursor. The returned cursor is empty when no further page exists.
func (e *Entity[T]) List(ctx context.Context, params PaginationParams) ([]*T, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	params.Validate()

	var results []*T
	var nextCursor string

	err := e.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(e.prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		start := []byte(e.prefix)
		if params.Cursor != "" {
			// Seek past the cursor key itself.
			start = append(e.key(params.Cursor), 0)
		}

		lastID := ""
		for it.Seek(start); it.ValidForPrefix([]byte(e.prefix)); it.Next() {
			key := string(it.Item().Key())
			// Skip index keys which share the entity prefix.
			if strings.HasPrefix(key, e.prefix+"idx:") {
				continue
			}

			if len(results) == params.Limit {
				// A further record exists, so the page boundary cursor
				// is usable.
				nextCursor = lastID
				return nil
			}

			var entity T
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entity)
			}); err != nil {
				return fmt.Errorf("failed to unmarshal entity at %s: %w", key, err)
			}
			results = append(results, &entity)
			lastID = strings.TrimPrefix(key, e.prefix)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	return results, nextCursor, nil
}

// IDsByIndex returns the primary IDs of entities whose index value matches.
func (e *Entity[T]) IDsByIndex(ctx context.Context, indexName, value string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := []byte(e.prefix + "idx:" + indexName + ":" + value + ":")
	var ids []string

	err := e.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := it.Item().Value(func(val []byte) error {
				ids = append(ids, string(val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Count returns the number of stored entities.
func (e *Entity[T]) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := e.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(e.prefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(e.prefix)); it.ValidForPrefix([]byte(e.prefix)); it.Next() {
			if !strings.HasPrefix(string(it.Item().Key()), e.prefix+"idx:") {
				count++
			}
		}
		return nil
	})
	return count, err
}
