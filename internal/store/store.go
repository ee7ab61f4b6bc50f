// Package store provides the Badger-backed catalog store for products,
// orders, and customers, plus raw keyed access with TTL for the draft slot.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/bloomeryapp/bloomery-admin/internal/domain"
)

// SearchIndexer keeps the search index in sync with product writes.
// Store uses this interface to avoid depending on search internals.
type SearchIndexer interface {
	IndexProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, productID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexProduct is a no-op.
func (NoopSearchIndexer) IndexProduct(context.Context, *domain.Product) error { return nil }

// DeleteProduct is a no-op.
func (NoopSearchIndexer) DeleteProduct(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Search indexer for keeping search in sync with product writes.
	// Set via SetSearchIndexer after store creation to avoid circular
	// dependencies.
	searchIndexer SearchIndexer

	Products  *Entity[domain.Product]
	Orders    *Entity[domain.Order]
	Customers *Entity[domain.Customer]
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Sync writes to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:            db,
		logger:        logger,
		searchIndexer: NoopSearchIndexer{},
	}

	s.Products = NewEntity[domain.Product](s, "product:").
		WithIndex("status", func(p *domain.Product) []string {
			return []string{string(p.Status)}
		})
	s.Orders = NewEntity[domain.Order](s, "order:").
		WithIndex("status", func(o *domain.Order) []string {
			return []string{string(o.Status)}
		})
	s.Customers = NewEntity[domain.Customer](s, "customer:")

	if logger != nil {
		logger.Info("catalog database opened", "path", path)
	}

	return s, nil
}

// SetSearchIndexer installs the search indexer used on product writes.
func (s *Store) SetSearchIndexer(indexer SearchIndexer) {
	if indexer == nil {
		indexer = NoopSearchIndexer{}
	}
	s.searchIndexer = indexer
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetRaw stores raw bytes under a key with an optional expiry.
// A zero ttl stores the entry without expiry.
func (s *Store) SetRaw(key string, value []byte, ttl time.Duration) error {
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// GetRaw returns the raw bytes stored under a key, or ErrNotFound.
func (s *Store) GetRaw(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}

// DeleteRaw removes a raw key. Deleting a missing key is not an error.
func (s *Store) DeleteRaw(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}
