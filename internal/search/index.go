// Package search provides the Bleve-backed full-text index over the
// product catalog.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/bloomeryapp/bloomery-admin/internal/domain"
)

// mappingVersion is incremented whenever the index mapping changes,
// forcing a rebuild on startup when the stored version doesn't match.
const mappingVersion = "1"

// Index wraps a Bleve index with product operations.
//
// All public methods are safe for concurrent use; the mutex protects
// against corruption during rebuilds.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string
	Logger   *slog.Logger
}

// NewIndex opens the search index, creating it when missing and
// recreating it when the stored mapping version is outdated or the
// index cannot be opened.
func NewIndex(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil {
			logger.Info("search index has no version file, will rebuild",
				"new_version", mappingVersion)
			needsRebuild = true
		} else if string(existingVersion) != mappingVersion {
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate",
				"path", indexPath, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &Index{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexProduct adds or replaces a product's search document.
func (s *Index) IndexProduct(_ context.Context, p *domain.Product) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(p.ID, productDocument(p))
}

// DeleteProduct removes a product from the index.
func (s *Index) DeleteProduct(_ context.Context, productID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(productID)
}

// DocumentCount returns the number of indexed products.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and recreates it empty. It takes the
// exclusive lock and blocks all other operations; the caller is
// responsible for re-feeding the catalog afterwards.
func (s *Index) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)
	return nil
}

// productDocument flattens a product into the indexed field map. Field
// names must match the mapping's lowercase names.
func productDocument(p *domain.Product) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"collection":  p.CollectionName,
		"type":        p.Type,
		"size":        p.Size,
		"status":      string(p.Status),
		"occasions":   p.Occasions,
		"flowers":     p.Flowers,
		"penanda":     p.Penanda,
		"price":       p.Price,
		"updated_at":  p.UpdatedAt.UnixMilli(),
	}
}
