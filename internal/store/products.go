package store

import (
	"context"
	"time"

	"github.com/bloomeryapp/bloomery-admin/internal/domain"
)

// CreateProduct stores a new product and indexes it for search.
func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.Products.Create(ctx, p.ID, p); err != nil {
		return err
	}

	// Index asynchronously; search lag is acceptable, write latency is not.
	go s.indexProduct(p)
	return nil
}

// UpdateProduct replaces an existing product and re-indexes it.
func (s *Store) UpdateProduct(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now()

	if err := s.Products.Update(ctx, p.ID, p); err != nil {
		return err
	}

	go s.indexProduct(p)
	return nil
}

// GetProduct retrieves a product by ID.
func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.Products.Get(ctx, id)
}

// DeleteProduct removes a product and its search document.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	if err := s.Products.Delete(ctx, id); err != nil {
		return err
	}

	go func() {
		if err := s.searchIndexer.DeleteProduct(context.Background(), id); err != nil && s.logger != nil {
			s.logger.Warn("failed to remove product from search index", "product_id", id, "error", err)
		}
	}()
	return nil
}

// ListProducts returns a page of products ordered by ID.
func (s *Store) ListProducts(ctx context.Context, params PaginationParams) ([]*domain.Product, string, error) {
	return s.Products.List(ctx, params)
}

func (s *Store) indexProduct(p *domain.Product) {
	if err := s.searchIndexer.IndexProduct(context.Background(), p); err != nil && s.logger != nil {
		s.logger.Warn("failed to index product", "product_id", p.ID, "error", err)
	}
}
