// Package options supplies the dropdown choices for the product form:
// collections, types, occasions, flowers, and stock levels.
package options

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/bloomeryapp/bloomery-admin/internal/domain"
	"github.com/bloomeryapp/bloomery-admin/internal/store"
)

// Options are the dropdown choices offered by the form.
type Options struct {
	Collections []string `json:"collections"`
	Types       []string `json:"types"`
	Occasions   []string `json:"occasions"`
	Flowers     []string `json:"flowers"`
	StockLevels []string `json:"stock_levels"`
	Sizes       []string `json:"sizes"`
}

// Source provides the options, failing over to built-in defaults.
type Source interface {
	Fetch(ctx context.Context) Options
}

// Defaults are the built-in choices used when the catalog cannot be
// consulted.
func Defaults() Options {
	return Options{
		Collections: []string{"Best Sellers", "Seasonal", "Signature"},
		Types:       []string{"Bouquet", "Basket", "Box", "Vase"},
		Occasions:   []string{"Birthday", "Anniversary", "Graduation", "Sympathy", "Wedding"},
		Flowers:     []string{"Rose", "Lily", "Tulip", "Peony", "Sunflower", "Orchid"},
		StockLevels: []string{"In Stock", "Low Stock", "Preorder"},
		Sizes:       slices.Clone(domain.BaseSizes),
	}
}

// CatalogSource derives options from stored products, merged over the
// defaults so a sparse catalog still offers sensible choices.
type CatalogSource struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCatalogSource creates a catalog-backed source.
func NewCatalogSource(s *store.Store, logger *slog.Logger) *CatalogSource {
	return &CatalogSource{store: s, logger: logger}
}

// Fetch scans the catalog and merges observed values into the defaults.
// Any failure leaves the defaults in place.
func (s *CatalogSource) Fetch(ctx context.Context) Options {
	opts := Defaults()

	params := store.PaginationParams{Limit: store.MaxPageLimit}
	for {
		products, cursor, err := s.store.ListProducts(ctx, params)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn("falling back to default form options", "error", err)
			}
			return Defaults()
		}
		for _, p := range products {
			opts.Collections = merge(opts.Collections, p.CollectionName)
			opts.Types = merge(opts.Types, p.Type)
			opts.Sizes = merge(opts.Sizes, p.Size)
			for _, o := range p.Occasions {
				opts.Occasions = merge(opts.Occasions, o)
			}
			for _, f := range p.Flowers {
				opts.Flowers = merge(opts.Flowers, f)
			}
		}
		if cursor == "" {
			break
		}
		params.Cursor = cursor
	}

	return opts
}

// merge appends value unless it is blank or already present,
// compared case-insensitively.
func merge(list []string, value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return list
	}
	for _, existing := range list {
		if strings.EqualFold(existing, value) {
			return list
		}
	}
	return append(list, value)
}
