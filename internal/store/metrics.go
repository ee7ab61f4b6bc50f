package store

import (
	"context"

	"github.com/bloomeryapp/bloomery-admin/internal/domain"
)

// LowStockThreshold marks products whose quantity needs attention on the
// dashboard.
const LowStockThreshold = 5

// Overview summarizes the catalog for the admin dashboard.
type Overview struct {
	ProductCount  int     `json:"product_count"`
	OrderCount    int     `json:"order_count"`
	CustomerCount int     `json:"customer_count"`
	PendingOrders int     `json:"pending_orders"`
	Revenue       float64 `json:"revenue"`
	LowStock      int     `json:"low_stock"`
}

// Overview computes the dashboard summary by scanning the catalog.
// The catalog is small enough that full scans are cheaper than keeping
// counters in sync across writes.
func (s *Store) Overview(ctx context.Context) (*Overview, error) {
	var ov Overview

	productCount, err := s.Products.Count(ctx)
	if err != nil {
		return nil, err
	}
	ov.ProductCount = productCount

	customerCount, err := s.Customers.Count(ctx)
	if err != nil {
		return nil, err
	}
	ov.CustomerCount = customerCount

	params := PaginationParams{Limit: MaxPageLimit}
	for {
		orders, cursor, err := s.Orders.List(ctx, params)
		if err != nil {
			return nil, err
		}
		for _, o := range orders {
			ov.OrderCount++
			switch o.Status {
			case domain.OrderPending:
				ov.PendingOrders++
			case domain.OrderCancelled:
				// Cancelled orders never count toward revenue.
			default:
				ov.Revenue += o.Total
			}
		}
		if cursor == "" {
			break
		}
		params.Cursor = cursor
	}

	params = PaginationParams{Limit: MaxPageLimit}
	for {
		products, cursor, err := s.Products.List(ctx, params)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			if p.Status == domain.StatusReady && p.Quantity <= LowStockThreshold {
				ov.LowStock++
			}
		}
		if cursor == "" {
			break
		}
		params.Cursor = cursor
	}

	return &ov, nil
}
