package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bloomeryapp/bloomery-admin/internal/domain"
	"github.com/bloomeryapp/bloomery-admin/internal/options"
	"github.com/bloomeryapp/bloomery-admin/internal/search"
	"github.com/bloomeryapp/bloomery-admin/internal/store"
)

func (s *Server) registerProductRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listProducts",
		Method:      http.MethodGet,
		Path:        "/api/v1/products",
		Summary:     "List products",
		Description: "Returns a paginated product list",
		Tags:        []string{"Products"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListProducts)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProduct",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{id}",
		Summary:     "Get product",
		Description: "Returns a product by ID",
		Tags:        []string{"Products"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetProduct)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteProduct",
		Method:      http.MethodDelete,
		Path:        "/api/v1/products/{id}",
		Summary:     "Delete product",
		Description: "Removes a product, its image, and its search document",
		Tags:        []string{"Products"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteProduct)
}

func (s *Server) registerOrderRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listOrders",
		Method:      http.MethodGet,
		Path:        "/api/v1/orders",
		Summary:     "List orders",
		Description: "Returns a paginated order list",
		Tags:        []string{"Orders"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListOrders)

	huma.Register(s.api, huma.Operation{
		OperationID: "getOrder",
		Method:      http.MethodGet,
		Path:        "/api/v1/orders/{id}",
		Summary:     "Get order",
		Description: "Returns an order by ID",
		Tags:        []string{"Orders"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetOrder)
}

func (s *Server) registerCustomerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listCustomers",
		Method:      http.MethodGet,
		Path:        "/api/v1/customers",
		Summary:     "List customers",
		Description: "Returns a paginated customer list",
		Tags:        []string{"Customers"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListCustomers)
}

func (s *Server) registerMetricsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getOverview",
		Method:      http.MethodGet,
		Path:        "/api/v1/metrics/overview",
		Summary:     "Dashboard overview",
		Description: "Returns catalog counts, pending orders, revenue, and low-stock alerts",
		Tags:        []string{"Metrics"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetOverview)
}

func (s *Server) registerOptionsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getFormOptions",
		Method:      http.MethodGet,
		Path:        "/api/v1/options",
		Summary:     "Form options",
		Description: "Returns the dropdown choices for the product form",
		Tags:        []string{"Products"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetOptions)
}

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchProducts",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search products",
		Description: "Full-text product search with status and size filters",
		Tags:        []string{"Products"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchProducts)
}

// === DTOs ===

// ListInput carries cursor pagination parameters.
type ListInput struct {
	Limit  int    `query:"limit" doc:"Page size, capped at 100"`
	Cursor string `query:"cursor" doc:"Opaque cursor from a previous page"`
}

// ProductListResponse is a page of products.
type ProductListResponse struct {
	Products   []*domain.Product `json:"products" doc:"Products in this page"`
	NextCursor string            `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
}

// ProductListOutput wraps the product list for Huma.
type ProductListOutput struct {
	Body ProductListResponse
}

// ProductInput identifies a product.
type ProductInput struct {
	ID string `path:"id" doc:"Product ID"`
}

// ProductOutput wraps a product for Huma.
type ProductOutput struct {
	Body *domain.Product
}

// OrderListResponse is a page of orders.
type OrderListResponse struct {
	Orders     []*domain.Order `json:"orders" doc:"Orders in this page"`
	NextCursor string          `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
}

// OrderListOutput wraps the order list for Huma.
type OrderListOutput struct {
	Body OrderListResponse
}

// OrderInput identifies an order.
type OrderInput struct {
	ID string `path:"id" doc:"Order ID"`
}

// OrderOutput wraps an order for Huma.
type OrderOutput struct {
	Body *domain.Order
}

// CustomerListResponse is a page of customers.
type CustomerListResponse struct {
	Customers  []*domain.Customer `json:"customers" doc:"Customers in this page"`
	NextCursor string             `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
}

// CustomerListOutput wraps the customer list for Huma.
type CustomerListOutput struct {
	Body CustomerListResponse
}

// OverviewOutput wraps the dashboard overview for Huma.
type OverviewOutput struct {
	Body *store.Overview
}

// OptionsOutput wraps the form options for Huma.
type OptionsOutput struct {
	Body options.Options
}

// SearchInput carries the search query and filters.
type SearchInput struct {
	Query  string `query:"q" doc:"Search text"`
	Status string `query:"status" doc:"Exact status filter"`
	Size   string `query:"size" doc:"Exact size filter"`
	Limit  int    `query:"limit" doc:"Max hits, default 20"`
	Offset int    `query:"offset" doc:"Hits to skip"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body *search.Result
}

// === Handlers ===

func (s *Server) handleListProducts(ctx context.Context, input *ListInput) (*ProductListOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	params := store.PaginationParams{Limit: input.Limit, Cursor: input.Cursor}
	params.Validate()

	products, next, err := s.store.ListProducts(ctx, params)
	if err != nil {
		return nil, err
	}

	return &ProductListOutput{Body: ProductListResponse{
		Products:   products,
		NextCursor: next,
	}}, nil
}

func (s *Server) handleGetProduct(ctx context.Context, input *ProductInput) (*ProductOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	product, err := s.store.GetProduct(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &ProductOutput{Body: product}, nil
}

func (s *Server) handleDeleteProduct(ctx context.Context, input *ProductInput) (*MessageOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	product, err := s.store.GetProduct(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteProduct(ctx, input.ID); err != nil {
		return nil, err
	}
	if product.ImageID != "" {
		if err := s.imageStorage.Delete(product.ImageID); err != nil {
			s.logger.Warn("failed to delete product image",
				"product_id", input.ID, "image_id", product.ImageID, "error", err)
		}
	}

	return &MessageOutput{Body: MessageResponse{Message: "Product deleted"}}, nil
}

func (s *Server) handleListOrders(ctx context.Context, input *ListInput) (*OrderListOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	params := store.PaginationParams{Limit: input.Limit, Cursor: input.Cursor}
	params.Validate()

	orders, next, err := s.store.Orders.List(ctx, params)
	if err != nil {
		return nil, err
	}

	return &OrderListOutput{Body: OrderListResponse{
		Orders:     orders,
		NextCursor: next,
	}}, nil
}

func (s *Server) handleGetOrder(ctx context.Context, input *OrderInput) (*OrderOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	order, err := s.store.Orders.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &OrderOutput{Body: order}, nil
}

func (s *Server) handleListCustomers(ctx context.Context, input *ListInput) (*CustomerListOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	params := store.PaginationParams{Limit: input.Limit, Cursor: input.Cursor}
	params.Validate()

	customers, next, err := s.store.Customers.List(ctx, params)
	if err != nil {
		return nil, err
	}

	return &CustomerListOutput{Body: CustomerListResponse{
		Customers:  customers,
		NextCursor: next,
	}}, nil
}

func (s *Server) handleGetOverview(ctx context.Context, _ *struct{}) (*OverviewOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	overview, err := s.store.Overview(ctx)
	if err != nil {
		return nil, err
	}

	return &OverviewOutput{Body: overview}, nil
}

func (s *Server) handleGetOptions(ctx context.Context, _ *struct{}) (*OptionsOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	return &OptionsOutput{Body: s.options.Fetch(ctx)}, nil
}

func (s *Server) handleSearchProducts(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	result, err := s.search.Search(ctx, search.Params{
		Query:  input.Query,
		Status: input.Status,
		Size:   input.Size,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, err
	}

	return &SearchOutput{Body: result}, nil
}
