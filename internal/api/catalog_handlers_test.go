package api

import (
	"encoding/json/v2"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomeryapp/bloomery-admin/internal/domain"
	"github.com/bloomeryapp/bloomery-admin/internal/store"
)

type productJSON struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Size   string  `json:"size"`
	Status string  `json:"status"`
}

type productListJSON struct {
	Products   []productJSON `json:"products"`
	NextCursor string        `json:"next_cursor"`
}

func TestListProducts(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.login(t)

	seedProduct(t, ts, "prod_aaa1", "Peony Parade")
	seedProduct(t, ts, "prod_aaa2", "Tulip Trio")

	resp := ts.api.Get("/api/v1/products", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[productListJSON]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	assert.Len(t, envelope.Data.Products, 2)
	assert.Empty(t, envelope.Data.NextCursor)
}

func TestListProducts_Pagination(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.login(t)

	seedProduct(t, ts, "prod_pg1", "Rose Dozen")
	seedProduct(t, ts, "prod_pg2", "Lily Cluster")
	seedProduct(t, ts, "prod_pg3", "Sunflower Bunch")

	resp := ts.api.Get("/api/v1/products?limit=2", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var first testEnvelope[productListJSON]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &first))
	require.Len(t, first.Data.Products, 2)
	require.NotEmpty(t, first.Data.NextCursor)

	resp = ts.api.Get("/api/v1/products?limit=2&cursor="+first.Data.NextCursor,
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var second testEnvelope[productListJSON]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &second))
	assert.Len(t, second.Data.Products, 1)
	assert.Empty(t, second.Data.NextCursor)
}

func TestGetProduct(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.login(t)

	seedProduct(t, ts, "prod_get1", "Orchid Pot")

	resp := ts.api.Get("/api/v1/products/prod_get1", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[productJSON]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, "Orchid Pot", envelope.Data.Name)
	assert.Equal(t, "ready", envelope.Data.Status)
}

func TestGetProduct_NotFound(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.login(t)

	resp := ts.api.Get("/api/v1/products/prod_missing", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteProduct(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.login(t)

	seedProduct(t, ts, "prod_del1", "Daisy Bowl")

	resp := ts.api.Delete("/api/v1/products/prod_del1", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/products/prod_del1", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	_, err := ts.store.GetProduct(t.Context(), "prod_del1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListOrders(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.login(t)

	err := ts.store.Orders.Create(t.Context(), "ord_aaa1", &domain.Order{
		ID:         "ord_aaa1",
		CustomerID: "cust_aaa1",
		Items:      []domain.OrderItem{{ProductID: "prod_x", Quantity: 2, UnitPrice: 30}},
		Total:      60,
		Status:     domain.OrderPending,
		CreatedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)

	resp := ts.api.Get("/api/v1/orders", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[struct {
		Orders []struct {
			ID     string  `json:"id"`
			Total  float64 `json:"total"`
			Status string  `json:"status"`
		} `json:"orders"`
	}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Orders, 1)
	assert.Equal(t, "ord_aaa1", envelope.Data.Orders[0].ID)
	assert.Equal(t, "pending", envelope.Data.Orders[0].Status)
}

func TestGetOrder_NotFound(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.login(t)

	resp := ts.api.Get("/api/v1/orders/ord_missing", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListCustomers(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.login(t)

	err := ts.store.Customers.Create(t.Context(), "cust_aaa1", &domain.Customer{
		ID:    "cust_aaa1",
		Name:  "Maya Chen",
		Email: "maya@example.com",
	})
	require.NoError(t, err)

	resp := ts.api.Get("/api/v1/customers", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[struct {
		Customers []struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"customers"`
	}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Customers, 1)
	assert.Equal(t, "Maya Chen", envelope.Data.Customers[0].Name)
}

func TestMetricsOverview(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.login(t)

	seedProduct(t, ts, "prod_m1", "Carnation Jar")
	err := ts.store.Orders.Create(t.Context(), "ord_m1", &domain.Order{
		ID:     "ord_m1",
		Total:  45,
		Status: domain.OrderDelivered,
	})
	require.NoError(t, err)

	resp := ts.api.Get("/api/v1/metrics/overview", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[struct {
		ProductCount int     `json:"product_count"`
		OrderCount   int     `json:"order_count"`
		Revenue      float64 `json:"revenue"`
	}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.ProductCount)
	assert.Equal(t, 1, envelope.Data.OrderCount)
	assert.InDelta(t, 45, envelope.Data.Revenue, 0.001)
}

func TestFormOptions(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.login(t)

	resp := ts.api.Get("/api/v1/options", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[struct {
		Sizes     []string `json:"sizes"`
		Occasions []string `json:"occasions"`
	}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, domain.BaseSizes, envelope.Data.Sizes)
	assert.NotEmpty(t, envelope.Data.Occasions)
}

func TestSearchProducts(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.login(t)

	seedProduct(t, ts, "prod_s1", "Peony Parade")
	seedProduct(t, ts, "prod_s2", "Tulip Trio")

	resp := ts.api.Get("/api/v1/search?q=peony", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope testEnvelope[struct {
		Total uint64 `json:"total"`
		Hits  []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"hits"`
	}]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.EqualValues(t, 1, envelope.Data.Total)
	assert.Equal(t, "prod_s1", envelope.Data.Hits[0].ID)
}

func TestSearchProducts_StatusFilter(t *testing.T) {
	ts := setupTestServer(t)
	token := ts.login(t)

	seedProduct(t, ts, "prod_f1", "Rose Dozen")
	err := ts.store.CreateProduct(t.Context(), &domain.Product{
		ID:     "prod_f2",
		Name:   "Rose Bundle",
		Price:  40,
		Size:   "Medium",
		Status: domain.StatusPreorder,
	})
	require.NoError(t, err)

	var envelope testEnvelope[struct {
		Hits []struct {
			ID string `json:"id"`
		} `json:"hits"`
	}]
	// The store indexes for search asynchronously, so poll until the
	// write is visible before asserting on the hit.
	require.Eventually(t, func() bool {
		resp := ts.api.Get("/api/v1/search?q=rose&status=preorder",
			"Authorization: Bearer "+token)
		if resp.Code != http.StatusOK {
			return false
		}
		envelope = testEnvelope[struct {
			Hits []struct {
				ID string `json:"id"`
			} `json:"hits"`
		}]{}
		if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
			return false
		}
		return len(envelope.Data.Hits) == 1
	}, time.Second, 10*time.Millisecond)
	require.Len(t, envelope.Data.Hits, 1)
	assert.Equal(t, "prod_f2", envelope.Data.Hits[0].ID)
}
