package search_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomeryapp/bloomery-admin/internal/domain"
	"github.com/bloomeryapp/bloomery-admin/internal/search"
)

func setupIndex(t *testing.T) (*search.Index, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "search-test-*")
	require.NoError(t, err)

	idx, err := search.NewIndex(search.Options{DataPath: tmpDir})
	require.NoError(t, err)

	return idx, func() {
		_ = idx.Close()
		_ = os.RemoveAll(tmpDir)
	}
}

func indexProduct(t *testing.T, idx *search.Index, p *domain.Product) {
	t.Helper()
	p.UpdatedAt = time.Now()
	require.NoError(t, idx.IndexProduct(context.Background(), p))
}

func TestSearch_MatchesName(t *testing.T) {
	idx, cleanup := setupIndex(t)
	defer cleanup()

	indexProduct(t, idx, &domain.Product{
		ID: "p1", Name: "Rose Bundle", Size: "Medium", Status: domain.StatusReady, Price: 150000,
	})
	indexProduct(t, idx, &domain.Product{
		ID: "p2", Name: "Sunflower Crate", Size: "Large", Status: domain.StatusReady, Price: 90000,
	})

	result, err := idx.Search(context.Background(), search.Params{Query: "rose", Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, result.Total)
	assert.Equal(t, "p1", result.Hits[0].ID)
	assert.Equal(t, "Rose Bundle", result.Hits[0].Name)
}

func TestSearch_MatchesFlowersAndCollection(t *testing.T) {
	idx, cleanup := setupIndex(t)
	defer cleanup()

	indexProduct(t, idx, &domain.Product{
		ID: "p1", Name: "Morning Dew", CollectionName: "Best Sellers",
		Flowers: []string{"Peony", "Tulip"}, Size: "Small", Status: domain.StatusReady,
	})

	result, err := idx.Search(context.Background(), search.Params{Query: "peony", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Total)

	result, err = idx.Search(context.Background(), search.Params{Query: "best sellers", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Total)
}

func TestSearch_StatusFilter(t *testing.T) {
	idx, cleanup := setupIndex(t)
	defer cleanup()

	indexProduct(t, idx, &domain.Product{
		ID: "p1", Name: "Rose Bundle", Size: "Medium", Status: domain.StatusReady,
	})
	indexProduct(t, idx, &domain.Product{
		ID: "p2", Name: "Rose Crown", Size: "Medium", Status: domain.StatusPreorder,
	})

	result, err := idx.Search(context.Background(), search.Params{
		Query: "rose", Status: "preorder", Limit: 10,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, result.Total)
	assert.Equal(t, "p2", result.Hits[0].ID)
}

func TestSearch_EmptyQueryMatchesAll(t *testing.T) {
	idx, cleanup := setupIndex(t)
	defer cleanup()

	indexProduct(t, idx, &domain.Product{ID: "p1", Name: "A", Status: domain.StatusReady})
	indexProduct(t, idx, &domain.Product{ID: "p2", Name: "B", Status: domain.StatusReady})

	result, err := idx.Search(context.Background(), search.Params{Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.Total)
}

func TestSearch_DeleteProduct(t *testing.T) {
	idx, cleanup := setupIndex(t)
	defer cleanup()

	indexProduct(t, idx, &domain.Product{ID: "p1", Name: "Rose Bundle", Status: domain.StatusReady})
	require.NoError(t, idx.DeleteProduct(context.Background(), "p1"))

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSearch_Rebuild(t *testing.T) {
	idx, cleanup := setupIndex(t)
	defer cleanup()

	indexProduct(t, idx, &domain.Product{ID: "p1", Name: "Rose Bundle", Status: domain.StatusReady})
	require.NoError(t, idx.Rebuild())

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)

	// The rebuilt index accepts writes again.
	indexProduct(t, idx, &domain.Product{ID: "p2", Name: "Lily Pond", Status: domain.StatusReady})
	count, err = idx.DocumentCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
