package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a catalog search.
type Params struct {
	Query string

	// Filters
	Status string // exact status filter, empty = all
	Size   string // exact size filter, empty = all

	// Pagination
	Limit  int
	Offset int
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{Limit: 20}
}

// Result holds the search response.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit is a single matching product.
type Hit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Name       string            `json:"name"`
	Collection string            `json:"collection,omitempty"`
	Size       string            `json:"size,omitempty"`
	Status     string            `json:"status,omitempty"`
	Price      float64           `json:"price,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search executes a query against the product index.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 20
	}

	searchRequest := bleve.NewSearchRequestOptions(
		buildSearchQuery(params), params.Limit, params.Offset, false)

	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.AddField("name")
	searchRequest.Highlight.AddField("collection")

	searchRequest.Fields = []string{"id", "name", "collection", "size", "status", "price"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		h := Hit{ID: hit.ID, Score: hit.Score}

		if n, ok := hit.Fields["name"].(string); ok {
			h.Name = n
		}
		if c, ok := hit.Fields["collection"].(string); ok {
			h.Collection = c
		}
		if sz, ok := hit.Fields["size"].(string); ok {
			h.Size = sz
		}
		if st, ok := hit.Fields["status"].(string); ok {
			h.Status = st
		}
		if p, ok := hit.Fields["price"].(float64); ok {
			h.Price = p
		}

		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query. Text matches span name,
// collection, description, occasions, and flowers, with name boosted;
// a fuzzy and a prefix variant on name cover typos and autocomplete.
func buildSearchQuery(params Params) query.Query {
	var queries []query.Query

	if params.Query != "" {
		textQueries := []query.Query{}

		nameMatch := bleve.NewMatchQuery(params.Query)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)
		textQueries = append(textQueries, nameMatch)

		collectionMatch := bleve.NewMatchQuery(params.Query)
		collectionMatch.SetField("collection")
		collectionMatch.SetBoost(1.5)
		textQueries = append(textQueries, collectionMatch)

		for _, field := range []string{"description", "occasions", "flowers"} {
			m := bleve.NewMatchQuery(params.Query)
			m.SetField(field)
			textQueries = append(textQueries, m)
		}

		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("name")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("name")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.Status != "" {
		tq := bleve.NewTermQuery(params.Status)
		tq.SetField("status")
		queries = append(queries, tq)
	}
	if params.Size != "" {
		tq := bleve.NewTermQuery(params.Size)
		tq.SetField("size")
		queries = append(queries, tq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
