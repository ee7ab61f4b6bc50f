package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for product documents:
// full-text search with English stemming on name/description, exact
// keyword matching for status/size filters, and numeric range queries
// for price.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// Name is the primary search target.
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Description is searchable but not stored.
	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	collectionFieldMapping := bleve.NewTextFieldMapping()
	collectionFieldMapping.Analyzer = en.AnalyzerName
	collectionFieldMapping.Store = true
	collectionFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("collection", collectionFieldMapping)

	occasionsFieldMapping := bleve.NewTextFieldMapping()
	occasionsFieldMapping.Analyzer = en.AnalyzerName
	occasionsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("occasions", occasionsFieldMapping)

	flowersFieldMapping := bleve.NewTextFieldMapping()
	flowersFieldMapping.Analyzer = en.AnalyzerName
	flowersFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("flowers", flowersFieldMapping)

	// Penanda tags are compound user slugs; keyword keeps them intact.
	penandaFieldMapping := bleve.NewTextFieldMapping()
	penandaFieldMapping.Analyzer = keyword.Name
	penandaFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("penanda", penandaFieldMapping)

	// Exact-match filter fields.
	for _, field := range []string{"id", "type", "size", "status"} {
		fieldMapping := bleve.NewTextFieldMapping()
		fieldMapping.Analyzer = keyword.Name
		fieldMapping.Store = true
		docMapping.AddFieldMappingsAt(field, fieldMapping)
	}

	priceFieldMapping := bleve.NewNumericFieldMapping()
	priceFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("price", priceFieldMapping)

	updatedAtFieldMapping := bleve.NewNumericFieldMapping()
	updatedAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
