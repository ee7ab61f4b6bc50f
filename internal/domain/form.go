package domain

import (
	"slices"
	"strings"
)

// Mode distinguishes the create ("uploader") and edit ("editor") form
// variants.
type Mode string

// Form modes.
const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Form field names. These are the keys used by the per-field error map,
// touched-field tracking, and the outbound payload.
const (
	FieldName             = "name"
	FieldDescription      = "description"
	FieldPrice            = "price"
	FieldType             = "type"
	FieldSize             = "size"
	FieldStatus           = "status"
	FieldCollectionName   = "collectionName"
	FieldQuantity         = "quantity"
	FieldCareInstructions = "careInstructions"
	FieldOccasionsText    = "occasionsText"
	FieldFlowersText      = "flowersText"
	FieldIsNewEdition     = "isNewEdition"
	FieldIsFeatured       = "isFeatured"

	// FieldNewPenanda keys errors from the tag-add widget; the staged
	// input itself is transient.
	FieldNewPenanda = "newPenanda"

	// FieldImage keys errors from the image ingestion pipeline.
	FieldImage = "image"
)

// Form field limits shared by the validator, the controller, and the
// draft store.
const (
	MaxOccasions = 10
	MaxFlowers   = 20
	MaxPenanda   = 10
	MaxQuantity  = 100000
	MaxPrice     = 1e9
)

// FormState is the authoritative in-memory state of a product form.
// The create variant starts from Defaults; the edit variant is seeded
// from an existing Product via FromProduct.
type FormState struct {
	// ID is present only in edit mode and is immutable once set.
	ID string `json:"id,omitempty"`

	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Price            float64 `json:"price"`
	Type             string  `json:"type"`
	Size             string  `json:"size"`
	Status           string  `json:"status"`
	CollectionName   string  `json:"collection_name"`
	Quantity         int     `json:"quantity"`
	CareInstructions string  `json:"care_instructions"`

	Occasions []string `json:"occasions"`
	Flowers   []string `json:"flowers"`

	// CSV mirrors of the list fields, kept for manual entry compatibility.
	OccasionsText string `json:"occasions_text"`
	FlowersText   string `json:"flowers_text"`

	IsNewEdition bool `json:"is_new_edition"`
	IsFeatured   bool `json:"is_featured"`

	// Penanda are the custom tags, unique case-insensitively, at most
	// MaxPenanda entries.
	Penanda []string `json:"penanda"`

	// NewPenandaInput is the staging value for the tag-add widget.
	// It is transient and never persisted or submitted.
	NewPenandaInput string `json:"-"`
}

// Defaults returns a blank create-mode form.
func Defaults() FormState {
	return FormState{
		Status:    string(StatusReady),
		Occasions: []string{},
		Flowers:   []string{},
		Penanda:   []string{},
	}
}

// FromProduct seeds an edit-mode form from an existing product record.
func FromProduct(p *Product) FormState {
	return FormState{
		ID:               p.ID,
		Name:             p.Name,
		Description:      p.Description,
		Price:            p.Price,
		Type:             p.Type,
		Size:             p.Size,
		Status:           string(p.Status),
		CollectionName:   p.CollectionName,
		Quantity:         p.Quantity,
		CareInstructions: p.CareInstructions,
		Occasions:        slices.Clone(p.Occasions),
		Flowers:          slices.Clone(p.Flowers),
		OccasionsText:    strings.Join(p.Occasions, ", "),
		FlowersText:      strings.Join(p.Flowers, ", "),
		IsNewEdition:     p.IsNewEdition,
		IsFeatured:       p.IsFeatured,
		Penanda:          slices.Clone(p.Penanda),
	}
}

// Clone returns a deep copy of the form. Used for the last-saved snapshot
// that dirtiness is computed against.
func (f FormState) Clone() FormState {
	c := f
	c.Occasions = slices.Clone(f.Occasions)
	c.Flowers = slices.Clone(f.Flowers)
	c.Penanda = slices.Clone(f.Penanda)
	return c
}

// HasAnyInput reports whether the user has entered anything worth drafting.
func (f FormState) HasAnyInput() bool {
	return f.Name != "" || f.Description != "" || f.Price > 0 ||
		f.Type != "" || f.Size != "" || f.CollectionName != "" ||
		f.Quantity > 0 || f.CareInstructions != "" ||
		len(f.Occasions) > 0 || len(f.Flowers) > 0 ||
		f.OccasionsText != "" || f.FlowersText != "" ||
		len(f.Penanda) > 0 || f.IsNewEdition || f.IsFeatured
}

// SplitList splits a comma- or newline-separated mirror field into
// trimmed, non-empty items.
func SplitList(text string) []string {
	items := []string{}
	for _, part := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n'
	}) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
