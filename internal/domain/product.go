// Package domain contains the core types for the bouquet catalog.
package domain

import "time"

// Status describes product availability.
type Status string

// Product availability states.
const (
	StatusReady    Status = "ready"
	StatusPreorder Status = "preorder"
)

// ValidStatus reports whether s is a known availability state.
func ValidStatus(s string) bool {
	return s == string(StatusReady) || s == string(StatusPreorder)
}

// BaseSizes is the closed set of bouquet sizes every shop starts with.
// Shops may carry extra sizes on top of these via the options source.
var BaseSizes = []string{"Small", "Medium", "Large", "Extra Large"}

// Product is a bouquet listing in the catalog.
type Product struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	Price            float64   `json:"price"`
	Type             string    `json:"type,omitempty"`
	Size             string    `json:"size"`
	Status           Status    `json:"status"`
	CollectionName   string    `json:"collection_name,omitempty"`
	Quantity         int       `json:"quantity"`
	CareInstructions string    `json:"care_instructions,omitempty"`
	Occasions        []string  `json:"occasions,omitempty"`
	Flowers          []string  `json:"flowers,omitempty"`
	IsNewEdition     bool      `json:"is_new_edition"`
	IsFeatured       bool      `json:"is_featured"`
	Penanda          []string  `json:"penanda,omitempty"`
	ImageID          string    `json:"image_id,omitempty"`
	BlurHash         string    `json:"blur_hash,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
