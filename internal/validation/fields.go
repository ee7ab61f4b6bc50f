// Package validation provides the pure field rules for the product form and
// a request-body validator for the HTTP layer.
package validation

import (
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/bloomeryapp/bloomery-admin/internal/domain"
)

// Field length limits.
const (
	NameMin             = 2
	NameMax             = 100
	DescriptionMax      = 500
	CollectionMax       = 100
	CareInstructionsMax = 300
	PenandaMin          = 2
	PenandaMax          = 30
)

// fold is used for case-insensitive penanda uniqueness.
var fold = cases.Fold()

// Field validates a single form field against its rule, returning a
// human-readable message or "" when the value is acceptable.
// Unknown field names validate clean; booleans have no rule.
func Field(name string, f *domain.FormState) string {
	switch name {
	case domain.FieldName:
		// Limits are character-denominated, so count runes, not bytes.
		trimmed := strings.TrimSpace(f.Name)
		if utf8.RuneCountInString(trimmed) < NameMin {
			return "Name must be at least 2 characters"
		}
		if utf8.RuneCountInString(trimmed) > NameMax {
			return "Name must not exceed 100 characters"
		}
	case domain.FieldDescription:
		if utf8.RuneCountInString(f.Description) > DescriptionMax {
			return "Description must not exceed 500 characters"
		}
	case domain.FieldPrice:
		if math.IsNaN(f.Price) || math.IsInf(f.Price, 0) {
			return "Price must be a valid number"
		}
		if f.Price <= 0 {
			return "Price must be greater than zero"
		}
		if f.Price > domain.MaxPrice {
			return "Price is unreasonably large"
		}
	case domain.FieldSize:
		if strings.TrimSpace(f.Size) == "" {
			return "Size is required"
		}
	case domain.FieldStatus:
		if !domain.ValidStatus(f.Status) {
			return "Status must be ready or preorder"
		}
	case domain.FieldCollectionName:
		if utf8.RuneCountInString(f.CollectionName) > CollectionMax {
			return "Collection name must not exceed 100 characters"
		}
	case domain.FieldQuantity:
		if f.Quantity < 0 {
			return "Quantity cannot be negative"
		}
		if f.Quantity > domain.MaxQuantity {
			return "Quantity must not exceed 100000"
		}
	case domain.FieldCareInstructions:
		if utf8.RuneCountInString(f.CareInstructions) > CareInstructionsMax {
			return "Care instructions must not exceed 300 characters"
		}
	case domain.FieldOccasionsText:
		if len(domain.SplitList(f.OccasionsText)) > domain.MaxOccasions {
			return "At most 10 occasions are allowed"
		}
	case domain.FieldFlowersText:
		if len(domain.SplitList(f.FlowersText)) > domain.MaxFlowers {
			return "At most 20 flowers are allowed"
		}
	}
	return ""
}

// Form validates the whole form for submit gating, short-circuiting on the
// first failing required field in priority order:
// name, price, size, status, then the penanda and list count caps.
func Form(f *domain.FormState) string {
	if msg := Field(domain.FieldName, f); msg != "" {
		return msg
	}
	if msg := Field(domain.FieldPrice, f); msg != "" {
		return msg
	}
	if msg := Field(domain.FieldSize, f); msg != "" {
		return msg
	}
	if msg := Field(domain.FieldStatus, f); msg != "" {
		return msg
	}
	if len(f.Penanda) > domain.MaxPenanda {
		return "At most 10 tags are allowed"
	}
	if msg := Field(domain.FieldOccasionsText, f); msg != "" {
		return msg
	}
	if msg := Field(domain.FieldFlowersText, f); msg != "" {
		return msg
	}
	return ""
}

// Penanda validates a single custom tag's format: trimmed length 2-30,
// no commas, letters/digits plus space, hyphen, ampersand, and apostrophe.
func Penanda(tag string) string {
	trimmed := strings.TrimSpace(tag)
	if utf8.RuneCountInString(trimmed) < PenandaMin {
		return "Tag must be at least 2 characters"
	}
	if utf8.RuneCountInString(trimmed) > PenandaMax {
		return "Tag must not exceed 30 characters"
	}
	if strings.ContainsRune(trimmed, ',') {
		return "Tag cannot contain commas"
	}
	for _, r := range trimmed {
		if !isPenandaRune(r) {
			return "Tag contains unsupported characters"
		}
	}
	return ""
}

// PenandaDuplicate reports whether tag already exists in the list,
// compared case-insensitively with Unicode case folding.
func PenandaDuplicate(tag string, existing []string) bool {
	folded := fold.String(strings.TrimSpace(tag))
	for _, e := range existing {
		if fold.String(e) == folded {
			return true
		}
	}
	return false
}

func isPenandaRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '-', r == '&', r == '\'':
		return true
	default:
		return false
	}
}
