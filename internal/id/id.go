// Package id generates prefixed unique identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes used across the catalog.
const (
	PrefixProduct  = "prod"
	PrefixSession  = "sess"
	PrefixOrder    = "ord"
	PrefixCustomer = "cust"
)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "prod-V1StGXR8_Z5jdHi6B-myT").
//
// NanoIDs are URL-friendly, compact (21 characters vs UUID's 36),
// and use a larger alphabet for better entropy per character.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Use this only when failure should crash the program (e.g., during
// initialization) or when system entropy is known to be available.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
