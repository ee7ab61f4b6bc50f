package form

import "github.com/bloomeryapp/bloomery-admin/internal/domain"

// isDirty reports whether current differs from the last-saved snapshot.
// List fields compare by normalized content, so a nil list equals an
// empty one. A staged file forces dirtiness unconditionally.
func isDirty(current, initial domain.FormState, hasFile bool) bool {
	if hasFile {
		return true
	}
	if current.Name != initial.Name ||
		current.Description != initial.Description ||
		current.Price != initial.Price ||
		current.Type != initial.Type ||
		current.Size != initial.Size ||
		current.Status != initial.Status ||
		current.CollectionName != initial.CollectionName ||
		current.Quantity != initial.Quantity ||
		current.CareInstructions != initial.CareInstructions ||
		current.IsNewEdition != initial.IsNewEdition ||
		current.IsFeatured != initial.IsFeatured {
		return true
	}
	return !listsEqual(current.Occasions, initial.Occasions) ||
		!listsEqual(current.Flowers, initial.Flowers) ||
		!listsEqual(current.Penanda, initial.Penanda)
}

func listsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
