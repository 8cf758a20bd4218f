// Package catalog contains the pure business logic for the item catalog
// and the BOM graph. This is part of the Functional Core - no I/O, only
// pure functions.
package catalog

import "fmt"

// IDPrefix returns the item ID prefix for a kind: PRD for products,
// MOD for modules, PRT for parts.
func (k ItemKind) IDPrefix() string {
	switch k {
	case KindProduct:
		return "PRD"
	case KindModule:
		return "MOD"
	case KindPart:
		return "PRT"
	default:
		return ""
	}
}

// FormatItemID generates an item ID from the current max for the kind.
// The format is PREFIX-XXX where XXX is a zero-padded 3-digit number,
// e.g. PRD-001 for the first product.
func FormatItemID(kind ItemKind, currentMax int) string {
	return fmt.Sprintf("%s-%03d", kind.IDPrefix(), currentMax+1)
}

// ParseItemID extracts the numeric portion from an item ID of the given
// kind. Returns -1 if the ID does not match the kind's format.
func ParseItemID(kind ItemKind, id string) int {
	var num int
	_, err := fmt.Sscanf(id, kind.IDPrefix()+"-%d", &num)
	if err != nil {
		return -1
	}
	return num
}
