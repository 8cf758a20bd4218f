// Package order contains the pure business logic for order lifecycles.
// This is part of the Functional Core - no I/O, only pure functions.
package order

import "fmt"

// FormatNumber generates a human order number from the current max for the
// kind. The format is PREFIX-XXX where XXX is a zero-padded 3-digit
// number, e.g. CO-001 for the first customer order.
func FormatNumber(kind OrderKind, currentMax int) string {
	return fmt.Sprintf("%s-%03d", kind.NumberPrefix(), currentMax+1)
}

// ParseNumber extracts the numeric portion from an order number of the
// given kind. Returns -1 if the number does not match the kind's format.
func ParseNumber(kind OrderKind, number string) int {
	var num int
	_, err := fmt.Sscanf(number, kind.NumberPrefix()+"-%d", &num)
	if err != nil {
		return -1
	}
	return num
}
