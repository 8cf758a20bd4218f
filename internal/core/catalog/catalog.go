// Package catalog contains the pure business logic for the item catalog
// and the BOM graph. This is part of the Functional Core - no I/O, only
// pure functions.
package catalog

import "errors"

// ErrBOMCycle indicates the BOM edges contain a cycle. The catalog is
// supposed to be a DAG; a cycle is a data integrity defect, not a
// retryable condition.
var ErrBOMCycle = errors.New("bom contains a cycle")

// ItemKind represents the level of an item in the assembly chain.
type ItemKind string

const (
	KindProduct ItemKind = "product"
	KindModule  ItemKind = "module"
	KindPart    ItemKind = "part"
)

// IsValid reports whether the kind is one of the known item kinds.
func (k ItemKind) IsValid() bool {
	switch k {
	case KindProduct, KindModule, KindPart:
		return true
	}
	return false
}

// ChildKind returns the kind an item of this kind is composed of:
// products of modules, modules of parts. Parts have no children.
func (k ItemKind) ChildKind() (ItemKind, bool) {
	switch k {
	case KindProduct:
		return KindModule, true
	case KindModule:
		return KindPart, true
	}
	return "", false
}

// AllKinds returns the item kinds ordered from finished to raw.
func AllKinds() []ItemKind {
	return []ItemKind{KindProduct, KindModule, KindPart}
}
