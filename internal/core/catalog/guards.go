package catalog

import "fmt"

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // Human-readable reason (populated when not allowed)
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// EdgeContext provides the pre-fetched context for BOM edge guards.
type EdgeContext struct {
	ParentID   string
	ParentKind ItemKind
	ChildID    string
	ChildKind  ItemKind
	QtyPer     int64
	EdgeExists bool
}

// CanAddEdge evaluates whether a BOM edge may be added.
// Rules: edges step exactly one level down the chain (product->module,
// module->part), quantity is positive, and the edge is not a duplicate.
func CanAddEdge(ctx EdgeContext) GuardResult {
	if ctx.QtyPer <= 0 {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("quantity per parent must be positive, got %d", ctx.QtyPer),
		}
	}
	want, ok := ctx.ParentKind.ChildKind()
	if !ok {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("%s items cannot have BOM children", ctx.ParentKind),
		}
	}
	if ctx.ChildKind != want {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("a %s is composed of %ss, not %ss", ctx.ParentKind, want, ctx.ChildKind),
		}
	}
	if ctx.ParentID == ctx.ChildID {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("item %s cannot be its own component", ctx.ParentID),
		}
	}
	if ctx.EdgeExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("BOM edge %s -> %s already exists", ctx.ParentID, ctx.ChildID),
		}
	}
	return GuardResult{Allowed: true}
}
