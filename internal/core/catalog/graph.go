package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Edge is one BOM composition edge: building one unit of the parent
// consumes QtyPer units of the child.
type Edge struct {
	ParentID   string
	ParentKind ItemKind
	ChildID    string
	ChildKind  ItemKind
	QtyPer     int64
}

// ChildrenByParent groups edges by parent item id. Edge order within a
// parent is preserved from the input.
func ChildrenByParent(edges []Edge) map[string][]Edge {
	children := make(map[string][]Edge, len(edges))
	for _, e := range edges {
		children[e.ParentID] = append(children[e.ParentID], e)
	}
	return children
}

// CheckAcyclic walks the BOM graph and returns ErrBOMCycle (with the
// offending path in the message) if any item can reach itself. Iterative
// DFS with an explicit stack; the graph is assumed small but the walk is
// bounded regardless.
func CheckAcyclic(edges []Edge) error {
	children := ChildrenByParent(edges)

	parents := make([]string, 0, len(children))
	for id := range children {
		parents = append(parents, id)
	}
	sort.Strings(parents)

	const (
		unvisited = 0
		onPath    = 1
		done      = 2
	)
	state := make(map[string]int)

	for _, start := range parents {
		if state[start] != unvisited {
			continue
		}

		// Each stack frame tracks how many children remain to expand so the
		// node can be finished once exhausted.
		type frame struct {
			id   string
			next int
		}
		stack := []frame{{id: start}}
		state[start] = onPath

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := children[top.id]

			if top.next >= len(kids) {
				state[top.id] = done
				stack = stack[:len(stack)-1]
				continue
			}

			child := kids[top.next].ChildID
			top.next++

			switch state[child] {
			case onPath:
				path := make([]string, 0, len(stack)+1)
				for _, f := range stack {
					path = append(path, f.id)
				}
				path = append(path, child)
				return fmt.Errorf("%w: %s", ErrBOMCycle, strings.Join(path, " -> "))
			case unvisited:
				state[child] = onPath
				stack = append(stack, frame{id: child})
			}
		}
	}

	return nil
}

// RolledUpCost computes the full material cost of one unit of an item:
// the item's own unit cost plus the qty-weighted rolled-up cost of each
// BOM child. For a part this is just its unit cost; for assembled items
// the own unit cost covers any value added at that level.
func RolledUpCost(itemID string, unitCosts map[string]decimal.Decimal, edges []Edge) (decimal.Decimal, error) {
	if err := CheckAcyclic(edges); err != nil {
		return decimal.Zero, err
	}

	children := ChildrenByParent(edges)
	memo := make(map[string]decimal.Decimal)

	var roll func(id string) decimal.Decimal
	roll = func(id string) decimal.Decimal {
		if cost, ok := memo[id]; ok {
			return cost
		}
		total := unitCosts[id]
		for _, e := range children[id] {
			total = total.Add(roll(e.ChildID).Mul(decimal.NewFromInt(e.QtyPer)))
		}
		memo[id] = total
		return total
	}

	return roll(itemID), nil
}
