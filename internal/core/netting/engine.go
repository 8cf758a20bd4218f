package netting

import (
	"fmt"
	"strings"

	"github.com/example/brickline/internal/core/catalog"
)

// Net nets a single demand against the snapshot. The caller's snapshot is
// not mutated.
func Net(snap Snapshot, demand Demand) (*Result, error) {
	plan, err := NetAll(snap, []Demand{demand})
	if err != nil {
		return nil, err
	}
	return plan.Results[0], nil
}

// NetAll nets demands in order against one snapshot. Stock allocated to an
// earlier demand is not available to later ones, so two lines competing for
// the same stock never double-count it. The caller's snapshot is not
// mutated. Any hard shortage or catalog defect aborts the whole plan.
func NetAll(snap Snapshot, demands []Demand) (*Plan, error) {
	working := snap.clone()
	plan := &Plan{Tag: TagDirect}

	for _, demand := range demands {
		result, err := netOne(working, demand)
		if err != nil {
			return nil, err
		}
		plan.Results = append(plan.Results, result)
		plan.Tag = worse(plan.Tag, result.Tag)
	}

	return plan, nil
}

// workItem is one pending node expansion. The path carries the item ids
// from the root down to the node for cycle detection.
type workItem struct {
	node *Node
	path []string
}

// netOne explodes a single demand, consuming stock from the working
// snapshot as it allocates coverage. Explicit worklist rather than
// recursion: depth is bounded by the walk and cycles are detected on the
// path even though the catalog is supposed to be acyclic.
func netOne(working Snapshot, demand Demand) (*Result, error) {
	if demand.Quantity <= 0 {
		return nil, fmt.Errorf("%w: got %d of %s", ErrInvalidQuantity, demand.Quantity, demand.ItemID)
	}
	rootItem, ok := working.Items[demand.ItemID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownItem, demand.ItemID)
	}

	root := &Node{
		ItemID:   rootItem.ID,
		ItemName: rootItem.Name,
		Kind:     rootItem.Kind,
		Required: demand.Quantity,
	}

	stack := []workItem{{node: root, path: []string{root.ItemID}}}

	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := w.node

		// Draw stock: the target station first for the root (local stock
		// means no movement), the holding station first for children.
		remaining := n.Required
		for _, station := range drawStations(working, n.Kind, demand.StationID, n == root) {
			if remaining == 0 {
				break
			}
			available := working.onHand(station, n.ItemID)
			if available <= 0 {
				continue
			}
			take := min(available, remaining)
			working.take(station, n.ItemID, take)
			n.Coverage = append(n.Coverage, Cover{StationID: station, Quantity: take})
			remaining -= take
		}
		n.Covered = n.Required - remaining
		n.Net = remaining

		if n.Net == 0 {
			n.Tag = TagDirect
			continue
		}

		children := working.BOM[n.ItemID]
		if len(children) == 0 {
			if !working.Items[n.ItemID].Procurable {
				return nil, fmt.Errorf("%w: %s needs %d more", ErrHardShortage, n.ItemID, n.Net)
			}
			n.Tag = TagProduction
			continue
		}

		n.Tag = TagProduction
		for _, line := range children {
			for _, seen := range w.path {
				if seen == line.ChildID {
					cycle := strings.Join(append(append([]string{}, w.path...), line.ChildID), " -> ")
					return nil, fmt.Errorf("%w: %s", catalog.ErrBOMCycle, cycle)
				}
			}
			childItem, ok := working.Items[line.ChildID]
			if !ok {
				return nil, fmt.Errorf("%w: %s (component of %s)", ErrUnknownItem, line.ChildID, n.ItemID)
			}
			child := &Node{
				ItemID:   childItem.ID,
				ItemName: childItem.Name,
				Kind:     childItem.Kind,
				Required: line.QtyPer * n.Net,
			}
			n.Children = append(n.Children, child)
			childPath := append(append([]string{}, w.path...), line.ChildID)
			stack = append(stack, workItem{node: child, path: childPath})
		}
	}

	tag := classify(root, demand.StationID)
	root.Tag = tag
	return &Result{Root: root, Tag: tag}, nil
}

// drawStations returns the stations a node may draw stock from, in draw
// order: the kind's holding station and the demand's target station.
func drawStations(s Snapshot, kind catalog.ItemKind, targetStationID string, isRoot bool) []string {
	holding := s.Holding[kind]
	if holding == "" || holding == targetStationID {
		return []string{targetStationID}
	}
	if isRoot {
		return []string{targetStationID, holding}
	}
	return []string{holding, targetStationID}
}

// classify derives the overall tag for a netted tree:
//   - any unmet net below the root, or on a childless root, means new
//     production or procurement is required;
//   - a root net pushed entirely onto covered children, or root coverage
//     drawn off-target, is an upstream transfer;
//   - otherwise the target station's own stock covers the demand.
func classify(root *Node, targetStationID string) Tag {
	production := false
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.Net > 0 && (n != root || len(n.Children) == 0) {
			production = true
		}
		stack = append(stack, n.Children...)
	}

	if production {
		return TagProduction
	}
	if root.Net > 0 {
		return TagUpstream
	}
	if root.CoveredAt(targetStationID) < root.Covered {
		return TagUpstream
	}
	return TagDirect
}
