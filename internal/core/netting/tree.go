package netting

import "github.com/example/brickline/internal/core/catalog"

// Tag classifies how a requirement is met.
type Tag string

const (
	// TagDirect - stock at the demand's own station covers the requirement.
	TagDirect Tag = "direct"

	// TagUpstream - covered in full, but only by drawing existing stock from
	// an upstream holding station. A transfer is needed, no production.
	TagUpstream Tag = "upstream_transfer"

	// TagProduction - some of the requirement must be newly produced or
	// procured.
	TagProduction Tag = "production_required"
)

// worse orders tags by severity: production > upstream > direct.
func worse(a, b Tag) Tag {
	rank := func(t Tag) int {
		switch t {
		case TagProduction:
			return 2
		case TagUpstream:
			return 1
		}
		return 0
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}

// Cover records stock drawn from one station.
type Cover struct {
	StationID string
	Quantity  int64
}

// Node is one requirement in the exploded netting tree.
type Node struct {
	ItemID   string
	ItemName string
	Kind     catalog.ItemKind
	Required int64
	Covered  int64
	Net      int64
	Coverage []Cover
	Tag      Tag
	Children []*Node
}

// CoveredAt returns how much of the node's coverage was drawn from the
// given station.
func (n *Node) CoveredAt(stationID string) int64 {
	var total int64
	for _, c := range n.Coverage {
		if c.StationID == stationID {
			total += c.Quantity
		}
	}
	return total
}

// Result is the exploded netting tree for a single demand. Tag is the
// overall classification; the root node carries the same tag.
type Result struct {
	Root *Node
	Tag  Tag
}

// Plan is the combined outcome of netting several demands against one
// snapshot. Demands are netted sequentially: stock allocated to an earlier
// demand is not available to later ones.
type Plan struct {
	Results []*Result
	Tag     Tag
}

// Line is a distinct item quantity extracted from a plan, the unit of
// downstream order generation.
type Line struct {
	ItemID   string
	Kind     catalog.ItemKind
	Quantity int64
}

// lineMerger accumulates lines, summing quantities per item while keeping
// first-seen order.
type lineMerger struct {
	lines []Line
	index map[string]int
}

func (m *lineMerger) add(itemID string, kind catalog.ItemKind, qty int64) {
	if qty <= 0 {
		return
	}
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[itemID]; ok {
		m.lines[i].Quantity += qty
		return
	}
	m.index[itemID] = len(m.lines)
	m.lines = append(m.lines, Line{ItemID: itemID, Kind: kind, Quantity: qty})
}

// ShortfallLines returns the distinct item shortfalls one level below the
// plan's roots: the immediate child nodes with net > 0, or the root itself
// when it is a procurable leaf. Deeper shortfalls are resolved by the
// downstream orders themselves, one level at a time.
func (p *Plan) ShortfallLines() []Line {
	var m lineMerger
	for _, r := range p.Results {
		root := r.Root
		if len(root.Children) == 0 {
			m.add(root.ItemID, root.Kind, root.Net)
			continue
		}
		for _, c := range root.Children {
			m.add(c.ItemID, c.Kind, c.Net)
		}
	}
	return m.lines
}

// RootShortfalls returns the plan's root-level nets. For input plans
// (production flows net their BOM inputs as roots) this is the set of
// inputs that must be ordered before work can start.
func (p *Plan) RootShortfalls() []Line {
	var m lineMerger
	for _, r := range p.Results {
		m.add(r.Root.ItemID, r.Root.Kind, r.Root.Net)
	}
	return m.lines
}

// TransferLines returns the covered immediate child lines whose coverage
// was drawn away from the target station - the module quantities a
// warehouse order can formally move before fulfillment.
func (p *Plan) TransferLines(targetStationID string) []Line {
	var m lineMerger
	for _, r := range p.Results {
		for _, c := range r.Root.Children {
			if c.Net != 0 {
				continue
			}
			m.add(c.ItemID, c.Kind, c.Covered-c.CoveredAt(targetStationID))
		}
	}
	return m.lines
}

// InputsCovered reports whether every root requirement was covered in full
// from stock. Production flows gate `start` on this.
func (p *Plan) InputsCovered() bool {
	for _, r := range p.Results {
		if r.Root.Net > 0 {
			return false
		}
	}
	return true
}
