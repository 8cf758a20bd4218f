package netting

import "github.com/example/brickline/internal/core/catalog"

// Demand is a quantity of an item required at a target station.
type Demand struct {
	ItemID    string
	Quantity  int64
	StationID string
}

// Item is the catalog view the engine needs for one item.
type Item struct {
	ID         string
	Name       string
	Kind       catalog.ItemKind
	Procurable bool
}

// BOMLine is one child requirement of a parent item.
type BOMLine struct {
	ChildID string
	QtyPer  int64
}

// Snapshot is the pre-fetched world state the engine computes over. All
// lookups are in-memory; the engine itself performs no I/O.
type Snapshot struct {
	// Items by item id.
	Items map[string]Item
	// BOM children by parent item id.
	BOM map[string][]BOMLine
	// OnHand quantity by station id, then item id.
	OnHand map[string]map[string]int64
	// Holding maps each item kind to the station that canonically holds it.
	Holding map[catalog.ItemKind]string
}

func (s Snapshot) onHand(stationID, itemID string) int64 {
	line, ok := s.OnHand[stationID]
	if !ok {
		return 0
	}
	return line[itemID]
}

func (s Snapshot) take(stationID, itemID string, qty int64) {
	s.OnHand[stationID][itemID] -= qty
}

// clone copies the mutable stock view so allocation can consume it without
// touching the caller's snapshot. Catalog maps are read-only and shared.
func (s Snapshot) clone() Snapshot {
	onHand := make(map[string]map[string]int64, len(s.OnHand))
	for station, lines := range s.OnHand {
		copied := make(map[string]int64, len(lines))
		for item, qty := range lines {
			copied[item] = qty
		}
		onHand[station] = copied
	}
	return Snapshot{
		Items:   s.Items,
		BOM:     s.BOM,
		OnHand:  onHand,
		Holding: s.Holding,
	}
}
