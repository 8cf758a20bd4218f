package catalog

// Station names for the fixed six-station assembly chain, ordered from the
// customer-facing end to the supply edge. Stations are persisted rows; these
// names are the bootstrap set and the vocabulary the routing rules speak.
const (
	StationFinishedGoods   = "finished_goods"
	StationFinalAssembly   = "final_assembly"
	StationModuleWarehouse = "module_warehouse"
	StationAssemblyControl = "assembly_control"
	StationProductionCell  = "production_cell"
	StationPartsSupply     = "parts_supply"
)

// ChainStations returns the station names in chain order. The position of a
// station in this slice is its persisted position.
func ChainStations() []string {
	return []string{
		StationFinishedGoods,
		StationFinalAssembly,
		StationModuleWarehouse,
		StationAssemblyControl,
		StationProductionCell,
		StationPartsSupply,
	}
}

// HoldingStationName returns the station that canonically holds stock of
// the given kind: products at finished goods, modules at the module
// warehouse, parts at parts supply.
func HoldingStationName(kind ItemKind) string {
	switch kind {
	case KindProduct:
		return StationFinishedGoods
	case KindModule:
		return StationModuleWarehouse
	case KindPart:
		return StationPartsSupply
	}
	return ""
}
