package order

import "testing"

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		kind       OrderKind
		currentMax int
		want       string
	}{
		{KindCustomer, 0, "CO-001"},
		{KindCustomer, 41, "CO-042"},
		{KindFinalAssembly, 0, "FO-001"},
		{KindWarehouse, 7, "WO-008"},
		{KindAssemblyControl, 0, "AO-001"},
		{KindProduction, 99, "PO-100"},
		{KindSupply, 999, "SO-1000"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.kind, tt.currentMax); got != tt.want {
			t.Errorf("FormatNumber(%s, %d) = %q, want %q", tt.kind, tt.currentMax, got, tt.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		kind   OrderKind
		number string
		want   int
	}{
		{KindCustomer, "CO-001", 1},
		{KindCustomer, "CO-042", 42},
		{KindProduction, "PO-100", 100},
		{KindCustomer, "PO-001", -1},
		{KindCustomer, "garbage", -1},
		{KindCustomer, "", -1},
	}

	for _, tt := range tests {
		if got := ParseNumber(tt.kind, tt.number); got != tt.want {
			t.Errorf("ParseNumber(%s, %q) = %d, want %d", tt.kind, tt.number, got, tt.want)
		}
	}
}
