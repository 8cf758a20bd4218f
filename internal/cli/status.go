package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/brickline/internal/db"
	"github.com/example/brickline/internal/ports/primary"
	"github.com/example/brickline/internal/wire"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show a factory overview",
	Long:  "Stations with what they hold, plus every order still in flight",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext()

		if path, err := db.GetDBPath(); err == nil {
			fmt.Printf("Database: %s\n", path)
		}

		stations, err := wire.CatalogService().ListStations(ctx)
		if err != nil {
			return fmt.Errorf("failed to list stations: %w", err)
		}
		if len(stations) == 0 {
			fmt.Println("No assembly chain yet - run 'brickline init' first")
			return nil
		}

		stock, err := wire.StockService().ListStock(ctx, primary.StockListFilters{})
		if err != nil {
			return fmt.Errorf("failed to list stock: %w", err)
		}
		byStation := make(map[string][]*primary.StockLine)
		for _, line := range stock {
			byStation[line.StationName] = append(byStation[line.StationName], line)
		}

		fmt.Println("\nAssembly chain:")
		for _, ws := range stations {
			fmt.Printf("  %d. %s\n", ws.Position, ws.Name)
			for _, line := range byStation[ws.Name] {
				fmt.Printf("       %5d x %s  %s\n", line.Quantity, line.ItemID, line.ItemName)
			}
		}

		orders, err := wire.OrderService().ListOrders(ctx, primary.OrderListFilters{OpenOnly: true})
		if err != nil {
			return fmt.Errorf("failed to list orders: %w", err)
		}

		fmt.Println()
		if len(orders) == 0 {
			fmt.Println("No open orders")
			fmt.Println()
			return nil
		}

		fmt.Printf("Open orders (%d):\n", len(orders))
		for _, o := range orders {
			desc := ""
			if len(o.Lines) > 0 {
				desc = fmt.Sprintf("%dx %s", o.Lines[0].Quantity, o.Lines[0].ItemID)
				if len(o.Lines) > 1 {
					desc += fmt.Sprintf(" (+%d more)", len(o.Lines)-1)
				}
			}
			// Colored badge goes last so ANSI codes never skew the columns.
			fmt.Printf("  %-8s %-14s %-18s %-16s %s\n", o.Number, o.Kind, o.StationName, desc, colorizeOrderStatus(o.Status))
		}
		fmt.Println()

		return nil
	},
}

// colorizeOrderStatus formats an order status badge with semantic color
func colorizeOrderStatus(status string) string {
	switch status {
	case "pending":
		return color.New(color.FgHiBlack).Sprint("[pending]")
	case "confirmed":
		return color.New(color.FgHiCyan).Sprint("[confirmed]")
	case "awaiting_downstream":
		return color.New(color.FgYellow).Sprint("[awaiting]")
	case "in_progress":
		return color.New(color.FgHiBlue).Sprint("[in_progress]")
	case "halted":
		return color.New(color.FgRed).Sprint("[halted]")
	case "completed":
		return color.New(color.FgHiGreen).Sprint("[completed]")
	default:
		return fmt.Sprintf("[%s]", status)
	}
}

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	return statusCmd
}
