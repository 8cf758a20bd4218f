package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/example/brickline/internal/ports/primary"
	"github.com/example/brickline/internal/wire"
)

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Manage station stock",
	Long:  "Receive, adjust, and inspect on-hand stock at chain stations",
}

var stockReceiveCmd = &cobra.Command{
	Use:   "receive [item-id] [qty]",
	Short: "Book goods into a station",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}

		station, _ := cmd.Flags().GetString("station")
		if station == "" {
			station = defaultStation()
		}
		if station == "" {
			return fmt.Errorf("--station flag is required (or set a default with 'brickline init --station')")
		}
		note, _ := cmd.Flags().GetString("note")

		return wire.StockAdapter().Receive(commandContext(), primary.ReceiveRequest{
			StationName: station,
			ItemID:      args[0],
			Quantity:    qty,
			Note:        note,
		})
	},
}

var stockAdjustCmd = &cobra.Command{
	Use:   "adjust [item-id] [delta]",
	Short: "Correct a stock line by a signed delta",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid delta %q", args[1])
		}

		station, _ := cmd.Flags().GetString("station")
		if station == "" {
			station = defaultStation()
		}
		if station == "" {
			return fmt.Errorf("--station flag is required (or set a default with 'brickline init --station')")
		}
		note, _ := cmd.Flags().GetString("note")

		return wire.StockAdapter().Adjust(commandContext(), primary.AdjustRequest{
			StationName: station,
			ItemID:      args[0],
			Delta:       delta,
			Note:        note,
		})
	},
}

var stockListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stock lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		station, _ := cmd.Flags().GetString("station")
		item, _ := cmd.Flags().GetString("item")
		kind, _ := cmd.Flags().GetString("kind")

		return wire.StockAdapter().List(commandContext(), primary.StockListFilters{
			StationName: station,
			ItemID:      item,
			ItemKind:    kind,
		})
	},
}

func init() {
	stockReceiveCmd.Flags().StringP("station", "s", "", "Station receiving the goods")
	stockReceiveCmd.Flags().String("note", "", "Free-form note for the ledger entry")

	stockAdjustCmd.Flags().StringP("station", "s", "", "Station holding the stock")
	stockAdjustCmd.Flags().String("note", "", "Free-form note for the ledger entry")
	// Stop flag parsing at the first positional so negative deltas
	// like -4 are not read as flags.
	stockAdjustCmd.Flags().SetInterspersed(false)

	stockListCmd.Flags().StringP("station", "s", "", "Filter by station")
	stockListCmd.Flags().String("item", "", "Filter by item ID")
	stockListCmd.Flags().StringP("kind", "k", "", "Filter by item kind")

	stockCmd.AddCommand(stockReceiveCmd)
	stockCmd.AddCommand(stockAdjustCmd)
	stockCmd.AddCommand(stockListCmd)
}

// StockCmd returns the stock command
func StockCmd() *cobra.Command {
	return stockCmd
}
